package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"urban-bites/internal/domain/models"
	"urban-bites/internal/localstore"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"
)

var testTime = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type mirrorFake struct {
	mu      sync.Mutex
	failing bool
	orders  []models.Order
	items   []models.OrderItem
	updates []models.OrderStatus
}

func (m *mirrorFake) InsertOrder(ctx context.Context, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return xerrors.ErrRemoteWriteFailed
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *mirrorFake) InsertItems(ctx context.Context, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return xerrors.ErrRemoteWriteFailed
	}
	m.items = append(m.items, items...)
	return nil
}

func (m *mirrorFake) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, updatedAt time.Time, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return xerrors.ErrRemoteWriteFailed
	}
	m.updates = append(m.updates, status)
	return nil
}

func (m *mirrorFake) setFailing(failing bool) {
	m.mu.Lock()
	m.failing = failing
	m.mu.Unlock()
}

func queuedOrderCreate(t *testing.T, store *localstore.Store, id string, at time.Time) models.Order {
	t.Helper()
	order := models.Order{ID: id, Status: models.StatusPending, Total: 34.80, CreatedAt: at, UpdatedAt: at}
	data, err := json.Marshal(order)
	if err != nil {
		t.Fatal(err)
	}
	rec := models.SyncRecord{ID: "rec-" + id, Type: models.SyncRecordOrder, Action: models.SyncActionCreate, Data: data, CreatedAt: at}
	if err := store.EnqueueSync(context.Background(), rec); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}
	return order
}

func TestFlushDrainsQueue(t *testing.T) {
	ctx := context.Background()
	store := localstore.Open(t.TempDir(), logger.Discard())
	defer store.Close()
	remote := &mirrorFake{}

	queuedOrderCreate(t, store, "order-1", testTime)

	items := []models.OrderItem{{ID: "item-a", OrderID: "order-1", Quantity: 2}}
	itemData, _ := json.Marshal(items)
	itemRec := models.SyncRecord{ID: "rec-items", Type: models.SyncRecordOrderItem, Action: models.SyncActionCreate, Data: itemData, CreatedAt: testTime.Add(time.Second)}
	if err := store.EnqueueSync(ctx, itemRec); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}

	updated := models.Order{ID: "order-1", Status: models.StatusPreparing, UpdatedAt: testTime.Add(time.Minute)}
	updateData, _ := json.Marshal(updated)
	updateRec := models.SyncRecord{ID: "rec-update", Type: models.SyncRecordOrder, Action: models.SyncActionUpdate, Data: updateData, CreatedAt: testTime.Add(2 * time.Second)}
	if err := store.EnqueueSync(ctx, updateRec); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}

	f := New(store, remote, time.Minute, logger.Discard())
	if err := f.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(remote.orders) != 1 || remote.orders[0].ID != "order-1" {
		t.Errorf("mirrored orders = %+v", remote.orders)
	}
	if len(remote.items) != 1 || remote.items[0].ID != "item-a" {
		t.Errorf("mirrored items = %+v", remote.items)
	}
	if len(remote.updates) != 1 || remote.updates[0] != models.StatusPreparing {
		t.Errorf("mirrored updates = %+v", remote.updates)
	}

	pending, err := store.PendingSync(ctx)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("queue not drained: %+v", pending)
	}
}

func TestFlushKeepsFailingRecords(t *testing.T) {
	ctx := context.Background()
	store := localstore.Open(t.TempDir(), logger.Discard())
	defer store.Close()
	remote := &mirrorFake{failing: true}

	queuedOrderCreate(t, store, "order-1", testTime)

	f := New(store, remote, time.Minute, logger.Discard())
	if err := f.Flush(ctx); err == nil {
		t.Fatal("Flush should report the failed replay")
	}

	pending, err := store.PendingSync(ctx)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	if len(pending) != 1 || pending[0].RetryCount != 1 {
		t.Fatalf("pending = %+v, want one record with retry count 1", pending)
	}

	// Once the remote recovers the record drains on the next pass.
	remote.setFailing(false)
	if err := f.Flush(ctx); err != nil {
		t.Fatalf("Flush after recovery: %v", err)
	}
	pending, err = store.PendingSync(ctx)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("queue not drained after recovery: %+v", pending)
	}
	if len(remote.orders) != 1 {
		t.Errorf("mirrored orders = %+v", remote.orders)
	}
}

func TestFlushDropsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	store := localstore.Open(t.TempDir(), logger.Discard())
	defer store.Close()
	remote := &mirrorFake{failing: true}

	queuedOrderCreate(t, store, "order-1", testTime)
	f := New(store, remote, time.Minute, logger.Discard())

	for i := 0; i < maxRetries; i++ {
		if err := f.Flush(ctx); err == nil {
			t.Fatalf("Flush %d should fail while the remote is down", i+1)
		}
	}

	pending, err := store.PendingSync(ctx)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("record should be dropped after %d retries, still pending: %+v", maxRetries, pending)
	}
}

func TestFlushRejectsUnknownRecordType(t *testing.T) {
	ctx := context.Background()
	store := localstore.Open(t.TempDir(), logger.Discard())
	defer store.Close()
	remote := &mirrorFake{}

	rec := models.SyncRecord{ID: "rec-bad", Type: "table", Action: "delete", Data: []byte(`{}`), CreatedAt: testTime}
	if err := store.EnqueueSync(ctx, rec); err != nil {
		t.Fatalf("EnqueueSync: %v", err)
	}

	f := New(store, remote, time.Minute, logger.Discard())
	if err := f.Flush(ctx); err == nil {
		t.Fatal("Flush should report the unknown record type")
	}
	if len(remote.orders)+len(remote.items)+len(remote.updates) != 0 {
		t.Error("unknown record must not reach the remote")
	}
}

func TestStartFlushesOnInterval(t *testing.T) {
	ctx := context.Background()
	store := localstore.Open(t.TempDir(), logger.Discard())
	defer store.Close()
	remote := &mirrorFake{}

	queuedOrderCreate(t, store, "order-1", testTime)

	f := New(store, remote, 10*time.Millisecond, logger.Discard())
	f.Start(ctx)
	defer f.Stop()

	deadline := time.After(2 * time.Second)
	for {
		pending, err := store.PendingSync(ctx)
		if err != nil {
			t.Fatalf("PendingSync: %v", err)
		}
		if len(pending) == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("queue never drained: %+v", pending)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
