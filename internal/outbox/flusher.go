// Package outbox retries remote writes that failed at the gateway. Queued
// records drain on an interval; a record that keeps failing is dropped after
// maxRetries so a dead remote cannot grow the queue forever.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"urban-bites/internal/domain/models"
	"urban-bites/internal/xpkg/logger"

	"github.com/hashicorp/go-multierror"
)

const maxRetries = 10

type IStore interface {
	PendingSync(ctx context.Context) ([]models.SyncRecord, error)
	DeleteSync(ctx context.Context, id string) error
	BumpSyncRetry(ctx context.Context, id string) (int, error)
}

type IMirror interface {
	InsertOrder(ctx context.Context, order models.Order) error
	InsertItems(ctx context.Context, items []models.OrderItem) error
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, updatedAt time.Time, completedAt *time.Time) error
}

type Flusher struct {
	store    IStore
	remote   IMirror
	interval time.Duration
	mylog    logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(store IStore, remote IMirror, interval time.Duration, mylog logger.Logger) *Flusher {
	return &Flusher{
		store:    store,
		remote:   remote,
		interval: interval,
		mylog:    mylog.With("component", "outbox"),
	}
}

// Start runs the drain loop until ctx ends or Stop is called.
func (f *Flusher) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := f.Flush(ctx); err != nil {
					f.mylog.Action("outbox_flush_failed").Error("Some queued writes still failing", err)
				}
			}
		}
	}()
}

func (f *Flusher) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
}

// Flush replays every pending record once, oldest first.
func (f *Flusher) Flush(ctx context.Context) error {
	pending, err := f.store.PendingSync(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, rec := range pending {
		if err := f.apply(ctx, rec); err != nil {
			result = multierror.Append(result, fmt.Errorf("record %s: %w", rec.ID, err))
			retries, bumpErr := f.store.BumpSyncRetry(ctx, rec.ID)
			if bumpErr != nil {
				result = multierror.Append(result, bumpErr)
				continue
			}
			if retries >= maxRetries {
				f.mylog.Action("outbox_record_dropped").With("record_id", rec.ID, "retries", retries).
					Error("Dropping queued write after repeated failures", err)
				if delErr := f.store.DeleteSync(ctx, rec.ID); delErr != nil {
					result = multierror.Append(result, delErr)
				}
			}
			continue
		}
		if err := f.store.DeleteSync(ctx, rec.ID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (f *Flusher) apply(ctx context.Context, rec models.SyncRecord) error {
	switch {
	case rec.Type == models.SyncRecordOrder && rec.Action == models.SyncActionCreate:
		var order models.Order
		if err := json.Unmarshal(rec.Data, &order); err != nil {
			return fmt.Errorf("corrupt order record: %v", err)
		}
		return f.remote.InsertOrder(ctx, order)

	case rec.Type == models.SyncRecordOrder && rec.Action == models.SyncActionUpdate:
		var order models.Order
		if err := json.Unmarshal(rec.Data, &order); err != nil {
			return fmt.Errorf("corrupt order record: %v", err)
		}
		return f.remote.UpdateOrderStatus(ctx, order.ID, order.Status, order.UpdatedAt, order.CompletedAt)

	case rec.Type == models.SyncRecordOrderItem:
		var items []models.OrderItem
		if err := json.Unmarshal(rec.Data, &items); err != nil {
			return fmt.Errorf("corrupt item record: %v", err)
		}
		return f.remote.InsertItems(ctx, items)

	default:
		return fmt.Errorf("unknown record type %q/%q", rec.Type, rec.Action)
	}
}
