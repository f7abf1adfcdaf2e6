package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"urban-bites/internal/domain/models"
	"urban-bites/internal/fallback"
	"urban-bites/internal/localstore"
	"urban-bites/internal/syncbus"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"
)

var testTime = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// mirrorStub stands in for the remote system of record. reachable controls
// whether reads answer at all; failWrites makes every write fail.
type mirrorStub struct {
	mu         sync.Mutex
	reachable  bool
	failWrites bool

	orders  map[string]models.Order
	items   []models.OrderItem
	updates []models.OrderStatus
	tables  map[string]models.Table
	menu    models.Menu
}

func newMirrorStub() *mirrorStub {
	return &mirrorStub{
		orders: make(map[string]models.Order),
		tables: make(map[string]models.Table),
	}
}

func (m *mirrorStub) InsertOrder(ctx context.Context, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return xerrors.ErrRemoteWriteFailed
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mirrorStub) InsertItems(ctx context.Context, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return xerrors.ErrRemoteWriteFailed
	}
	m.items = append(m.items, items...)
	return nil
}

func (m *mirrorStub) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, updatedAt time.Time, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return xerrors.ErrRemoteWriteFailed
	}
	m.updates = append(m.updates, status)
	return nil
}

func (m *mirrorStub) FetchRestaurant(ctx context.Context) (models.Restaurant, error) {
	if !m.reachable {
		return models.Restaurant{}, xerrors.ErrRemoteUnavailable
	}
	return models.Restaurant{ID: "remote", Name: "Remote Bites"}, nil
}

func (m *mirrorStub) FetchMenu(ctx context.Context) (models.Menu, error) {
	if !m.reachable {
		return models.Menu{}, xerrors.ErrRemoteUnavailable
	}
	return m.menu, nil
}

func (m *mirrorStub) FetchTableByToken(ctx context.Context, token string) (models.Table, error) {
	if !m.reachable {
		return models.Table{}, xerrors.ErrRemoteUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[token]
	if !ok {
		return models.Table{}, xerrors.ErrTableNotFound
	}
	return table, nil
}

func (m *mirrorStub) Close() error { return nil }

func newTestGateway(t *testing.T, remote IRemoteMirror) *Gateway {
	t.Helper()
	store := localstore.Open(t.TempDir(), logger.Discard())
	bus := syncbus.New(logger.Discard())
	return New(store, remote, bus, 0, logger.Discard()).
		WithClock(func() time.Time { return testTime })
}

func demoCart() []models.CartItem {
	items := fallback.Items()
	byID := make(map[string]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return []models.CartItem{
		{MenuItem: byID["item-3"], Quantity: 2},  // Classic Burger 12.50
		{MenuItem: byID["item-15"], Quantity: 1}, // Craft Cola 4.00
	}
}

func TestNewOrder(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	table := fallback.Tables()[0]
	order, items, err := g.NewOrder(ctx, table, demoCart(), "", "extra napkins")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}

	if order.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.CompletedAt != nil {
		t.Error("new order should have no completion time")
	}
	if order.OrderNumber != 1 {
		t.Errorf("order number = %d, want 1", order.OrderNumber)
	}
	if order.CustomerName != "Guest" {
		t.Errorf("blank customer name should default to Guest, got %q", order.CustomerName)
	}
	if order.Subtotal != 29.00 || order.Tax != 5.80 || order.Total != 34.80 {
		t.Errorf("pricing = %v/%v/%v, want 29.00/5.80/34.80", order.Subtotal, order.Tax, order.Total)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// Name and price are captured at order time.
	if items[0].MenuItemName != "Classic Burger" || items[0].UnitPrice != 12.50 {
		t.Errorf("captured line = %+v", items[0])
	}
	for _, it := range items {
		if it.OrderID != order.ID {
			t.Errorf("item %s points at order %s", it.ID, it.OrderID)
		}
	}
}

func TestNewOrderEmptyCart(t *testing.T) {
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	_, _, err := g.NewOrder(context.Background(), fallback.Tables()[0], nil, "Ana", "")
	if !errors.Is(err, xerrors.ErrFieldIsEmpty) {
		t.Errorf("error = %v, want ErrFieldIsEmpty", err)
	}
}

func TestOrderNumberResetsPerDay(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	table := fallback.Tables()[0]
	first, items, err := g.NewOrder(ctx, table, demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, first, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	second, _, err := g.NewOrder(ctx, table, demoCart(), "Ben", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if second.OrderNumber != 2 {
		t.Errorf("same-day order number = %d, want 2", second.OrderNumber)
	}

	g.WithClock(func() time.Time { return testTime.Add(24 * time.Hour) })
	tomorrow, _, err := g.NewOrder(ctx, table, demoCart(), "Cal", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if tomorrow.OrderNumber != 1 {
		t.Errorf("next-day order number = %d, want 1", tomorrow.OrderNumber)
	}
}

func TestCreateOrderWritesLocallyAndAnnounces(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	messages, unsubscribe := g.Subscribe(4)
	defer unsubscribe()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	stored, err := g.Order(ctx, order.ID)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if stored.Status != models.StatusPending {
		t.Errorf("stored status = %s, want pending", stored.Status)
	}

	storedItems, err := g.OrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("OrderItems: %v", err)
	}
	if len(storedItems) != 2 {
		t.Errorf("stored %d items, want 2", len(storedItems))
	}

	select {
	case msg := <-messages:
		if msg.Type != models.SyncNewOrder || msg.Order.ID != order.ID {
			t.Errorf("announcement = %+v", msg)
		}
	default:
		t.Error("no announcement published")
	}
}

func TestCreateOrderMirrorsInBackground(t *testing.T) {
	ctx := context.Background()
	remote := newMirrorStub()
	g := newTestGateway(t, remote)
	defer g.Close()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	g.WaitMirror()

	remote.mu.Lock()
	_, mirrored := remote.orders[order.ID]
	itemCount := len(remote.items)
	remote.mu.Unlock()
	if !mirrored {
		t.Error("order was not mirrored")
	}
	if itemCount != 2 {
		t.Errorf("mirrored %d items, want 2", itemCount)
	}

	stats := g.MirrorStats()
	if stats.Attempted != 1 || stats.Succeeded != 1 || stats.Failed != 0 || stats.Queued != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCreateOrderSucceedsWhenMirrorFails(t *testing.T) {
	ctx := context.Background()
	remote := newMirrorStub()
	remote.failWrites = true

	store := localstore.Open(t.TempDir(), logger.Discard())
	g := New(store, remote, syncbus.New(logger.Discard()), 0, logger.Discard()).
		WithClock(func() time.Time { return testTime })
	defer g.Close()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder must not fail on mirror errors: %v", err)
	}
	g.WaitMirror()

	stats := g.MirrorStats()
	if stats.Failed != 1 || stats.Queued != 2 {
		t.Errorf("stats = %+v, want 1 failed and 2 queued", stats)
	}

	pending, err := store.PendingSync(ctx)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("outbox has %d records, want 2 (order + items)", len(pending))
	}
}

// enqueueFailStore fails enqueues for one record type, so a partial outbox
// write can be provoked.
type enqueueFailStore struct {
	*localstore.Store
	failType string
}

func (s *enqueueFailStore) EnqueueSync(ctx context.Context, rec models.SyncRecord) error {
	if rec.Type == s.failType {
		return xerrors.ErrPersistenceFailed
	}
	return s.Store.EnqueueSync(ctx, rec)
}

func TestEnqueueCreateKeepsItemsWhenOrderRecordFails(t *testing.T) {
	ctx := context.Background()
	remote := newMirrorStub()
	remote.failWrites = true

	inner := localstore.Open(t.TempDir(), logger.Discard())
	store := &enqueueFailStore{Store: inner, failType: models.SyncRecordOrder}
	g := New(store, remote, syncbus.New(logger.Discard()), 0, logger.Discard()).
		WithClock(func() time.Time { return testTime })
	defer g.Close()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	g.WaitMirror()

	// The order record could not be queued, but the items record must still
	// make it into the outbox.
	pending, err := inner.PendingSync(ctx)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	if len(pending) != 1 || pending[0].Type != models.SyncRecordOrderItem {
		t.Fatalf("pending = %+v, want just the items record", pending)
	}
	if stats := g.MirrorStats(); stats.Queued != 1 {
		t.Errorf("queued = %d, want 1", stats.Queued)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	for _, status := range []models.OrderStatus{models.StatusPreparing, models.StatusReady} {
		updated, err := g.UpdateOrderStatus(ctx, order.ID, status)
		if err != nil {
			t.Fatalf("UpdateOrderStatus(%s): %v", status, err)
		}
		if updated.CompletedAt != nil {
			t.Errorf("%s should not set a completion time", status)
		}
	}

	delivered, err := g.UpdateOrderStatus(ctx, order.ID, models.StatusDelivered)
	if err != nil {
		t.Fatalf("UpdateOrderStatus(delivered): %v", err)
	}
	if delivered.CompletedAt == nil {
		t.Fatal("delivered order should have a completion time")
	}
	completedAt := *delivered.CompletedAt

	// Settling the bill is the one edge out of a terminal state, and it
	// keeps the original completion time.
	paid, err := g.UpdateOrderStatus(ctx, order.ID, models.StatusPaid)
	if err != nil {
		t.Fatalf("UpdateOrderStatus(paid): %v", err)
	}
	if paid.CompletedAt == nil || !paid.CompletedAt.Equal(completedAt) {
		t.Errorf("completion time changed: %v, want %v", paid.CompletedAt, completedAt)
	}
}

func TestUpdateOrderStatusIdempotent(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	g.WaitMirror()
	before := g.MirrorStats()

	messages, unsubscribe := g.Subscribe(4)
	defer unsubscribe()

	same, err := g.UpdateOrderStatus(ctx, order.ID, models.StatusPending)
	if err != nil {
		t.Fatalf("re-applying the current status must be a no-op: %v", err)
	}
	if same.UpdatedAt != order.UpdatedAt {
		t.Error("no-op update must not touch the record")
	}
	g.WaitMirror()

	if after := g.MirrorStats(); after != before {
		t.Errorf("no-op update hit the mirror: before %+v, after %+v", before, after)
	}
	select {
	case msg := <-messages:
		t.Errorf("no-op update published %+v", msg)
	default:
	}
}

func TestUpdateOrderStatusRejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	order, items, err := g.NewOrder(ctx, fallback.Tables()[0], demoCart(), "Ana", "")
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := g.CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// pending cannot jump the pipeline.
	if _, err := g.UpdateOrderStatus(ctx, order.ID, models.StatusDelivered); !errors.Is(err, xerrors.ErrInvalidTransition) {
		t.Errorf("pending -> delivered error = %v, want ErrInvalidTransition", err)
	}

	if _, err := g.UpdateOrderStatus(ctx, order.ID, models.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := g.UpdateOrderStatus(ctx, order.ID, models.StatusPreparing); !errors.Is(err, xerrors.ErrInvalidTransition) {
		t.Errorf("cancelled -> preparing error = %v, want ErrInvalidTransition", err)
	}

	if _, err := g.UpdateOrderStatus(ctx, "missing", models.StatusPreparing); !errors.Is(err, xerrors.ErrOrderNotFound) {
		t.Errorf("unknown order error = %v, want ErrOrderNotFound", err)
	}
}

func TestResolveTableLocalOnly(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub()) // unreachable remote
	defer g.Close()

	table, err := g.ResolveTable(ctx, "token-3")
	if err != nil {
		t.Fatalf("ResolveTable: %v", err)
	}
	if table.ID != "table-3" {
		t.Errorf("resolved %s, want table-3", table.ID)
	}

	// Unknown tokens fall through to the first demo table.
	table, err = g.ResolveTable(ctx, "garbage")
	if err != nil {
		t.Fatalf("ResolveTable: %v", err)
	}
	if table.ID != fallback.Tables()[0].ID {
		t.Errorf("resolved %s, want the first demo table", table.ID)
	}

	if _, err := g.ResolveTable(ctx, ""); !errors.Is(err, xerrors.ErrFieldIsEmpty) {
		t.Errorf("empty token error = %v, want ErrFieldIsEmpty", err)
	}
}

func TestResolveTableWithReachableRemote(t *testing.T) {
	ctx := context.Background()
	remote := newMirrorStub()
	remote.reachable = true
	remote.tables["vip-token"] = models.Table{ID: "table-vip", QRToken: "vip-token"}
	g := newTestGateway(t, remote)
	defer g.Close()

	table, err := g.ResolveTable(ctx, "vip-token")
	if err != nil {
		t.Fatalf("ResolveTable: %v", err)
	}
	if table.ID != "table-vip" {
		t.Errorf("resolved %s, want table-vip", table.ID)
	}

	// A reachable remote is authoritative: unknown tokens are rejected,
	// never served from the demo set.
	if _, err := g.ResolveTable(ctx, "token-3"); !errors.Is(err, xerrors.ErrTableNotFound) {
		t.Errorf("error = %v, want ErrTableNotFound", err)
	}
}

func TestFetchMenuFallsBack(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, newMirrorStub())
	defer g.Close()

	menu := g.FetchMenu(ctx)
	if len(menu.Categories) == 0 || len(menu.Items) == 0 {
		t.Fatal("fallback menu is empty")
	}
	restaurant := g.FetchRestaurant(ctx)
	if restaurant.Name != "Urban Bites" {
		t.Errorf("fallback restaurant = %q", restaurant.Name)
	}
}

func TestFetchMenuPrefersRemote(t *testing.T) {
	ctx := context.Background()
	remote := newMirrorStub()
	remote.reachable = true
	remote.menu = models.Menu{Items: []models.MenuItem{{ID: "remote-1", Name: "Daily Special"}}}
	g := newTestGateway(t, remote)
	defer g.Close()

	menu := g.FetchMenu(ctx)
	if len(menu.Items) != 1 || menu.Items[0].ID != "remote-1" {
		t.Errorf("menu = %+v, want the remote one", menu)
	}
	restaurant := g.FetchRestaurant(ctx)
	if restaurant.Name != "Remote Bites" {
		t.Errorf("restaurant = %q, want Remote Bites", restaurant.Name)
	}
}
