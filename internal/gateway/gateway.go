// Package gateway sequences every order write: durable local write first,
// then the cross-display notice, then a best-effort asynchronous mirror to
// the remote system of record. Local failures fail the call; mirror failures
// are absorbed here and parked in the outbox for retry.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"urban-bites/internal/domain/models"
	"urban-bites/internal/fallback"
	"urban-bites/internal/lifecycle"
	"urban-bites/internal/pricing"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const mirrorTimeout = 10 * time.Second

// MirrorStats distinguishes "applied locally" from "mirrored remotely" so
// callers and tests can assert on both instead of reading logs.
type MirrorStats struct {
	Attempted int64 `json:"attempted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Queued    int64 `json:"queued"`
}

type Gateway struct {
	store  ILocalStore
	remote IRemoteMirror
	bus    ISyncBus
	mylog  logger.Logger

	serviceChargePct float64
	now              func() time.Time

	wg        sync.WaitGroup
	attempted *atomic.Int64
	succeeded *atomic.Int64
	failed    *atomic.Int64
	queued    *atomic.Int64
}

func New(store ILocalStore, remote IRemoteMirror, bus ISyncBus, serviceChargePct float64, mylog logger.Logger) *Gateway {
	return &Gateway{
		store:            store,
		remote:           remote,
		bus:              bus,
		mylog:            mylog.With("component", "gateway"),
		serviceChargePct: serviceChargePct,
		now:              time.Now,
		attempted:        atomic.NewInt64(0),
		succeeded:        atomic.NewInt64(0),
		failed:           atomic.NewInt64(0),
		queued:           atomic.NewInt64(0),
	}
}

// WithClock substitutes the time source. Tests use it to pin created_at.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// NewOrder builds an Order and its OrderItems from a priced cart. Unit
// prices and names are captured now and never change with the catalog.
func (g *Gateway) NewOrder(ctx context.Context, table models.Table, cartItems []models.CartItem, customerName, instructions string) (models.Order, []models.OrderItem, error) {
	if len(cartItems) == 0 {
		return models.Order{}, nil, fmt.Errorf("%w: cart", xerrors.ErrFieldIsEmpty)
	}

	now := g.now()
	countToday, err := g.store.CountOrdersOnDay(ctx, now)
	if err != nil {
		return models.Order{}, nil, err
	}

	summary := pricing.Summary(cartItems, g.serviceChargePct)
	if customerName == "" {
		customerName = "Guest"
	}

	order := models.Order{
		ID:                  uuid.NewString(),
		TableID:             table.ID,
		OrderNumber:         countToday + 1,
		CustomerName:        customerName,
		Status:              models.StatusPending,
		Subtotal:            summary.Subtotal,
		Tax:                 summary.Tax,
		ServiceCharge:       summary.ServiceCharge,
		Total:               summary.Total,
		SpecialInstructions: instructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	items := make([]models.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		items = append(items, models.OrderItem{
			ID:                  uuid.NewString(),
			OrderID:             order.ID,
			MenuItemID:          ci.MenuItem.ID,
			MenuItemName:        ci.MenuItem.Name,
			Quantity:            ci.Quantity,
			UnitPrice:           ci.MenuItem.Price,
			SpecialInstructions: ci.SpecialInstructions,
			CreatedAt:           now,
		})
	}
	return order, items, nil
}

// CreateOrder writes order and items locally, announces NEW_ORDER, then
// mirrors in the background. It succeeds as soon as the local write is
// durable; the mirror outcome never changes the result.
func (g *Gateway) CreateOrder(ctx context.Context, order models.Order, items []models.OrderItem) error {
	mylog := g.mylog.Action("create_order").With("order_id", order.ID)

	if err := g.store.PutOrder(ctx, order); err != nil {
		mylog.Error("Local order write failed", err)
		return err
	}
	if err := g.store.PutItems(ctx, items); err != nil {
		mylog.Error("Local items write failed", err)
		return err
	}

	g.bus.Publish(models.SyncMessage{Type: models.SyncNewOrder, Order: order})

	g.wg.Add(1)
	go g.mirrorCreate(order, items)

	mylog.With("order_number", order.OrderNumber).Info("Order created")
	return nil
}

func (g *Gateway) mirrorCreate(order models.Order, items []models.OrderItem) {
	defer g.wg.Done()
	g.attempted.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return g.remote.InsertOrder(egCtx, order) })
	eg.Go(func() error { return g.remote.InsertItems(egCtx, items) })

	if err := eg.Wait(); err != nil {
		g.failed.Inc()
		g.mylog.Action("mirror_insert_failed").With("order_id", order.ID).Error("Remote insert failed, queued for retry", err)
		g.enqueueCreate(order, items)
		return
	}
	g.succeeded.Inc()
}

func (g *Gateway) enqueueCreate(order models.Order, items []models.OrderItem) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	orderData, _ := json.Marshal(order)
	itemsData, _ := json.Marshal(items)
	recs := []models.SyncRecord{
		{ID: uuid.NewString(), Type: models.SyncRecordOrder, Action: models.SyncActionCreate, Data: orderData, CreatedAt: g.now()},
		{ID: uuid.NewString(), Type: models.SyncRecordOrderItem, Action: models.SyncActionCreate, Data: itemsData, CreatedAt: g.now()},
	}
	// Attempt every record even when one fails, so the order and its items
	// are never split by a single bad enqueue.
	queued := int64(0)
	for _, rec := range recs {
		if err := g.store.EnqueueSync(ctx, rec); err != nil {
			g.mylog.Action("outbox_enqueue_failed").With("record_type", rec.Type).Error("Could not queue remote write for retry", err)
			continue
		}
		queued++
	}
	g.queued.Add(queued)
}

// UpdateOrderStatus applies a lifecycle transition read-modify-write.
// Re-applying the current status is an idempotent no-op: no write, no
// publish, no mirror.
func (g *Gateway) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error) {
	mylog := g.mylog.Action("update_order_status").With("order_id", orderID, "status", status)

	order, err := g.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if order.Status == status {
		return order, nil
	}
	if !lifecycle.CanTransition(order.Status, status) {
		return models.Order{}, fmt.Errorf("%w: %s -> %s", xerrors.ErrInvalidTransition, order.Status, status)
	}

	now := g.now()
	order.Status = status
	order.UpdatedAt = now
	if lifecycle.IsTerminal(status) && order.CompletedAt == nil {
		completed := now
		order.CompletedAt = &completed
	}

	if err := g.store.PutOrder(ctx, order); err != nil {
		mylog.Error("Local status write failed", err)
		return models.Order{}, err
	}

	g.bus.Publish(models.SyncMessage{Type: models.SyncOrderUpdated, Order: order})

	g.wg.Add(1)
	go g.mirrorStatus(order)

	mylog.Info("Order status updated")
	return order, nil
}

func (g *Gateway) mirrorStatus(order models.Order) {
	defer g.wg.Done()
	g.attempted.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if err := g.remote.UpdateOrderStatus(ctx, order.ID, order.Status, order.UpdatedAt, order.CompletedAt); err != nil {
		g.failed.Inc()
		g.mylog.Action("mirror_update_failed").With("order_id", order.ID).Error("Remote update failed, queued for retry", err)

		data, _ := json.Marshal(order)
		rec := models.SyncRecord{
			ID:        uuid.NewString(),
			Type:      models.SyncRecordOrder,
			Action:    models.SyncActionUpdate,
			Data:      data,
			CreatedAt: g.now(),
		}
		if err := g.store.EnqueueSync(ctx, rec); err != nil {
			g.mylog.Action("outbox_enqueue_failed").Error("Could not queue remote write for retry", err)
			return
		}
		g.queued.Inc()
		return
	}
	g.succeeded.Inc()
}

// ResolveTable looks a table up by its QR token. With a reachable remote an
// unknown token is rejected; in local-only mode (or while the remote errors)
// resolution falls back permissively to the demo tables. That fallback is a
// demo convenience, not a security boundary.
func (g *Gateway) ResolveTable(ctx context.Context, token string) (models.Table, error) {
	if token == "" {
		return models.Table{}, fmt.Errorf("%w: token", xerrors.ErrFieldIsEmpty)
	}

	table, err := g.remote.FetchTableByToken(ctx, token)
	if err == nil {
		return table, nil
	}
	if errors.Is(err, xerrors.ErrTableNotFound) {
		return models.Table{}, err
	}

	for _, t := range fallback.Tables() {
		if t.QRToken == token {
			return t, nil
		}
	}
	g.mylog.Action("table_fallback").With("token", token).Warn("Unrecognized token, serving first demo table")
	return fallback.Tables()[0], nil
}

// FetchMenu is remote-first with the demo menu as fallback.
func (g *Gateway) FetchMenu(ctx context.Context) models.Menu {
	menu, err := g.remote.FetchMenu(ctx)
	if err != nil {
		g.mylog.Action("menu_fallback").Debug("Serving demo menu")
		return fallback.Menu()
	}
	return menu
}

func (g *Gateway) FetchRestaurant(ctx context.Context) models.Restaurant {
	restaurant, err := g.remote.FetchRestaurant(ctx)
	if err != nil {
		return fallback.Restaurant()
	}
	return restaurant
}

// Reads for the displays go to the local store only.

func (g *Gateway) Order(ctx context.Context, id string) (models.Order, error) {
	return g.store.GetOrder(ctx, id)
}

func (g *Gateway) Orders(ctx context.Context) ([]models.Order, error) {
	return g.store.GetAllOrders(ctx)
}

func (g *Gateway) OrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return g.store.GetOrdersByStatus(ctx, status)
}

func (g *Gateway) OrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	return g.store.GetItemsByOrder(ctx, orderID)
}

func (g *Gateway) Subscribe(buffer int) (<-chan models.SyncMessage, func()) {
	return g.bus.Subscribe(buffer)
}

func (g *Gateway) MirrorStats() MirrorStats {
	return MirrorStats{
		Attempted: g.attempted.Load(),
		Succeeded: g.succeeded.Load(),
		Failed:    g.failed.Load(),
		Queued:    g.queued.Load(),
	}
}

// WaitMirror blocks until in-flight mirror goroutines drain. Tests and
// shutdown use it.
func (g *Gateway) WaitMirror() {
	g.wg.Wait()
}

// Close waits for in-flight mirror writes, then tears the stack down,
// collecting every close error.
func (g *Gateway) Close() error {
	g.wg.Wait()
	g.bus.Close()

	var result *multierror.Error
	if err := g.remote.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("mirror close: %w", err))
	}
	if err := g.store.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("store close: %w", err))
	}
	return result.ErrorOrNil()
}
