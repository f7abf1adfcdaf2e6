// Package engine drives one kitchen display: a poll ticker against the local
// store, a sync-bus subscription for low-latency refreshes, and a slower tick
// that re-derives elapsed times. Bus messages are only invalidation hints;
// the displayed list is always rebuilt from the store.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"urban-bites/internal/domain/models"
	"urban-bites/internal/lifecycle"
	xerrors "urban-bites/internal/xpkg/errors"
	"urban-bites/internal/xpkg/logger"
)

const elapsedInterval = time.Minute

type IGateway interface {
	Order(ctx context.Context, id string) (models.Order, error)
	Orders(ctx context.Context) ([]models.Order, error)
	OrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error)
	Subscribe(buffer int) (<-chan models.SyncMessage, func())
}

// Ticket is an order as the board shows it.
type Ticket struct {
	models.Order
	Elapsed string `json:"elapsed"`
}

type Snapshot struct {
	Pending     []Ticket  `json:"pending"`
	Preparing   []Ticket  `json:"preparing"`
	Ready       []Ticket  `json:"ready"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type Engine struct {
	gw           IGateway
	pollInterval time.Duration
	mylog        logger.Logger
	now          func() time.Time

	mu          sync.RWMutex
	orders      []models.Order
	refreshedAt time.Time
	elapsedNow  time.Time

	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

func New(gw IGateway, pollInterval time.Duration, mylog logger.Logger) *Engine {
	return &Engine{
		gw:           gw,
		pollInterval: pollInterval,
		mylog:        mylog.With("component", "board"),
		now:          time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Start does one synchronous refresh (a dead local store must surface
// immediately, not on the first tick) and then runs the loop until Stop.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Refresh(ctx); err != nil {
		return err
	}

	ctx, e.cancel = context.WithCancel(ctx)
	messages, unsubscribe := e.gw.Subscribe(16)
	e.unsubscribe = unsubscribe

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		poll := time.NewTicker(e.pollInterval)
		defer poll.Stop()
		elapsed := time.NewTicker(elapsedInterval)
		defer elapsed.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				if err := e.Refresh(ctx); err != nil {
					e.mylog.Action("board_refresh_failed").Error("Poll refresh failed", err)
				}
			case _, ok := <-messages:
				if !ok {
					return
				}
				// Hint only: re-read the store, never trust the payload.
				if err := e.Refresh(ctx); err != nil {
					e.mylog.Action("board_refresh_failed").Error("Sync refresh failed", err)
				}
			case <-elapsed.C:
				e.mu.Lock()
				e.elapsedNow = e.now()
				e.mu.Unlock()
			}
		}
	}()
	return nil
}

// Refresh rebuilds the full order list from the local store.
func (e *Engine) Refresh(ctx context.Context) error {
	orders, err := e.gw.Orders(ctx)
	if err != nil {
		return err
	}
	lifecycle.SortFIFO(orders)

	now := e.now()
	e.mu.Lock()
	e.orders = orders
	e.refreshedAt = now
	e.elapsedNow = now
	e.mu.Unlock()
	return nil
}

// Snapshot partitions the cached list into board columns, FIFO within each.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	orders := make([]models.Order, len(e.orders))
	copy(orders, e.orders)
	refreshedAt := e.refreshedAt
	elapsedNow := e.elapsedNow
	e.mu.RUnlock()

	cols := lifecycle.Partition(orders)
	return Snapshot{
		Pending:     tickets(cols.Pending, elapsedNow),
		Preparing:   tickets(cols.Preparing, elapsedNow),
		Ready:       tickets(cols.Ready, elapsedNow),
		RefreshedAt: refreshedAt,
	}
}

func tickets(orders []models.Order, now time.Time) []Ticket {
	out := make([]Ticket, 0, len(orders))
	for _, o := range orders {
		out = append(out, Ticket{Order: o, Elapsed: lifecycle.Elapsed(o.CreatedAt, now)})
	}
	return out
}

// Advance moves an order one step along the fixed pipeline. There is no jump
// and no rollback from the board.
func (e *Engine) Advance(ctx context.Context, orderID string) (models.Order, error) {
	order, err := e.gw.Order(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	next, ok := lifecycle.Next(order.Status)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: no advance from %s", xerrors.ErrInvalidTransition, order.Status)
	}

	updated, err := e.gw.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		return models.Order{}, err
	}

	if err := e.Refresh(ctx); err != nil {
		e.mylog.Action("board_refresh_failed").Error("Refresh after advance failed", err)
	}
	return updated, nil
}

func (e *Engine) OrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	return e.gw.OrderItems(ctx, orderID)
}

// Stop tears the display down: tickers cleared, subscription released.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.wg.Wait()
}
