// Package lifecycle is the order status state machine and the board ordering
// rules the kitchen displays enforce.
package lifecycle

import (
	"fmt"
	"sort"
	"time"

	"urban-bites/internal/domain/models"
)

// transitions lists every legal edge. Cancellation is reachable from any
// non-terminal state; payment from ready or delivered. delivered -> paid is
// the single edge out of an otherwise terminal state (settling the bill).
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusDelivered, models.StatusPaid, models.StatusCancelled},
	models.StatusDelivered: {models.StatusPaid},
	models.StatusPaid:      {},
	models.StatusCancelled: {},
}

// advancePath is the per-column advance used by the staff board: one fixed
// next status, no jumps, no rollback.
var advancePath = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:   models.StatusPreparing,
	models.StatusPreparing: models.StatusReady,
	models.StatusReady:     models.StatusDelivered,
}

func IsValidStatus(s models.OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.StatusDelivered || s == models.StatusPaid || s == models.StatusCancelled
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the board's single-step advance target, false when the status
// has no advance column.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := advancePath[s]
	return next, ok
}

// SortFIFO orders oldest-created first, stable so insertion order breaks ties.
func SortFIFO(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

type Columns struct {
	Pending   []models.Order `json:"pending"`
	Preparing []models.Order `json:"preparing"`
	Ready     []models.Order `json:"ready"`
}

// Partition re-splits the full order list into board columns. The input is
// sorted in place first so every column is FIFO.
func Partition(orders []models.Order) Columns {
	SortFIFO(orders)
	var cols Columns
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			cols.Pending = append(cols.Pending, o)
		case models.StatusPreparing:
			cols.Preparing = append(cols.Preparing, o)
		case models.StatusReady:
			cols.Ready = append(cols.Ready, o)
		}
	}
	return cols
}

// Elapsed renders the ticket age. It is derived on demand, never stored.
func Elapsed(createdAt, now time.Time) string {
	mins := int(now.Sub(createdAt).Minutes())
	if mins < 1 {
		return "Just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}
