package mirror

import (
	"context"
	"time"

	"urban-bites/internal/domain/models"
	xerrors "urban-bites/internal/xpkg/errors"
)

// Noop stands in when no remote is configured. Writes succeed without effect
// so the gateway's sequencing is unchanged in local-only mode; reads report
// the remote as unavailable so callers use the fallback dataset.
type Noop struct{}

func (Noop) Close() error { return nil }

func (Noop) InsertOrder(ctx context.Context, order models.Order) error { return nil }

func (Noop) InsertItems(ctx context.Context, items []models.OrderItem) error { return nil }

func (Noop) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, updatedAt time.Time, completedAt *time.Time) error {
	return nil
}

func (Noop) FetchRestaurant(ctx context.Context) (models.Restaurant, error) {
	return models.Restaurant{}, xerrors.ErrRemoteUnavailable
}

func (Noop) FetchMenu(ctx context.Context) (models.Menu, error) {
	return models.Menu{}, xerrors.ErrRemoteUnavailable
}

func (Noop) FetchTableByToken(ctx context.Context, token string) (models.Table, error) {
	return models.Table{}, xerrors.ErrRemoteUnavailable
}
