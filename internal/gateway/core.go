package gateway

import (
	"context"
	"time"

	"urban-bites/internal/domain/models"
)

// ILocalStore is the durable display-local store. It is authoritative for
// everything the UI shows.
type ILocalStore interface {
	PutOrder(ctx context.Context, order models.Order) error
	PutItems(ctx context.Context, items []models.OrderItem) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	GetAllOrders(ctx context.Context) ([]models.Order, error)
	GetOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetItemsByOrder(ctx context.Context, orderID string) ([]models.OrderItem, error)
	CountOrdersOnDay(ctx context.Context, t time.Time) (int, error)
	EnqueueSync(ctx context.Context, rec models.SyncRecord) error
	Close() error
}

// IRemoteMirror is the best-effort replicated system of record. Its errors
// never leave this package.
type IRemoteMirror interface {
	InsertOrder(ctx context.Context, order models.Order) error
	InsertItems(ctx context.Context, items []models.OrderItem) error
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, updatedAt time.Time, completedAt *time.Time) error
	FetchRestaurant(ctx context.Context) (models.Restaurant, error)
	FetchMenu(ctx context.Context) (models.Menu, error)
	FetchTableByToken(ctx context.Context, token string) (models.Table, error)
	Close() error
}

// ISyncBus announces order changes to the other open displays.
type ISyncBus interface {
	Publish(msg models.SyncMessage)
	Subscribe(buffer int) (<-chan models.SyncMessage, func())
	Close()
}
