package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID                  string      `json:"id"`
	TableID             string      `json:"table_id"`
	OrderNumber         int         `json:"order_number"`
	CustomerName        string      `json:"customer_name"`
	Status              OrderStatus `json:"status"`
	Subtotal            float64     `json:"subtotal"`
	Tax                 float64     `json:"tax"`
	ServiceCharge       float64     `json:"service_charge"`
	Total               float64     `json:"total"`
	SpecialInstructions string      `json:"special_instructions"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	CompletedAt         *time.Time  `json:"completed_at"`
}

type OrderItem struct {
	ID                  string    `json:"id"`
	OrderID             string    `json:"order_id"`
	MenuItemID          string    `json:"menu_item_id"`
	MenuItemName        string    `json:"menu_item_name"`
	Quantity            int       `json:"quantity"`
	UnitPrice           float64   `json:"unit_price"`
	SpecialInstructions string    `json:"special_instructions"`
	CreatedAt           time.Time `json:"created_at"`
}

// CartItem lives only on the customer device between "add to cart" and
// checkout. It is never written to the local store.
type CartItem struct {
	MenuItem            MenuItem `json:"menu_item"`
	Quantity            int      `json:"quantity"`
	SpecialInstructions string   `json:"special_instructions"`
}

type OrderSummary struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"service_charge"`
	Total         float64 `json:"total"`
}
