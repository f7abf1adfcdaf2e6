package dto

import "urban-bites/internal/domain/models"

// OrderLine is one cart line in a checkout request. Prices are never taken
// from the client; they are captured from the menu at order time.
type OrderLine struct {
	MenuItemID          string `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type CreateOrderRequest struct {
	Token               string      `json:"token"`
	CustomerName        string      `json:"customer_name,omitempty"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	Items               []OrderLine `json:"items"`
}

type OrderResponse struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items,omitempty"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type TableResponse struct {
	Table      models.Table      `json:"table"`
	Restaurant models.Restaurant `json:"restaurant"`
}
