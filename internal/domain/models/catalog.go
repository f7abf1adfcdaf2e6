package models

import "time"

type Restaurant struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	CuisineType       string    `json:"cuisine_type"`
	Tagline           string    `json:"tagline"`
	Address           string    `json:"address"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	ThemePrimaryColor string    `json:"theme_primary_color"`
	ThemeAccentColor  string    `json:"theme_accent_color"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

type Table struct {
	ID           string      `json:"id"`
	RestaurantID string      `json:"restaurant_id"`
	TableNumber  int         `json:"table_number"`
	QRToken      string      `json:"qr_token"`
	Capacity     int         `json:"capacity"`
	Status       TableStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

type MenuCategory struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type MenuItem struct {
	ID              string    `json:"id"`
	CategoryID      string    `json:"category_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	Allergens       []string  `json:"allergens"`
	DietaryTags     []string  `json:"dietary_tags"`
	IsAvailable     bool      `json:"is_available"`
	PrepTimeMinutes int       `json:"prep_time_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

type Menu struct {
	Categories []MenuCategory `json:"categories"`
	Items      []MenuItem     `json:"items"`
}
