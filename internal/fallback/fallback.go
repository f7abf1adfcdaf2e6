// Package fallback is the demo content served when no remote system of
// record is configured or the remote errors: one restaurant, a fixed menu,
// and ten tables with deterministic tokens.
package fallback

import (
	"fmt"
	"time"

	"urban-bites/internal/domain/models"
)

const RestaurantID = "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"

const TableCount = 10

var seededAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func Restaurant() models.Restaurant {
	return models.Restaurant{
		ID:                RestaurantID,
		Name:              "Urban Bites",
		Slug:              "urban-bites",
		CuisineType:       "Modern Casual",
		Tagline:           "Fast. Fresh. Delicious.",
		Address:           "42 Rue de Rivoli, 75004 Paris, France",
		Phone:             "+33 1 23 45 67 89",
		Email:             "hello@urbanbites.fr",
		ThemePrimaryColor: "#FF6B35",
		ThemeAccentColor:  "#004E89",
		IsActive:          true,
		CreatedAt:         seededAt,
		UpdatedAt:         seededAt,
	}
}

func Categories() []models.MenuCategory {
	return []models.MenuCategory{
		{ID: "cat-1", RestaurantID: RestaurantID, Name: "Starters", Description: "Begin your meal", DisplayOrder: 1, IsActive: true, CreatedAt: seededAt},
		{ID: "cat-2", RestaurantID: RestaurantID, Name: "Mains", Description: "Hearty meals", DisplayOrder: 2, IsActive: true, CreatedAt: seededAt},
		{ID: "cat-4", RestaurantID: RestaurantID, Name: "Desserts", Description: "Sweet treats", DisplayOrder: 3, IsActive: true, CreatedAt: seededAt},
		{ID: "cat-3", RestaurantID: RestaurantID, Name: "Drinks", Description: "Beverages", DisplayOrder: 4, IsActive: true, CreatedAt: seededAt},
	}
}

func Items() []models.MenuItem {
	return []models.MenuItem{
		{ID: "item-1", CategoryID: "cat-1", Name: "Truffle Fries", Description: "Crispy fries with parmesan & white truffle oil", Price: 6.50, Allergens: []string{"dairy"}, DietaryTags: []string{"vegetarian"}, IsAvailable: true, PrepTimeMinutes: 10, CreatedAt: seededAt},
		{ID: "item-2", CategoryID: "cat-1", Name: "Crispy Calamari", Description: "Tender squid rings served with lemon garlic aioli", Price: 8.90, Allergens: []string{"seafood", "gluten", "eggs"}, IsAvailable: true, PrepTimeMinutes: 12, CreatedAt: seededAt},
		{ID: "item-10", CategoryID: "cat-1", Name: "Burrata Salad", Description: "Fresh burrata, heirloom tomatoes, pesto, balsamic glaze", Price: 11.50, Allergens: []string{"dairy", "nuts"}, DietaryTags: []string{"vegetarian", "gluten-free"}, IsAvailable: true, PrepTimeMinutes: 8, CreatedAt: seededAt},
		{ID: "item-11", CategoryID: "cat-1", Name: "Spicy Buffalo Wings", Description: "6pcs wings tossed in house hot sauce with blue cheese dip", Price: 9.50, Allergens: []string{"dairy"}, DietaryTags: []string{"spicy"}, IsAvailable: true, PrepTimeMinutes: 15, CreatedAt: seededAt},
		{ID: "item-3", CategoryID: "cat-2", Name: "Classic Burger", Description: "Angus beef patty, cheddar, lettuce, tomato, secret sauce", Price: 12.50, Allergens: []string{"gluten", "dairy", "eggs"}, IsAvailable: true, PrepTimeMinutes: 18, CreatedAt: seededAt},
		{ID: "item-4", CategoryID: "cat-2", Name: "Veggie Burger", Description: "Plant-based patty, avocado, pickled onions, vegan mayo", Price: 13.50, Allergens: []string{"soy", "gluten"}, DietaryTags: []string{"vegan"}, IsAvailable: true, PrepTimeMinutes: 16, CreatedAt: seededAt},
		{ID: "item-12", CategoryID: "cat-2", Name: "Steak Frites", Description: "200g Sirloin steak with herb butter and french fries", Price: 24.00, Allergens: []string{"dairy"}, DietaryTags: []string{"gluten-free"}, IsAvailable: true, PrepTimeMinutes: 20, CreatedAt: seededAt},
		{ID: "item-13", CategoryID: "cat-2", Name: "Grilled Salmon Bowl", Description: "Quinoa, roasted veggies, avocado, lemon dressing", Price: 18.50, Allergens: []string{"seafood"}, DietaryTags: []string{"gluten-free", "healthy"}, IsAvailable: true, PrepTimeMinutes: 18, CreatedAt: seededAt},
		{ID: "item-14", CategoryID: "cat-2", Name: "Mushroom Risotto", Description: "Creamy arborio rice with wild mushrooms and parmesan", Price: 16.00, Allergens: []string{"dairy"}, DietaryTags: []string{"vegetarian"}, IsAvailable: true, PrepTimeMinutes: 22, CreatedAt: seededAt},
		{ID: "item-19", CategoryID: "cat-4", Name: "Lava Cake", Description: "Warm chocolate cake with a molten center and vanilla ice cream", Price: 8.00, Allergens: []string{"dairy", "gluten", "eggs"}, DietaryTags: []string{"vegetarian"}, IsAvailable: true, PrepTimeMinutes: 10, CreatedAt: seededAt},
		{ID: "item-20", CategoryID: "cat-4", Name: "Cheesecake", Description: "New York style cheesecake with berry compote", Price: 7.50, Allergens: []string{"dairy", "gluten"}, DietaryTags: []string{"vegetarian"}, IsAvailable: true, PrepTimeMinutes: 5, CreatedAt: seededAt},
		{ID: "item-21", CategoryID: "cat-4", Name: "Fruit Sorbet", Description: "Trio of seasonal fruit sorbets (Mango, Raspberry, Lemon)", Price: 6.00, DietaryTags: []string{"vegan", "gluten-free"}, IsAvailable: true, PrepTimeMinutes: 5, CreatedAt: seededAt},
		{ID: "item-5", CategoryID: "cat-3", Name: "Fresh Lemonade", Description: "Homemade with fresh lemons and mint", Price: 4.50, DietaryTags: []string{"vegan"}, IsAvailable: true, PrepTimeMinutes: 3, CreatedAt: seededAt},
		{ID: "item-15", CategoryID: "cat-3", Name: "Craft Cola", Description: "Artisanal organic cola", Price: 4.00, DietaryTags: []string{"vegan"}, IsAvailable: true, PrepTimeMinutes: 2, CreatedAt: seededAt},
		{ID: "item-16", CategoryID: "cat-3", Name: "Iced Latte", Description: "Double espresso shot with cold milk over ice", Price: 5.00, Allergens: []string{"dairy"}, DietaryTags: []string{"vegetarian"}, IsAvailable: true, PrepTimeMinutes: 4, CreatedAt: seededAt},
		{ID: "item-17", CategoryID: "cat-3", Name: "Craft IPA", Description: "Local hazy IPA (5.5% ABV)", Price: 7.00, Allergens: []string{"gluten"}, IsAvailable: true, PrepTimeMinutes: 2, CreatedAt: seededAt},
		{ID: "item-18", CategoryID: "cat-3", Name: "Sparkling Water", Description: "San Pellegrino 500ml", Price: 3.50, DietaryTags: []string{"vegan"}, IsAvailable: true, PrepTimeMinutes: 1, CreatedAt: seededAt},
	}
}

func Menu() models.Menu {
	return models.Menu{Categories: Categories(), Items: Items()}
}

// Tables returns the ten demo tables. Tokens are deterministic so a printed
// demo QR code keeps working across restarts.
func Tables() []models.Table {
	tables := make([]models.Table, 0, TableCount)
	for i := 1; i <= TableCount; i++ {
		tables = append(tables, models.Table{
			ID:           fmt.Sprintf("table-%d", i),
			RestaurantID: RestaurantID,
			TableNumber:  i,
			QRToken:      fmt.Sprintf("token-%d", i),
			Capacity:     4,
			Status:       models.TableAvailable,
			CreatedAt:    seededAt,
		})
	}
	return tables
}
