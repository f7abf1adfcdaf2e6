// Package cart holds the ephemeral customer-device cart. It exists only
// between "add to cart" and checkout and is never written to the local store.
package cart

import (
	"sync"

	"urban-bites/internal/domain/models"
)

type Cart struct {
	mu    sync.Mutex
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

// Add merges with an existing line for the same menu item, otherwise appends.
func (c *Cart) Add(menuItem models.MenuItem, quantity int, instructions string) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.MenuItem.ID == menuItem.ID {
			c.items[i].Quantity += quantity
			if instructions != "" {
				c.items[i].SpecialInstructions = instructions
			}
			return
		}
	}
	c.items = append(c.items, models.CartItem{
		MenuItem:            menuItem,
		Quantity:            quantity,
		SpecialInstructions: instructions,
	})
}

func (c *Cart) Remove(menuItemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items[:0]
	for _, item := range c.items {
		if item.MenuItem.ID != menuItemID {
			out = append(out, item)
		}
	}
	c.items = out
}

// SetQuantity updates a line; zero or negative removes it.
func (c *Cart) SetQuantity(menuItemID string, quantity int) {
	if quantity <= 0 {
		c.Remove(menuItemID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.MenuItem.ID == menuItemID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) SetInstructions(menuItemID, instructions string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.MenuItem.ID == menuItemID {
			c.items[i].SpecialInstructions = instructions
			return
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Items returns a copy safe to price and iterate after further mutation.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}
