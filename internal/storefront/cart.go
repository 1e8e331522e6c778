package storefront

import (
	"sync"

	"github.com/pkg/errors"

	"nexusmart/internal/models"
	"nexusmart/internal/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNotInCart       = errors.New("product is not in the cart")
)

// Cart is the client-local cart. Every mutation is written to storage before
// it returns.
type Cart struct {
	store Storage
	mu    sync.Mutex
	items []models.CartItem
}

func LoadCart(store Storage) (*Cart, error) {
	c := &Cart{store: store}
	if _, err := store.Load(KeyCart, &c.items); err != nil {
		return nil, err
	}
	return c, nil
}

// Add puts quantity units of p in the cart. A product already in the cart
// gets its quantity increased instead of a second line.
func (c *Cart) Add(p models.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity += quantity
			return c.persist()
		}
	}
	c.items = append(c.items, models.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.FirstImage(),
		Stock:     p.Stock,
		Quantity:  quantity,
	})
	return c.persist()
}

func (c *Cart) Remove(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, it := range c.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return c.persist()
}

func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			return c.persist()
		}
	}
	return ErrNotInCart
}

func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.store.Delete(KeyCart)
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartItem(nil), c.items...)
}

func (c *Cart) OrderItems() []models.OrderItem {
	items := c.Items()
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		out[i] = it.OrderItem()
	}
	return out
}

// Subtotal is Σ price × quantity.
func (c *Cart) Subtotal() float64 {
	return pricing.Subtotal(c.OrderItems())
}

func (c *Cart) persist() error {
	return c.store.Save(KeyCart, c.items)
}
