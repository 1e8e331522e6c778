package cache

import (
	"context"
	"log"
	"time"

	"nexusmart/internal/models"
)

const (
	ProductCacheTTL  = 10 * time.Minute
	CategoryCacheTTL = 30 * time.Minute
	WishlistCacheTTL = 5 * time.Minute
	UserCacheTTL     = 5 * time.Minute

	productListKey  = "products:all"
	categoryListKey = "categories:all"
)

// remember returns the cached value at k or calls load and caches its result.
// Redis failures degrade to a plain load.
func remember[T any](ctx context.Context, c *Cache, k string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if ok, err := c.getJSON(ctx, k, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("⚠️ cache read %s: %v", k, err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := c.setJSON(ctx, k, v, ttl); err != nil {
		log.Printf("⚠️ cache write %s: %v", k, err)
	}
	return v, nil
}

// --- Products ---

func (c *Cache) Product(ctx context.Context, id string, load func() (*models.Product, error)) (*models.Product, error) {
	return remember(ctx, c, key("product", id), ProductCacheTTL, load)
}

func (c *Cache) Products(ctx context.Context, load func() ([]models.Product, error)) ([]models.Product, error) {
	return remember(ctx, c, productListKey, ProductCacheTTL, load)
}

func (c *Cache) InvalidateProduct(ctx context.Context, id string) error {
	return c.del(ctx, key("product", id), productListKey)
}

// --- Categories ---

func (c *Cache) Categories(ctx context.Context, load func() ([]models.Category, error)) ([]models.Category, error) {
	return remember(ctx, c, categoryListKey, CategoryCacheTTL, load)
}

func (c *Cache) InvalidateCategories(ctx context.Context) error {
	return c.del(ctx, categoryListKey)
}

// --- Wishlist ---

func (c *Cache) Wishlist(ctx context.Context, userID string, load func() ([]models.Product, error)) ([]models.Product, error) {
	return remember(ctx, c, key("wishlist", userID), WishlistCacheTTL, load)
}

func (c *Cache) InvalidateWishlist(ctx context.Context, userID string) error {
	return c.del(ctx, key("wishlist", userID))
}
