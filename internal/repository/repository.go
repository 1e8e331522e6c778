// Package repository persists storefront records. The Scylla implementation
// backs production; the in-memory one backs local runs and tests.
package repository

import (
	"context"

	"github.com/pkg/errors"

	"nexusmart/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type OrderRepository interface {
	// Create assigns an id when o.ID is empty.
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	// Update overwrites the stored order. Last write wins.
	Update(ctx context.Context, o *models.Order) error
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	SetImages(ctx context.Context, id string, images []models.ProductImage) error
	Delete(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *models.Category) error
	Get(ctx context.Context, id string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	// Create fails with ErrConflict when the email is taken.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type WishlistRepository interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	// ProductIDs returns the wishlist newest first.
	ProductIDs(ctx context.Context, userID string) ([]string, error)
}

type Store struct {
	Orders     OrderRepository
	Products   ProductRepository
	Categories CategoryRepository
	Users      UserRepository
	Wishlist   WishlistRepository
}
