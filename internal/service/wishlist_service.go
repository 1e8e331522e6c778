package service

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"nexusmart/internal/cache"
	"nexusmart/internal/models"
	"nexusmart/internal/repository"
)

const wishlistFetchConcurrency = 8

type WishlistService struct {
	wishlist repository.WishlistRepository
	products repository.ProductRepository
	cache    *cache.Cache
	catalog  *CatalogService
}

func NewWishlistService(store *repository.Store, c *cache.Cache, catalog *CatalogService) *WishlistService {
	return &WishlistService{
		wishlist: store.Wishlist,
		products: store.Products,
		cache:    c,
		catalog:  catalog,
	}
}

// List returns the wishlisted products, newest first. Products deleted from
// the catalog are skipped.
func (s *WishlistService) List(ctx context.Context, userID string) ([]models.Product, error) {
	products, err := s.cache.Wishlist(ctx, userID, func() ([]models.Product, error) {
		return s.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.catalog.signAll(ctx, products), nil
}

func (s *WishlistService) load(ctx context.Context, userID string) ([]models.Product, error) {
	ids, err := s.wishlist.ProductIDs(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}

	found := make([]*models.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wishlistFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.products.Get(gctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "load wishlist products")
	}

	out := make([]models.Product, 0, len(ids))
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *WishlistService) Add(ctx context.Context, userID, productID string) error {
	if _, err := s.products.Get(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownProduct
		}
		return errors.Wrap(err, "load product")
	}
	if err := s.wishlist.Add(ctx, userID, productID); err != nil {
		return err
	}
	return s.cache.InvalidateWishlist(ctx, userID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	if err := s.wishlist.Remove(ctx, userID, productID); err != nil {
		return err
	}
	return s.cache.InvalidateWishlist(ctx, userID)
}
