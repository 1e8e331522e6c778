package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/models"
	"nexusmart/internal/repository"
	"nexusmart/internal/services"
)

var ErrMediaDisabled = errors.New("image uploads are not configured")

type CatalogDeps struct {
	Store  *repository.Store
	Cache  *cache.Cache
	Search services.ProductSearch // nil disables keyword search in Elasticsearch
	Images *services.ImageStore   // nil disables uploads
	Logger *zap.Logger
}

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      *cache.Cache
	search     services.ProductSearch
	images     *services.ImageStore
	logger     *zap.Logger
	now        func() time.Time
}

func NewCatalogService(d CatalogDeps) *CatalogService {
	return &CatalogService{
		products:   d.Store.Products,
		categories: d.Store.Categories,
		cache:      d.Cache,
		search:     d.Search,
		images:     d.Images,
		logger:     d.Logger,
		now:        time.Now,
	}
}

// ListProducts returns the catalog, or the products matching keyword. Search
// goes to Elasticsearch first and falls back to scanning the catalog when the
// index is unavailable or has no hits.
func (s *CatalogService) ListProducts(ctx context.Context, keyword string) ([]models.Product, error) {
	all, err := s.cache.Products(ctx, func() ([]models.Product, error) {
		return s.products.List(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.signAll(ctx, all), nil
	}

	if s.search != nil {
		ids, err := s.search.SearchProducts(ctx, keyword)
		if err != nil {
			s.logger.Warn("⚠️ elasticsearch search failed, scanning catalog", zap.Error(err))
		} else if len(ids) > 0 {
			byID := make(map[string]models.Product, len(all))
			for _, p := range all {
				byID[p.ID] = p
			}
			hits := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok {
					hits = append(hits, p)
				}
			}
			if len(hits) > 0 {
				return s.signAll(ctx, hits), nil
			}
		}
	}
	return s.signAll(ctx, scanProducts(all, keyword)), nil
}

// scanProducts matches every keyword term against name and description.
func scanProducts(products []models.Product, keyword string) []models.Product {
	terms := strings.Fields(strings.ToLower(keyword))
	var out []models.Product
	for _, p := range products {
		text := strings.ToLower(p.Name + " " + p.Description)
		match := true
		for _, t := range terms {
			if !strings.Contains(text, t) {
				match = false
				break
			}
		}
		if match {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.cache.Product(ctx, id, func() (*models.Product, error) {
		return s.products.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	signed := s.sign(ctx, *p)
	return &signed, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req models.NewProductRequest) (*models.Product, error) {
	if _, err := s.categories.Get(ctx, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, errors.Wrap(err, "load category")
	}
	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		CreatedAt:   s.now(),
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.ImageURL != "" {
		p.Images = []models.ProductImage{{URL: req.ImageURL}}
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	s.afterProductWrite(ctx, p.ID)
	if s.search != nil {
		if err := s.search.IndexProduct(ctx, *p); err != nil {
			s.logger.Warn("⚠️ product not indexed", zap.String("product_id", p.ID), zap.Error(err))
		}
	}
	s.logger.Info("🆕 product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete product")
	}
	s.afterProductWrite(ctx, id)
	if s.search != nil {
		if err := s.search.DeleteProduct(ctx, id); err != nil {
			s.logger.Warn("⚠️ product not removed from index", zap.String("product_id", id), zap.Error(err))
		}
	}
	if s.images != nil {
		for _, img := range p.Images {
			if err := s.images.Remove(ctx, img.URL); err != nil {
				s.logger.Warn("⚠️ image not removed", zap.String("key", img.URL), zap.Error(err))
			}
		}
	}
	s.logger.Info("🗑️ product deleted", zap.String("product_id", id))
	return nil
}

// AddImage uploads an image and appends it to the product's gallery.
func (s *CatalogService) AddImage(ctx context.Context, id string, r io.Reader, size int64, contentType string) (*models.Product, error) {
	if s.images == nil {
		return nil, ErrMediaDisabled
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := s.images.Upload(ctx, id, r, size, contentType)
	if err != nil {
		return nil, err
	}
	p.Images = append(p.Images, models.ProductImage{URL: key})
	if err := s.products.SetImages(ctx, id, p.Images); err != nil {
		return nil, errors.Wrap(err, "save product images")
	}
	s.afterProductWrite(ctx, id)
	signed := s.sign(ctx, *p)
	return &signed, nil
}

func (s *CatalogService) afterProductWrite(ctx context.Context, id string) {
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("⚠️ product cache not invalidated", zap.String("product_id", id), zap.Error(err))
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.cache.Categories(ctx, func() ([]models.Category, error) {
		return s.categories.List(ctx)
	})
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: []string{"name"}}
	}
	c := &models.Category{Name: name, CreatedAt: s.now()}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCategoryExists
		}
		return nil, errors.Wrap(err, "create category")
	}
	_ = s.cache.InvalidateCategories(ctx)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.InvalidateCategories(ctx)
	return nil
}

// sign replaces bucket keys with presigned URLs.
func (s *CatalogService) sign(ctx context.Context, p models.Product) models.Product {
	if s.images == nil || len(p.Images) == 0 {
		return p
	}
	images := make([]models.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		u, err := s.images.SignedURL(ctx, img.URL, services.SignedURLTTL)
		if err != nil {
			s.logger.Warn("⚠️ image not signed", zap.String("key", img.URL), zap.Error(err))
			continue
		}
		images = append(images, models.ProductImage{URL: u})
	}
	p.Images = images
	return p
}

func (s *CatalogService) signAll(ctx context.Context, products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i, p := range products {
		out[i] = s.sign(ctx, p)
	}
	return out
}
