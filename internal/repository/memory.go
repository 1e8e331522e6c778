package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nexusmart/internal/models"
)

// NewMemoryStore returns a Store whose repositories share nothing but live
// entirely in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Orders:     &memoryOrders{orders: make(map[string]models.Order)},
		Products:   &memoryProducts{products: make(map[string]models.Product)},
		Categories: &memoryCategories{categories: make(map[string]models.Category)},
		Users:      &memoryUsers{users: make(map[string]models.User), byEmail: make(map[string]string)},
		Wishlist:   &memoryWishlist{items: make(map[string]map[string]time.Time)},
	}
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

type memoryOrders struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func (r *memoryOrders) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, ok := r.orders[o.ID]; ok {
		return ErrConflict
	}
	r.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *memoryOrders) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneOrder(o)
	return &c, nil
}

func (r *memoryOrders) Update(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return ErrNotFound
	}
	r.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *memoryOrders) list(keep func(models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	SortOrdersNewestFirst(out)
	return out
}

func (r *memoryOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *memoryOrders) ListAll(_ context.Context) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }), nil
}

// SortOrdersNewestFirst orders by creation time, newest first, ties by id.
func SortOrdersNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

type memoryProducts struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func (r *memoryProducts) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	c := *p
	c.Images = append([]models.ProductImage(nil), p.Images...)
	r.products[p.ID] = c
	return nil
}

func (r *memoryProducts) Get(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Images = append([]models.ProductImage(nil), p.Images...)
	return &p, nil
}

func (r *memoryProducts) List(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		p.Images = append([]models.ProductImage(nil), p.Images...)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryProducts) SetImages(_ context.Context, id string, images []models.ProductImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Images = append([]models.ProductImage(nil), images...)
	r.products[id] = p
	return nil
}

func (r *memoryProducts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type memoryCategories struct {
	mu         sync.RWMutex
	categories map[string]models.Category
}

func (r *memoryCategories) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrConflict
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.categories[c.ID] = *c
	return nil
}

func (r *memoryCategories) Get(_ context.Context, id string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryCategories) List(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryCategories) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type memoryUsers struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(u.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = email
	r.users[u.ID] = *u
	r.byEmail[email] = u.ID
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

func (r *memoryUsers) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	r.users[u.ID] = *u
	return nil
}

type memoryWishlist struct {
	mu    sync.RWMutex
	items map[string]map[string]time.Time
}

func (r *memoryWishlist) Add(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items[userID] == nil {
		r.items[userID] = make(map[string]time.Time)
	}
	if _, ok := r.items[userID][productID]; !ok {
		r.items[userID][productID] = time.Now()
	}
	return nil
}

func (r *memoryWishlist) Remove(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items[userID], productID)
	return nil
}

func (r *memoryWishlist) ProductIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.items[userID]
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ti, tj := entries[ids[i]], entries[ids[j]]
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.After(tj)
	})
	return ids, nil
}
