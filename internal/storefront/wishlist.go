package storefront

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"nexusmart/internal/models"
)

var ErrLoginRequired = errors.New("please login to use wishlist")

// Wishlist mirrors the server wishlist. Changes are applied locally first and
// reconciled with a refetch.
type Wishlist struct {
	client *Client

	mu    sync.Mutex
	items []models.Product
}

func NewWishlist(client *Client) *Wishlist {
	return &Wishlist{client: client}
}

func (w *Wishlist) Items() []models.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Product(nil), w.items...)
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.indexOf(productID) >= 0
}

func (w *Wishlist) indexOf(productID string) int {
	for i, p := range w.items {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func (w *Wishlist) Refresh(ctx context.Context) error {
	if w.client.Token() == "" {
		w.mu.Lock()
		w.items = nil
		w.mu.Unlock()
		return nil
	}
	items, err := w.client.Wishlist(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
	return nil
}

func (w *Wishlist) Add(ctx context.Context, p models.Product) error {
	if w.client.Token() == "" {
		return ErrLoginRequired
	}
	w.mu.Lock()
	if w.indexOf(p.ID) < 0 {
		w.items = append(w.items, p)
	}
	w.mu.Unlock()

	err := w.client.AddToWishlist(ctx, p.ID)
	if rerr := w.Refresh(ctx); err == nil {
		err = rerr
	}
	return err
}

// Remove drops the product locally, then on the server. A failed DELETE is
// undone by refetching.
func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	if w.client.Token() == "" {
		return ErrLoginRequired
	}
	w.mu.Lock()
	if i := w.indexOf(productID); i >= 0 {
		w.items = append(w.items[:i], w.items[i+1:]...)
	}
	w.mu.Unlock()

	if err := w.client.RemoveFromWishlist(ctx, productID); err != nil {
		_ = w.Refresh(ctx)
		return err
	}
	return nil
}

func (w *Wishlist) Toggle(ctx context.Context, p models.Product) (added bool, err error) {
	if w.Contains(p.ID) {
		return false, w.Remove(ctx, p.ID)
	}
	return true, w.Add(ctx, p)
}
