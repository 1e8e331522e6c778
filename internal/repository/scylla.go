package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"nexusmart/internal/config"
	"nexusmart/internal/database"
	"nexusmart/internal/models"
)

// Tables are created by scripts/scylladb_init.cql.

// NewScyllaStore wires repositories onto the keyspaces managed by sm.
func NewScyllaStore(sm *database.ScyllaManager, cfg *config.Config) *Store {
	return &Store{
		Orders:     &scyllaOrders{sm: sm, ks: cfg.ScyllaOrdersKS},
		Products:   &scyllaProducts{sm: sm, ks: cfg.ScyllaCatalogKS},
		Categories: &scyllaCategories{sm: sm, ks: cfg.ScyllaCatalogKS},
		Users:      &scyllaUsers{sm: sm, ks: cfg.ScyllaUsersKS},
		Wishlist:   &scyllaWishlist{sm: sm, ks: cfg.ScyllaUsersKS},
	}
}

func parseID(id string) (gocql.UUID, error) {
	u, err := gocql.ParseUUID(id)
	if err != nil {
		return gocql.UUID{}, ErrNotFound
	}
	return u, nil
}

func notFound(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// --- orders ---

type scyllaOrders struct {
	sm *database.ScyllaManager
	ks string
}

const orderColumns = `order_id, user_id, items, shipping_info, items_price, tax_price, shipping_price, total_price,
	order_status, payment_utr, payment_method, payment_status, delivery_otp, created_at, paid_at, delivered_at, cancelled_at`

func (r *scyllaOrders) session() (*gocql.Session, error) {
	return r.sm.Session(r.ks)
}

func (r *scyllaOrders) write(ctx context.Context, s *gocql.Session, o *models.Order, id gocql.UUID) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "encode order items")
	}
	shipping, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return errors.Wrap(err, "encode shipping info")
	}
	err = s.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, o.UserID, string(items), string(shipping), o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		string(o.OrderStatus), o.PaymentInfo.UTR, o.PaymentInfo.Method, string(o.PaymentInfo.Status), o.DeliveryOTP,
		o.CreatedAt, timeOrZero(o.PaidAt), timeOrZero(o.DeliveredAt), timeOrZero(o.CancelledAt),
	).WithContext(ctx).Exec()
	return errors.Wrap(err, "write order")
}

func (r *scyllaOrders) Create(ctx context.Context, o *models.Order) error {
	s, err := r.session()
	if err != nil {
		return err
	}
	id := gocql.TimeUUID()
	if o.ID != "" {
		if id, err = gocql.ParseUUID(o.ID); err != nil {
			return errors.Wrap(err, "parse order id")
		}
	}
	o.ID = id.String()
	if err := r.write(ctx, s, o, id); err != nil {
		return err
	}
	err = s.Query(`INSERT INTO orders_by_user (user_id, order_id) VALUES (?, ?)`, o.UserID, id).
		WithContext(ctx).Exec()
	return errors.Wrap(err, "index order by user")
}

func scanOrder(scan func(dest ...interface{}) bool) (*models.Order, bool, error) {
	var (
		o                                models.Order
		id                               gocql.UUID
		items, shipping                  string
		status, payStatus                string
		paidAt, deliveredAt, cancelledAt time.Time
	)
	if !scan(&id, &o.UserID, &items, &shipping, &o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&status, &o.PaymentInfo.UTR, &o.PaymentInfo.Method, &payStatus, &o.DeliveryOTP,
		&o.CreatedAt, &paidAt, &deliveredAt, &cancelledAt) {
		return nil, false, nil
	}
	o.ID = id.String()
	o.OrderStatus = models.OrderStatus(status)
	o.PaymentInfo.Status = models.PaymentStatus(payStatus)
	o.PaidAt, o.DeliveredAt, o.CancelledAt = timePtr(paidAt), timePtr(deliveredAt), timePtr(cancelledAt)
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, true, errors.Wrapf(err, "decode items of order %s", o.ID)
	}
	if shipping != "" {
		if err := json.Unmarshal([]byte(shipping), &o.ShippingInfo); err != nil {
			return nil, true, errors.Wrapf(err, "decode shipping of order %s", o.ID)
		}
	}
	return &o, true, nil
}

func (r *scyllaOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s, err := r.session()
	if err != nil {
		return nil, err
	}
	iter := s.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, uid).WithContext(ctx).Iter()
	o, ok, scanErr := scanOrder(iter.Scan)
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "read order")
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (r *scyllaOrders) Update(ctx context.Context, o *models.Order) error {
	uid, err := parseID(o.ID)
	if err != nil {
		return err
	}
	s, err := r.session()
	if err != nil {
		return err
	}
	return r.write(ctx, s, o, uid)
}

func (r *scyllaOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	s, err := r.session()
	if err != nil {
		return nil, err
	}
	iter := s.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "list orders by user")
	}

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id.String())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	SortOrdersNewestFirst(orders)
	return orders, nil
}

// ListAll scans the whole orders table; fine for an admin dashboard of this size.
func (r *scyllaOrders) ListAll(ctx context.Context) ([]models.Order, error) {
	s, err := r.session()
	if err != nil {
		return nil, err
	}
	iter := s.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()
	var orders []models.Order
	for {
		o, ok, err := scanOrder(iter.Scan)
		if err != nil {
			iter.Close()
			return nil, err
		}
		if !ok {
			break
		}
		orders = append(orders, *o)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	SortOrdersNewestFirst(orders)
	return orders, nil
}

// --- products ---

type scyllaProducts struct {
	sm *database.ScyllaManager
	ks string
}

const productColumns = `product_id, name, description, price, stock, category_id, image_urls, created_at`

func imageURLs(images []models.ProductImage) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}

func toImages(urls []string) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(urls))
	for _, u := range urls {
		images = append(images, models.ProductImage{URL: u})
	}
	return images
}

func (r *scyllaProducts) Create(ctx context.Context, p *models.Product) error {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	id := gocql.TimeUUID()
	p.ID = id.String()
	err = s.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, imageURLs(p.Images), p.CreatedAt,
	).WithContext(ctx).Exec()
	return errors.Wrap(err, "create product")
}

func scanProduct(scan func(dest ...interface{}) bool) (models.Product, bool) {
	var (
		p    models.Product
		id   gocql.UUID
		urls []string
	)
	if !scan(&id, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &urls, &p.CreatedAt) {
		return p, false
	}
	p.ID = id.String()
	p.Images = toImages(urls)
	return p, true
}

func (r *scyllaProducts) Get(ctx context.Context, id string) (*models.Product, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	iter := s.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, uid).WithContext(ctx).Iter()
	p, ok := scanProduct(iter.Scan)
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "read product")
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *scyllaProducts) List(ctx context.Context) ([]models.Product, error) {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	iter := s.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()
	var products []models.Product
	for {
		p, ok := scanProduct(iter.Scan)
		if !ok {
			break
		}
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (r *scyllaProducts) SetImages(ctx context.Context, id string, images []models.ProductImage) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	uid, _ := parseID(id)
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	err = s.Query(`UPDATE products SET image_urls = ? WHERE product_id = ?`, imageURLs(images), uid).
		WithContext(ctx).Exec()
	return errors.Wrap(err, "update product images")
}

func (r *scyllaProducts) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	uid, _ := parseID(id)
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	return errors.Wrap(s.Query(`DELETE FROM products WHERE product_id = ?`, uid).WithContext(ctx).Exec(), "delete product")
}

// --- categories ---

type scyllaCategories struct {
	sm *database.ScyllaManager
	ks string
}

func (r *scyllaCategories) Create(ctx context.Context, c *models.Category) error {
	existing, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Name, c.Name) {
			return ErrConflict
		}
	}
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	id := gocql.TimeUUID()
	c.ID = id.String()
	err = s.Query(`INSERT INTO categories (category_id, name, created_at) VALUES (?, ?, ?)`, id, c.Name, c.CreatedAt).
		WithContext(ctx).Exec()
	return errors.Wrap(err, "create category")
}

func (r *scyllaCategories) Get(ctx context.Context, id string) (*models.Category, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	c := models.Category{ID: id}
	err = s.Query(`SELECT name, created_at FROM categories WHERE category_id = ?`, uid).WithContext(ctx).
		Scan(&c.Name, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *scyllaCategories) List(ctx context.Context) ([]models.Category, error) {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	iter := s.Query(`SELECT category_id, name, created_at FROM categories`).WithContext(ctx).Iter()
	var (
		out []models.Category
		id  gocql.UUID
		c   models.Category
	)
	for iter.Scan(&id, &c.Name, &c.CreatedAt) {
		c.ID = id.String()
		out = append(out, c)
		c = models.Category{}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *scyllaCategories) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	uid, _ := parseID(id)
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	return errors.Wrap(s.Query(`DELETE FROM categories WHERE category_id = ?`, uid).WithContext(ctx).Exec(), "delete category")
}

// --- users ---

type scyllaUsers struct {
	sm *database.ScyllaManager
	ks string
}

func (r *scyllaUsers) Create(ctx context.Context, u *models.User) error {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	id := gocql.TimeUUID()
	u.ID = id.String()
	u.Email = normalizeEmail(u.Email)

	applied, err := s.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`, u.Email, id).
		WithContext(ctx).MapScanCAS(make(map[string]interface{}))
	if err != nil {
		return errors.Wrap(err, "reserve email")
	}
	if !applied {
		return ErrConflict
	}
	return r.write(ctx, s, u, id)
}

func (r *scyllaUsers) write(ctx context.Context, s *gocql.Session, u *models.User, id gocql.UUID) error {
	err := s.Query(`INSERT INTO users (user_id, name, email, password, role, is_verified, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, u.Name, u.Email, u.Password, u.Role, u.IsVerified, u.CreatedAt).WithContext(ctx).Exec()
	return errors.Wrap(err, "write user")
}

func (r *scyllaUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	u := models.User{ID: id}
	err = s.Query(`SELECT name, email, password, role, is_verified, created_at FROM users WHERE user_id = ?`, uid).
		WithContext(ctx).Scan(&u.Name, &u.Email, &u.Password, &u.Role, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *scyllaUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	var id gocql.UUID
	err = s.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, normalizeEmail(email)).
		WithContext(ctx).Scan(&id)
	if err != nil {
		return nil, notFound(err)
	}
	return r.GetByID(ctx, id.String())
}

func (r *scyllaUsers) Update(ctx context.Context, u *models.User) error {
	uid, err := parseID(u.ID)
	if err != nil {
		return err
	}
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	return r.write(ctx, s, u, uid)
}

// --- wishlist ---

type scyllaWishlist struct {
	sm *database.ScyllaManager
	ks string
}

func (r *scyllaWishlist) Add(ctx context.Context, userID, productID string) error {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	err = s.Query(`INSERT INTO wishlist (user_id, product_id, added_at) VALUES (?, ?, ?) IF NOT EXISTS`,
		userID, productID, time.Now()).WithContext(ctx).Exec()
	return errors.Wrap(err, "add wishlist item")
}

func (r *scyllaWishlist) Remove(ctx context.Context, userID, productID string) error {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return err
	}
	err = s.Query(`DELETE FROM wishlist WHERE user_id = ? AND product_id = ?`, userID, productID).
		WithContext(ctx).Exec()
	return errors.Wrap(err, "remove wishlist item")
}

func (r *scyllaWishlist) ProductIDs(ctx context.Context, userID string) ([]string, error) {
	s, err := r.sm.Session(r.ks)
	if err != nil {
		return nil, err
	}
	type entry struct {
		id      string
		addedAt time.Time
	}
	iter := s.Query(`SELECT product_id, added_at FROM wishlist WHERE user_id = ?`, userID).WithContext(ctx).Iter()
	var (
		entries []entry
		e       entry
	)
	for iter.Scan(&e.id, &e.addedAt) {
		entries = append(entries, e)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].addedAt.After(entries[j].addedAt) })
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids, nil
}
