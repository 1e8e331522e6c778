package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/events"
	"nexusmart/internal/metrics"
	"nexusmart/internal/models"
	"nexusmart/internal/repository"
)

type sentMail struct {
	To, Subject, HTML string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

func (m *fakeMailer) To(addr string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.To == addr {
			out = append(out, s)
		}
	}
	return out
}

var errStoreDown = errors.New("scylla timeout")

// failingUpdates fails the next `failures` calls to Update.
type failingUpdates struct {
	repository.OrderRepository
	mu       sync.Mutex
	failures int
}

func (r *failingUpdates) Update(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return r.OrderRepository.Update(ctx, o)
}

// fixedOTPs hands out codes in order.
func fixedOTPs(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

type testEnv struct {
	store     *repository.Store
	cache     *cache.Cache
	redis     *miniredis.Miniredis
	mailer    *fakeMailer
	recorder  *events.Recorder
	metrics   *metrics.Metrics
	orders    *OrderService
	auth      *AuthService
	catalog   *CatalogService
	wishlist  *WishlistService
	now       time.Time
	adminMail string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{
		store:     repository.NewMemoryStore(),
		cache:     cache.New(rdb),
		redis:     mr,
		mailer:    &fakeMailer{},
		recorder:  &events.Recorder{},
		metrics:   metrics.New(),
		now:       time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		adminMail: "ops@nexusmart.in",
	}
	logger := zap.NewNop()
	clock := func() time.Time { return env.now }

	env.orders = NewOrderService(OrderDeps{
		Store:      env.store,
		Cache:      env.cache,
		Mailer:     env.mailer,
		Publisher:  env.recorder,
		Metrics:    env.metrics,
		AdminEmail: env.adminMail,
		Logger:     logger,
	})
	env.orders.now = clock
	env.orders.runAsync = func(f func()) { f() }

	env.auth = NewAuthService(env.store, env.cache, env.mailer, logger)
	env.auth.now = clock

	env.catalog = NewCatalogService(CatalogDeps{Store: env.store, Cache: env.cache, Logger: logger})
	env.catalog.now = clock
	env.wishlist = NewWishlistService(env.store, env.cache, env.catalog)
	return env
}

func (e *testEnv) product(t *testing.T, name string, price float64) models.Product {
	t.Helper()
	ctx := context.Background()
	cats, err := e.store.Categories.List(ctx)
	require.NoError(t, err)
	var catID string
	if len(cats) == 0 {
		c := &models.Category{Name: "General"}
		require.NoError(t, e.store.Categories.Create(ctx, c))
		catID = c.ID
	} else {
		catID = cats[0].ID
	}
	stock := 10
	p, err := e.catalog.CreateProduct(ctx, models.NewProductRequest{
		Name: name, Description: name + " description", Price: price, Stock: &stock, CategoryID: catID,
	})
	require.NoError(t, err)
	return *p
}

func (e *testEnv) customer(t *testing.T, email string) models.User {
	t.Helper()
	u := &models.User{Name: "Customer", Email: email, Role: models.RoleUser, IsVerified: true}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return *u
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		Address:    "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
		PhoneNo:    "9876543210",
		Country:    "India",
	}
}
