// Package apptest runs the full API in-process on the memory store and an
// embedded redis, for tests of the HTTP surface and of the storefront client.
package apptest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexusmart/internal/app"
	"nexusmart/internal/cache"
	"nexusmart/internal/config"
	"nexusmart/internal/events"
	"nexusmart/internal/models"
	"nexusmart/internal/repository"
	"nexusmart/internal/utils"
)

const (
	AdminEmail    = "admin@nexusmart.test"
	AdminPassword = "admin-password"
)

type Server struct {
	*httptest.Server
	App      *app.App
	Store    *repository.Store
	Redis    *miniredis.Miniredis
	Recorder *events.Recorder
}

func Config() *config.Config {
	return &config.Config{
		Env:           "test",
		FrontendURL:   "http://localhost:5173",
		AdminEmail:    AdminEmail,
		AdminPassword: AdminPassword,
		JWTSecret:     "test-secret",
		JWTTTL:        time.Hour,
		SessionSecret: "test-session-secret-0123456789abcdef",
		UPIPayee:      "nexusmart@fampay",
		UPIPayeeName:  "NexusMart",
	}
}

func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := repository.NewMemoryStore()
	rec := &events.Recorder{}
	logger := zap.NewNop()

	a, err := app.New(context.Background(), Config(), logger, app.Infra{
		Store:     store,
		Redis:     rdb,
		Publisher: rec,
		Mailer:    utils.NewLogMailer(logger),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(a.Engine)
	t.Cleanup(srv.Close)
	return &Server{Server: srv, App: a, Store: store, Redis: mr, Recorder: rec}
}

// Product seeds a catalogue product priced at price with stock 10.
func (s *Server) Product(t testing.TB, name string, price float64) models.Product {
	t.Helper()
	ctx := context.Background()
	cats, err := s.App.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	var catID string
	if len(cats) > 0 {
		catID = cats[0].ID
	} else {
		cat, err := s.App.Catalog.CreateCategory(ctx, "General")
		require.NoError(t, err)
		catID = cat.ID
	}
	stock := 10
	p, err := s.App.Catalog.CreateProduct(ctx, models.NewProductRequest{
		Name:        name,
		Description: name,
		Price:       price,
		Stock:       &stock,
		CategoryID:  catID,
	})
	require.NoError(t, err)
	return *p
}

// OTP returns the pending code for purpose and subject, as the recipient of
// the email would see it.
func (s *Server) OTP(t testing.TB, purpose cache.OTPPurpose, subject string) string {
	t.Helper()
	code, err := s.Redis.Get(string(purpose) + ":" + subject)
	require.NoError(t, err)
	return code
}
