// Package app assembles the services and the HTTP router from already
// connected infrastructure.
package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nexusmart/internal/auth"
	"nexusmart/internal/cache"
	"nexusmart/internal/config"
	"nexusmart/internal/events"
	"nexusmart/internal/handlers"
	"nexusmart/internal/metrics"
	"nexusmart/internal/repository"
	"nexusmart/internal/routes"
	"nexusmart/internal/service"
	"nexusmart/internal/services"
	"nexusmart/internal/utils"
)

// Infra carries the connected backends. Search, Images and Publisher are
// optional.
type Infra struct {
	Store     *repository.Store
	Redis     *redis.Client
	Search    services.ProductSearch
	Images    *services.ImageStore
	Publisher events.Publisher
	Mailer    utils.Mailer
	Health    map[string]handlers.Pinger
}

type App struct {
	Engine  *gin.Engine
	Cache   *cache.Cache
	Metrics *metrics.Metrics
	Auth    *service.AuthService
	Orders  *service.OrderService
	Catalog *service.CatalogService
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, infra Infra) (*App, error) {
	if infra.Publisher == nil {
		infra.Publisher = events.NopPublisher{}
	}
	c := cache.New(infra.Redis)
	m := metrics.New()

	authSvc := service.NewAuthService(infra.Store, c, infra.Mailer, logger)
	catalog := service.NewCatalogService(service.CatalogDeps{
		Store:  infra.Store,
		Cache:  c,
		Search: infra.Search,
		Images: infra.Images,
		Logger: logger,
	})
	orders := service.NewOrderService(service.OrderDeps{
		Store:      infra.Store,
		Cache:      c,
		Mailer:     infra.Mailer,
		Publisher:  infra.Publisher,
		Metrics:    m,
		AdminEmail: cfg.AdminEmail,
		Logger:     logger,
	})
	wishlist := service.NewWishlistService(infra.Store, c, catalog)

	if cfg.AdminPassword != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, errors.Wrap(err, "seed admin")
		}
		logger.Info("👑 admin account ready", zap.String("email", cfg.AdminEmail))
	}

	health := map[string]handlers.Pinger{"redis": c}
	for name, p := range infra.Health {
		health[name] = p
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Config:   cfg,
		Logger:   logger,
		Cache:    c,
		Metrics:  m,
		Issuer:   utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Sessions: auth.NewSessionStore(cfg.SessionSecret, cfg.CookieSecure),
		Auth:     authSvc,
		Orders:   orders,
		Catalog:  catalog,
		Wishlist: wishlist,
		Health:   health,
	})

	return &App{
		Engine:  r,
		Cache:   c,
		Metrics: m,
		Auth:    authSvc,
		Orders:  orders,
		Catalog: catalog,
	}, nil
}
