package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
	"nexusmart/internal/config"
	"nexusmart/internal/handlers"
	"nexusmart/internal/handlers/admin"
	"nexusmart/internal/handlers/payment"
	"nexusmart/internal/handlers/product"
	"nexusmart/internal/handlers/user"
	"nexusmart/internal/metrics"
	"nexusmart/internal/middleware"
	"nexusmart/internal/service"
	"nexusmart/internal/utils"
)

// Deps is everything the HTTP layer needs. main builds it once.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Cache    *cache.Cache
	Metrics  *metrics.Metrics
	Issuer   *utils.TokenIssuer
	Sessions sessions.Store
	Auth     *service.AuthService
	Orders   *service.OrderService
	Catalog  *service.CatalogService
	Wishlist *service.WishlistService
	Health   map[string]handlers.Pinger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(d.Logger, d.Metrics),
		middleware.CORS(d.Config.FrontendURL),
	)

	r.GET("/health", handlers.Health(d.Health))
	r.GET("/metrics", d.Metrics.Handler())

	limiter := middleware.NewRateLimiter(d.Cache, d.Logger)
	authMW := middleware.NewAuth(d.Issuer, d.Cache, d.Logger)
	requireAuth := authMW.Required()
	adminOnly := []gin.HandlerFunc{requireAuth, middleware.RequireAdmin}
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.AuditAdminAction(d.Logger, action, resource)
	}

	authH := user.NewAuthHandler(d.Auth, d.Issuer, d.Cache, d.Config.CookieSecure, d.Logger)
	orderH := user.NewOrderHandler(d.Orders, d.Logger)
	wishlistH := user.NewWishlistHandler(d.Wishlist, d.Logger)
	productH := product.NewHandler(d.Catalog, d.Logger)
	adminOrderH := admin.NewOrderHandler(d.Orders, d.Logger)
	paymentH := payment.NewHandler(d.Config.UPIPayee, d.Config.UPIPayeeName, d.Logger)
	shippingH := payment.NewShippingHandler(d.Sessions, d.Logger)

	api := r.Group("/api", limiter.API())

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limiter.Register(), authH.Register)
		authGroup.POST("/verify", limiter.OTP(), authH.Verify)
		authGroup.POST("/login", limiter.Login(), authH.Login)
		authGroup.GET("/logout", authH.Logout)
		authGroup.GET("/me", requireAuth, authH.Me)
		authGroup.POST("/password/forgot", limiter.OTP(), authH.ForgotPassword)
		authGroup.PUT("/password/reset", limiter.OTP(), authH.ResetPassword)
	}

	// Catalogue
	products := api.Group("/products")
	{
		products.GET("", productH.GetProducts)
		products.GET("/:id", productH.GetProduct)
		products.POST("", append(adminOnly, audit("create", "product"), productH.CreateProduct)...)
		products.DELETE("/:id", append(adminOnly, audit("delete", "product"), productH.DeleteProduct)...)
		products.POST("/:id/image", append(adminOnly, audit("upload_image", "product"), productH.UploadProductImage)...)
	}
	categories := api.Group("/categories")
	{
		categories.GET("", productH.GetCategories)
		categories.POST("", append(adminOnly, audit("create", "category"), productH.CreateCategory)...)
		categories.DELETE("/:id", append(adminOnly, audit("delete", "category"), productH.DeleteCategory)...)
	}

	// Orders
	orders := api.Group("/orders")
	{
		orders.POST("/new", requireAuth, orderH.CreateOrder)
		orders.GET("/me", requireAuth, orderH.GetMyOrders)
		orders.GET("/:id", requireAuth, orderH.GetOrderByID)
		orders.PUT("/:id/cancel", requireAuth, orderH.CancelOrder)

		adminOrders := orders.Group("/admin", adminOnly...)
		adminOrders.GET("/orders", adminOrderH.GetAllOrders)
		adminOrders.GET("/stats", adminOrderH.GetStats)
		adminOrders.PUT("/order/:id", audit("update", "order"), adminOrderH.UpdateOrder)
		adminOrders.POST("/order/:id/cancel-otp", limiter.OTP(), audit("cancel_otp", "order"), adminOrderH.RequestCancelOTP)
	}

	// Checkout
	api.GET("/payment/upi-qr", paymentH.UPIQR)
	api.GET("/checkout/shipping", shippingH.GetShipping)
	api.PUT("/checkout/shipping", shippingH.SaveShipping)

	// Wishlist
	wishlist := api.Group("/wishlist", requireAuth)
	{
		wishlist.GET("/me", wishlistH.GetWishlist)
		wishlist.POST("/add", wishlistH.AddToWishlist)
		wishlist.DELETE("/:id", wishlistH.RemoveFromWishlist)
	}
}
