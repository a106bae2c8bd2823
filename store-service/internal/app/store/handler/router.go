package handler

import (
	"net/http"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/store-service/internal/app/store/config"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "store-service"

// MediaResolver находит загруженный файл в публичной директории (media.Storage)
type MediaResolver interface {
	Exists(name string) (string, bool)
}

// Handlers - все обработчики, которые монтирует роутер
type Handlers struct {
	Product *ProductHandler
	Catalog *CatalogHandler
	Order   *OrderHandler
	Wallet  *WalletHandler
	Admin   *AdminHandler
}

// SetupRoutes настраивает все маршруты Store Service.
// Запись каталога, статистика и операции с кошельком требуют роль администратора,
// чтение каталога и оформление заказа публичные
func SetupRoutes(
	cfg *config.Config,
	h Handlers,
	authMiddleware *AuthMiddleware,
	limiter *ratelimit.Limiter,
	files MediaResolver,
) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxMultipartMemory

	// Без списка прокси gin доверяет X-Forwarded-For от любого адреса
	var proxies []string
	if len(cfg.Server.TrustedProxies) > 0 {
		proxies = cfg.Server.TrustedProxies
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		logger.Warn().Err(err).Strs("trusted_proxies", proxies).Msg("Invalid trusted proxies, X-Forwarded-For is ignored")
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"requestId": logger.RequestID(c),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limits := cfg.RateLimit
	admin := []gin.HandlerFunc{authMiddleware.Authenticate(), authMiddleware.RequireRole(cfg.JWT.AdminRole)}

	api := router.Group("/api")
	api.Use(limiter.Middleware(ratelimit.Policy{Name: "general", Limit: limits.General}))

	productLimit := limiter.Middleware(ratelimit.Policy{Name: "product", Limit: limits.Product})
	uploadLimit := limiter.Middleware(ratelimit.Policy{Name: "upload", Limit: limits.Upload})

	products := api.Group("/products")
	products.Use(productLimit)
	{
		products.GET("", h.Product.ListProducts)
		products.GET("/:id", h.Product.GetProduct)

		// Запись товара загружает файлы: лимит upload поверх лимита product
		writes := products.Group("", admin...)
		writes.POST("", uploadLimit, h.Product.CreateProduct)
		writes.PUT("/:id", uploadLimit, h.Product.UpdateProduct)
		writes.DELETE("/:id", h.Product.DeleteProduct)
	}

	api.GET("/search",
		limiter.Middleware(ratelimit.Policy{Name: "search", Limit: limits.Search}),
		h.Product.SearchProducts,
	)
	api.GET("/slugs/:slug", h.Product.GetProductBySlug)

	categories := api.Group("/categories")
	{
		categories.GET("", h.Catalog.GetAllCategories)
		categories.GET("/:id", h.Catalog.GetCategory)

		writes := categories.Group("", admin...)
		writes.POST("", h.Catalog.CreateCategory)
		writes.PUT("/:id", h.Catalog.UpdateCategory)
		writes.DELETE("/:id", h.Catalog.DeleteCategory)
	}

	merchants := api.Group("/merchants")
	merchants.Use(productLimit)
	{
		merchants.GET("", h.Catalog.GetAllMerchants)
		merchants.GET("/:id", h.Catalog.GetMerchant)

		writes := merchants.Group("", admin...)
		writes.POST("", h.Catalog.CreateMerchant)
		writes.PUT("/:id", h.Catalog.UpdateMerchant)
		writes.DELETE("/:id", h.Catalog.DeleteMerchant)
	}

	orders := api.Group("/orders")
	orders.Use(limiter.Middleware(ratelimit.Policy{Name: "order", Limit: limits.Order}))
	{
		orders.POST("", h.Order.CreateOrder)

		reads := orders.Group("", admin...)
		reads.GET("", h.Order.GetAllOrders)
		reads.GET("/:id", h.Order.GetOrder)
	}

	wallet := api.Group("/wallet")
	wallet.Use(limiter.Middleware(ratelimit.Policy{Name: "wallet", Limit: limits.Wallet}))
	wallet.Use(authMiddleware.Authenticate())
	{
		owner := authMiddleware.RequireSelfOrRole("userId", cfg.JWT.AdminRole)
		wallet.GET("/balance/:userId", owner, h.Wallet.GetBalance)
		wallet.GET("/transactions/:userId", owner, h.Wallet.GetTransactions)

		wallet.POST("/transactions", authMiddleware.RequireRole(cfg.JWT.AdminRole), h.Wallet.CreateTransaction)
		wallet.GET("/stats", authMiddleware.RequireRole(cfg.JWT.AdminRole), h.Wallet.GetStats)
	}

	adminGroup := api.Group("/admin", admin...)
	adminGroup.GET("/stats", h.Admin.GetDashboardStats)

	router.NoRoute(serveMedia(files))

	return router
}

// serveMedia отдаёт загруженный файл по имени из пути, иначе 404
func serveMedia(files MediaResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			name := strings.TrimPrefix(c.Request.URL.Path, "/")
			if path, ok := files.Exists(name); ok {
				c.Header("X-Content-Type-Options", "nosniff")
				c.File(path)
				return
			}
		}

		c.JSON(http.StatusNotFound, entity.ErrorResponse{
			Error:     "Route not found",
			RequestID: logger.RequestID(c),
		})
	}
}

// corsConfig: разрешены адреса фронтенда, в режиме разработки любой http://localhost:*
func corsConfig(cfg *config.Config) cors.Config {
	allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
	for _, origin := range cfg.CORS.AllowedOrigins {
		allowed[origin] = struct{}{}
	}
	development := cfg.Server.Development

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if _, ok := allowed[origin]; ok {
				return true
			}
			return development && strings.HasPrefix(origin, "http://localhost:")
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
