// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, access logging, panic recovery, metrics, CORS,
// security headers, compression, idempotency, rate limiting and the bearer
// token gate.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic router setup; all dependencies injected
//   - Authentication per route group, never globally
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-classifieds-backend/internal/auth"
	"github.com/tbourn/go-classifieds-backend/internal/config"
	"github.com/tbourn/go-classifieds-backend/internal/http/handlers"
	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/repo"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency-Key validation
//  8. Per-IP rate limiter
//  9. CORS, security headers and gzip
//
// Protected groups add Authenticate, the idempotent-replay lookup (chat only)
// and a per-user rate limiter, in that order.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tokens *auth.TokenService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}))
	r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Handler())
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Operational endpoints
	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/tokens
	accounts := services.NewAccountService(db, tokens, cfg.Auth.BcryptCost)
	catalog := services.NewCatalogService(db)
	favs := services.NewFavoriteService(db)
	convs := services.NewConversationService(db, repo.ConversationStore{})
	msgs := services.NewMessageService(db, cfg.IdempotencyTTL)
	h := handlers.New(accounts, catalog, favs, convs, msgs)

	authn := middleware.Authenticate(tokens)
	perUser := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler()

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Accounts
		acct := api.Group("/auth", noStore)
		acct.POST("/register", h.Register)
		acct.POST("/login", h.Login)
		me := acct.Group("/me", authn, perUser)
		me.GET("", h.Me)
		me.PUT("", h.UpdateMe)
		me.GET("/products", h.MyProducts)

		// Catalog
		api.GET("/categories", h.ListCategories)
		products := api.Group("/products")
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		owned := products.Group("", authn, perUser)
		owned.POST("", h.CreateProduct)
		owned.PUT("/:id", h.UpdateProduct)
		owned.PATCH("/:id/sold", h.MarkProductSold)
		owned.DELETE("/:id", h.DeleteProduct)

		// Favorites
		favorites := api.Group("/favorites", authn, perUser)
		favorites.POST("", h.ToggleFavorite)
		favorites.GET("", h.ListFavorites)

		// Chat
		chat := api.Group("/chat", authn, middleware.IdempotentReplay(msgs.HasReplay), perUser)
		chat.GET("/unseen/count", h.UnseenCount)
		chat.POST("/conversations", h.StartConversation)
		chat.GET("/conversations", h.ListConversations)
		chat.GET("/conversations/:id/messages", h.ListMessages)
		chat.POST("/conversations/:id/messages", h.SendMessage)
		chat.PUT("/conversations/:id/read", h.MarkRead)
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// only the listed ones. Credentials are never allowed; tokens travel in the
// Authorization header.
func corsMiddleware(cc config.CORSConfig) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"If-None-Match", middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "ETag", "Retry-After",
			middleware.HeaderIdempotencyReplayed,
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = cc.AllowedOrigins
	}
	return cors.New(conf)
}

// healthHandler reports 200 while the database answers a ping within two
// seconds, 503 otherwise.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}

// noStore keeps account responses, which carry tokens and contact details,
// out of shared caches.
func noStore(c *gin.Context) {
	middleware.NoStore(c)
	c.Next()
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Oversized bodies fail when read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
