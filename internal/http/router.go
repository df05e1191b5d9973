// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery,
// authentication, compression, metrics, idempotency, rate limiting, CORS and
// security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-recipe-backend/docs"
	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/config"
	"github.com/tbourn/go-recipe-backend/internal/http/handlers"
	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// maxBodyBytes caps request bodies for every endpoint.
const maxBodyBytes = 1 << 20

// Deps carries optional infrastructure. A nil Redis keeps rate limiting
// in-process.
type Deps struct {
	Redis redis.Cmdable
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health, metrics
// and docs endpoints, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Authenticate: resolve the caller (anonymous allowed)
//  6. Body size limiter
//  7. Gzip (not for /metrics)
//  8. Metrics
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per user/IP, bypass on replay; Redis-backed when configured)
//  11. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderUserID},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Caller identity
	var verifier middleware.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = &auth.Verifier{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.JWTIssuer}
	}
	r.Use(middleware.Authenticate(middleware.AuthOptions{
		Verifier:        verifier,
		TrustUserHeader: cfg.Auth.TrustUserHeader,
	}))

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(maxBodyBytes))

	// 7) Response compression; Prometheus negotiates its own encoding
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 10) Rate limiter per user/IP
	if deps.Redis != nil {
		limit, window := redisWindow(cfg.RateRPS, cfg.RateBurst)
		r.Use(middleware.NewRedisLimiter(deps.Redis, limit, window, middleware.KeyByUserOrIP()).Handler())
	} else {
		r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler())
	}

	// 11) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	apiBase := cfg.APIBasePath // e.g. "/api"
	if apiBase == "/" {
		apiBase = ""
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		NoStoreRoutes: []string{apiBase + "/shopping_list"},
		EnablePolicy:  true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db
	subsSvc := &services.SubscriptionService{DB: db}
	h := handlers.New(handlers.Services{
		Recipes:       &services.RecipeService{DB: db, IdempotencyTTL: cfg.IdempotencyTTL},
		Catalog:       &services.CatalogService{DB: db},
		Memberships:   &services.MembershipService{DB: db},
		Subscriptions: subsSvc,
		ShoppingList:  &services.ShoppingListService{DB: db, Header: cfg.ShoppingListHeader},
	})
	authed := middleware.RequireAuth(subsSvc.UserExists)

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Catalog
		api.GET("/tags", h.ListTags)
		api.GET("/tags/:id", h.GetTag)
		api.GET("/ingredients", h.ListIngredients)
		api.GET("/ingredients/:id", h.GetIngredient)

		// Recipes
		api.GET("/recipes", h.ListRecipes)
		api.GET("/recipes/:id", h.GetRecipe)
		api.POST("/recipes", authed, h.CreateRecipe)
		api.PATCH("/recipes/:id", authed, h.UpdateRecipe)
		api.DELETE("/recipes/:id", authed, h.DeleteRecipe)

		// Favorites and cart
		api.POST("/recipes/:id/favorite", authed, h.AddFavorite)
		api.DELETE("/recipes/:id/favorite", authed, h.RemoveFavorite)
		api.POST("/recipes/:id/shopping_cart", authed, h.AddToCart)
		api.DELETE("/recipes/:id/shopping_cart", authed, h.RemoveFromCart)
		api.GET("/shopping_list", authed, h.DownloadShoppingList)

		// Users and subscriptions
		api.GET("/users/:id", h.GetUser)
		api.POST("/users/:id/subscribe", authed, h.Subscribe)
		api.DELETE("/users/:id/subscribe", authed, h.Unsubscribe)
		api.GET("/subscriptions", authed, h.ListSubscriptions)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
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

// redisWindow converts token-bucket settings into a fixed window holding
// burst requests and lasting as long as the bucket takes to refill, so the
// long-run rate stays at rps. rps <= 0 yields one-second windows.
func redisWindow(rps float64, burst int) (int, time.Duration) {
	if burst < 1 {
		burst = 1
	}
	if rps <= 0 {
		return burst, time.Second
	}
	secs := float64(burst) / rps
	window := time.Duration(math.Ceil(secs*1000)) * time.Millisecond
	if window < time.Second {
		window = time.Second
		burst = int(math.Ceil(rps))
	}
	return burst, window
}
