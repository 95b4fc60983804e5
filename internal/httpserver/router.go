package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-kit/internal/cartstate"
	"storefront-kit/internal/config"
	"storefront-kit/internal/service/catalog"
	"storefront-kit/internal/service/session"
)

type sessionService interface {
	Issue(ctx context.Context) (session.Session, error)
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	TTLSeconds() int
}

type catalogService interface {
	GetProduct(ctx context.Context, args catalog.ProductArgs) catalog.ProductResult
	GetCollection(ctx context.Context, args catalog.CollectionArgs) catalog.CollectionResult
	Search(ctx context.Context, args catalog.SearchArgs) catalog.SearchResult
}

type cartManager interface {
	For(ctx context.Context, sessionID string) (*cartstate.Synchronizer, error)
	Forget(sessionID string)
}

// Deps are the services the routes are served from.
type Deps struct {
	Sessions         sessionService
	Catalog          catalogService
	Carts            cartManager
	Definitions      config.Definitions
	CatalogOptions   catalog.Options
	CORSAllowOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(deps.CORSAllowOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	router.POST("/sessions", h.createSession)
	router.DELETE("/sessions", sessionMiddleware(deps.Sessions), h.deleteSession)

	router.GET("/products/:handle", h.getProduct)
	router.GET("/collections/:handle", h.getCollection)
	router.GET("/search", h.search)

	cart := router.Group("/cart", sessionMiddleware(deps.Sessions))
	cart.GET("", h.getCart)
	cart.POST("/lines", h.addLines)
	cart.PATCH("/lines/:lineId", h.updateLine)
	cart.DELETE("/lines/:lineId", h.removeLine)
	cart.DELETE("/lines", h.emptyCart)
	cart.POST("/discounts", h.applyDiscount)
	cart.DELETE("/discounts", h.removeDiscount)
	cart.PUT("/attributes", h.updateAttributes)
	cart.PUT("/buyer-identity", h.updateBuyerIdentity)
	cart.POST("/merge", h.mergeCarts)
	cart.POST("/reset", h.resetCart)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", sessionHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
