package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/early-express/inventory-service/internal/infrastructure/logger"
	"github.com/early-express/inventory-service/internal/interfaces/http/middleware"
)

// RouteRegistrar registers a handler's routes on a router group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router-level settings
type Config struct {
	Env            string
	MaxBodySize    int64
	TrustedProxies []string
}

// New builds the gin engine with the common middleware chain and
// mounts every registrar under /v1/inventory.
func New(cfg Config, log *zap.Logger, registrars ...RouteRegistrar) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/v1/inventory")
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}

	return engine, nil
}
