package server

import (
	"context"
	"log/slog"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds the knobs of the middleware stack.
type RouterConfig struct {
	CORSOrigins     string
	TokenRatePerSec float64
	TokenRateBurst  int
}

// NewRouter wires the middleware stack and routes. ctx bounds background work such as
// rate limiter cleanup. metrics may be nil.
func NewRouter(ctx context.Context, h *Handler, metrics *Metrics, cfg RouterConfig, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestid.New(), LoggingMiddleware(logger), metrics.Middleware())
	if mw := createCORSMiddleware(cfg.CORSOrigins, logger); mw != nil {
		r.Use(mw)
	}

	r.GET("/health", h.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	r.POST("/signup", h.Signup)

	token := []gin.HandlerFunc{h.Token}
	if cfg.TokenRatePerSec > 0 {
		token = append([]gin.HandlerFunc{TokenRateLimitMiddleware(ctx, cfg.TokenRatePerSec, cfg.TokenRateBurst, logger)}, token...)
	}
	r.POST("/token", token...)

	api := r.Group("/api", RequireBearer(h.tokens, h.users, logger))
	api.POST("/aws/resources", h.Resources)

	return r
}
