package server

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// createCORSMiddleware returns nil when no origins are configured. "*" allows every origin.
func createCORSMiddleware(allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	origins := parseOrigins(allowOrigins)
	if len(origins) == 0 {
		return nil
	}

	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))
	return cors.New(config)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
