package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/chukul/cloudview/internal/server/auth"
)

const userKey = "user_email"

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// RequireBearer verifies the bearer token and that its subject still has an account.
func RequireBearer(tokens *auth.Tokens, users Users, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || raw == "" {
			HandleError(c, problem(http.StatusUnauthorized, "Not authenticated", nil), logger)
			return
		}

		email, err := tokens.Verify(raw)
		if err != nil {
			HandleError(c, err, logger)
			return
		}
		if _, err := users.GetByEmail(c.Request.Context(), email); err != nil {
			HandleError(c, problem(http.StatusUnauthorized, "Could not validate credentials", err), logger)
			return
		}

		c.Set(userKey, email)
		c.Next()
	}
}

// CurrentUser returns the email set by RequireBearer.
func CurrentUser(c *gin.Context) string {
	return c.GetString(userKey)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

type limiterStore struct {
	limiters sync.Map
	rps      float64
	burst    int
}

// TokenRateLimitMiddleware limits login attempts per client IP. The limiter map is
// pruned until ctx is done.
func TokenRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &limiterStore{rps: rps, burst: burst}
	go store.cleanupStale(ctx, 5*time.Minute, time.Hour)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := store.get(ip)

		if !limiter.Allow() {
			r := limiter.Reserve()
			retryAfter := int(r.Delay().Seconds()) + 1
			r.Cancel()

			logger.Debug("token rate limit exceeded", slog.String("client_ip", ip), slog.Int("retry_after", retryAfter))
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Detail: "Too many login attempts, please retry later"})
			return
		}
		c.Next()
	}
}

func (s *limiterStore) get(ip string) *rate.Limiter {
	now := time.Now()
	val, loaded := s.limiters.LoadOrStore(ip, &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	})
	entry := val.(*limiterEntry)
	if loaded {
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
	}
	return entry.limiter
}

func (s *limiterStore) cleanupStale(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-maxIdle)
			s.limiters.Range(func(key, value any) bool {
				entry := value.(*limiterEntry)
				entry.mu.Lock()
				stale := entry.lastAccess.Before(threshold)
				entry.mu.Unlock()
				if stale {
					s.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
