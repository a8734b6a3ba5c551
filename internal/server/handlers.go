package server

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/validation"

	apperrors "github.com/chukul/cloudview/internal/errors"
	"github.com/chukul/cloudview/internal/resource"
	"github.com/chukul/cloudview/internal/server/auth"
	"github.com/chukul/cloudview/internal/server/store"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Users is the account storage used by the handlers.
type Users interface {
	Create(ctx context.Context, email, hashedPassword string) (*store.User, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
}

// Collector gathers an inventory for one set of provider credentials.
type Collector interface {
	Collect(ctx context.Context, creds resource.Credentials) (*resource.Inventory, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// TokenResponse is returned by /signup and /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Match(emailRegex).Error("must be a valid email address")),
		validation.Field(&r.Password, validation.Required, validation.Length(1, auth.MaxPasswordBytes)),
	)
}

// Handler serves the account and inventory endpoints.
type Handler struct {
	users     Users
	tokens    *auth.Tokens
	collector Collector
	metrics   *Metrics
	logger    *slog.Logger
}

func NewHandler(users Users, tokens *auth.Tokens, collector Collector, metrics *Metrics, logger *slog.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, collector: collector, metrics: metrics, logger: logger}
}

// Health reports the process and, when available, database reachability.
func (h *Handler) Health(c *gin.Context) {
	if p, ok := h.users.(pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Signup creates an account and returns a token for it.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleError(c, problem(http.StatusUnprocessableEntity, "Invalid request body", err), h.logger)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		HandleError(c, apperrors.Invalid(err), h.logger)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		HandleError(c, err, h.logger)
		return
	}

	if _, err := h.users.Create(c.Request.Context(), req.Email, hash); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			err = problem(http.StatusBadRequest, "Email already registered", err)
		}
		HandleError(c, err, h.logger)
		return
	}

	h.logger.Info("account created", slog.String("email", req.Email))
	h.respondWithToken(c, req.Email)
}

// Token exchanges form-encoded username and password for an access token.
func (h *Handler) Token(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if email == "" || password == "" {
		HandleError(c, problem(http.StatusUnprocessableEntity, "username and password are required", nil), h.logger)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		HandleError(c, err, h.logger)
		return
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, password) {
		HandleError(c, problem(http.StatusUnauthorized, "Incorrect email or password", apperrors.ErrUnauthorized), h.logger)
		return
	}

	h.respondWithToken(c, email)
}

// Resources collects the inventory for the posted credentials.
func (h *Handler) Resources(c *gin.Context) {
	var creds resource.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		HandleError(c, problem(http.StatusUnprocessableEntity, "Invalid request body", err), h.logger)
		return
	}
	creds = creds.WithDefaults()
	if err := creds.Validate(); err != nil {
		HandleError(c, err, h.logger)
		return
	}

	inv, err := h.collector.Collect(c.Request.Context(), creds)
	h.metrics.ObserveFetch(err, inv.Total())
	if err != nil {
		HandleError(c, problem(http.StatusBadRequest, err.Error(), err), h.logger)
		return
	}

	h.logger.Info("inventory served",
		slog.String("user", CurrentUser(c)),
		slog.String("region", creds.Region),
		slog.Int("items", inv.Total()),
	)
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) respondWithToken(c *gin.Context, email string) {
	token, err := h.tokens.Issue(email)
	if err != nil {
		HandleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}
