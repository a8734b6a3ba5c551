// Package auth runs the login and signup workflows against the API and records the
// resulting session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jellydator/validation"

	"github.com/chukul/cloudview/internal/api"
	apperrors "github.com/chukul/cloudview/internal/errors"
	"github.com/chukul/cloudview/internal/guard"
	"github.com/chukul/cloudview/internal/session"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	// ErrLoginFailed wraps every login failure past local validation. Callers are not
	// expected to tell bad credentials from network trouble.
	ErrLoginFailed = errors.New("login failed")
	// ErrSignupFailed wraps every signup failure past local validation.
	ErrSignupFailed = errors.New("signup failed")
	// ErrPasswordMismatch is the local precondition failure of Signup.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Client is the subset of the API client used here.
type Client interface {
	Login(ctx context.Context, email, password string) (*api.Token, error)
	Signup(ctx context.Context, email, password string) error
}

// Service owns the transitions into and out of an authenticated session.
type Service struct {
	client Client
	store  session.Store
	logger *slog.Logger
}

func NewService(client Client, store session.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, logger: logger}
}

// Login authenticates, stores the token and returns the dashboard view.
func (s *Service) Login(ctx context.Context, email, password string) (guard.View, error) {
	email = strings.TrimSpace(email)
	if err := validateLogin(email, password); err != nil {
		return guard.ViewLogin, err
	}

	tok, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.logger.Debug("login rejected", "email", email, "error", err)
		return guard.ViewLogin, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if err := s.store.Set(tok.AccessToken); err != nil {
		return guard.ViewLogin, fmt.Errorf("%w: failed to store session: %w", ErrLoginFailed, err)
	}

	s.logger.Info("logged in", "email", email)
	return guard.ViewDashboard, nil
}

// Signup registers an account and returns the login view. It never authenticates.
// A password mismatch is detected before any request is sent.
func (s *Service) Signup(ctx context.Context, email, password, confirmPassword string) (guard.View, error) {
	email = strings.TrimSpace(email)
	if password != confirmPassword {
		return guard.ViewSignup, apperrors.Invalid(ErrPasswordMismatch)
	}
	if err := validateSignup(email, password); err != nil {
		return guard.ViewSignup, err
	}

	if err := s.client.Signup(ctx, email, password); err != nil {
		s.logger.Debug("signup rejected", "email", email, "error", err)
		return guard.ViewSignup, fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}

	s.logger.Info("account created", "email", email)
	return guard.ViewLogin, nil
}

// Logout drops the session and returns the login view.
func (s *Service) Logout() (guard.View, error) {
	if err := s.store.Clear(); err != nil {
		return guard.ViewLogin, fmt.Errorf("failed to clear session: %w", err)
	}
	return guard.ViewLogin, nil
}

// maxPasswordBytes is the bcrypt limit the API enforces on signup.
const maxPasswordBytes = 72

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateLogin(email, password string) error {
	f := loginForm{Email: email, Password: password}
	return apperrors.Invalid(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required),
		validation.Field(&f.Password, validation.Required),
	))
}

func validateSignup(email, password string) error {
	f := loginForm{Email: email, Password: password}
	return apperrors.Invalid(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, validation.Match(emailRegex).Error("must be a valid email address")),
		validation.Field(&f.Password, validation.Required, validation.Length(1, maxPasswordBytes)),
	))
}
