// Package api is the HTTP client for the resource-viewer API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chukul/cloudview/internal/resource"
)

const (
	pathToken     = "/token"
	pathSignup    = "/signup"
	pathResources = "/api/aws/resources"

	maxErrorBody = 64 << 10
)

// Token is the body returned by the token endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client talks to one API base address.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for baseURL, e.g. http://localhost:8000.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges an email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, pathToken, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok Token
	if err := c.do(req, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response carried no access_token")
	}
	return &tok, nil
}

// Signup registers a new account. The response body is ignored.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	req, err := c.newJSONRequest(ctx, pathSignup, signupRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// FetchResources retrieves the inventory visible to creds. token authorizes the call
// against the API and is unrelated to the provider credentials.
func (c *Client) FetchResources(ctx context.Context, token string, creds resource.Credentials) (*resource.Inventory, error) {
	req, err := c.newJSONRequest(ctx, pathResources, creds)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var inv resource.Inventory
	if err := c.do(req, &inv); err != nil {
		return nil, err
	}
	return inv.Normalize(), nil
}

func (c *Client) newRequest(ctx context.Context, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := c.newRequest(ctx, path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "path", req.URL.Path, "error", err)
		return &TransportError{Path: req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request", "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
