// Package dashboard drives the credential-gated resource fetch: it validates credentials,
// hands out fetch tickets, applies their results and tracks the view state.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chukul/cloudview/internal/api"
	"github.com/chukul/cloudview/internal/guard"
	"github.com/chukul/cloudview/internal/resource"
	"github.com/chukul/cloudview/internal/session"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidRegion      = errors.New("invalid region")
	ErrNoCredentials      = errors.New("no credentials to refresh with")
	ErrFetchInFlight      = errors.New("a fetch is already in progress")
	ErrNoSession          = errors.New("not logged in")
	ErrClosed             = errors.New("dashboard closed")
)

// Fetcher retrieves an inventory. *api.Client satisfies it.
type Fetcher interface {
	FetchResources(ctx context.Context, token string, creds resource.Credentials) (*resource.Inventory, error)
}

// Fetch is the ticket for one accepted request. Only the ticket of the newest
// generation may resolve the controller.
type Fetch struct {
	Generation  uint64
	Token       string
	Credentials resource.Credentials
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	State     State
	Inventory *resource.Inventory
	Stale     bool
	Notice    Notice
	Region    string
}

// Controller is safe for concurrent use.
type Controller struct {
	fetcher Fetcher
	store   session.Store
	logger  *slog.Logger

	mu         sync.Mutex
	state      State
	creds      *resource.Credentials
	inventory  *resource.Inventory
	stale      bool
	notice     Notice
	generation uint64
	closed     bool
}

func NewController(fetcher Fetcher, store session.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{fetcher: fetcher, store: store, logger: logger}
}

// Submit validates creds and moves to Loading. An empty access or secret key leaves the
// state untouched and raises the Missing Credentials notice; an unknown region does the
// same with its own notice.
func (c *Controller) Submit(creds resource.Credentials) (Fetch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	creds = creds.WithDefaults()
	if err := creds.Validate(); err != nil {
		if c.closed {
			return Fetch{}, ErrClosed
		}
		if !creds.MissingKeys() {
			c.notice = regionNotice(creds.Region)
			return Fetch{}, fmt.Errorf("%w: %w", ErrInvalidRegion, err)
		}
		c.notice = noticeMissingCredentials
		return Fetch{}, fmt.Errorf("%w: %w", ErrMissingCredentials, err)
	}
	return c.begin(creds)
}

// Refresh re-submits the held credentials.
func (c *Controller) Refresh() (Fetch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Fetch{}, ErrClosed
	}
	if c.creds == nil {
		c.notice = noticeNothingToRefresh
		return Fetch{}, ErrNoCredentials
	}
	return c.begin(*c.creds)
}

func (c *Controller) begin(creds resource.Credentials) (Fetch, error) {
	if c.closed {
		return Fetch{}, ErrClosed
	}
	if c.state == StateLoading {
		c.notice = noticeFetchInFlight
		return Fetch{}, ErrFetchInFlight
	}

	token, ok := c.store.Get()
	if !ok {
		c.notice = noticeNoSession
		return Fetch{}, ErrNoSession
	}

	c.generation++
	c.state = StateLoading
	c.creds = &creds

	c.logger.Debug("fetch started", "generation", c.generation, "credentials", creds.String())
	return Fetch{Generation: c.generation, Token: token, Credentials: creds}, nil
}

// Execute performs the request for f without touching controller state.
func (c *Controller) Execute(ctx context.Context, f Fetch) (*resource.Inventory, error) {
	return c.fetcher.FetchResources(ctx, f.Token, f.Credentials)
}

// Resolve applies the outcome of f. It reports false when the result was discarded
// because the controller moved on (newer fetch, logout or Close).
func (c *Controller) Resolve(f Fetch, inv *resource.Inventory, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || f.Generation != c.generation || c.state != StateLoading {
		c.logger.Debug("discarding fetch result", "generation", f.Generation, "current", c.generation)
		return false
	}

	if err != nil {
		c.state = StateFailed
		c.stale = c.inventory != nil
		c.notice = errorNotice(api.Detail(err))
		c.logger.Warn("fetch failed", "generation", f.Generation, "error", err)
		return true
	}

	if inv == nil {
		inv = &resource.Inventory{}
	}
	c.inventory = inv.Normalize()
	c.stale = false
	c.state = StateLoaded
	c.notice = noticeFetched
	c.logger.Info("fetch completed", "generation", f.Generation, "items", inv.Total())
	return true
}

// Run submits creds, fetches and resolves in one call.
func (c *Controller) Run(ctx context.Context, creds resource.Credentials) error {
	f, err := c.Submit(creds)
	if err != nil {
		return err
	}
	inv, err := c.Execute(ctx, f)
	c.Resolve(f, inv, err)
	return err
}

// Logout clears credentials, inventory and the session, and returns the login view.
// A fetch still in flight is discarded when it lands.
func (c *Controller) Logout() (guard.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	c.notice = noticeLoggedOut
	if err := c.store.Clear(); err != nil {
		return guard.ViewLogin, fmt.Errorf("failed to clear session: %w", err)
	}
	return guard.ViewLogin, nil
}

// Close tears the controller down. Later results are discarded and later submits fail.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	c.closed = true
}

func (c *Controller) reset() {
	c.generation++
	c.state = StateIdle
	c.creds = nil
	c.inventory = nil
	c.stale = false
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{State: c.state, Inventory: c.inventory, Stale: c.stale, Notice: c.notice}
	if c.creds != nil {
		s.Region = c.creds.Region
	}
	return s
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Inventory returns the last loaded inventory, which is stale in the Failed state.
func (c *Controller) Inventory() *resource.Inventory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inventory
}

func (c *Controller) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

func (c *Controller) Notice() Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Credentials returns the held credentials, if any.
func (c *Controller) Credentials() (resource.Credentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return resource.Credentials{}, false
	}
	return *c.creds, true
}
