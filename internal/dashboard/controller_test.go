package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chukul/cloudview/internal/api"
	apperrors "github.com/chukul/cloudview/internal/errors"
	"github.com/chukul/cloudview/internal/guard"
	"github.com/chukul/cloudview/internal/resource"
	"github.com/chukul/cloudview/internal/session"
	"github.com/chukul/cloudview/internal/telemetry"
)

var validCreds = resource.Credentials{AccessKey: "AKIAEXAMPLE", SecretKey: "secret", Region: "eu-west-1"}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	inv   *resource.Inventory
	err   error
}

func (f *fakeFetcher) FetchResources(_ context.Context, _ string, _ resource.Credentials) (*resource.Inventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.inv, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func loggedIn(t *testing.T) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	require.NoError(t, store.Set("jwt"))
	return store
}

func sampleInventory() *resource.Inventory {
	return &resource.Inventory{
		Compute: []resource.Instance{
			{ID: "i-1", Type: "t3.micro", State: "running"},
			{ID: "i-2", Type: "t3.small", State: "stopped"},
		},
		Buckets: []resource.Bucket{{Name: "logs", CreationDate: "2024-01-02T03:04:05Z"}},
	}
}

func TestSubmitEmptyKeysStaysIdle(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := NewController(fetcher, loggedIn(t), telemetry.Discard())

	for _, creds := range []resource.Credentials{
		{AccessKey: "AKIA", SecretKey: ""},
		{AccessKey: "", SecretKey: "secret"},
		{AccessKey: "  ", SecretKey: "  "},
	} {
		err := c.Run(context.Background(), creds)
		assert.ErrorIs(t, err, ErrMissingCredentials)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		assert.Equal(t, StateIdle, c.State())
	}

	assert.Zero(t, fetcher.Calls())
	assert.Equal(t, "Missing Credentials", c.Notice().Title)
	assert.Equal(t, LevelWarning, c.Notice().Level)
}

func TestSubmitMovesToLoading(t *testing.T) {
	c := NewController(&fakeFetcher{}, loggedIn(t), telemetry.Discard())

	f, err := c.Submit(resource.Credentials{AccessKey: "AKIA", SecretKey: "secret"})
	require.NoError(t, err)
	assert.Equal(t, StateLoading, c.State())
	assert.Equal(t, "jwt", f.Token)
	assert.Equal(t, resource.DefaultRegion, f.Credentials.Region)
	assert.Equal(t, uint64(1), f.Generation)
}

func TestSubmitWhileLoadingIsRejected(t *testing.T) {
	c := NewController(&fakeFetcher{}, loggedIn(t), telemetry.Discard())

	first, err := c.Submit(validCreds)
	require.NoError(t, err)

	_, err = c.Submit(validCreds)
	assert.ErrorIs(t, err, ErrFetchInFlight)
	_, err = c.Refresh()
	assert.ErrorIs(t, err, ErrFetchInFlight)
	assert.Equal(t, StateLoading, c.State())
	assert.Equal(t, "Please wait for the current fetch to finish", c.Notice().Text)
	assert.Equal(t, LevelWarning, c.Notice().Level)

	assert.True(t, c.Resolve(first, sampleInventory(), nil))
	assert.Equal(t, StateLoaded, c.State())
	assert.Equal(t, "Success", c.Notice().Title)
}

func TestSubmitUnknownRegionSendsNothing(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := NewController(fetcher, loggedIn(t), telemetry.Discard())

	err := c.Run(context.Background(), resource.Credentials{AccessKey: "AKIA", SecretKey: "secret", Region: "us-east-9"})
	assert.ErrorIs(t, err, ErrInvalidRegion)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, fetcher.Calls())
	assert.Equal(t, "Unknown Region", c.Notice().Title)
	assert.Contains(t, c.Notice().Text, `"us-east-9"`)
}

func TestResolveOnlyFromLoading(t *testing.T) {
	c := NewController(&fakeFetcher{}, loggedIn(t), telemetry.Discard())

	assert.False(t, c.Resolve(Fetch{Generation: 0}, sampleInventory(), nil))
	assert.Equal(t, StateIdle, c.State())

	f, err := c.Submit(validCreds)
	require.NoError(t, err)
	require.True(t, c.Resolve(f, sampleInventory(), nil))

	// the same ticket cannot land twice
	assert.False(t, c.Resolve(f, nil, errors.New("late")))
	assert.Equal(t, StateLoaded, c.State())
}

func TestSubmitWithoutSession(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := NewController(fetcher, session.NewMemoryStore(), telemetry.Discard())

	err := c.Run(context.Background(), validCreds)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, fetcher.Calls())
}

func TestFailurePreservesStaleInventory(t *testing.T) {
	fetcher := &fakeFetcher{inv: sampleInventory()}
	c := NewController(fetcher, loggedIn(t), telemetry.Discard())

	require.NoError(t, c.Run(context.Background(), validCreds))
	assert.False(t, c.Stale())

	fetcher.err = &api.APIError{StatusCode: 400, Detail: "The security token included in the request is invalid."}
	f, err := c.Refresh()
	require.NoError(t, err)
	assert.Equal(t, validCreds, f.Credentials)
	inv, err := c.Execute(context.Background(), f)
	require.Error(t, err)
	assert.True(t, c.Resolve(f, inv, err))

	snap := c.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.True(t, snap.Stale)
	assert.Equal(t, 3, snap.Inventory.Total())
	assert.Equal(t, Notice{Level: LevelError, Title: "Error", Text: "The security token included in the request is invalid."}, snap.Notice)
}

func TestFailureWithoutPriorInventory(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	c := NewController(fetcher, loggedIn(t), telemetry.Discard())

	err := c.Run(context.Background(), validCreds)
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())
	assert.Nil(t, c.Inventory())
	assert.False(t, c.Stale())
	assert.Equal(t, "Failed to fetch AWS resources", c.Notice().Text)
}

func TestRefreshWithoutCredentials(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := NewController(fetcher, loggedIn(t), telemetry.Discard())

	_, err := c.Refresh()
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, "Please enter AWS credentials before refreshing", c.Notice().Text)
	assert.Zero(t, fetcher.Calls())
}

func TestLogoutClearsEverything(t *testing.T) {
	store := loggedIn(t)
	c := NewController(&fakeFetcher{inv: sampleInventory()}, store, telemetry.Discard())
	require.NoError(t, c.Run(context.Background(), validCreds))

	view, err := c.Logout()
	require.NoError(t, err)
	assert.Equal(t, guard.ViewLogin, view)

	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Inventory())
	_, held := c.Credentials()
	assert.False(t, held)
	assert.Equal(t, "Logged Out", c.Notice().Title)

	assert.False(t, session.Present(store))
	assert.False(t, guard.New(store).CanEnter(guard.ViewDashboard))
}

func TestLateResultAfterLogoutIsDiscarded(t *testing.T) {
	c := NewController(&fakeFetcher{}, loggedIn(t), telemetry.Discard())

	f, err := c.Submit(validCreds)
	require.NoError(t, err)
	_, err = c.Logout()
	require.NoError(t, err)

	assert.False(t, c.Resolve(f, sampleInventory(), nil))
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Inventory())
}

func TestCloseDiscardsAndRejects(t *testing.T) {
	c := NewController(&fakeFetcher{}, loggedIn(t), telemetry.Discard())

	f, err := c.Submit(validCreds)
	require.NoError(t, err)
	c.Close()

	assert.False(t, c.Resolve(f, sampleInventory(), nil))
	_, err = c.Submit(validCreds)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Refresh()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConcurrentSubmitsAdmitOne(t *testing.T) {
	c := NewController(&fakeFetcher{}, loggedIn(t), telemetry.Discard())

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Submit(validCreds); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func newBackend(t *testing.T, handler http.HandlerFunc) (*api.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, 5*time.Second, api.WithLogger(telemetry.Discard())), &hits
}

func TestScenarioLoadedInventoryGroups(t *testing.T) {
	client, hits := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/aws/resources", r.URL.Path)
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sampleInventory())
	})
	c := NewController(client, loggedIn(t), telemetry.Discard())

	require.NoError(t, c.Run(context.Background(), validCreds))

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, StateLoaded, c.State())
	inv := c.Inventory()
	assert.Equal(t, 3, inv.Total())
	groups := inv.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, resource.CategoryCompute, groups[0].Category)
	assert.Equal(t, 2, groups[0].Len())
	assert.Equal(t, resource.CategoryBuckets, groups[1].Category)
	assert.Equal(t, 1, groups[1].Len())
	assert.Equal(t, "Success", c.Notice().Title)
}

func TestScenarioEmptySecretSendsNothing(t *testing.T) {
	client, hits := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := NewController(client, loggedIn(t), telemetry.Discard())

	err := c.Run(context.Background(), resource.Credentials{AccessKey: "AKIAEXAMPLE", Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	assert.Zero(t, hits.Load())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, "Missing Credentials", c.Notice().Title)
}

func TestScenarioUnauthorizedKeepsInventory(t *testing.T) {
	var reject atomic.Bool
	client, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		if reject.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(sampleInventory())
	})
	c := NewController(client, loggedIn(t), telemetry.Discard())
	require.NoError(t, c.Run(context.Background(), validCreds))

	reject.Store(true)
	err := c.Run(context.Background(), validCreds)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Unauthorized())

	snap := c.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Error", snap.Notice.Title)
	assert.Equal(t, "Failed to fetch AWS resources", snap.Notice.Text)
	assert.True(t, snap.Stale)
	assert.Equal(t, 3, snap.Inventory.Total())
	assert.Equal(t, "eu-west-1", snap.Region)
}
