package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chukul/cloudview/internal/resource"
	"github.com/chukul/cloudview/internal/server/auth"
	"github.com/chukul/cloudview/internal/server/store"
	"github.com/chukul/cloudview/internal/telemetry"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*store.User
	next  int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*store.User{}}
}

func (m *memoryUsers) Create(_ context.Context, email, hash string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, store.ErrUserAlreadyExists
	}
	m.next++
	u := &store.User{ID: m.next, Email: email, HashedPassword: hash, CreatedAt: time.Now()}
	m.users[email] = u
	return u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

type fakeCollector struct {
	inv  *resource.Inventory
	err  error
	seen resource.Credentials
}

func (f *fakeCollector) Collect(_ context.Context, creds resource.Credentials) (*resource.Inventory, error) {
	f.seen = creds
	if f.err != nil {
		return nil, f.err
	}
	return f.inv.Normalize(), nil
}

type testServer struct {
	router    *gin.Engine
	users     *memoryUsers
	collector *fakeCollector
	tokens    *auth.Tokens
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokens("test-secret", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ts := &testServer{
		users:     newMemoryUsers(),
		collector: &fakeCollector{inv: &resource.Inventory{Compute: []resource.Instance{{ID: "i-1", State: "running"}}}},
		tokens:    tokens,
	}
	logger := telemetry.Discard()
	metrics := NewMetrics()
	h := NewHandler(ts.users, tokens, ts.collector, metrics, logger)
	ts.router = NewRouter(ctx, h, metrics, cfg, logger)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signup(email, password string) *httptest.ResponseRecorder {
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req)
}

func (ts *testServer) login(email, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req)
}

func (ts *testServer) resources(token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/aws/resources", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.signup("dev@example.com", "pw")
	require.Equal(t, http.StatusOK, w.Code)
	signupTok := decode[TokenResponse](t, w)
	assert.Equal(t, "bearer", signupTok.TokenType)
	assert.NotEmpty(t, signupTok.AccessToken)

	w = ts.login("dev@example.com", "pw")
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode[TokenResponse](t, w)

	subject, err := ts.tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", subject)
}

func TestSignupDuplicateEmail(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	require.Equal(t, http.StatusOK, ts.signup("dev@example.com", "pw").Code)

	w := ts.signup("dev@example.com", "other")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode[ErrorResponse](t, w).Detail)
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.signup("not-an-email", "pw")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Detail, "valid email")

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, ts.do(req).Code)
}

func TestSignupPasswordLengthLimit(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.signup("long@example.com", strings.Repeat("p", 73))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Detail, "password")

	// the limit counts bytes, so 25 three-byte runes are too long
	assert.Equal(t, http.StatusOK, ts.signup("edge@example.com", strings.Repeat("p", 72)).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, ts.signup("wide@example.com", strings.Repeat("€", 25)).Code)
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	require.Equal(t, http.StatusOK, ts.signup("dev@example.com", "pw").Code)

	for _, tc := range []struct {
		name, email, password string
	}{
		{"wrong password", "dev@example.com", "nope"},
		{"unknown user", "ghost@example.com", "pw"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.login(tc.email, tc.password)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "Incorrect email or password", decode[ErrorResponse](t, w).Detail)
		})
	}

	assert.Equal(t, http.StatusUnprocessableEntity, ts.login("", "").Code)
}

func TestResourcesRequiresBearer(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	body := `{"access_key":"AKIA","secret_key":"s"}`

	assert.Equal(t, http.StatusUnauthorized, ts.resources("", body).Code)

	w := ts.resources("garbage", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Could not validate credentials", decode[ErrorResponse](t, w).Detail)

	// valid signature but the account is gone
	orphan, err := ts.tokens.Issue("ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, ts.resources(orphan, body).Code)
}

func TestResourcesReturnsInventory(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	token := decode[TokenResponse](t, ts.signup("dev@example.com", "pw")).AccessToken

	w := ts.resources(token, `{"access_key":"AKIA","secret_key":"s"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"ec2", "s3", "rds", "lambda"}, keys(body))
	assert.JSONEq(t, `[]`, string(body["s3"]))

	inv := decode[resource.Inventory](t, w)
	assert.Equal(t, "i-1", inv.Compute[0].ID)
	assert.Equal(t, resource.DefaultRegion, ts.collector.seen.Region)
}

func TestResourcesCollectorError(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	token := decode[TokenResponse](t, ts.signup("dev@example.com", "pw")).AccessToken
	ts.collector.err = errors.New("InvalidClientTokenId: The security token included in the request is invalid.")

	w := ts.resources(token, `{"access_key":"AKIA","secret_key":"s","region":"eu-west-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Detail, "InvalidClientTokenId")
}

func TestResourcesMissingKeys(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	token := decode[TokenResponse](t, ts.signup("dev@example.com", "pw")).AccessToken

	w := ts.resources(token, `{"access_key":"AKIA"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Detail, "secret_key")
}

func TestTokenRateLimit(t *testing.T) {
	ts := newTestServer(t, RouterConfig{TokenRatePerSec: 0.001, TokenRateBurst: 2})

	assert.Equal(t, http.StatusUnauthorized, ts.login("a@example.com", "pw").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.login("a@example.com", "pw").Code)

	w := ts.login("a@example.com", "pw")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cloudview_http_requests_total")
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, RouterConfig{CORSOrigins: "http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/token", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := ts.do(req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"a", "b"}, parseOrigins(" a , ,b "))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
