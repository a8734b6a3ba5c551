package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chukul/cloudview/internal/api"
	apperrors "github.com/chukul/cloudview/internal/errors"
	"github.com/chukul/cloudview/internal/guard"
	"github.com/chukul/cloudview/internal/session"
	"github.com/chukul/cloudview/internal/telemetry"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Login(ctx context.Context, email, password string) (*api.Token, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Token), args.Error(1)
}

func (m *mockClient) Signup(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func newService(t *testing.T) (*Service, *mockClient, *session.MemoryStore) {
	t.Helper()
	client := &mockClient{}
	store := session.NewMemoryStore()
	t.Cleanup(func() { client.AssertExpectations(t) })
	return NewService(client, store, telemetry.Discard()), client, store
}

func TestLoginStoresToken(t *testing.T) {
	svc, client, store := newService(t)
	ctx := context.Background()
	client.On("Login", ctx, "dev@example.com", "pw").Return(&api.Token{AccessToken: "jwt", TokenType: "bearer"}, nil)

	view, err := svc.Login(ctx, " dev@example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, guard.ViewDashboard, view)

	token, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "jwt", token)
	assert.True(t, guard.New(store).CanEnter(guard.ViewDashboard))
}

func TestLoginFailureIsOpaque(t *testing.T) {
	svc, client, store := newService(t)
	ctx := context.Background()
	client.On("Login", ctx, "dev@example.com", "bad").Return(nil, &api.APIError{StatusCode: 401})

	view, err := svc.Login(ctx, "dev@example.com", "bad")
	assert.Equal(t, guard.ViewLogin, view)
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.False(t, session.Present(store))
}

func TestLoginRequiresFields(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), "", "pw")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Login(context.Background(), "dev@example.com", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestSignupMismatchSendsNothing(t *testing.T) {
	svc, client, store := newService(t)

	view, err := svc.Signup(context.Background(), "new@example.com", "pw1", "pw2")
	assert.Equal(t, guard.ViewSignup, view)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	client.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, session.Present(store))
}

func TestSignupRejectsBadEmail(t *testing.T) {
	svc, client, _ := newService(t)

	_, err := svc.Signup(context.Background(), "not-an-email", "pw", "pw")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "valid email")
	client.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	svc, client, _ := newService(t)
	pw := strings.Repeat("p", 73)

	_, err := svc.Signup(context.Background(), "new@example.com", pw, pw)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "password")
	client.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignupDoesNotAuthenticate(t *testing.T) {
	svc, client, store := newService(t)
	ctx := context.Background()
	client.On("Signup", ctx, "new@example.com", "pw").Return(nil)

	view, err := svc.Signup(ctx, "new@example.com", "pw", "pw")
	require.NoError(t, err)
	assert.Equal(t, guard.ViewLogin, view)
	assert.False(t, session.Present(store))
}

func TestSignupFailure(t *testing.T) {
	svc, client, _ := newService(t)
	ctx := context.Background()
	client.On("Signup", ctx, "dup@example.com", "pw").Return(&api.APIError{StatusCode: 400, Detail: "Email already registered"})

	_, err := svc.Signup(ctx, "dup@example.com", "pw", "pw")
	assert.ErrorIs(t, err, ErrSignupFailed)
	assert.Equal(t, "Email already registered", api.Detail(err))
}

func TestLogoutClearsSession(t *testing.T) {
	svc, _, store := newService(t)
	require.NoError(t, store.Set("jwt"))

	view, err := svc.Logout()
	require.NoError(t, err)
	assert.Equal(t, guard.ViewLogin, view)
	assert.False(t, guard.New(store).CanEnter(guard.ViewDashboard))
}

func TestLoginStoreFailure(t *testing.T) {
	client := &mockClient{}
	ctx := context.Background()
	client.On("Login", ctx, "dev@example.com", "pw").Return(&api.Token{AccessToken: "jwt"}, nil)

	svc := NewService(client, failingStore{}, telemetry.Discard())
	_, err := svc.Login(ctx, "dev@example.com", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.ErrorContains(t, err, "disk full")
}

type failingStore struct{}

func (failingStore) Set(string) error     { return errors.New("disk full") }
func (failingStore) Get() (string, bool) { return "", false }
func (failingStore) Clear() error         { return nil }
