// Package session holds the single authentication token that gates the dashboard.
package session

import "errors"

// TokenKey is the fixed key the token is persisted under.
const TokenKey = "token"

// ErrNoToken is returned by stores that report absence as an error.
var ErrNoToken = errors.New("no session token")

// Store persists at most one token. Implementations are safe for concurrent use.
// Only the login and logout paths mutate it; everything else reads.
type Store interface {
	Set(token string) error
	Get() (string, bool)
	Clear() error
}

// Present reports whether s currently holds a token.
func Present(s Store) bool {
	_, ok := s.Get()
	return ok
}
