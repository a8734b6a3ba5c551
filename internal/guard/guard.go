// Package guard decides which views are reachable for the current session.
package guard

import "github.com/chukul/cloudview/internal/session"

// View names a screen of the application.
type View string

const (
	ViewLogin     View = "login"
	ViewSignup    View = "signup"
	ViewDashboard View = "dashboard"
)

// Protected reports whether v requires a session.
func (v View) Protected() bool {
	return v == ViewDashboard
}

// Guard checks the session store on every call. Nothing is cached, so a cleared
// session is reflected immediately.
type Guard struct {
	store session.Store
}

func New(store session.Store) *Guard {
	return &Guard{store: store}
}

// CanEnter reports whether v is reachable right now.
func (g *Guard) CanEnter(v View) bool {
	if !v.Protected() {
		return true
	}
	return session.Present(g.store)
}

// Resolve returns v when it is reachable and the login view otherwise.
func (g *Guard) Resolve(v View) View {
	if g.CanEnter(v) {
		return v
	}
	return ViewLogin
}
