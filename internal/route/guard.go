// Package route gates access to the task workspace on session presence.
package route

import (
	"sync"

	"taskhub/internal/service"
)

// Phase is the session-gated navigation state.
type Phase int

const (
	// Unknown means the initial auth check is still pending. Entered
	// exactly once, at startup, and exited exactly once.
	Unknown Phase = iota

	// Anonymous means no session is present.
	Anonymous

	// Authenticated means a session is present.
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Decision is what the guard tells the caller to render.
type Decision int

const (
	// ShowLoading blocks all routes behind a loading indicator while the
	// auth check is pending.
	ShowLoading Decision = iota

	// RedirectLogin sends the visitor to the login view.
	RedirectLogin

	// Allow renders the protected content.
	Allow
)

// Guard is a pure predicate over the current session. It must be fed
// every session transition, not only the one observed at startup.
type Guard struct {
	mu    sync.Mutex
	phase Phase
}

// NewGuard returns a guard in the Unknown phase.
func NewGuard() *Guard {
	return &Guard{phase: Unknown}
}

// Apply records a session transition. A nil session after the first
// provider callback means Anonymous; Unknown is never re-entered.
func (g *Guard) Apply(sess *service.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sess == nil {
		g.phase = Anonymous
	} else {
		g.phase = Authenticated
	}
}

// Phase returns the current navigation phase.
func (g *Guard) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Resolve decides what a protected view should render right now.
func (g *Guard) Resolve() Decision {
	switch g.Phase() {
	case Authenticated:
		return Allow
	case Anonymous:
		return RedirectLogin
	default:
		return ShowLoading
	}
}
