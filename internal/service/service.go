package service

import "context"

// CancelFunc tears down a subscription or listener registration.
// Implementations must make it safe to call more than once.
type CancelFunc func()

// TaskService is the gateway to the remote task collection. It performs
// no caching; ordering for display is the snapshot's as delivered.
type TaskService interface {
	// Create persists a new task with completed=false and server-assigned
	// id and timestamps, and returns the new id.
	Create(ctx context.Context, draft TaskDraft) (string, error)

	// Update merges the non-nil patch fields into the task and refreshes
	// updatedAt. Fails if the task does not exist or the caller is not
	// the owner (enforced server-side).
	Update(ctx context.Context, id string, patch TaskPatch) error

	// Delete removes the task under the same ownership rules as Update.
	Delete(ctx context.Context, id string) error

	// Subscribe opens a live query for tasks owned by ownerID, ordered by
	// creation time descending. onSnapshot fires once immediately with the
	// current result set and again on every change, always with the full
	// result set. onError reports a failure of the subscription itself.
	// The returned cancel is idempotent.
	Subscribe(ctx context.Context, ownerID string, onSnapshot func([]Task), onError func(error)) (CancelFunc, error)
}

// AuthService is the gateway to the identity provider.
type AuthService interface {
	// Register creates an account and establishes a session. When
	// displayName is non-empty it is attached in a second round-trip;
	// a failure there returns the session together with *ProfileWarning.
	Register(ctx context.Context, email, password, displayName string) (Session, error)

	// Login establishes a session for existing credentials.
	Login(ctx context.Context, email, password string) (Session, error)

	// Logout destroys the current session.
	Logout(ctx context.Context) error

	// CurrentSession returns the session for stored credentials, or nil
	// when not logged in.
	CurrentSession(ctx context.Context) (*Session, error)

	// Watch installs the provider-level session listener. The provider
	// may push a new session, or nil, at any time (logout, token expiry).
	// At most one registration is active; installing a new one replaces
	// the previous. The returned cancel is idempotent.
	Watch(fn func(*Session)) CancelFunc
}

// Backend bundles both gateways; the HTTP client and the test fake
// implement it.
type Backend interface {
	TaskService
	AuthService
}
