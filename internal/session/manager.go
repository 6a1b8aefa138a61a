// Package session manages the authenticated identity on the client: the
// current session, the provider-level session listener, and the
// register/login/logout actions with their user-facing notifications.
package session

import (
	"context"
	"errors"
	"sync"

	"taskhub/internal/logger"
	"taskhub/internal/notify"
	"taskhub/internal/service"
)

// Manager observes the identity provider and exposes the current session.
// It starts in an unknown phase that ends with the provider's first
// answer; the phase is entered exactly once per process.
type Manager struct {
	auth     service.AuthService
	notifier *notify.Notifier
	log      logger.Logger

	mu          sync.Mutex
	current     *service.Session
	known       bool
	loading     bool
	err         error
	observer    func(*service.Session, bool)
	observerGen int
	cancelWatch service.CancelFunc
}

// NewManager creates a Manager. notifier may be nil to suppress
// notifications (tests).
func NewManager(auth service.AuthService, notifier *notify.Notifier, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{auth: auth, notifier: notifier, log: log}
}

// Start performs the initial session check and installs the provider
// listener. Call once at application start; Close undoes it.
func (m *Manager) Start(ctx context.Context) error {
	sess, err := m.auth.CurrentSession(ctx)
	if err != nil {
		// The provider answered, even if with a failure: the session is
		// known to be absent rather than still pending.
		m.log.Warn("initial session check failed", "error", err)
		sess = nil
	}
	m.apply(sess)

	cancel := m.auth.Watch(m.apply)
	m.mu.Lock()
	m.cancelWatch = cancel
	m.mu.Unlock()
	return nil
}

// Close removes the provider listener. Safe to call twice.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancelWatch
	m.cancelWatch = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// apply records a session pushed by the provider and fans it out.
func (m *Manager) apply(sess *service.Session) {
	m.mu.Lock()
	m.current = sess
	m.known = true
	fn := m.observer
	m.mu.Unlock()

	if fn != nil {
		fn(sess, true)
	}
}

// Session returns the current session (nil when anonymous) and whether
// the provider has answered at least once.
func (m *Manager) Session() (*service.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.known
}

// Loading reports whether an auth action is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the last auth action failure, or nil.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Observe installs the session observer. At most one observer is active;
// a new registration replaces the previous one. The returned cancel is
// idempotent.
func (m *Manager) Observe(fn func(sess *service.Session, known bool)) service.CancelFunc {
	m.mu.Lock()
	m.observerGen++
	gen := m.observerGen
	m.observer = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.observerGen == gen {
				m.observer = nil
			}
			m.mu.Unlock()
		})
	}
}

// Register creates an account and establishes a session. A failure of
// the secondary display-name update is surfaced as a warning, not a
// failed registration.
func (m *Manager) Register(ctx context.Context, email, password, displayName string) (service.Session, error) {
	m.begin()
	sess, err := m.auth.Register(ctx, email, password, displayName)

	var warn *service.ProfileWarning
	if errors.As(err, &warn) {
		m.finish(nil)
		m.apply(&sess)
		m.notifier.Success("registered as %s", sess.Email)
		m.notifier.Warning("%v", warn)
		return sess, nil
	}
	if err != nil {
		m.finish(err)
		m.notifier.Error("registration failed: %v", err)
		return service.Session{}, err
	}

	m.finish(nil)
	m.apply(&sess)
	m.notifier.Success("registered as %s", sess.Email)
	return sess, nil
}

// Login establishes a session for existing credentials.
func (m *Manager) Login(ctx context.Context, email, password string) (service.Session, error) {
	m.begin()
	sess, err := m.auth.Login(ctx, email, password)
	m.finish(err)
	if err != nil {
		m.notifier.Error("login failed: %v", err)
		return service.Session{}, err
	}
	m.apply(&sess)
	m.notifier.Success("logged in as %s", sess.Email)
	return sess, nil
}

// Logout destroys the current session.
func (m *Manager) Logout(ctx context.Context) error {
	m.begin()
	err := m.auth.Logout(ctx)
	m.finish(err)
	if err != nil {
		m.notifier.Error("logout failed: %v", err)
		return err
	}
	m.apply(nil)
	m.notifier.Success("logged out")
	return nil
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.loading = true
	m.err = nil
	m.mu.Unlock()
}

func (m *Manager) finish(err error) {
	m.mu.Lock()
	m.loading = false
	m.err = err
	m.mu.Unlock()
}
