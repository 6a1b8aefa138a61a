package hubapi

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"taskhub/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Session service.Session `json:"session"`
}

// authError maps a call failure onto the auth error taxonomy.
func authError(op string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		kind := service.AuthUnknown
		switch apiErr.Code {
		case "invalid_credentials":
			kind = service.AuthInvalidCredentials
		case "email_in_use":
			kind = service.AuthEmailInUse
		case "weak_password":
			kind = service.AuthWeakPassword
		}
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return service.NewAuthError(kind, "%s: %s", op, msg)
	}
	return service.NewAuthError(service.AuthNetworkError, "%s: %v", op, err)
}

// Register creates an account and stores the resulting credentials.
// When displayName is non-empty it is attached in a second round-trip;
// a failure there returns the session together with *ProfileWarning.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (service.Session, error) {
	callCtx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var out authResponse
	err := c.call(callCtx, http.DefaultClient, http.MethodPost, "/auth/register",
		credentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return service.Session{}, authError("register", err)
	}
	if err := c.storeCredentials(out); err != nil {
		return service.Session{}, err
	}

	sess := out.Session
	if displayName != "" {
		if err := c.setDisplayName(ctx, displayName); err != nil {
			c.pushSession(&sess)
			return sess, &service.ProfileWarning{Err: err}
		}
		sess.DisplayName = displayName
		c.cfg.SaveSession(sess)
	}

	c.pushSession(&sess)
	return sess, nil
}

// Login establishes a session and stores the resulting credentials.
func (c *Client) Login(ctx context.Context, email, password string) (service.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var out authResponse
	err := c.call(ctx, http.DefaultClient, http.MethodPost, "/auth/login",
		credentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return service.Session{}, authError("login", err)
	}
	if err := c.storeCredentials(out); err != nil {
		return service.Session{}, err
	}

	c.pushSession(&out.Session)
	return out.Session, nil
}

// Logout discards the stored credentials. The session becomes nil for
// any watcher; the server keeps no per-session state to destroy.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.cfg.ClearCredentials(); err != nil {
		return service.NewAuthError(service.AuthUnknown, "logout: %v", err)
	}
	c.setToken(nil)
	c.pushSession(nil)
	return nil
}

// CurrentSession validates the stored token against the server and
// returns the session, or nil when not logged in. A rejected token is
// treated as logged out and the stale credentials are removed.
func (c *Client) CurrentSession(ctx context.Context) (*service.Session, error) {
	if !c.cfg.HasToken() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var out struct {
		Session service.Session `json:"session"`
	}
	err := c.call(ctx, c.httpClient(), http.MethodGet, "/auth/me", nil, &out)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, authError("current session", err)
	}

	c.cfg.SaveSession(out.Session)
	return &out.Session, nil
}

// Watch installs the session listener. At most one registration is
// active; installing a new one replaces the previous. The returned
// cancel is idempotent.
func (c *Client) Watch(fn func(*service.Session)) service.CancelFunc {
	c.mu.Lock()
	c.watchGen++
	gen := c.watchGen
	c.watchFn = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		if c.watchGen == gen {
			c.watchFn = nil
		}
		c.mu.Unlock()
	}
}

func (c *Client) pushSession(sess *service.Session) {
	c.mu.Lock()
	fn := c.watchFn
	c.mu.Unlock()
	if fn != nil {
		fn(sess)
	}
}

// storeCredentials persists the token and session and switches the
// client to authenticated calls.
func (c *Client) storeCredentials(resp authResponse) error {
	token := &oauth2.Token{AccessToken: resp.Token, TokenType: "Bearer"}
	if err := c.cfg.SaveToken(token); err != nil {
		return service.NewAuthError(service.AuthUnknown, "saving credentials: %v", err)
	}
	if err := c.cfg.SaveSession(resp.Session); err != nil {
		return service.NewAuthError(service.AuthUnknown, "saving session: %v", err)
	}
	c.setToken(token)
	return nil
}

// setDisplayName attaches the display name to the freshly created
// account.
func (c *Client) setDisplayName(ctx context.Context, displayName string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body := map[string]string{"displayName": displayName}
	if err := c.call(ctx, c.httpClient(), http.MethodPut, "/auth/profile", body, nil); err != nil {
		return authError("set display name", err)
	}
	return nil
}
