// Package hubapi is the HTTP client for taskhubd. It implements
// service.Backend over the server's JSON endpoints and the Server-Sent
// Events task stream.
package hubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"taskhub/internal/config"
	"taskhub/internal/service"
)

// APITimeout bounds each non-streaming API call.
const APITimeout = 5 * time.Second

// Client talks to a taskhubd server. The zero value is not usable;
// construct with New.
type Client struct {
	cfg  *config.Config
	base string

	mu       sync.Mutex
	authed   *http.Client
	watchFn  func(*service.Session)
	watchGen int
}

// New creates a client for the configured server. A stored token, when
// present, is loaded so the client starts out authenticated.
func New(cfg *config.Config) (*Client, error) {
	base := strings.TrimRight(cfg.ServerURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", cfg.ServerURL)
	}

	c := &Client{cfg: cfg, base: base}
	if cfg.HasToken() {
		token, err := cfg.LoadToken()
		if err != nil {
			return nil, err
		}
		c.authed = authorizedClient(token)
	}
	return c, nil
}

func authorizedClient(token *oauth2.Token) *http.Client {
	return oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(token))
}

func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authed != nil {
		return c.authed
	}
	return http.DefaultClient
}

// setToken swaps the authenticated client, or drops it when token is nil.
func (c *Client) setToken(token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == nil {
		c.authed = nil
		return
	}
	c.authed = authorizedClient(token)
}

// apiError is a decoded server error response.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
}

// call performs one JSON round trip. A non-2xx response is returned as
// *apiError; anything else is a transport error. A 401 on an
// authenticated call also invalidates the watched session.
func (c *Client) call(ctx context.Context, client *http.Client, method, path string, body, out any) error {
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode, Code: "unknown"}
		var decoded struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&decoded) == nil && decoded.Error.Code != "" {
			apiErr.Code = decoded.Error.Code
			apiErr.Message = decoded.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized && client != http.DefaultClient {
			c.sessionInvalid()
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("invalid response body: %w", err)
		}
	}
	return nil
}

// sessionInvalid clears stored credentials and pushes nil to the
// session watcher. Used when the server rejects the stored token.
func (c *Client) sessionInvalid() {
	c.cfg.ClearCredentials()
	c.mu.Lock()
	c.authed = nil
	fn := c.watchFn
	c.mu.Unlock()
	if fn != nil {
		fn(nil)
	}
}

// storeError maps a call failure onto the store error taxonomy.
func storeError(op string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return service.NewStoreError(service.StoreNotFound, "%s: %s", op, apiErr.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return service.NewStoreError(service.StorePermissionDenied, "%s: %s", op, apiErr.Message)
		default:
			return service.NewStoreError(service.StoreUnknown, "%s: %s", op, apiErr.Error())
		}
	}
	return service.NewStoreError(service.StoreNetworkError, "%s: %v", op, err)
}

// Create persists a new task and returns its server-assigned id.
func (c *Client) Create(ctx context.Context, draft service.TaskDraft) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, c.httpClient(), http.MethodPost, "/tasks", draft, &out); err != nil {
		return "", storeError("create task", err)
	}
	return out.ID, nil
}

// Update merges the patch into the task.
func (c *Client) Update(ctx context.Context, id string, patch service.TaskPatch) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.call(ctx, c.httpClient(), http.MethodPatch, "/tasks/"+url.PathEscape(id), patch, nil); err != nil {
		return storeError("update task", err)
	}
	return nil
}

// Delete removes the task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.call(ctx, c.httpClient(), http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil); err != nil {
		return storeError("delete task", err)
	}
	return nil
}
