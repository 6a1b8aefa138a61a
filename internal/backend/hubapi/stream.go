package hubapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"taskhub/internal/service"
)

// Subscribe opens the live task stream. The bearer token scopes the
// stream to its owner server-side; ownerID is checked against the
// cached session to catch a subscription under the wrong account.
// onSnapshot fires with the full result set immediately and after every
// change. The returned cancel is idempotent.
func (c *Client) Subscribe(ctx context.Context, ownerID string, onSnapshot func([]service.Task), onError func(error)) (service.CancelFunc, error) {
	if sess, err := c.cfg.LoadSession(); err == nil && sess != nil && sess.UserID != ownerID {
		return nil, service.NewStoreError(service.StorePermissionDenied,
			"subscribe: logged in as %s, not %s", sess.UserID, ownerID)
	}

	streamCtx, cancelStream := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.base+"/tasks/stream", nil)
	if err != nil {
		cancelStream()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		cancelStream()
		return nil, service.NewStoreError(service.StoreNetworkError, "subscribe: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancelStream()
		if resp.StatusCode == http.StatusUnauthorized {
			c.sessionInvalid()
			return nil, service.NewStoreError(service.StorePermissionDenied, "subscribe: not authorized")
		}
		return nil, service.NewStoreError(service.StoreUnknown, "subscribe: server returned %d", resp.StatusCode)
	}

	go c.readEvents(streamCtx, resp, onSnapshot, onError)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelStream()
			resp.Body.Close()
		})
	}, nil
}

// readEvents consumes "data:" frames until the stream ends. Each frame
// carries the owner's full task snapshot as a JSON array.
func (c *Client) readEvents(ctx context.Context, resp *http.Response, onSnapshot func([]service.Task), onError func(error)) {
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(after, " "))
			continue
		}
		if line != "" {
			continue
		}
		// Blank line terminates the event.
		if data.Len() == 0 {
			continue
		}
		var snap []service.Task
		if err := json.Unmarshal([]byte(data.String()), &snap); err != nil {
			data.Reset()
			if onError != nil {
				onError(service.NewStoreError(service.StoreUnknown, "subscribe: bad snapshot frame: %v", err))
			}
			continue
		}
		data.Reset()
		if onSnapshot != nil {
			onSnapshot(snap)
		}
	}

	// A cancelled subscription ends silently; anything else is a
	// subscription failure the caller should hear about.
	if ctx.Err() != nil {
		return
	}
	if onError != nil {
		err := scanner.Err()
		if err == nil {
			onError(service.NewStoreError(service.StoreNetworkError, "subscribe: stream closed by server"))
		} else {
			onError(service.NewStoreError(service.StoreNetworkError, "subscribe: %v", err))
		}
	}
}
