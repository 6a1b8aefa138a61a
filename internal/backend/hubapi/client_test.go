package hubapi_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"taskhub/internal/backend/hubapi"
	"taskhub/internal/config"
	"taskhub/internal/server"
	"taskhub/internal/server/store"
	"taskhub/internal/service"
)

const snapshotWait = 2 * time.Second

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "taskhub.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := server.Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
	ts := httptest.NewServer(server.New(cfg, st, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, ts *httptest.Server) *hubapi.Client {
	t.Helper()
	cfg, err := config.New(t.TempDir(), ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	c, err := hubapi.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// collect drains snapshots into a channel for assertion with timeouts.
func collect(t *testing.T) (func([]service.Task), <-chan []service.Task) {
	t.Helper()
	ch := make(chan []service.Task, 16)
	return func(snap []service.Task) { ch <- snap }, ch
}

func nextSnapshot(t *testing.T, ch <-chan []service.Task) []service.Task {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(snapshotWait):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestCreateEchoesThroughSubscription(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	sess, err := c.Register(ctx, "a@b.c", "secret1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	onSnap, snaps := collect(t)
	cancel, err := c.Subscribe(ctx, sess.UserID, onSnap, func(err error) {
		t.Errorf("subscription error: %v", err)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if snap := nextSnapshot(t, snaps); len(snap) != 0 {
		t.Fatalf("initial snapshot = %+v, want empty", snap)
	}

	id, err := c.Create(ctx, service.TaskDraft{Title: "Buy milk", Priority: service.PriorityHigh})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	snap := nextSnapshot(t, snaps)
	if len(snap) != 1 || snap[0].ID != id || snap[0].Title != "Buy milk" {
		t.Fatalf("snapshot after create = %+v", snap)
	}
	if snap[0].OwnerID != sess.UserID {
		t.Errorf("owner = %q, want %q", snap[0].OwnerID, sess.UserID)
	}
}

func TestUpdateAndDeleteEcho(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	sess, err := c.Register(ctx, "a@b.c", "secret1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id, err := c.Create(ctx, service.TaskDraft{Title: "Buy milk", Priority: service.PriorityLow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	onSnap, snaps := collect(t)
	cancel, err := c.Subscribe(ctx, sess.UserID, onSnap, nil)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()
	nextSnapshot(t, snaps) // initial

	completed := true
	if err := c.Update(ctx, id, service.TaskPatch{Completed: &completed}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	snap := nextSnapshot(t, snaps)
	if len(snap) != 1 || !snap[0].Completed {
		t.Fatalf("snapshot after update = %+v", snap)
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if snap := nextSnapshot(t, snaps); len(snap) != 0 {
		t.Fatalf("snapshot after delete = %+v", snap)
	}
}

func TestStoreErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t, ts)
	ctx := context.Background()

	if _, err := alice.Register(ctx, "alice@b.c", "secret1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	id, err := alice.Create(ctx, service.TaskDraft{Title: "Alice task", Priority: service.PriorityLow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = alice.Delete(ctx, "no-such-task")
	var storeErr *service.StoreError
	if !errors.As(err, &storeErr) || storeErr.Kind != service.StoreNotFound {
		t.Errorf("delete missing task = %v, want StoreNotFound", err)
	}

	bob := newClient(t, ts)
	if _, err := bob.Register(ctx, "bob@b.c", "secret1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err = bob.Delete(ctx, id)
	if !errors.As(err, &storeErr) || storeErr.Kind != service.StorePermissionDenied {
		t.Errorf("cross-owner delete = %v, want StorePermissionDenied", err)
	}
}

func TestAuthErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	if _, err := c.Register(ctx, "a@b.c", "secret1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var authErr *service.AuthError
	_, err := c.Login(ctx, "a@b.c", "wrong-password")
	if !errors.As(err, &authErr) || authErr.Kind != service.AuthInvalidCredentials {
		t.Errorf("bad login = %v, want AuthInvalidCredentials", err)
	}

	other := newClient(t, ts)
	_, err = other.Register(ctx, "a@b.c", "secret1", "")
	if !errors.As(err, &authErr) || authErr.Kind != service.AuthEmailInUse {
		t.Errorf("duplicate register = %v, want AuthEmailInUse", err)
	}

	_, err = other.Register(ctx, "b@b.c", "123", "")
	if !errors.As(err, &authErr) || authErr.Kind != service.AuthWeakPassword {
		t.Errorf("weak password = %v, want AuthWeakPassword", err)
	}
}

func TestRegisterWithDisplayName(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	sess, err := c.Register(ctx, "a@b.c", "secret1", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.DisplayName != "Alice" {
		t.Errorf("display name = %q, want Alice", sess.DisplayName)
	}

	current, err := c.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if current == nil || current.DisplayName != "Alice" {
		t.Errorf("current session = %+v", current)
	}
}

func TestCurrentSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	sess, err := c.CurrentSession(ctx)
	if err != nil || sess != nil {
		t.Fatalf("before login: session = %+v, err = %v", sess, err)
	}

	reg, err := c.Register(ctx, "a@b.c", "secret1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err = c.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if sess == nil || sess.UserID != reg.UserID {
		t.Fatalf("after register: session = %+v", sess)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	sess, err = c.CurrentSession(ctx)
	if err != nil || sess != nil {
		t.Fatalf("after logout: session = %+v, err = %v", sess, err)
	}
}

func TestWatchSeesLoginAndLogout(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	var pushes []*service.Session
	cancel := c.Watch(func(s *service.Session) { pushes = append(pushes, s) })
	defer cancel()

	if _, err := c.Register(ctx, "a@b.c", "secret1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(pushes) != 1 || pushes[0] == nil || pushes[0].Email != "a@b.c" {
		t.Fatalf("pushes after register = %+v", pushes)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(pushes) != 2 || pushes[1] != nil {
		t.Fatalf("pushes after logout = %+v", pushes)
	}
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	ctx := context.Background()

	sess, err := c.Register(ctx, "a@b.c", "secret1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	onSnap, snaps := collect(t)
	cancel, err := c.Subscribe(ctx, sess.UserID, onSnap, nil)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	nextSnapshot(t, snaps)

	cancel()
	cancel() // second call must be a no-op
}
