// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"taskhub/internal/service"
)

// FakeBackend is an in-memory implementation of service.Backend for
// testing. It mirrors the server's push behavior: every mutation
// broadcasts a fresh owner-scoped snapshot to live subscriptions.
type FakeBackend struct {
	mu      sync.Mutex
	users   map[string]fakeUser // email -> user
	current *service.Session
	tasks   map[string][]service.Task // ownerID -> tasks
	subs    map[string]map[int]*fakeSub
	watch   func(*service.Session)
	nextID  int
	nextSub int
	clock   time.Time

	// Error injection for testing
	CreateErr    error
	UpdateErr    error
	DeleteErr    error
	SubscribeErr error
	RegisterErr  error
	LoginErr     error
	LogoutErr    error
	ProfileErr   error
	CurrentErr   error
}

type fakeUser struct {
	id          string
	password    string
	displayName string
}

type fakeSub struct {
	ownerID    string
	onSnapshot func([]service.Task)
	onError    func(error)
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		users: make(map[string]fakeUser),
		tasks: make(map[string][]service.Task),
		subs:  make(map[string]map[int]*fakeSub),
		clock: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// AddUser seeds an account and returns its session.
func (f *FakeBackend) AddUser(email, password, displayName string) service.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := fakeUser{id: "user-" + strconv.Itoa(f.nextID), password: password, displayName: displayName}
	f.users[email] = u
	return service.Session{UserID: u.id, Email: email, DisplayName: displayName}
}

// SetSession forces the current session without going through login.
func (f *FakeBackend) SetSession(sess *service.Session) {
	f.mu.Lock()
	f.current = sess
	f.mu.Unlock()
}

// SeedTask inserts a task for the given owner and returns it. Creation
// times advance one minute per call so snapshot ordering is stable.
func (f *FakeBackend) SeedTask(ownerID, title string, priority service.Priority, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.newTaskLocked(ownerID, service.TaskDraft{Title: title, Priority: priority})
	if completed {
		t.Completed = true
		list := f.tasks[ownerID]
		list[len(list)-1] = t
	}
	return t
}

func (f *FakeBackend) newTaskLocked(ownerID string, draft service.TaskDraft) service.Task {
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	t := service.Task{
		ID:          "task-" + strconv.Itoa(f.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Completed:   false,
		OwnerID:     ownerID,
		CreatedAt:   f.clock,
		UpdatedAt:   f.clock,
	}
	f.tasks[ownerID] = append(f.tasks[ownerID], t)
	return t
}

// Snapshot returns the owner's tasks ordered by creation time descending.
func (f *FakeBackend) Snapshot(ownerID string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked(ownerID)
}

func (f *FakeBackend) snapshotLocked(ownerID string) []service.Task {
	src := f.tasks[ownerID]
	out := make([]service.Task, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *FakeBackend) broadcastLocked(ownerID string) {
	snap := f.snapshotLocked(ownerID)
	for _, sub := range f.subs[ownerID] {
		sub.onSnapshot(snap)
	}
}

// FailSubscriptions delivers err to every live subscription for ownerID.
func (f *FakeBackend) FailSubscriptions(ownerID string, err error) {
	f.mu.Lock()
	subs := make([]*fakeSub, 0, len(f.subs[ownerID]))
	for _, sub := range f.subs[ownerID] {
		subs = append(subs, sub)
	}
	f.mu.Unlock()
	for _, sub := range subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// SubscriberCount reports the number of live subscriptions for ownerID.
func (f *FakeBackend) SubscriberCount(ownerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[ownerID])
}

// PushSession invokes the installed session listener, simulating a
// provider-side session change (e.g. token expiry).
func (f *FakeBackend) PushSession(sess *service.Session) {
	f.mu.Lock()
	f.current = sess
	fn := f.watch
	f.mu.Unlock()
	if fn != nil {
		fn(sess)
	}
}

// Create implements service.TaskService.
func (f *FakeBackend) Create(ctx context.Context, draft service.TaskDraft) (string, error) {
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return "", service.NewStoreError(service.StorePermissionDenied, "not logged in")
	}
	t := f.newTaskLocked(f.current.UserID, draft)
	f.broadcastLocked(f.current.UserID)
	return t.ID, nil
}

// Update implements service.TaskService.
func (f *FakeBackend) Update(ctx context.Context, id string, patch service.TaskPatch) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return service.NewStoreError(service.StorePermissionDenied, "not logged in")
	}
	owner := f.current.UserID
	list := f.tasks[owner]
	for i, t := range list {
		if t.ID != id {
			continue
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		f.clock = f.clock.Add(time.Second)
		t.UpdatedAt = f.clock
		list[i] = t
		f.broadcastLocked(owner)
		return nil
	}
	return service.NewStoreError(service.StoreNotFound, "task not found: %s", id)
}

// Delete implements service.TaskService.
func (f *FakeBackend) Delete(ctx context.Context, id string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return service.NewStoreError(service.StorePermissionDenied, "not logged in")
	}
	owner := f.current.UserID
	list := f.tasks[owner]
	for i, t := range list {
		if t.ID == id {
			f.tasks[owner] = append(list[:i], list[i+1:]...)
			f.broadcastLocked(owner)
			return nil
		}
	}
	return service.NewStoreError(service.StoreNotFound, "task not found: %s", id)
}

// Subscribe implements service.TaskService. The initial snapshot is
// delivered synchronously before Subscribe returns.
func (f *FakeBackend) Subscribe(ctx context.Context, ownerID string, onSnapshot func([]service.Task), onError func(error)) (service.CancelFunc, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	f.mu.Lock()
	f.nextSub++
	id := f.nextSub
	sub := &fakeSub{ownerID: ownerID, onSnapshot: onSnapshot, onError: onError}
	if f.subs[ownerID] == nil {
		f.subs[ownerID] = make(map[int]*fakeSub)
	}
	f.subs[ownerID][id] = sub
	snap := f.snapshotLocked(ownerID)
	f.mu.Unlock()

	onSnapshot(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[ownerID], id)
			f.mu.Unlock()
		})
	}, nil
}

// Register implements service.AuthService.
func (f *FakeBackend) Register(ctx context.Context, email, password, displayName string) (service.Session, error) {
	if f.RegisterErr != nil {
		return service.Session{}, f.RegisterErr
	}
	f.mu.Lock()
	if _, exists := f.users[email]; exists {
		f.mu.Unlock()
		return service.Session{}, service.NewAuthError(service.AuthEmailInUse, "email already in use: %s", email)
	}
	if len(password) < 6 {
		f.mu.Unlock()
		return service.Session{}, service.NewAuthError(service.AuthWeakPassword, "password must be at least 6 characters")
	}
	f.nextID++
	u := fakeUser{id: "user-" + strconv.Itoa(f.nextID), password: password}
	profileErr := f.ProfileErr
	if displayName != "" && profileErr == nil {
		u.displayName = displayName
	}
	f.users[email] = u
	sess := service.Session{UserID: u.id, Email: email, DisplayName: u.displayName}
	f.current = &sess
	fn := f.watch
	f.mu.Unlock()

	if fn != nil {
		fn(&sess)
	}
	if displayName != "" && profileErr != nil {
		return sess, &service.ProfileWarning{Err: profileErr}
	}
	return sess, nil
}

// Login implements service.AuthService.
func (f *FakeBackend) Login(ctx context.Context, email, password string) (service.Session, error) {
	if f.LoginErr != nil {
		return service.Session{}, f.LoginErr
	}
	f.mu.Lock()
	u, ok := f.users[email]
	if !ok || u.password != password {
		f.mu.Unlock()
		return service.Session{}, service.NewAuthError(service.AuthInvalidCredentials, "invalid email or password")
	}
	sess := service.Session{UserID: u.id, Email: email, DisplayName: u.displayName}
	f.current = &sess
	fn := f.watch
	f.mu.Unlock()

	if fn != nil {
		fn(&sess)
	}
	return sess, nil
}

// Logout implements service.AuthService.
func (f *FakeBackend) Logout(ctx context.Context) error {
	if f.LogoutErr != nil {
		return f.LogoutErr
	}
	f.mu.Lock()
	f.current = nil
	fn := f.watch
	f.mu.Unlock()

	if fn != nil {
		fn(nil)
	}
	return nil
}

// CurrentSession implements service.AuthService.
func (f *FakeBackend) CurrentSession(ctx context.Context) (*service.Session, error) {
	if f.CurrentErr != nil {
		return nil, f.CurrentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, nil
	}
	sess := *f.current
	return &sess, nil
}

// Watch implements service.AuthService. A new registration replaces the
// previous one.
func (f *FakeBackend) Watch(fn func(*service.Session)) service.CancelFunc {
	f.mu.Lock()
	f.watch = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.watch = nil
			f.mu.Unlock()
		})
	}
}
