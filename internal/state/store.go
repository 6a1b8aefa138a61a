// Package state holds the client-side task state container. It owns the
// authoritative local copy of the current owner's task list, which is
// replaced wholesale on every subscription push and never spliced
// optimistically: a mutation completes, then the next snapshot is the
// sole source of truth for list content.
package state

import (
	"context"
	"fmt"
	"sync"

	"taskhub/internal/logger"
	"taskhub/internal/service"
)

// State is a point-in-time copy of the container's contents.
type State struct {
	// Items is the task list as delivered by the subscription, ordered by
	// creation time descending. Callers must treat it as read-only.
	Items []service.Task

	// Loading is true while a mutation is in flight.
	Loading bool

	// Err is the message of the last failed mutation, or "".
	Err string

	// Stale is true when the live subscription itself has failed and
	// Items may no longer match the server. Cleared by the next snapshot.
	Stale bool

	// Synced is true once at least one snapshot has arrived for the
	// current owner.
	Synced bool
}

// Store is the task state container. All mutation goes through its
// methods; the view layer reads State() and dispatches actions.
type Store struct {
	tasks service.TaskService
	log   logger.Logger

	mu          sync.Mutex
	state       State
	owner       string
	cancel      service.CancelFunc
	onChange    func(State)
	listenerGen int
}

// New creates an empty container over the given task gateway.
func New(tasks service.TaskService, log logger.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{tasks: tasks, log: log}
}

// State returns a copy of the current state. The Items slice is shared;
// callers must not mutate it.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange installs the state listener. At most one listener is active;
// installing a new one replaces the previous. The returned cancel is
// idempotent.
func (s *Store) OnChange(fn func(State)) service.CancelFunc {
	s.mu.Lock()
	s.listenerGen++
	gen := s.listenerGen
	s.onChange = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			// Only clear if no replacement was installed meanwhile.
			if s.listenerGen == gen {
				s.onChange = nil
			}
			s.mu.Unlock()
		})
	}
}

// SetTasks replaces the task list wholesale. It is called only as the
// result of a subscription push and touches no loading or error state.
func (s *Store) SetTasks(list []service.Task) {
	s.mu.Lock()
	s.state.Items = list
	s.state.Stale = false
	s.state.Synced = true
	st := s.state
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}

// Attach swaps the live subscription to the given owner. Any previous
// subscription is cancelled synchronously first, so no two subscriptions
// are ever live at once. An empty ownerID just detaches.
func (s *Store) Attach(ctx context.Context, ownerID string) error {
	s.Detach()
	if ownerID == "" {
		return nil
	}

	// The new owner and the un-synced flag must be in place before the
	// subscription opens: the initial snapshot may arrive synchronously,
	// and its SetTasks is what flips Synced back on.
	s.mu.Lock()
	s.owner = ownerID
	s.state.Synced = false
	s.mu.Unlock()

	cancel, err := s.tasks.Subscribe(ctx, ownerID, s.SetTasks, s.subscriptionFailed)
	if err != nil {
		s.mu.Lock()
		s.owner = ""
		s.mu.Unlock()
		return fmt.Errorf("failed to open task subscription: %w", err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

// Detach cancels the current subscription, if any. Safe to call twice.
func (s *Store) Detach() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.owner = ""
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Owner returns the owner of the current subscription, or "".
func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// subscriptionFailed marks the snapshot stale instead of silently leaving
// a dead list on screen.
func (s *Store) subscriptionFailed(err error) {
	s.log.Error("task subscription failed", "error", err)

	s.mu.Lock()
	s.state.Stale = true
	s.state.Err = err.Error()
	st := s.state
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}

// AddTask persists a new task. On success Items is left untouched; the
// subscription echo delivers the new list.
func (s *Store) AddTask(ctx context.Context, draft service.TaskDraft) error {
	s.begin()
	_, err := s.tasks.Create(ctx, draft)
	s.finish(err)
	return err
}

// UpdateTask applies a partial update to a task.
func (s *Store) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) error {
	s.begin()
	err := s.tasks.Update(ctx, id, patch)
	s.finish(err)
	return err
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.begin()
	err := s.tasks.Delete(ctx, id)
	s.finish(err)
	return err
}

// ToggleTask flips the completion flag of the given task.
func (s *Store) ToggleTask(ctx context.Context, task service.Task) error {
	completed := !task.Completed
	return s.UpdateTask(ctx, task.ID, service.TaskPatch{Completed: &completed})
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = ""
	st := s.state
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}

func (s *Store) finish(err error) {
	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.Err = err.Error()
	}
	st := s.state
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}
