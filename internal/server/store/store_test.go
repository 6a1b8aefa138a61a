package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"taskhub/internal/server/store"
	"taskhub/internal/service"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "taskhub.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateUserAndLookup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "a@b.c", "hash", "Alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Errorf("missing generated fields: %+v", u)
	}

	got, err := s.UserByEmail(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if got.ID != u.ID || got.DisplayName != "Alice" {
		t.Errorf("UserByEmail = %+v", got)
	}

	if _, err := s.UserByEmail(ctx, "nobody@b.c"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user err = %v, want ErrNotFound", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@b.c", "hash", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, "a@b.c", "hash2", ""); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("duplicate email err = %v, want ErrEmailTaken", err)
	}
}

func TestSetDisplayName(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	u, _ := s.CreateUser(ctx, "a@b.c", "hash", "")
	if err := s.SetDisplayName(ctx, u.ID, "Alice"); err != nil {
		t.Fatalf("SetDisplayName: %v", err)
	}
	got, _ := s.UserByID(ctx, u.ID)
	if got.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}

	if err := s.SetDisplayName(ctx, "missing", "X"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user err = %v, want ErrNotFound", err)
	}
}

func TestCreateTaskAssignsServerFields(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, "a@b.c", "hash", "")

	task, err := s.CreateTask(ctx, u.ID, service.TaskDraft{Title: "Buy milk", Priority: service.PriorityLow})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" || task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Errorf("missing server fields: %+v", task)
	}
	if task.Completed {
		t.Error("new task marked completed")
	}
	if task.OwnerID != u.ID {
		t.Errorf("OwnerID = %q, want %q", task.OwnerID, u.ID)
	}
}

func TestTasksByOwnerOrderingAndScope(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	alice, _ := s.CreateUser(ctx, "alice@b.c", "hash", "")
	bob, _ := s.CreateUser(ctx, "bob@b.c", "hash", "")

	first, _ := s.CreateTask(ctx, alice.ID, service.TaskDraft{Title: "first", Priority: service.PriorityLow})
	time.Sleep(5 * time.Millisecond)
	second, _ := s.CreateTask(ctx, alice.ID, service.TaskDraft{Title: "second", Priority: service.PriorityLow})
	s.CreateTask(ctx, bob.ID, service.TaskDraft{Title: "bob task", Priority: service.PriorityHigh})

	tasks, err := s.TasksByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("TasksByOwner: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Errorf("not createdAt-descending: %q, %q", tasks[0].Title, tasks[1].Title)
	}
	for _, task := range tasks {
		if task.OwnerID != alice.ID {
			t.Errorf("foreign task in owner query: %+v", task)
		}
	}
}

func TestUpdateTaskPartialAndTimestamps(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, "a@b.c", "hash", "")
	task, _ := s.CreateTask(ctx, u.ID, service.TaskDraft{Title: "Buy milk", Description: "two liters", Priority: service.PriorityLow})

	time.Sleep(5 * time.Millisecond)
	completed := true
	if err := s.UpdateTask(ctx, u.ID, task.ID, service.TaskPatch{Completed: &completed}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	tasks, _ := s.TasksByOwner(ctx, u.ID)
	got := tasks[0]
	if !got.Completed {
		t.Error("completed not updated")
	}
	// Untouched fields survive a partial update.
	if got.Title != "Buy milk" || got.Description != "two liters" || got.Priority != service.PriorityLow {
		t.Errorf("partial update clobbered fields: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("updatedAt not refreshed: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

// Two patches to the same task racing each other must both land: the
// read-merge-write runs in a transaction, so neither patch can overwrite
// the other's field with a stale copy.
func TestConcurrentPatchesBothPersist(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, "a@b.c", "hash", "")
	task, _ := s.CreateTask(ctx, u.ID, service.TaskDraft{Title: "Buy milk", Priority: service.PriorityLow})

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		title := "Buy oat milk"
		errs <- s.UpdateTask(ctx, u.ID, task.ID, service.TaskPatch{Title: &title})
	}()
	go func() {
		defer wg.Done()
		completed := true
		errs <- s.UpdateTask(ctx, u.ID, task.ID, service.TaskPatch{Completed: &completed})
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateTask: %v", err)
		}
	}

	tasks, _ := s.TasksByOwner(ctx, u.ID)
	got := tasks[0]
	if got.Title != "Buy oat milk" {
		t.Errorf("Title = %q, concurrent patch lost", got.Title)
	}
	if !got.Completed {
		t.Error("Completed = false, concurrent patch lost")
	}
}

func TestMutationsEnforceOwnership(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	alice, _ := s.CreateUser(ctx, "alice@b.c", "hash", "")
	bob, _ := s.CreateUser(ctx, "bob@b.c", "hash", "")
	task, _ := s.CreateTask(ctx, alice.ID, service.TaskDraft{Title: "Alice task", Priority: service.PriorityLow})

	title := "stolen"
	if err := s.UpdateTask(ctx, bob.ID, task.ID, service.TaskPatch{Title: &title}); !errors.Is(err, store.ErrNotOwner) {
		t.Errorf("cross-owner update err = %v, want ErrNotOwner", err)
	}
	if err := s.DeleteTask(ctx, bob.ID, task.ID); !errors.Is(err, store.ErrNotOwner) {
		t.Errorf("cross-owner delete err = %v, want ErrNotOwner", err)
	}
	if err := s.UpdateTask(ctx, alice.ID, "missing", service.TaskPatch{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing task err = %v, want ErrNotFound", err)
	}

	// The owner still can.
	if err := s.DeleteTask(ctx, alice.ID, task.ID); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
	tasks, _ := s.TasksByOwner(ctx, alice.ID)
	if len(tasks) != 0 {
		t.Errorf("task still present after delete")
	}
}
