package server

import (
	"testing"

	"taskhub/internal/service"
)

func TestHubPublishReachesOwnerOnly(t *testing.T) {
	h := NewHub()
	aliceCh, cancelAlice := h.Subscribe("alice")
	defer cancelAlice()
	bobCh, cancelBob := h.Subscribe("bob")
	defer cancelBob()

	snap := []service.Task{{ID: "t1", OwnerID: "alice"}}
	h.Publish("alice", snap)

	select {
	case got := <-aliceCh:
		if len(got) != 1 || got[0].ID != "t1" {
			t.Errorf("alice got %+v", got)
		}
	default:
		t.Fatal("alice received nothing")
	}

	select {
	case got := <-bobCh:
		t.Errorf("bob received alice's snapshot: %+v", got)
	default:
	}
}

// An undelivered snapshot is replaced by a newer one, never queued
// behind it.
func TestHubLatestWins(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("alice")
	defer cancel()

	h.Publish("alice", []service.Task{{ID: "old"}})
	h.Publish("alice", []service.Task{{ID: "new"}})

	got := <-ch
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("got %+v, want the newer snapshot", got)
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("alice")

	cancel()
	cancel() // must not panic or double-close

	if n := h.SubscriberCount("alice"); n != 0 {
		t.Errorf("subscribers after cancel = %d, want 0", n)
	}
	// Publishing to a cancelled subscription is a no-op.
	h.Publish("alice", []service.Task{{ID: "t1"}})
}
