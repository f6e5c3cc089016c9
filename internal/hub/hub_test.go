package hub

import (
	"fmt"
	"testing"
	"time"

	"github.com/admbahm/devinsight/internal/model"
)

func TestHubBroadcast(t *testing.T) {
	h := New()
	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	h.Publish(model.LogEntry{Level: model.LevelError, Message: "disk full"})

	for i, sub := range []<-chan model.LogEntry{sub1, sub2} {
		select {
		case e := <-sub:
			if e.Level != model.LevelError {
				t.Errorf("sub%d: expected Error, got %s", i+1, e.Level)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestHubOrdering(t *testing.T) {
	h := New()
	sub := h.Subscribe()

	const n = 500
	for i := 0; i < n; i++ {
		h.Publish(model.LogEntry{Message: fmt.Sprintf("entry %d", i)})
	}
	h.Close()

	i := 0
	for e := range sub {
		if want := fmt.Sprintf("entry %d", i); e.Message != want {
			t.Fatalf("position %d: got %q", i, e.Message)
		}
		i++
	}
	if i != n {
		t.Fatalf("received %d entries, want %d", i, n)
	}
}

func TestHubSlowConsumer(t *testing.T) {
	h := New()

	// Subscribe but never read — simulates a stalled consumer.
	_ = h.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+100; i++ {
			h.Publish(model.LogEntry{Message: "line"})
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("publish blocked on a stalled consumer")
	}

	if h.Dropped() == 0 {
		t.Error("expected dropped entries for slow consumer, got 0")
	}
}

func TestHubNoSubscribers(t *testing.T) {
	h := New()
	// Must be a silent no-op.
	h.Publish(model.LogEntry{Message: "into the void"})
	if h.Dropped() != 0 {
		t.Error("publishing with no subscribers is not a drop")
	}
}

func TestHubPublishAfterClose(t *testing.T) {
	h := New()
	sub := h.Subscribe()
	h.Close()

	h.Publish(model.LogEntry{Message: "late"})

	if _, ok := <-sub; ok {
		t.Error("expected closed subscriber channel with no entries")
	}
}

func TestHubSubscribeAfterClose(t *testing.T) {
	h := New()
	h.Close()

	sub := h.Subscribe()
	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected an immediately closed channel")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("subscriber channel after Close must be closed, not silent")
	}
}
