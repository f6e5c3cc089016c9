package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/admbahm/devinsight/internal/hub"
	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/storage"
)

func TestAggregatorCounts(t *testing.T) {
	h := hub.New()
	a := New(h.Subscribe(), h.Dropped, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Start(ctx)

	h.Publish(model.LogEntry{Level: model.LevelError, Tag: "Audio"})
	h.Publish(model.LogEntry{Level: model.LevelError, Tag: "Audio"})
	h.Publish(model.LogEntry{Level: model.LevelInfo, Tag: "Sync"})

	deadline := time.After(3 * time.Second)
	for {
		st := a.Snapshot()
		if st.TotalLines == 3 {
			if st.LevelCounts["Error"] != 2 || st.LevelCounts["Info"] != 1 {
				t.Errorf("level counts wrong: %v", st.LevelCounts)
			}
			if st.TagCounts["Audio"] != 2 {
				t.Errorf("tag counts wrong: %v", st.TagCounts)
			}
			if st.EPS <= 0 {
				t.Errorf("EPS should be positive immediately after events, got %f", st.EPS)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("aggregator never saw 3 entries, got %d", st.TotalLines)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestAggregatorStorageSnapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.New(dir, 1<<20, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	h := hub.New()
	a := New(h.Subscribe(), h.Dropped, func() *storage.Stats {
		st := s.Stats()
		return &st
	})

	st := a.Snapshot()
	if st.Storage == nil {
		t.Fatal("expected storage stats in snapshot")
	}
	if st.Storage.Session == "" {
		t.Error("storage stats must carry the capture session")
	}
}

func TestAggregatorStopsWhenHubCloses(t *testing.T) {
	h := hub.New()
	a := New(h.Subscribe(), h.Dropped, nil)

	done := make(chan struct{})
	go func() {
		a.Start(context.Background())
		close(done)
	}()

	h.Close()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("aggregator must stop when its subscription closes")
	}
}
