package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/storage"
)

const epsWindow = 5 * time.Second

// Stats holds a point-in-time snapshot of capture metrics.
type Stats struct {
	Uptime      string           `json:"uptime"`
	TotalLines  int64            `json:"total_lines"`
	EPS         float64          `json:"eps"`
	LevelCounts map[string]int64 `json:"level_counts"`
	TagCounts   map[string]int64 `json:"tag_counts"`
	Dropped     int64            `json:"dropped"`
	Storage     *storage.Stats   `json:"storage,omitempty"`
}

// Aggregator subscribes to the hub and computes time-windowed metrics for
// the dashboard. Storage counters come from the store's own snapshot, and
// drop counts from the hub, so the aggregator never shares producer state.
type Aggregator struct {
	mu          sync.RWMutex
	startTime   time.Time
	totalLines  int64
	levelCounts map[string]int64
	tagCounts   map[string]int64
	window      []time.Time

	entries   <-chan model.LogEntry
	droppedFn func() int64
	storageFn func() *storage.Stats
}

// New creates an Aggregator reading from a hub subscription. droppedFn
// reports hub drops; storageFn may be nil when persistence is off.
func New(entries <-chan model.LogEntry, droppedFn func() int64, storageFn func() *storage.Stats) *Aggregator {
	return &Aggregator{
		startTime:   time.Now(),
		levelCounts: make(map[string]int64),
		tagCounts:   make(map[string]int64),
		entries:     entries,
		droppedFn:   droppedFn,
		storageFn:   storageFn,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	levels := make(map[string]int64, len(a.levelCounts))
	for k, v := range a.levelCounts {
		levels[k] = v
	}
	tags := make(map[string]int64, len(a.tagCounts))
	for k, v := range a.tagCounts {
		tags[k] = v
	}

	cutoff := time.Now().Add(-epsWindow)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}

	st := Stats{
		Uptime:      time.Since(a.startTime).Truncate(time.Second).String(),
		TotalLines:  a.totalLines,
		EPS:         float64(recent) / epsWindow.Seconds(),
		LevelCounts: levels,
		TagCounts:   tags,
	}
	if a.droppedFn != nil {
		st.Dropped = a.droppedFn()
	}
	if a.storageFn != nil {
		st.Storage = a.storageFn()
	}
	return st
}

// Start consumes entries and updates metrics until the context is
// cancelled or the subscription closes.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-a.entries:
			if !ok {
				return
			}
			a.record(entry)
		case <-ticker.C:
			a.prune()
		}
	}
}

func (a *Aggregator) record(entry model.LogEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalLines++
	a.levelCounts[entry.Level.String()]++
	a.tagCounts[entry.Tag]++
	a.window = append(a.window, time.Now())
}

// prune drops window timestamps older than the EPS horizon.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-epsWindow)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}
