package hub

import (
	"fmt"
	"testing"

	"github.com/admbahm/devinsight/internal/model"
)

// BenchmarkHubPublish measures the cost of fanning out to N subscribers.
func BenchmarkHubPublish1(b *testing.B)  { benchHubPublish(b, 1) }
func BenchmarkHubPublish5(b *testing.B)  { benchHubPublish(b, 5) }
func BenchmarkHubPublish10(b *testing.B) { benchHubPublish(b, 10) }

func benchHubPublish(b *testing.B, numSubs int) {
	h := New()

	// Create subscribers and drain them.
	for i := 0; i < numSubs; i++ {
		ch := h.Subscribe()
		go func() {
			for range ch {
			}
		}()
	}

	entry := model.LogEntry{
		Level:     model.LevelInfo,
		Timestamp: "03-21 10:23:45.678",
		Tag:       "bench",
		Message:   fmt.Sprintf("benchmark event with %d subscribers", numSubs),
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h.Publish(entry)
	}

	b.StopTimer()
	h.Close()
}
