package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/admbahm/devinsight/internal/model"
)

func TestParseThreadtimeLine(t *testing.T) {
	entry := Parse("03-21 10:23:45.678  1234  5678 D MyTag: started ok")

	if entry.Level != model.LevelDebug {
		t.Errorf("expected Debug, got %s", entry.Level)
	}
	if entry.Timestamp != "03-21 10:23:45.678" {
		t.Errorf("expected embedded timestamp, got %q", entry.Timestamp)
	}
	if entry.Message != "started ok" {
		t.Errorf("expected 'started ok', got %q", entry.Message)
	}
	// Second-to-last header token of a full threadtime header is the
	// level letter — the heuristic is intentionally preserved.
	if entry.Tag != "D" {
		t.Errorf("expected tag 'D' from heuristic, got %q", entry.Tag)
	}
}

func TestParseMessageKeepsLaterColons(t *testing.T) {
	entry := Parse("03-21 10:23:45.678  1234  5678 I Net: connect to 10.0.0.1:8080 failed")

	if entry.Message != "connect to 10.0.0.1:8080 failed" {
		t.Errorf("split must happen on the first colon only, got %q", entry.Message)
	}
}

func TestParseNoColon(t *testing.T) {
	line := "--------- beginning of main"
	entry := Parse(line)

	if entry.Message != line {
		t.Errorf("expected whole line as message, got %q", entry.Message)
	}
	if entry.Tag != UnknownTag {
		t.Errorf("expected sentinel tag, got %q", entry.Tag)
	}
	// Timestamp is synthesized in the display layout.
	if _, err := time.Parse(timestampLayout, entry.Timestamp); err != nil {
		t.Errorf("expected synthesized %q timestamp, got %q: %v", timestampLayout, entry.Timestamp, err)
	}
}

func TestParseShortHeader(t *testing.T) {
	entry := Parse("boot: starting services")

	if entry.Tag != "boot" {
		t.Errorf("single-token header becomes the tag, got %q", entry.Tag)
	}
	if entry.Message != "starting services" {
		t.Errorf("got message %q", entry.Message)
	}
	if _, err := time.Parse(timestampLayout, entry.Timestamp); err != nil {
		t.Errorf("one-token header must synthesize the timestamp, got %q", entry.Timestamp)
	}
}

func TestParseEmptyLine(t *testing.T) {
	entry := Parse("")

	if entry.Message != "" {
		t.Errorf("got message %q", entry.Message)
	}
	if entry.Tag != UnknownTag {
		t.Errorf("got tag %q", entry.Tag)
	}
	if entry.Level != model.LevelUnknown {
		t.Errorf("got level %s", entry.Level)
	}
}

func TestParseNeverMutatesInput(t *testing.T) {
	raw := "03-21 10:23:45.678  1234  5678 W Audio: underrun"
	entry := Parse(raw)
	if entry.Raw != raw {
		t.Errorf("raw line must be carried through unchanged, got %q", entry.Raw)
	}
}

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		line string
		want model.Level
	}{
		{"03-21 10:23:45.678  1234  5678 E Audio: failed", model.LevelError},
		{"something something Error: oops", model.LevelError},
		{"03-21 10:23:45.678  1234  5678 W Audio: slow", model.LevelWarning},
		{"Warning level without delimiters", model.LevelWarning},
		{"03-21 10:23:45.678  1234  5678 I Audio: ok", model.LevelInfo},
		{"03-21 10:23:45.678  1234  5678 D Audio: trace", model.LevelDebug},
		{"03-21 10:23:45.678  1234  5678 V Audio: chatty", model.LevelVerbose},
		{"no markers here", model.LevelUnknown},
		// Error outranks a Warning marker appearing later in the line.
		{"03-21 10:23:45.678  1234  5678 E Audio: Warning ignored", model.LevelError},
	}

	for _, tc := range cases {
		if got := Classify(tc.line); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.line, got, tc.want)
		}
	}
}

func TestClassifyWordAndLetterAreIndependent(t *testing.T) {
	// The letter needs surrounding spaces; "E/" alone is not a parser marker.
	if got := Classify("03-21 10:23:45.678 E/Audio(123): boom"); got != model.LevelUnknown {
		t.Errorf("brief-format marker must not classify, got %s", got)
	}
}

func TestParseConcurrent(t *testing.T) {
	line := "03-21 10:23:45.678  1234  5678 I Sync: done"
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 1000; j++ {
				if e := Parse(line); e.Level != model.LevelInfo {
					t.Errorf("got %s", e.Level)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestParseVeryLongLine(t *testing.T) {
	line := "03-21 10:23:45.678  1234  5678 D Big: " + strings.Repeat("x", 1<<16)
	entry := Parse(line)
	if len(entry.Message) != 1<<16 {
		t.Errorf("message truncated to %d bytes", len(entry.Message))
	}
}
