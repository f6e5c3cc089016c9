// Package ingest runs the single producer goroutine at the core of a
// capture: it reads lines from the log source, filters or parses them,
// persists them, and hands them to the display path.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/admbahm/devinsight/internal/filter"
	"github.com/admbahm/devinsight/internal/hub"
	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/parser"
	"github.com/admbahm/devinsight/internal/storage"
)

// Mode selects the ingestion behavior for the lifetime of the loop.
type Mode int

const (
	// Standard filters raw lines and forwards the ones that pass to the
	// raw-line display channel.
	Standard Mode = iota
	// Interactive parses every line and publishes entries via the Hub;
	// filtering is left to the display side.
	Interactive
)

const rawBuffer = 512

// Config wires the loop's collaborators. Filter applies in Standard mode
// only; Hub is required in Interactive mode and optional in Standard mode
// (accepted lines are published for the dashboard); Store is optional in
// both.
type Config struct {
	Mode   Mode
	Filter *filter.Filter
	Store  *storage.Store
	Hub    *hub.Hub
}

// Loop is the ingestion state machine. It owns the reader, the store
// handle, and the sending side of both output paths; no other goroutine
// touches them while Run is active.
type Loop struct {
	cfg   Config
	lines chan string
}

// New creates a Loop for the given configuration.
func New(cfg Config) *Loop {
	return &Loop{
		cfg:   cfg,
		lines: make(chan string, rawBuffer),
	}
}

// Lines is the Standard-mode display channel: one raw line per accepted
// input line, in ingestion order. Closed when the loop terminates.
func (l *Loop) Lines() <-chan string {
	return l.lines
}

// Run consumes the source until end-of-stream or a read error, which are
// the only terminal states. Lines have no length cap: the source is
// unbounded and an oversized line must not terminate the capture.
// Storage failures are logged and skipped — they never stop ingestion.
// On return the display paths are closed so consumers can drain and
// exit.
func (l *Loop) Run(r io.Reader) error {
	defer close(l.lines)
	if l.cfg.Hub != nil {
		defer l.cfg.Hub.Close()
	}

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			l.dispatch(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
	}
}

// dispatch routes one input line per the configured mode.
func (l *Loop) dispatch(line string) {
	switch l.cfg.Mode {
	case Standard:
		if l.cfg.Filter != nil && !l.cfg.Filter.Match(line) {
			return
		}
		if l.cfg.Store != nil || l.cfg.Hub != nil {
			entry := parser.Parse(line)
			if l.cfg.Store != nil {
				l.persist(entry)
			}
			if l.cfg.Hub != nil {
				l.cfg.Hub.Publish(entry)
			}
		}
		l.lines <- line

	case Interactive:
		entry := parser.Parse(line)
		if l.cfg.Store != nil {
			l.persist(entry)
		}
		l.cfg.Hub.Publish(entry)
	}
}

// persist writes one record with the capture-time clock. A failing store
// loses that record for persistence only.
func (l *Loop) persist(entry model.LogEntry) {
	rec := model.StoredLog{
		Timestamp: time.Now(),
		Level:     entry.Level.String(),
		Tag:       entry.Tag,
		Message:   entry.Message,
	}
	if err := l.cfg.Store.Store(rec); err != nil {
		log.Printf("ingest: %v", err)
	}
}
