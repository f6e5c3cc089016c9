package parser

import (
	"strings"
	"time"

	"github.com/admbahm/devinsight/internal/model"
)

// UnknownTag is the sentinel used when no tag can be recovered from a line.
const UnknownTag = "UNKNOWN"

// timestampLayout matches logcat's threadtime clock ("03-21 10:23:45").
const timestampLayout = "01-02 15:04:05"

// Parse converts one raw logcat line into a LogEntry. It accepts any input:
// malformed or non-threadtime lines degrade to best-effort defaults rather
// than failing. It has no shared state and is safe to call from any number
// of goroutines.
func Parse(raw string) model.LogEntry {
	header, message, found := strings.Cut(raw, ":")
	if !found {
		// No colon: the whole line is the message and there is no header
		// to recover a timestamp or tag from.
		header, message = "", raw
	} else {
		message = strings.TrimSpace(message)
	}

	fields := strings.Fields(header)

	timestamp := time.Now().Format(timestampLayout)
	if len(fields) >= 2 {
		timestamp = fields[0] + " " + fields[1]
	}

	// Tag heuristic: the second-to-last header token. On a full threadtime
	// header this token is the level letter, and on shorter headers it can
	// be a pid — captures recorded by earlier versions depend on exactly
	// this selection, so it stays as is.
	tag := UnknownTag
	switch n := len(fields); {
	case n >= 2:
		tag = fields[n-2]
	case n == 1:
		tag = fields[0]
	}

	return model.LogEntry{
		Level:     Classify(raw),
		Timestamp: timestamp,
		Tag:       tag,
		Message:   message,
		Raw:       raw,
	}
}

// Classify scans a full raw line for severity markers, highest first.
// Both the space-delimited level letter (" E ") and the spelled-out word
// ("Error") count; no marker means LevelUnknown.
func Classify(raw string) model.Level {
	switch {
	case strings.Contains(raw, " E ") || strings.Contains(raw, "Error"):
		return model.LevelError
	case strings.Contains(raw, " W ") || strings.Contains(raw, "Warning"):
		return model.LevelWarning
	case strings.Contains(raw, " I ") || strings.Contains(raw, "Info"):
		return model.LevelInfo
	case strings.Contains(raw, " D ") || strings.Contains(raw, "Debug"):
		return model.LevelDebug
	case strings.Contains(raw, " V ") || strings.Contains(raw, "Verbose"):
		return model.LevelVerbose
	default:
		return model.LevelUnknown
	}
}
