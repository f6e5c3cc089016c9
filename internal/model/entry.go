package model

import "time"

// Level is the severity class of a log line.
type Level int

const (
	LevelUnknown Level = iota
	LevelVerbose
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the full level name as it appears in stored records.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "Error"
	case LevelWarning:
		return "Warning"
	case LevelInfo:
		return "Info"
	case LevelDebug:
		return "Debug"
	case LevelVerbose:
		return "Verbose"
	default:
		return "Unknown"
	}
}

// Letter returns the single-character logcat form of the level.
func (l Level) Letter() string {
	switch l {
	case LevelError:
		return "E"
	case LevelWarning:
		return "W"
	case LevelInfo:
		return "I"
	case LevelDebug:
		return "D"
	case LevelVerbose:
		return "V"
	default:
		return "?"
	}
}

// LevelFromString maps a stored level name back to its Level.
func LevelFromString(name string) Level {
	switch name {
	case "Error":
		return LevelError
	case "Warning":
		return LevelWarning
	case "Info":
		return LevelInfo
	case "Debug":
		return LevelDebug
	case "Verbose":
		return LevelVerbose
	default:
		return LevelUnknown
	}
}

// LevelFromLetter maps a logcat level letter to its Level.
func LevelFromLetter(letter string) Level {
	switch letter {
	case "E":
		return LevelError
	case "W":
		return LevelWarning
	case "I":
		return LevelInfo
	case "D":
		return LevelDebug
	case "V":
		return LevelVerbose
	default:
		return LevelUnknown
	}
}

// LogEntry represents a single parsed logcat line.
type LogEntry struct {
	Level     Level  `json:"level"`
	Timestamp string `json:"timestamp"` // source-embedded, or synthesized at parse time
	Tag       string `json:"tag"`
	Message   string `json:"message"`
	Raw       string `json:"raw"` // original line text
}

// StoredLog is the persisted form of one ingested line. Timestamp is the
// capture-time wall clock, not the device-embedded LogEntry timestamp.
type StoredLog struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Tag       string    `json:"tag"`
	Message   string    `json:"message"`
	DeviceID  string    `json:"device_id,omitempty"` // reserved for multi-device capture
}

// RotationEvent describes a rotation file that has just been closed.
type RotationEvent struct {
	Path    string `json:"path"`
	Seq     int    `json:"seq"`
	Records int    `json:"records"`
	Bytes   int64  `json:"bytes"`
}
