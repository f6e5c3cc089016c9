package filter

import "testing"

func TestMatchNoCriteria(t *testing.T) {
	f := New("", "")
	if !f.Match("anything at all") {
		t.Error("empty filter must pass every line")
	}
}

func TestMatchLevelBriefFormat(t *testing.T) {
	f := New("E", "")
	if !f.Match("03-21 10:23:45.678 E/AudioFlinger(123): underrun") {
		t.Error("expected ' E/' marker to match")
	}
}

func TestMatchLevelTagFormat(t *testing.T) {
	f := New("E", "")
	if !f.Match("AudioFlinger/E 123: underrun") {
		t.Error("expected '/E ' marker to match")
	}
}

func TestMatchLevelRejectsPlainWord(t *testing.T) {
	// "Error" as a word is a parser concern; the filter only accepts the
	// delimited letter markers.
	f := New("E", "")
	if f.Match("something Error happened") {
		t.Error("plain 'Error' text must not satisfy the level criterion")
	}
	if f.Match("03-21 10:23:45.678  1234  5678 E Audio: fail") {
		t.Error("space-delimited letter without slash must not match")
	}
}

func TestMatchTagSubstring(t *testing.T) {
	f := New("", "AudioFlinger")
	if !f.Match("03-21 10:23:45.678 W/AudioFlinger(123): slow") {
		t.Error("expected tag substring to match")
	}
	if f.Match("03-21 10:23:45.678 W/Camera(123): slow") {
		t.Error("expected non-matching tag to reject")
	}
}

func TestMatchConjunction(t *testing.T) {
	f := New("W", "Camera")

	if !f.Match("03-21 10:23:45.678 W/Camera(123): slow") {
		t.Error("line satisfying both criteria must pass")
	}
	if f.Match("03-21 10:23:45.678 W/AudioFlinger(123): slow") {
		t.Error("level match alone must not pass when tag is set")
	}
	if f.Match("03-21 10:23:45.678 E/Camera(123): fail") {
		t.Error("tag match alone must not pass when level is set")
	}
}
