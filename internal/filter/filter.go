package filter

import "strings"

// Filter decides whether a raw logcat line should be processed in standard
// mode. Both criteria are optional; an unset criterion always passes, and
// when both are set a line must satisfy both.
//
// The level criterion matches the delimited markers logcat emits in its
// brief (" E/") and tag ("/E ") formats. It is deliberately stricter than
// the parser's level classification, which also accepts spelled-out words.
type Filter struct {
	Level string // single level letter: E, W, I, D, V
	Tag   string // literal substring
}

// New returns a Filter for the given optional criteria.
func New(level, tag string) *Filter {
	return &Filter{Level: level, Tag: tag}
}

// Match reports whether the raw line passes the configured criteria.
func (f *Filter) Match(line string) bool {
	if f.Level != "" {
		brief := " " + f.Level + "/"
		tagged := "/" + f.Level + " "
		if !strings.Contains(line, brief) && !strings.Contains(line, tagged) {
			return false
		}
	}

	if f.Tag != "" && !strings.Contains(line, f.Tag) {
		return false
	}

	return true
}
