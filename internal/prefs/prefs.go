// Package prefs persists interactive-mode user preferences in
// ~/.config/devinsight/prefs.toml.
package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the interactive viewer.
type Prefs struct {
	Theme       string `toml:"theme"`
	ShowTags    bool   `toml:"show_tags"`
	WrapMessage bool   `toml:"wrap_message"`
}

const defaultPrefsPath = "~/.config/devinsight/prefs.toml"

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: "dark", ShowTags: true}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path (empty means the default location),
// degrading to defaults on any problem: a broken prefs file must never
// stop the viewer from starting.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults()
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return Defaults()
	}

	p := Defaults()
	if err := toml.Unmarshal(raw, &p); err != nil {
		return Defaults()
	}
	if p.Theme == "" {
		p.Theme = Defaults().Theme
	}
	return p
}

// Save writes preferences to path (empty means the default location),
// creating the directory as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}

	raw, err := toml.Marshal(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return err
	}
	return os.WriteFile(resolved, raw, 0o644)
}

// resolvePath expands the leading ~ and falls back to the default path.
func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("cannot resolve home directory")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
