package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/admbahm/devinsight/internal/model"
)

// Theme defines the color palette for the interactive viewer.
type Theme struct {
	Name string

	Text      string
	Muted     string
	Accent    string
	StatusBg  string
	StatusFg  string
	SelectFg  string

	Error   string
	Warning string
	Info    string
	Debug   string
	Verbose string
	Unknown string
}

var themes = []Theme{
	{
		Name:     "dark",
		Text:     "252",
		Muted:    "245",
		Accent:   "51",
		StatusBg: "236",
		StatusFg: "252",
		SelectFg: "231",
		Error:    "196",
		Warning:  "220",
		Info:     "42",
		Debug:    "39",
		Verbose:  "255",
		Unknown:  "245",
	},
	{
		Name:     "light",
		Text:     "235",
		Muted:    "243",
		Accent:   "26",
		StatusBg: "254",
		StatusFg: "235",
		SelectFg: "16",
		Error:    "124",
		Warning:  "130",
		Info:     "28",
		Debug:    "25",
		Verbose:  "235",
		Unknown:  "243",
	},
}

// GetTheme returns the theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// NextTheme returns the name of the theme after the given one, cycling.
func NextTheme(name string) string {
	for i, t := range themes {
		if t.Name == name {
			return themes[(i+1)%len(themes)].Name
		}
	}
	return themes[0].Name
}

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	Text   lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Status lipgloss.Style

	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Debug   lipgloss.Style
	Verbose lipgloss.Style
	Unknown lipgloss.Style
}

// Styles builds the style set for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)).Bold(true),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color(t.StatusBg)).
			Foreground(lipgloss.Color(t.StatusFg)),

		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Error)).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),
		Debug:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Debug)),
		Verbose: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Verbose)),
		Unknown: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Unknown)),
	}
}

// ForLevel returns the style for a severity.
func (s Styles) ForLevel(level model.Level) lipgloss.Style {
	switch level {
	case model.LevelError:
		return s.Error
	case model.LevelWarning:
		return s.Warning
	case model.LevelInfo:
		return s.Info
	case model.LevelDebug:
		return s.Debug
	case model.LevelVerbose:
		return s.Verbose
	default:
		return s.Unknown
	}
}
