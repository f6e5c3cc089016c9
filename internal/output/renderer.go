package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/parser"
)

// Styles is the full render palette. It is passed in at construction so
// color behavior is a per-renderer decision, never process-wide state.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Debug   lipgloss.Style
	Verbose lipgloss.Style
	Unknown lipgloss.Style
	Header  lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns the colorized palette.
func DefaultStyles() Styles {
	return Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // red bold
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),            // yellow
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),             // green
		Debug:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // blue
		Verbose: lipgloss.NewStyle().Foreground(lipgloss.Color("255")),            // white
		Unknown: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),            // gray
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),  // cyan
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
	}
}

// PlainStyles returns a no-op palette for non-TTY output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Error: plain, Warning: plain, Info: plain,
		Debug: plain, Verbose: plain, Unknown: plain,
		Header: plain, Dim: plain,
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

// Renderer writes log output to a stream.
type Renderer interface {
	RenderRaw(line string) error
	RenderEntry(entry model.LogEntry) error
}

// TextRenderer prints severity-colored text.
type TextRenderer struct {
	w      io.Writer
	styles Styles
}

// NewTextRenderer returns a Renderer writing styled text to w.
func NewTextRenderer(w io.Writer, styles Styles) *TextRenderer {
	return &TextRenderer{w: w, styles: styles}
}

// RenderRaw prints a raw logcat line colored by a level sniff of its
// text, the standard-mode display path.
func (r *TextRenderer) RenderRaw(line string) error {
	level := parser.Classify(line)
	style := r.styles.ForLevel(level)
	_, err := fmt.Fprintf(r.w, "%s  %s\n", style.Render(level.Letter()), style.Render(line))
	return err
}

// RenderEntry prints a parsed entry as aligned columns, used by replay.
func (r *TextRenderer) RenderEntry(entry model.LogEntry) error {
	style := r.styles.ForLevel(entry.Level)
	chip := style.Render(fmt.Sprintf("%-7s", entry.Level.String()))
	tag := r.styles.Dim.Render(entry.Tag)
	_, err := fmt.Fprintf(r.w, "%s %s %s %s\n", entry.Timestamp, chip, tag, entry.Message)
	return err
}

// Banner prints the session header the standard mode opens with.
func (r *TextRenderer) Banner(title string) {
	fmt.Fprintln(r.w, r.styles.Header.Render(title))
	fmt.Fprintln(r.w, r.styles.Header.Render("=================================================="))
}

// Errorf prints a user-visible error line in the error style.
func (r *TextRenderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.w, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// JSONRenderer prints each line or entry as one JSON object per line,
// for piping into other tooling.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer writing JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) RenderRaw(line string) error {
	return r.enc.Encode(parser.Parse(line))
}

func (r *JSONRenderer) RenderEntry(entry model.LogEntry) error {
	return r.enc.Encode(entry)
}
