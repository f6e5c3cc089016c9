// Package ui provides the Bubble Tea interactive log viewer.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/prefs"
	"github.com/admbahm/devinsight/internal/storage"
)

const (
	maxBuffer = 5000
	maxBatch  = 256
)

// Options configures the viewer. MinLevel and TagFilter seed the
// display-side filters (adjustable at runtime), so capture flags carry
// over into the viewer instead of being silently ignored.
type Options struct {
	Entries   <-chan model.LogEntry
	Dropped   func() int64
	Storage   func() *storage.Stats
	Prefs     prefs.Prefs
	PrefsPath string
	MinLevel  model.Level
	TagFilter string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	keys      keyMap
	theme     Theme
	styles    Styles
	prefs     prefs.Prefs
	prefsPath string

	entries   <-chan model.LogEntry
	droppedFn func() int64
	storageFn func() *storage.Stats

	viewport viewport.Model
	tagInput textinput.Model
	entering bool

	buffer   []model.LogEntry
	total    int64
	shown    int
	minLevel model.Level

	tagFilter string
	follow    bool
	done      bool
	showHelp  bool

	width  int
	height int
	ready  bool
}

// New creates the viewer model.
func New(opts Options) Model {
	theme := GetTheme(opts.Prefs.Theme)

	input := textinput.New()
	input.Placeholder = "tag substring"
	input.Prompt = "tag: "
	input.CharLimit = 64

	return Model{
		keys:      defaultKeyMap(),
		theme:     theme,
		styles:    theme.Styles(),
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		entries:   opts.Entries,
		droppedFn: opts.Dropped,
		storageFn: opts.Storage,
		tagInput:  input,
		buffer:    make([]model.LogEntry, 0, maxBuffer),
		minLevel:  opts.MinLevel,
		tagFilter: opts.TagFilter,
		follow:    true,
	}
}

// Messages

type tickMsg time.Time

type entryBatchMsg []model.LogEntry

type streamDoneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEntries blocks for one entry, then drains whatever else is
// already queued so a burst arrives as a single repaint.
func waitForEntries(ch <-chan model.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		batch := entryBatchMsg{entry}
		for len(batch) < maxBatch {
			select {
			case next, ok := <-ch:
				if !ok {
					return batch
				}
				batch = append(batch, next)
			default:
				return batch
			}
		}
		return batch
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		waitForEntries(m.entries),
		tickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-1)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 1
		}
		m.refreshContent()
		return m, nil

	case entryBatchMsg:
		m.append(msg)
		return m, waitForEntries(m.entries)

	case streamDoneMsg:
		m.done = true
		return m, nil

	case tickMsg:
		// Status bar counters (drops, storage) refresh on the tick.
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.entering {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.tagFilter = strings.TrimSpace(m.tagInput.Value())
			m.entering = false
			m.tagInput.Blur()
			m.refreshContent()
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.entering = false
			m.tagInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.tagInput, cmd = m.tagInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleLevel):
		m.minLevel = nextLevel(m.minLevel)
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.FilterTag):
		m.entering = true
		m.tagInput.SetValue(m.tagFilter)
		m.tagInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.ToggleTags):
		m.prefs.ShowTags = !m.prefs.ShowTags
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.ToggleWrap):
		m.prefs.WrapMessage = !m.prefs.WrapMessage
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.buffer = m.buffer[:0]
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
		m.viewport.GotoBottom()
	}

	return m, nil
}

// append adds a batch to the ring buffer and repaints.
func (m *Model) append(batch []model.LogEntry) {
	m.total += int64(len(batch))
	m.buffer = append(m.buffer, batch...)
	if over := len(m.buffer) - maxBuffer; over > 0 {
		m.buffer = append(m.buffer[:0], m.buffer[over:]...)
	}
	m.refreshContent()
}

// visible reports whether an entry passes the display filters. The
// display filter is separate from the capture filter: it narrows what
// is shown, never what is ingested.
func (m *Model) visible(entry model.LogEntry) bool {
	if m.minLevel != model.LevelUnknown && entry.Level < m.minLevel {
		return false
	}
	if m.tagFilter != "" && !strings.Contains(entry.Tag, m.tagFilter) {
		return false
	}
	return true
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}

	var b strings.Builder
	shown := 0
	for _, entry := range m.buffer {
		if !m.visible(entry) {
			continue
		}
		b.WriteString(m.renderLine(entry))
		b.WriteString("\n")
		shown++
	}
	m.shown = shown
	m.viewport.SetContent(b.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderLine(entry model.LogEntry) string {
	style := m.styles.ForLevel(entry.Level)

	parts := make([]string, 0, 4)
	if entry.Timestamp != "" {
		parts = append(parts, m.styles.Muted.Render(entry.Timestamp))
	}
	parts = append(parts, style.Render(entry.Level.Letter()))
	if m.prefs.ShowTags && entry.Tag != "" {
		parts = append(parts, m.styles.Muted.Render(entry.Tag))
	}
	parts = append(parts, style.Render(entry.Message))

	line := strings.Join(parts, " ")
	if m.prefs.WrapMessage && m.width > 0 {
		line = lipgloss.NewStyle().Width(m.width).Render(line)
	}
	return line
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.entering {
		b.WriteString(m.tagInput.View())
	} else {
		b.WriteString(m.renderStatus())
	}
	return b.String()
}

func (m Model) renderStatus() string {
	levelLabel := "all"
	if m.minLevel != model.LevelUnknown {
		levelLabel = m.minLevel.String() + "+"
	}

	segs := []string{
		m.styles.Accent.Render("DevInsight"),
		fmt.Sprintf("%d lines", m.total),
		fmt.Sprintf("%d shown", m.shown),
		"level " + levelLabel,
	}
	if m.tagFilter != "" {
		segs = append(segs, "tag ~"+m.tagFilter)
	}
	if m.droppedFn != nil {
		if n := m.droppedFn(); n > 0 {
			segs = append(segs, fmt.Sprintf("%d dropped", n))
		}
	}
	if m.storageFn != nil {
		if st := m.storageFn(); st != nil {
			segs = append(segs, fmt.Sprintf("%d stored/%d rot", st.Records, st.Rotations))
		}
	}
	if m.follow {
		segs = append(segs, "follow")
	}
	if m.done {
		segs = append(segs, "stream ended")
	}

	bar := " " + strings.Join(segs, "  |  ") + " "
	if m.width > 0 {
		return m.styles.Status.Width(m.width).Render(bar)
	}
	return m.styles.Status.Render(bar)
}

func (m Model) renderHelp() string {
	rows := []struct{ key, desc string }{
		{"space", "toggle follow mode"},
		{"f", "cycle minimum level (all → V → D → I → W → E)"},
		{"/", "filter by tag substring"},
		{"t", "show or hide tags"},
		{"w", "wrap long messages"},
		{"c", "clear the buffer"},
		{"j/k, pgup/pgdn, g/G", "scroll"},
		{"T", "cycle theme"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("DevInsight — keys"))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-22s %s\n",
			m.styles.Text.Render(r.key), m.styles.Muted.Render(r.desc)))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("  press any key to close"))
	return b.String()
}

func (m *Model) savePrefs() {
	// Preferences loss is cosmetic; never interrupt the viewer for it.
	_ = prefs.Save(m.prefsPath, m.prefs)
}

// nextLevel cycles the minimum display level, LevelUnknown meaning all.
func nextLevel(level model.Level) model.Level {
	switch level {
	case model.LevelUnknown:
		return model.LevelVerbose
	case model.LevelVerbose:
		return model.LevelDebug
	case model.LevelDebug:
		return model.LevelInfo
	case model.LevelInfo:
		return model.LevelWarning
	case model.LevelWarning:
		return model.LevelError
	default:
		return model.LevelUnknown
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
