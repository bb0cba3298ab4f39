// Package ui is the full-screen spectrogram view.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/specterm/internal/capture"
	"github.com/olivier-w/specterm/internal/spectrum"
	"github.com/olivier-w/specterm/internal/util"
	"github.com/olivier-w/specterm/internal/visualizer"
)

// chromeLines is the number of view lines outside the history.
const chromeLines = 9

// eventHold is how long the event banner stays up after an event row.
const eventHold = time.Second

// Source is what the view reads from the capture side.
type Source interface {
	Rows() *visualizer.Slot[spectrum.Row]
	Stats() capture.Stats
}

// Model is the Bubbletea model for the specterm TUI.
type Model struct {
	src      Source
	label    string
	duration time.Duration
	onQuit   func()

	history *visualizer.History
	meter   *visualizer.PeakMeter
	spinner spinner.Model
	keys    keyMap
	help    help.Model

	stats     capture.Stats
	started   time.Time
	elapsed   time.Duration
	lastEvent time.Time
	gotRow    bool
	frozen    bool
	width     int
	height    int
	quitting  bool
	err       error
}

// New creates a Model reading from src. duration is the session limit shown
// as a progress bar (zero for none); onQuit runs when the user quits.
func New(src Source, label string, duration time.Duration, onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		src:      src,
		label:    label,
		duration: duration,
		onQuit:   onQuit,
		history:  visualizer.NewHistory(16),
		meter:    visualizer.NewPeakMeter(frameRate),
		spinner:  s,
		keys:     defaultKeyMap(),
		help:     help.New(),
		started:  time.Now(),
	}
}

// Err returns the error the session ended with, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(frameCmd(), m.spinner.Tick, tea.SetWindowTitle(windowTitle(m.label)))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		case key.Matches(msg, m.keys.Freeze):
			m.frozen = !m.frozen
		case key.Matches(msg, m.keys.Clear):
			m.history = visualizer.NewHistory(m.historyHeight())
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case frameMsg:
		m.consume(time.Time(msg))
		return m, frameCmd()

	case spinner.TickMsg:
		if m.gotRow {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SessionEndedMsg:
		m.err = msg.Err
		m.consume(time.Now())
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history.Resize(m.historyHeight())
		return m, nil
	}

	return m, nil
}

// consume takes the newest row, if any, and refreshes the counters. Rows
// arriving while frozen are still taken so the handoff keeps moving.
func (m *Model) consume(now time.Time) {
	m.elapsed = now.Sub(m.started)
	m.stats = m.src.Stats()

	row, ok := m.src.Rows().Take()
	if !ok {
		return
	}
	m.gotRow = true
	if row.Event {
		m.lastEvent = now
	}
	if m.frozen {
		return
	}
	m.history.Push(row)
	m.meter.Update(row)
}

func (m Model) historyHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("specterm"))
	if m.label != "" {
		b.WriteString("  " + labelStyle.Render(m.label))
	}
	b.WriteString("\n\n")

	if !m.gotRow {
		b.WriteString("  " + m.spinner.View() + " " + statusStyle.Render("waiting for audio") + "\n")
	} else {
		for _, line := range strings.Split(m.history.View(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("  " + statusStyle.Render("peak ") + m.meter.View(max(10, w-12)) + "\n")
	b.WriteString("  " + m.progressLine(w) + "\n")

	status := renderStats(m.stats)
	switch {
	case m.err != nil:
		status = errorStyle.Render(m.err.Error())
	case !m.lastEvent.IsZero() && m.elapsed-m.lastEvent.Sub(m.started) < eventHold:
		status = visualizer.EventBanner()
	case m.frozen:
		status = frozenStyle.Render("frozen") + "  " + statusStyle.Render(status)
	default:
		status = statusStyle.Render(status)
	}
	b.WriteString("  " + status + "\n\n")
	b.WriteString("  " + m.help.View(m.keys) + "\n")

	view := b.String()
	if pad := m.height - lipgloss.Height(view); pad > 0 {
		view += strings.Repeat("\n", pad)
	}
	return view
}

func (m Model) progressLine(w int) string {
	elapsed := util.FormatDuration(m.elapsed)
	if m.duration <= 0 {
		return timeStyle.Render(elapsed)
	}
	total := util.FormatDuration(m.duration)
	barWidth := w - len(elapsed) - len(total) - 6
	bar := renderProgressBar(m.elapsed.Seconds(), m.duration.Seconds(), barWidth)
	return fmt.Sprintf("%s %s %s", timeStyle.Render(elapsed), bar, timeStyle.Render(total))
}

func windowTitle(label string) string {
	if label == "" {
		return "specterm"
	}
	return label + " - specterm"
}
