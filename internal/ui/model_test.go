package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/specterm/internal/capture"
	"github.com/olivier-w/specterm/internal/spectrum"
	"github.com/olivier-w/specterm/internal/visualizer"
)

type stubSource struct {
	slot  *visualizer.Slot[spectrum.Row]
	stats capture.Stats
}

func newStubSource(width int) *stubSource {
	return &stubSource{slot: visualizer.NewSlot(func() spectrum.Row { return spectrum.NewRow(width) })}
}

func (s *stubSource) Rows() *visualizer.Slot[spectrum.Row] { return s.slot }
func (s *stubSource) Stats() capture.Stats                 { return s.stats }

func (s *stubSource) publish(seq uint64, level spectrum.Level, event bool) {
	row := s.slot.Back()
	row.Seq = seq
	row.Event = event
	for i := range row.Levels {
		row.Levels[i] = level
	}
	s.slot.Publish()
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm
}

func TestFramePushesNewRowsIntoHistory(t *testing.T) {
	src := newStubSource(4)
	m := New(src, "mic", 0, nil)

	m = update(t, m, frameMsg(time.Now()))
	if m.gotRow || m.history.Len() != 0 {
		t.Fatal("expected no rows before anything was published")
	}

	src.publish(1, spectrum.L3, false)
	m = update(t, m, frameMsg(time.Now()))
	if !m.gotRow || m.history.Len() != 1 {
		t.Fatalf("expected one history row, got %d", m.history.Len())
	}

	// Same row is not pushed twice.
	m = update(t, m, frameMsg(time.Now()))
	if m.history.Len() != 1 {
		t.Fatalf("expected history to stay at 1 row, got %d", m.history.Len())
	}
}

func TestFreezeStillDrainsRows(t *testing.T) {
	src := newStubSource(4)
	m := New(src, "", 0, nil)

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.frozen {
		t.Fatal("expected space to freeze the view")
	}

	src.publish(1, spectrum.L7, false)
	m = update(t, m, frameMsg(time.Now()))
	if m.history.Len() != 0 {
		t.Fatal("expected frozen view to keep history unchanged")
	}
	if _, ok := src.slot.Take(); ok {
		t.Fatal("expected frozen view to still take the row")
	}
}

func TestEventRowShowsBanner(t *testing.T) {
	src := newStubSource(4)
	m := New(src, "", 0, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	src.publish(1, spectrum.L0, true)
	m = update(t, m, frameMsg(time.Now()))
	if m.lastEvent.IsZero() {
		t.Fatal("expected event time to be recorded")
	}
	if !strings.Contains(m.View(), "detected sound...") {
		t.Fatal("expected event banner in view")
	}
}

func TestQuitRunsCallback(t *testing.T) {
	called := false
	m := New(newStubSource(4), "", 0, func() { called = true })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !called {
		t.Fatal("expected quit callback")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if next.(Model).View() != "" {
		t.Fatal("expected empty view after quit")
	}
}

func TestSessionEndedKeepsError(t *testing.T) {
	m := New(newStubSource(4), "", 0, nil)
	want := errors.New("capture fault: unexpected buffer size")
	m = update(t, m, SessionEndedMsg{Err: want})
	if !errors.Is(m.Err(), want) {
		t.Fatalf("expected session error, got %v", m.Err())
	}
}

func TestViewPadsToWindowHeight(t *testing.T) {
	src := newStubSource(8)
	m := New(src, "fixture.wav", 10*time.Second, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})
	src.publish(1, spectrum.L5, false)
	m = update(t, m, frameMsg(time.Now()))

	view := m.View()
	if lipgloss.Height(view) < 30 {
		t.Fatalf("expected padded view height >= 30, got %d", lipgloss.Height(view))
	}
	if !strings.Contains(view, "fixture.wav") {
		t.Fatal("expected source label in view")
	}
	if m.history.Len() != 1 {
		t.Fatalf("expected one row of history, got %d", m.history.Len())
	}
}

func TestRenderProgressBarClamps(t *testing.T) {
	bar := renderProgressBar(20, 10, 12)
	if bar != strings.Repeat("━", 10) {
		t.Fatalf("expected full bar, got %q", bar)
	}
	bar = renderProgressBar(0, 0, 12)
	if bar != strings.Repeat("─", 10) {
		t.Fatalf("expected empty bar, got %q", bar)
	}
}
