package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameRate is how often the view polls for new rows.
const frameRate = 30

type frameMsg time.Time

// SessionEndedMsg tells the model the capture session returned.
type SessionEndedMsg struct {
	Err error
}

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
