package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink forwards widget renders to a running program.
type Sink struct {
	program Sender
}

func NewSink(program Sender) *Sink {
	return &Sink{program: program}
}

func (s *Sink) Render(state models.DisplayState) {
	s.program.Send(DisplayMsg(state))
}

// Next returns the key step positions away from current in keys, wrapping
// around. An empty or unknown current starts from the first key.
func Next(keys []string, current string, step int) string {
	if len(keys) == 0 {
		return ""
	}
	for i, k := range keys {
		if k == current {
			n := len(keys)
			return keys[((i+step)%n+n)%n]
		}
	}
	return keys[0]
}
