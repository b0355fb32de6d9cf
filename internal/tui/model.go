// Package tui renders a widget as a single terminal tile.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// DisplayMsg carries one render from the widget into the program.
type DisplayMsg models.DisplayState

// Actions are the host operations the tile can trigger.
type Actions struct {
	Refresh func()
	// Cycle selects the next (step 1) or previous (step -1) scene item.
	Cycle func(step int)
}

var (
	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	labelStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	indicatorStyles = map[models.Indicator]lipgloss.Style{
		models.IndicatorVisible:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.IndicatorHidden:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.IndicatorNoSelection: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		models.IndicatorUnknown:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}

	indicatorGlyphs = map[models.Indicator]string{
		models.IndicatorVisible:     "● visible",
		models.IndicatorHidden:      "○ hidden",
		models.IndicatorNoSelection: "- none",
		models.IndicatorUnknown:     "? unknown",
	}
)

// Model is the tile's bubbletea model.
type Model struct {
	display models.DisplayState
	actions Actions
	width   int
}

func NewModel(actions Actions) Model {
	return Model{
		display: models.InitialDisplayState(),
		actions: actions,
	}
}

// Display returns the state currently shown.
func (m Model) Display() models.DisplayState {
	return m.display
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DisplayMsg:
		m.display = models.DisplayState(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.actions.Refresh != nil {
				m.actions.Refresh()
			}
		case "right", "l", "n":
			if m.actions.Cycle != nil {
				m.actions.Cycle(1)
			}
		case "left", "h", "p":
			if m.actions.Cycle != nil {
				m.actions.Cycle(-1)
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	style, ok := indicatorStyles[m.display.Indicator]
	if !ok {
		style = indicatorStyles[models.IndicatorUnknown]
	}
	glyph, ok := indicatorGlyphs[m.display.Indicator]
	if !ok {
		glyph = indicatorGlyphs[models.IndicatorUnknown]
	}

	tile := tileStyle.BorderForeground(style.GetForeground()).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			labelStyle.Render(m.display.Label),
			style.Render(glyph),
		),
	)
	return fmt.Sprintf("%s\n%s\n", tile, helpStyle.Render("←/→ select · r refresh · q quit"))
}
