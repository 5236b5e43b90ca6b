package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/monarrange/internal/config"
)

type styleID int

const (
	styleNormal styleID = iota
	styleMonitor
	styleSelected
	styleDisabled
	styleCount
)

type styles struct {
	cells  [styleCount]lipgloss.Style
	status lipgloss.Style
	help   lipgloss.Style
	picker lipgloss.Style
}

func newStyles(c config.Colors) styles {
	pair := func(col config.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(col.Foreground)).
			Background(lipgloss.Color(col.Background))
	}

	var s styles
	s.cells[styleNormal] = pair(c.Normal)
	s.cells[styleMonitor] = pair(c.Monitor)
	s.cells[styleSelected] = pair(c.Selected).Bold(true)
	s.cells[styleDisabled] = pair(c.Monitor).Faint(true)

	s.status = pair(c.Selected).Padding(0, 1)
	s.help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	s.picker = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(c.Selected.Background)).
		Padding(0, 1)
	return s
}
