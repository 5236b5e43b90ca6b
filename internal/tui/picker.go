package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/platform"
)

// modeItem implements list.Item for the mode picker.
type modeItem struct {
	mode      platform.Mode
	current   bool
	preferred bool
}

func (i modeItem) Title() string {
	prefix := "  "
	if i.current {
		prefix = "* "
	}
	suffix := ""
	if i.preferred {
		suffix = " (preferred)"
	}
	return prefix + layout.ModeLabel(i.mode) + suffix
}

func (i modeItem) Description() string { return "" }
func (i modeItem) FilterValue() string { return layout.ModeLabel(i.mode) }

// modePicker lists the modes of one output.
type modePicker struct {
	output platform.OutputID
	list   list.Model
}

func newModePicker(o *layout.Output, modes []platform.Mode, width, height int) modePicker {
	items := make([]list.Item, 0, len(modes))
	selected := 0
	for i, m := range modes {
		if m.ID == o.Mode {
			selected = i
		}
		items = append(items, modeItem{
			mode:      m,
			current:   m.ID == o.Mode,
			preferred: o.IsPreferred(m.ID),
		})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(items, delegate, width, height)
	l.Title = "Modes for " + o.Name
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Select(selected)

	return modePicker{output: o.Handle, list: l}
}

func (p modePicker) Update(msg tea.Msg) (modePicker, tea.Cmd) {
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// Chosen returns the highlighted mode.
func (p modePicker) Chosen() (platform.Mode, bool) {
	item, ok := p.list.SelectedItem().(modeItem)
	if !ok {
		return platform.Mode{}, false
	}
	return item.mode, true
}

func (p modePicker) View() string {
	return p.list.View()
}
