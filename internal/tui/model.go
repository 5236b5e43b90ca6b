package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/monarrange/internal/config"
	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/platform"
	"github.com/1broseidon/monarrange/internal/session"
)

// hotplugMsg carries a backend notification into the event loop.
type hotplugMsg struct {
	event platform.Event
}

// configMsg delivers a reloaded configuration.
type configMsg struct {
	cfg *config.Config
}

// model is the root bubbletea model. The session is only touched from
// Update, so it needs no locking.
type model struct {
	sess   *session.Session
	styles styles
	picker *modePicker
	status string

	width  int
	height int
}

func newModel(sess *session.Session, cfg *config.Config) model {
	return model{
		sess:   sess,
		styles: newStyles(cfg.Colors),
		status: "ready",
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sess.Resize(canvasSize(m.width, m.height))
		if m.picker != nil {
			m.picker.list.SetSize(m.pickerSize())
		}
		return m, nil

	case hotplugMsg:
		if err := m.sess.HandleEvent(msg.event); err != nil {
			logger.Errorf("hotplug: %v", err)
			m.status = "hotplug: " + err.Error()
			return m, nil
		}
		if msg.event.Kind == platform.EventOutputChange {
			m.picker = nil
			m.status = fmt.Sprintf("output %d %s", msg.event.Output, connectedWord(msg.event.Connected))
		}
		return m, nil

	case configMsg:
		m.styles = newStyles(msg.cfg.Colors)
		m.status = "config reloaded"
		return m, nil

	case tea.MouseMsg:
		if m.picker != nil {
			return m, nil
		}
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.picker != nil {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	x, y := toCanvas(msg.X, msg.Y)
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.sess.Press(x, y) {
			m.status = "dragging " + m.sess.Selected().Name
		}
	case msg.Action == tea.MouseActionMotion:
		m.sess.Move(x, y)
	case msg.Action == tea.MouseActionRelease:
		if o := m.sess.Dragging(); o != nil {
			m.sess.Release()
			m.status = "placed " + o.Name
		}
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "tab", "n":
		if o := m.sess.SelectNext(1); o != nil {
			m.status = "selected " + o.Name
		}
	case "shift+tab", "p":
		if o := m.sess.SelectNext(-1); o != nil {
			m.status = "selected " + o.Name
		}

	case "shift+left", "H":
		m.shift(layout.DirLeft)
	case "shift+right", "L":
		m.shift(layout.DirRight)
	case "shift+up", "K":
		m.shift(layout.DirTop)
	case "shift+down", "J":
		m.shift(layout.DirBottom)

	case "m", "enter":
		o := m.sess.Selected()
		if o == nil {
			m.status = "select an output first"
			break
		}
		w, h := m.pickerSize()
		p := newModePicker(o, m.sess.ModesFor(o), w, h)
		m.picker = &p

	case "+", "=":
		m.cycleMode(1)
	case "-":
		m.cycleMode(-1)

	case "d", " ":
		o, err := m.sess.ToggleEnabled()
		if err != nil {
			m.status = err.Error()
			break
		}
		if o.Enabled {
			m.status = o.Name + " will be enabled"
		} else {
			m.status = o.Name + " will be disabled"
		}

	case "a":
		m.status = m.apply()

	case "r":
		if err := m.sess.Load(); err != nil {
			m.status = "reload: " + err.Error()
		} else {
			m.status = "reloaded from hardware"
		}
	}
	return m, nil
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.picker = nil
		return m, nil
	case "enter":
		mode, ok := m.picker.Chosen()
		handle := m.picker.output
		m.picker = nil
		if !ok {
			return m, nil
		}
		if err := m.sess.SetMode(handle, mode.ID); err != nil {
			m.status = err.Error()
		} else {
			m.status = "mode " + layout.ModeLabel(mode)
		}
		return m, nil
	}
	p, cmd := m.picker.Update(msg)
	m.picker = &p
	return m, cmd
}

func (m *model) shift(dir layout.Direction) {
	moved, err := m.sess.Shift(dir)
	switch {
	case err != nil:
		m.status = err.Error()
	case moved:
		m.status = "moved " + m.sess.Selected().Name + " " + dir.String()
	}
}

func (m *model) cycleMode(delta int) {
	mode, err := m.sess.CycleMode(delta)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = "mode " + layout.ModeLabel(mode)
}

// apply runs synchronously; nothing else may touch the hardware meanwhile.
func (m *model) apply() string {
	res, err := m.sess.Apply()
	if err != nil {
		logger.Errorf("apply: %v", err)
		return "apply failed: " + err.Error()
	}
	if !res.OK() {
		parts := make([]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			parts = append(parts, f.Error())
		}
		return "applied with errors: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("applied %dx%d at %.0f dpi", res.Screen.Width, res.Screen.Height, res.DPI)
}

func (m model) pickerSize() (int, int) {
	w := min(40, max(m.width-4, 10))
	h := min(12, max(m.height-headerRows-footerRows-2, 3))
	return w, h
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	status := m.styles.status.Width(m.width).Render(truncate(m.status, m.width-2))
	help := m.styles.help.Width(m.width).Render(truncate(helpText, m.width-2))

	cols, rows := m.width, m.height-headerRows-footerRows
	if rows < 1 {
		rows = 1
	}

	var body string
	if m.picker != nil {
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center,
			m.styles.picker.Render(m.picker.View()))
	} else {
		body = m.canvas(cols, rows).render(m.styles)
	}

	return lipgloss.JoinVertical(lipgloss.Left, status, body, help)
}

func (m model) canvas(cols, rows int) grid {
	g := newGrid(cols, rows)
	var selected, dragged platform.OutputID
	if o := m.sess.Selected(); o != nil {
		selected = o.Handle
	}
	if o := m.sess.Dragging(); o != nil {
		dragged = o.Handle
	}
	drawBoxes(g, buildBoxes(m.sess.Outputs(), m.sess.Catalog(), selected, dragged))
	return g
}

const helpText = "tab: select  drag/shift+arrows: move  m: modes  +/-: cycle mode  d: toggle  a: apply  r: reload  q: quit"

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func connectedWord(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}
