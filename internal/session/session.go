package session

import (
	"errors"
	"fmt"
	"math"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/platform"
)

// ErrUnknownOutput is returned for handles or names not in the registry.
var ErrUnknownOutput = errors.New("unknown output")

// Options configures a Session.
type Options struct {
	Width         int
	Height        int
	Overprovision float64
	SnapThreshold int
}

type drag struct {
	handle  platform.OutputID
	offsetX int
	offsetY int
}

// Session owns the registry, view, mode catalog, selection and drag state
// for one arranging session. It is not safe for concurrent use.
type Session struct {
	backend       platform.Backend
	registry      *layout.Registry
	catalog       *layout.Catalog
	view          *layout.View
	snapThreshold int

	selected platform.OutputID
	drag     *drag
}

// New creates a session. Call Load before use.
func New(backend platform.Backend, opts Options) *Session {
	threshold := opts.SnapThreshold
	if threshold <= 0 {
		threshold = layout.DefaultSnapThreshold
	}
	return &Session{
		backend:       backend,
		registry:      layout.NewRegistry(),
		catalog:       layout.NewCatalog(nil),
		view:          layout.NewView(opts.Width, opts.Height, opts.Overprovision),
		snapThreshold: threshold,
	}
}

// Load enumerates the hardware and rebuilds the registry. Outputs that keep
// their handle and fingerprint across the reload keep their enabled flag.
func (s *Session) Load() error {
	snap, err := s.backend.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to enumerate outputs: %w", err)
	}

	catalog := layout.NewCatalog(snap.Modes)
	registry := layout.NewRegistry()
	for _, hw := range snap.Outputs {
		if !hw.Connected {
			continue
		}
		o, err := layout.NewOutput(snap, hw, catalog)
		if err != nil {
			return err
		}
		if prev := s.registry.Find(o.Handle); prev != nil && prev.Fingerprint == o.Fingerprint {
			o.Enabled = prev.Enabled
		}
		for _, h := range registry.Upsert(o) {
			logger.Debugf("output %d replaced by %s", h, o.Name)
		}
	}

	s.catalog = catalog
	s.registry = registry
	s.refresh(snap)
	return nil
}

// resolveOwners gives each enabled hardware channel a single owner: the
// first output in registry order that the channel drives. Later outputs on
// the same channel become clones of it. Outputs whose channel is off or
// gone are left unassigned.
func resolveOwners(outputs []*layout.Output, snap *platform.Snapshot) {
	owners := make(map[platform.ChannelID]platform.OutputID)
	for _, o := range outputs {
		o.Channel, o.CloneOf = 0, 0
		hw := snap.Output(o.Handle)
		if hw == nil {
			continue
		}
		ch := snap.Channel(hw.Channel)
		if ch == nil || !ch.Enabled() {
			continue
		}
		if owner, ok := owners[ch.ID]; ok {
			o.CloneOf = owner
			continue
		}
		owners[ch.ID] = o.Handle
		o.Channel = ch.ID
	}
}

// refresh re-derives channel ownership and the canvas after the registry
// changed.
func (s *Session) refresh(snap *platform.Snapshot) {
	outputs := s.registry.Outputs()
	resolveOwners(outputs, snap)
	s.dropDangling()
	s.view.Update(outputs)
	s.syncClones()
}

// dropDangling clears selection and drag state that refer to outputs no
// longer in the registry.
func (s *Session) dropDangling() {
	if s.selected != 0 && s.registry.Find(s.selected) == nil {
		s.selected = 0
	}
	if s.drag != nil && s.registry.Find(s.drag.handle) == nil {
		s.drag = nil
	}
}

// Outputs returns the outputs in registry order.
func (s *Session) Outputs() []*layout.Output {
	return s.registry.Outputs()
}

// Find returns an output by handle.
func (s *Session) Find(handle platform.OutputID) *layout.Output {
	return s.registry.Find(handle)
}

// FindByName returns an output by connector name.
func (s *Session) FindByName(name string) (*layout.Output, error) {
	o := s.registry.FindByName(name)
	if o == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownOutput)
	}
	return o, nil
}

// Catalog returns the mode catalog of the latest snapshot.
func (s *Session) Catalog() *layout.Catalog {
	return s.catalog
}

// View returns the canvas transform.
func (s *Session) View() *layout.View {
	return s.view
}

// Resize changes the canvas viewport.
func (s *Session) Resize(width, height int) {
	s.view.Resize(width, height, s.registry.Outputs())
}

// Selected returns the selected output, or nil.
func (s *Session) Selected() *layout.Output {
	if s.selected == 0 {
		return nil
	}
	return s.registry.Find(s.selected)
}

// Select marks an output as selected.
func (s *Session) Select(handle platform.OutputID) error {
	if s.registry.Find(handle) == nil {
		return fmt.Errorf("output %d: %w", handle, ErrUnknownOutput)
	}
	s.selected = handle
	return nil
}

// SelectNext moves the selection by delta in registry order, wrapping.
func (s *Session) SelectNext(delta int) *layout.Output {
	outputs := s.registry.Outputs()
	if len(outputs) == 0 {
		return nil
	}
	idx := -1
	for i, o := range outputs {
		if o.Handle == s.selected {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
		if delta < 0 {
			idx = len(outputs) - 1
		}
	} else {
		idx = ((idx+delta)%len(outputs) + len(outputs)) % len(outputs)
	}
	s.selected = outputs[idx].Handle
	return outputs[idx]
}

// Dragging returns the output being dragged, or nil.
func (s *Session) Dragging() *layout.Output {
	if s.drag == nil {
		return nil
	}
	return s.registry.Find(s.drag.handle)
}

// OutputAt returns the last output in registry order whose canvas rectangle
// contains the point, edges included. Clones are never hit.
func (s *Session) OutputAt(x, y int) *layout.Output {
	var hit *layout.Output
	for _, o := range s.registry.Outputs() {
		if o.CloneOf != 0 {
			continue
		}
		c := o.Canvas
		if x >= c.X && x <= c.Right() && y >= c.Y && y <= c.Bottom() {
			hit = o
		}
	}
	return hit
}

// Press selects the output under the point and starts dragging it.
func (s *Session) Press(x, y int) bool {
	o := s.OutputAt(x, y)
	if o == nil {
		return false
	}
	s.selected = o.Handle
	s.drag = &drag{
		handle:  o.Handle,
		offsetX: o.Canvas.X - x,
		offsetY: o.Canvas.Y - y,
	}
	return true
}

// Move drags the grabbed output so the grab point follows the pointer.
func (s *Session) Move(x, y int) {
	o := s.Dragging()
	if o == nil {
		return
	}
	o.Canvas.X = x + s.drag.offsetX
	o.Canvas.Y = y + s.drag.offsetY
	s.syncClones()
}

// Release ends a drag, snapping the output to its nearest neighbor.
func (s *Session) Release() {
	o := s.Dragging()
	s.drag = nil
	if o == nil {
		return
	}
	s.snap(o)
}

func (s *Session) snap(o *layout.Output) {
	outputs := s.registry.Outputs()
	if target := layout.Snap(o, outputs, s.snapThreshold); target != nil {
		logger.Debugf("snapped %s to %s at %s", o.Name, target.Name, o.Canvas)
	}
	s.syncClones()
	s.view.Recenter(outputs)
}

// syncClones puts every clone on top of the output that owns its channel.
func (s *Session) syncClones() {
	for _, o := range s.registry.Outputs() {
		if o.CloneOf == 0 {
			continue
		}
		if owner := s.registry.Find(o.CloneOf); owner != nil {
			o.Canvas = owner.Canvas
		}
	}
}

// ModesFor returns the selectable modes of an output in preference order.
func (s *Session) ModesFor(o *layout.Output) []platform.Mode {
	return s.catalog.ModesFor(o)
}

// SetMode switches an output to one of its modes. The real size follows the
// mode; the canvas rectangle is resized in place and snapped so neighbors
// stay flush.
func (s *Session) SetMode(handle platform.OutputID, id platform.ModeID) error {
	o := s.registry.Find(handle)
	if o == nil {
		return fmt.Errorf("output %d: %w", handle, ErrUnknownOutput)
	}
	if !o.SupportsMode(id) {
		return fmt.Errorf("output %s does not support mode %d: %w", o.Name, id, layout.ErrModeNotFound)
	}
	m, err := s.catalog.Lookup(id)
	if err != nil {
		return err
	}

	o.Mode = id
	w, h := m.Width, m.Height
	if o.Rotation.Swapped() {
		w, h = h, w
	}
	o.Real.Width, o.Real.Height = w, h
	o.Canvas.Width = int(math.Round(float64(w) * s.view.Scale))
	o.Canvas.Height = int(math.Round(float64(h) * s.view.Scale))
	if s.registry.Len() > 1 {
		s.snap(o)
	}
	return nil
}

// CycleMode steps the selected output through its modes.
func (s *Session) CycleMode(delta int) (platform.Mode, error) {
	o := s.Selected()
	if o == nil {
		return platform.Mode{}, fmt.Errorf("no output selected")
	}
	modes := s.ModesFor(o)
	if len(modes) == 0 {
		return platform.Mode{}, fmt.Errorf("output %s has no modes", o.Name)
	}
	idx := 0
	for i, m := range modes {
		if m.ID == o.Mode {
			idx = ((i+delta)%len(modes) + len(modes)) % len(modes)
			break
		}
	}
	next := modes[idx]
	return next, s.SetMode(o.Handle, next.ID)
}

// SetEnabled records whether an output should be lit on the next apply.
func (s *Session) SetEnabled(handle platform.OutputID, enabled bool) error {
	o := s.registry.Find(handle)
	if o == nil {
		return fmt.Errorf("output %d: %w", handle, ErrUnknownOutput)
	}
	o.Enabled = enabled
	return nil
}

// ToggleEnabled flips the enabled flag of the selected output.
func (s *Session) ToggleEnabled() (*layout.Output, error) {
	o := s.Selected()
	if o == nil {
		return nil, fmt.Errorf("no output selected")
	}
	o.Enabled = !o.Enabled
	return o, nil
}

// Place puts the named output flush against another on the given side,
// aligned on the near edge, and recenters the canvas.
func (s *Session) Place(name string, dir layout.Direction, otherName string) error {
	o, err := s.FindByName(name)
	if err != nil {
		return err
	}
	other, err := s.FindByName(otherName)
	if err != nil {
		return err
	}
	if o == other {
		return fmt.Errorf("cannot place %s relative to itself", name)
	}

	c, t := &o.Canvas, other.Canvas
	switch dir {
	case layout.DirLeft:
		c.X, c.Y = t.X-c.Width, t.Y
	case layout.DirRight:
		c.X, c.Y = t.Right(), t.Y
	case layout.DirTop:
		c.X, c.Y = t.X, t.Y-c.Height
	case layout.DirBottom:
		c.X, c.Y = t.X, t.Bottom()
	default:
		return fmt.Errorf("invalid direction %q", dir)
	}
	s.syncClones()
	s.view.Recenter(s.registry.Outputs())
	return nil
}

// Shift moves the selected output past the closest placeable output lying in
// direction dir, leaving it flush on that output's far side. It returns false
// when nothing lies that way.
func (s *Session) Shift(dir layout.Direction) (bool, error) {
	o := s.Selected()
	if o == nil {
		return false, fmt.Errorf("no output selected")
	}
	cx, cy := center(o.Canvas)

	var (
		target *layout.Output
		best   = math.MaxInt
	)
	for _, other := range s.registry.Outputs() {
		if other == o || other.CloneOf != 0 {
			continue
		}
		ox, oy := center(other.Canvas)
		var dist int
		switch dir {
		case layout.DirLeft:
			dist = cx - ox
		case layout.DirRight:
			dist = ox - cx
		case layout.DirTop:
			dist = cy - oy
		case layout.DirBottom:
			dist = oy - cy
		default:
			return false, fmt.Errorf("invalid direction %q", dir)
		}
		if dist > 0 && dist < best {
			best, target = dist, other
		}
	}
	if target == nil {
		return false, nil
	}
	return true, s.Place(o.Name, dir, target.Name)
}

func center(r platform.Rect) (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Apply pushes the current arrangement to the hardware, then re-enumerates
// and refreshes the canvas. The returned result is non-nil whenever the
// hardware was touched, even if err is set.
func (s *Session) Apply() (*layout.Result, error) {
	res, err := layout.Apply(s.backend, s.registry.Outputs(), s.view.Scale)
	if err != nil {
		if res == nil {
			return nil, err
		}
		if lerr := s.Load(); lerr != nil {
			logger.Errorf("reload after failed apply: %v", lerr)
		}
		return res, err
	}
	for _, f := range res.Failures {
		logger.Warnf("apply: %v", f)
	}
	if err := s.Load(); err != nil {
		return res, err
	}
	return res, nil
}

// HandleEvent applies a hotplug notification. Output changes re-read the
// hardware; connects upsert the output and disconnects remove it. Either way
// channel ownership is resolved again, so a clone whose owner left takes the
// channel over and an output lit on an already driven channel joins it as a
// clone. Other event kinds are ignored.
func (s *Session) HandleEvent(ev platform.Event) error {
	if ev.Kind != platform.EventOutputChange {
		logger.Debugf("ignoring %s event", ev.Kind)
		return nil
	}

	if !ev.Connected {
		o := s.registry.Find(ev.Output)
		if o == nil {
			logger.Infof("disconnected output %d (not tracked)", ev.Output)
			return nil
		}
		snap, err := s.backend.Snapshot()
		if err != nil {
			return fmt.Errorf("failed to read outputs after disconnect of %s: %w", o.Name, err)
		}
		s.registry.Remove(ev.Output)
		logger.Infof("disconnected %s (fingerprint %s)", o.Name, shortFingerprint(o.Fingerprint))
		s.refresh(snap)
		return nil
	}

	snap, err := s.backend.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read output %d: %w", ev.Output, err)
	}
	hw := snap.Output(ev.Output)
	if hw == nil {
		return fmt.Errorf("output %d: %w", ev.Output, ErrUnknownOutput)
	}
	catalog := layout.NewCatalog(snap.Modes)
	o, err := layout.NewOutput(snap, *hw, catalog)
	if err != nil {
		return err
	}
	// Entries that survive the upsert must still name modes the server knows.
	for _, e := range s.registry.Outputs() {
		if e.Handle == o.Handle || (o.Fingerprint != "" && e.Fingerprint == o.Fingerprint) {
			continue
		}
		if _, err := catalog.Lookup(e.Mode); err != nil {
			return fmt.Errorf("output %s: %w", e.Name, err)
		}
	}

	s.catalog = catalog
	removed := s.registry.Upsert(o)
	logger.Infof("connected %s (fingerprint %s, replaced %d)", o.Name, shortFingerprint(o.Fingerprint), len(removed))
	s.refresh(snap)
	return nil
}

func shortFingerprint(fp string) string {
	if fp == "" {
		return "none"
	}
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
