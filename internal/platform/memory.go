package platform

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrRejected is returned by MemoryBackend when a mutation would leave the
// hardware in a state a RandR server refuses.
var ErrRejected = errors.New("configuration rejected")

// Fixture is the YAML description of simulated display hardware.
type Fixture struct {
	Screen   FixtureScreen    `yaml:"screen"`
	Modes    []FixtureMode    `yaml:"modes"`
	Channels []FixtureChannel `yaml:"channels"`
	Outputs  []FixtureOutput  `yaml:"outputs"`
}

// FixtureScreen holds the initial and maximum virtual screen size.
type FixtureScreen struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	MMWidth   int `yaml:"mm_width"`
	MMHeight  int `yaml:"mm_height"`
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
}

// FixtureMode describes one mode.
type FixtureMode struct {
	ID         uint32 `yaml:"id"`
	Name       string `yaml:"name"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	HTotal     int    `yaml:"htotal"`
	VTotal     int    `yaml:"vtotal"`
	DotClock   uint32 `yaml:"dot_clock"`
	Interlace  bool   `yaml:"interlace"`
	DoubleScan bool   `yaml:"doublescan"`
}

// FixtureChannel describes one channel. Mode 0 means disabled.
type FixtureChannel struct {
	ID       uint32   `yaml:"id"`
	X        int      `yaml:"x"`
	Y        int      `yaml:"y"`
	Mode     uint32   `yaml:"mode"`
	Rotation uint16   `yaml:"rotation"`
	Outputs  []uint32 `yaml:"outputs"`
}

// FixtureOutput describes one connector. EDID is hex encoded.
type FixtureOutput struct {
	ID        uint32   `yaml:"id"`
	Name      string   `yaml:"name"`
	Connected bool     `yaml:"connected"`
	EDID      string   `yaml:"edid"`
	MMWidth   int      `yaml:"mm_width"`
	MMHeight  int      `yaml:"mm_height"`
	Modes     []uint32 `yaml:"modes"`
	Preferred int      `yaml:"preferred"`
	Possible  []uint32 `yaml:"possible"`
}

// MemoryBackend is an in-process Backend driven by a Fixture. It enforces
// the same screen-bounds rules a RandR server does, so layouts can be applied
// and re-enumerated without an X server.
type MemoryBackend struct {
	mu        sync.Mutex
	snap      Snapshot
	maxWidth  int
	maxHeight int
	grabbed   bool
	subs      []chan Event
	calls     []string
}

var _ Backend = (*MemoryBackend)(nil)

// LoadFixture reads a fixture file from disk.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// NewMemoryBackendFromFile loads a fixture and builds a backend from it.
func NewMemoryBackendFromFile(path string) (*MemoryBackend, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryBackend(f)
}

// NewMemoryBackend builds a backend from a fixture.
func NewMemoryBackend(f *Fixture) (*MemoryBackend, error) {
	b := &MemoryBackend{
		maxWidth:  f.Screen.MaxWidth,
		maxHeight: f.Screen.MaxHeight,
	}
	if b.maxWidth == 0 {
		b.maxWidth = 16384
	}
	if b.maxHeight == 0 {
		b.maxHeight = 16384
	}
	b.snap.Screen = ScreenSize{
		Width:    f.Screen.Width,
		Height:   f.Screen.Height,
		MMWidth:  f.Screen.MMWidth,
		MMHeight: f.Screen.MMHeight,
	}

	for _, m := range f.Modes {
		if m.ID == 0 {
			return nil, fmt.Errorf("fixture mode %q has id 0", m.Name)
		}
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("%dx%d", m.Width, m.Height)
		}
		b.snap.Modes = append(b.snap.Modes, Mode{
			ID:         ModeID(m.ID),
			Name:       name,
			Width:      m.Width,
			Height:     m.Height,
			HTotal:     m.HTotal,
			VTotal:     m.VTotal,
			DotClock:   m.DotClock,
			Interlace:  m.Interlace,
			DoubleScan: m.DoubleScan,
		})
	}

	for _, fo := range f.Outputs {
		o, err := fo.output()
		if err != nil {
			return nil, err
		}
		b.snap.Outputs = append(b.snap.Outputs, o)
	}

	for _, fc := range f.Channels {
		rotation := Rotation(fc.Rotation)
		if rotation == 0 {
			rotation = Rotate0
		}
		ch := Channel{ID: ChannelID(fc.ID), Rotation: rotation}
		for _, o := range fc.Outputs {
			ch.Outputs = append(ch.Outputs, OutputID(o))
		}
		if fc.Mode != 0 {
			bounds, err := b.bounds(fc.X, fc.Y, ModeID(fc.Mode), rotation)
			if err != nil {
				return nil, err
			}
			ch.Mode = ModeID(fc.Mode)
			ch.Bounds = bounds
		}
		b.snap.Channels = append(b.snap.Channels, ch)
		for _, o := range ch.Outputs {
			out := b.snap.Output(o)
			if out == nil {
				return nil, fmt.Errorf("fixture channel %d references unknown output %d", fc.ID, o)
			}
			out.Channel = ch.ID
		}
	}

	return b, nil
}

func (fo FixtureOutput) output() (Output, error) {
	o := Output{
		ID:        OutputID(fo.ID),
		Name:      fo.Name,
		Connected: fo.Connected,
		MMWidth:   fo.MMWidth,
		MMHeight:  fo.MMHeight,
		Preferred: fo.Preferred,
	}
	if fo.EDID != "" {
		edid, err := hex.DecodeString(strings.ReplaceAll(fo.EDID, " ", ""))
		if err != nil {
			return Output{}, fmt.Errorf("fixture output %s: invalid edid: %w", fo.Name, err)
		}
		o.EDID = edid
	}
	for _, m := range fo.Modes {
		o.Modes = append(o.Modes, ModeID(m))
	}
	for _, c := range fo.Possible {
		o.Possible = append(o.Possible, ChannelID(c))
	}
	return o, nil
}

func (b *MemoryBackend) mode(id ModeID) (Mode, bool) {
	for _, m := range b.snap.Modes {
		if m.ID == id {
			return m, true
		}
	}
	return Mode{}, false
}

func (b *MemoryBackend) bounds(x, y int, mode ModeID, rotation Rotation) (Rect, error) {
	m, ok := b.mode(mode)
	if !ok {
		return Rect{}, fmt.Errorf("unknown mode %d", mode)
	}
	r := Rect{X: x, Y: y, Width: m.Width, Height: m.Height}
	if rotation.Swapped() {
		r.Width, r.Height = r.Height, r.Width
	}
	return r, nil
}

func (b *MemoryBackend) record(format string, args ...any) {
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

// Calls returns the mutations applied so far, in order.
func (b *MemoryBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// ResetCalls clears the mutation log.
func (b *MemoryBackend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Snapshot returns a deep copy of the current state.
func (b *MemoryBackend) Snapshot() (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.clone(), nil
}

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		Screen: s.Screen,
		Modes:  slices.Clone(s.Modes),
	}
	for _, o := range s.Outputs {
		o.EDID = slices.Clone(o.EDID)
		o.Modes = slices.Clone(o.Modes)
		o.Possible = slices.Clone(o.Possible)
		c.Outputs = append(c.Outputs, o)
	}
	for _, ch := range s.Channels {
		ch.Outputs = slices.Clone(ch.Outputs)
		c.Channels = append(c.Channels, ch)
	}
	return c
}

// Grab starts a configuration bracket. Nested grabs are an error.
func (b *MemoryBackend) Grab() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.grabbed {
		return fmt.Errorf("server already grabbed")
	}
	b.grabbed = true
	b.record("grab")
	return nil
}

// Ungrab ends a configuration bracket.
func (b *MemoryBackend) Ungrab() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.grabbed {
		return fmt.Errorf("server not grabbed")
	}
	b.grabbed = false
	b.record("ungrab")
	return nil
}

// Grabbed reports whether a bracket is open.
func (b *MemoryBackend) Grabbed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grabbed
}

// SetScreenSize rejects sizes that would cut off an enabled channel.
func (b *MemoryBackend) SetScreenSize(size ScreenSize) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if size.Width <= 0 || size.Height <= 0 || size.Width > b.maxWidth || size.Height > b.maxHeight {
		return fmt.Errorf("screen %dx%d outside 1x1..%dx%d: %w", size.Width, size.Height, b.maxWidth, b.maxHeight, ErrRejected)
	}
	for _, ch := range b.snap.Channels {
		if ch.Enabled() && (ch.Bounds.Right() > size.Width || ch.Bounds.Bottom() > size.Height) {
			return fmt.Errorf("channel %d at %s exceeds screen %dx%d: %w", ch.ID, ch.Bounds, size.Width, size.Height, ErrRejected)
		}
	}
	b.snap.Screen = size
	b.record("screen %dx%d %dx%dmm", size.Width, size.Height, size.MMWidth, size.MMHeight)
	return nil
}

// ConfigureChannel validates and applies a channel configuration.
func (b *MemoryBackend) ConfigureChannel(id ChannelID, cfg ChannelConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := b.snap.Channel(id)
	if ch == nil {
		return fmt.Errorf("unknown channel %d", id)
	}
	rotation := cfg.Rotation
	if rotation == 0 {
		rotation = Rotate0
	}
	bounds, err := b.bounds(cfg.X, cfg.Y, cfg.Mode, rotation)
	if err != nil {
		return fmt.Errorf("channel %d: %w", id, err)
	}
	if bounds.X < 0 || bounds.Y < 0 || bounds.Right() > b.snap.Screen.Width || bounds.Bottom() > b.snap.Screen.Height {
		return fmt.Errorf("channel %d at %s exceeds screen %dx%d: %w", id, bounds, b.snap.Screen.Width, b.snap.Screen.Height, ErrRejected)
	}
	if len(cfg.Outputs) == 0 {
		return fmt.Errorf("channel %d: no outputs: %w", id, ErrRejected)
	}
	for _, oid := range cfg.Outputs {
		o := b.snap.Output(oid)
		if o == nil {
			return fmt.Errorf("channel %d: unknown output %d", id, oid)
		}
		if len(o.Possible) > 0 && !slices.Contains(o.Possible, id) {
			return fmt.Errorf("channel %d cannot drive output %s: %w", id, o.Name, ErrRejected)
		}
		if !slices.Contains(o.Modes, cfg.Mode) {
			return fmt.Errorf("output %s does not support mode %d: %w", o.Name, cfg.Mode, ErrRejected)
		}
		if o.Channel != 0 && o.Channel != id {
			return fmt.Errorf("output %s is driven by channel %d: %w", o.Name, o.Channel, ErrRejected)
		}
	}

	for i := range b.snap.Outputs {
		if b.snap.Outputs[i].Channel == id {
			b.snap.Outputs[i].Channel = 0
		}
	}
	for _, oid := range cfg.Outputs {
		b.snap.Output(oid).Channel = id
	}
	ch.Bounds = bounds
	ch.Mode = cfg.Mode
	ch.Rotation = rotation
	ch.Outputs = slices.Clone(cfg.Outputs)
	b.record("configure %d %s mode %d", id, bounds, cfg.Mode)
	return nil
}

// DisableChannel turns a channel off and detaches its outputs.
func (b *MemoryBackend) DisableChannel(id ChannelID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := b.snap.Channel(id)
	if ch == nil {
		return fmt.Errorf("unknown channel %d", id)
	}
	for _, oid := range ch.Outputs {
		if o := b.snap.Output(oid); o != nil {
			o.Channel = 0
		}
	}
	ch.Mode = 0
	ch.Bounds = Rect{}
	ch.Rotation = Rotate0
	ch.Outputs = nil
	b.record("disable %d", id)
	return nil
}

// Events returns a subscription that ends when ctx is done.
func (b *MemoryBackend) Events(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

func (b *MemoryBackend) publish(ev Event) {
	for _, s := range b.subs {
		select {
		case s <- ev:
		default:
		}
	}
}

// Plug connects an output, adding it when the id is new, and emits an
// output change event.
func (b *MemoryBackend) Plug(fo FixtureOutput) error {
	o, err := fo.output()
	if err != nil {
		return err
	}
	o.Connected = true

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing := b.snap.Output(o.ID); existing != nil {
		o.Channel = existing.Channel
		*existing = o
	} else {
		b.snap.Outputs = append(b.snap.Outputs, o)
	}
	b.publish(Event{Kind: EventOutputChange, Output: o.ID, Connected: true})
	return nil
}

// Unplug marks an output disconnected and emits an output change event.
// Like a RandR server it leaves the output's channel untouched.
func (b *MemoryBackend) Unplug(id OutputID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := b.snap.Output(id)
	if o == nil {
		return fmt.Errorf("unknown output %d", id)
	}
	o.Connected = false
	b.publish(Event{Kind: EventOutputChange, Output: id, Connected: false})
	return nil
}

// Close ends every subscription.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		close(s)
	}
	b.subs = nil
	return nil
}
