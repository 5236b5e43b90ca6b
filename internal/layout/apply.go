package layout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/platform"
)

// ErrNoFreeChannel means every channel already drives an output.
var ErrNoFreeChannel = errors.New("no free channel")

// Failure is a rejected per-output or per-channel operation. Apply keeps
// going after a failure and never rolls back earlier changes.
type Failure struct {
	Output  string
	Channel platform.ChannelID
	Err     error
}

func (f Failure) Error() string {
	if f.Output == "" {
		return fmt.Sprintf("channel %d: %v", f.Channel, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Output, f.Err)
}

// Result describes what Apply did.
type Result struct {
	Screen   platform.ScreenSize
	DPI      float64
	Disabled []platform.ChannelID
	Failures []Failure
}

// OK reports whether every operation succeeded.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// planner tracks channel state while an apply is in flight.
type planner struct {
	backend  platform.Backend
	snap     *platform.Snapshot
	original map[platform.ChannelID]platform.Channel
	claimed  map[platform.ChannelID]bool
	result   *Result
}

// Apply normalizes outputs and pushes the layout to the backend inside a
// Grab/Ungrab bracket. Channels that would fall outside the new screen or
// drive nothing connected are disabled first, then the screen is resized,
// then each output is configured in registry order. A failed resize aborts
// the apply; per-output failures are collected in the result.
func Apply(backend platform.Backend, outputs []*Output, scale float64) (res *Result, err error) {
	norm, err := Normalize(outputs, scale)
	if err != nil {
		return nil, err
	}

	snap, err := backend.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read hardware state: %w", err)
	}

	if err := backend.Grab(); err != nil {
		return nil, err
	}
	defer func() {
		if uerr := backend.Ungrab(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	p := &planner{
		backend:  backend,
		snap:     snap,
		original: make(map[platform.ChannelID]platform.Channel, len(snap.Channels)),
		claimed:  make(map[platform.ChannelID]bool),
		result:   &Result{Screen: norm.Screen, DPI: norm.DPI},
	}
	for _, ch := range snap.Channels {
		ch.Outputs = slices.Clone(ch.Outputs)
		p.original[ch.ID] = ch
	}
	// Channels kept by enabled outputs are not up for grabs, even if they
	// are switched off below.
	for _, o := range outputs {
		if placed(o) && o.Channel != 0 && snap.Channel(o.Channel) != nil {
			p.claimed[o.Channel] = true
		}
	}

	p.disableUnused(norm.Screen)

	logger.Infof("screen %dx%d %dx%dmm %.2fdpi", norm.Screen.Width, norm.Screen.Height,
		norm.Screen.MMWidth, norm.Screen.MMHeight, norm.DPI)
	if err := backend.SetScreenSize(norm.Screen); err != nil {
		return p.result, fmt.Errorf("failed to resize screen: %w", err)
	}

	for _, o := range outputs {
		if !o.Connected || o.CloneOf != 0 {
			continue
		}
		var oerr error
		switch {
		case !o.Enabled:
			oerr = p.release(o)
		case o.Channel != 0 && p.snap.Channel(o.Channel) != nil:
			oerr = p.reconfigure(o)
		default:
			oerr = p.assign(o)
		}
		if oerr != nil {
			logger.Errorf("apply %s: %v", o.Name, oerr)
			p.result.Failures = append(p.result.Failures, Failure{Output: o.Name, Channel: o.Channel, Err: oerr})
		}
	}

	return p.result, nil
}

// disableUnused turns off enabled channels that exceed the new screen, have
// no outputs, or drive no connected output.
func (p *planner) disableUnused(screen platform.ScreenSize) {
	for i := range p.snap.Channels {
		ch := &p.snap.Channels[i]
		if !ch.Enabled() {
			continue
		}
		exceeds := ch.Bounds.Right() > screen.Width || ch.Bounds.Bottom() > screen.Height
		if !exceeds && len(ch.Outputs) > 0 && p.anyConnected(ch.Outputs) {
			continue
		}
		if err := p.disable(ch.ID); err != nil {
			logger.Errorf("disable channel %d: %v", ch.ID, err)
			p.result.Failures = append(p.result.Failures, Failure{Channel: ch.ID, Err: err})
		}
	}
}

func (p *planner) anyConnected(ids []platform.OutputID) bool {
	for _, id := range ids {
		if o := p.snap.Output(id); o != nil && o.Connected {
			return true
		}
	}
	return false
}

func (p *planner) disable(id platform.ChannelID) error {
	if err := p.backend.DisableChannel(id); err != nil {
		return err
	}
	ch := p.snap.Channel(id)
	ch.Mode = 0
	ch.Bounds = platform.Rect{}
	ch.Outputs = nil
	p.result.Disabled = append(p.result.Disabled, id)
	return nil
}

func (p *planner) configure(id platform.ChannelID, cfg platform.ChannelConfig) error {
	if err := p.backend.ConfigureChannel(id, cfg); err != nil {
		return err
	}
	ch := p.snap.Channel(id)
	ch.Mode = cfg.Mode
	ch.Rotation = cfg.Rotation
	ch.Outputs = slices.Clone(cfg.Outputs)
	p.claimed[id] = true
	return nil
}

// release takes a disabled output off its channel. Clones sharing the
// channel keep it.
func (p *planner) release(o *Output) error {
	if o.Channel == 0 {
		return nil
	}
	ch := p.snap.Channel(o.Channel)
	if ch == nil || !ch.Enabled() {
		return nil
	}
	remaining := slices.DeleteFunc(slices.Clone(ch.Outputs), func(id platform.OutputID) bool {
		return id == o.Handle
	})
	if len(remaining) == 0 {
		return p.disable(ch.ID)
	}
	return p.configure(ch.ID, platform.ChannelConfig{
		X:        ch.Bounds.X,
		Y:        ch.Bounds.Y,
		Mode:     ch.Mode,
		Rotation: ch.Rotation,
		Outputs:  remaining,
	})
}

// reconfigure moves an output's own channel in place, keeping its rotation
// and clone outputs.
func (p *planner) reconfigure(o *Output) error {
	prev := p.original[o.Channel]
	outputs := slices.Clone(prev.Outputs)
	if !slices.Contains(outputs, o.Handle) {
		outputs = append(outputs, o.Handle)
	}
	rotation := prev.Rotation
	if rotation == 0 {
		rotation = o.Rotation
	}
	return p.configure(o.Channel, platform.ChannelConfig{
		X:        o.Real.X,
		Y:        o.Real.Y,
		Mode:     o.Mode,
		Rotation: rotation,
		Outputs:  outputs,
	})
}

// assign puts an output without a channel on the first free one it may use.
func (p *planner) assign(o *Output) error {
	mode := o.Mode
	if mode == 0 && len(o.Modes) > 0 {
		mode = o.Modes[0]
	}
	for _, ch := range p.snap.Channels {
		if len(ch.Outputs) > 0 || p.claimed[ch.ID] {
			continue
		}
		if len(o.Possible) > 0 && !slices.Contains(o.Possible, ch.ID) {
			continue
		}
		return p.configure(ch.ID, platform.ChannelConfig{
			X:        o.Real.X,
			Y:        o.Real.Y,
			Mode:     mode,
			Rotation: platform.Rotate0,
			Outputs:  []platform.OutputID{o.Handle},
		})
	}
	return ErrNoFreeChannel
}
