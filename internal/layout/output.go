package layout

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"slices"

	"github.com/1broseidon/monarrange/internal/platform"
)

// Output is the engine's model of one connected display.
type Output struct {
	Handle      platform.OutputID
	Name        string
	Fingerprint string

	// Real is hardware pixel geometry. Canvas is derived for display and
	// interaction and is never authoritative.
	Real   platform.Rect
	Canvas platform.Rect

	Mode      platform.ModeID
	Modes     []platform.ModeID
	Preferred int

	Channel  platform.ChannelID
	Possible []platform.ChannelID
	Rotation platform.Rotation
	// CloneOf is set when another output owns the channel that also drives
	// this one. Clones follow their owner and are never placed on their own.
	CloneOf platform.OutputID

	Enabled   bool
	Connected bool
	MMWidth   int
	MMHeight  int
}

// Active reports whether the output is enabled and driven by a channel.
func (o *Output) Active() bool {
	return o.Enabled && o.Channel != 0
}

// IsPreferred reports whether the mode is one of the output's preferred modes.
func (o *Output) IsPreferred(id platform.ModeID) bool {
	i := slices.Index(o.Modes, id)
	return i >= 0 && i < o.Preferred
}

// SupportsMode reports whether the output lists the mode.
func (o *Output) SupportsMode(id platform.ModeID) bool {
	return slices.Contains(o.Modes, id)
}

// applyModeSize sets the real size from a mode, honoring rotation.
func (o *Output) applyModeSize(m platform.Mode) {
	w, h := m.Width, m.Height
	if o.Rotation.Swapped() {
		w, h = h, w
	}
	o.Real.Width = w
	o.Real.Height = h
}

func (o *Output) String() string {
	return fmt.Sprintf("%s %s", o.Name, o.Real)
}

// Fingerprint hashes an EDID block. Empty input yields an empty fingerprint,
// which never matches another output.
func Fingerprint(edid []byte) string {
	if len(edid) == 0 {
		return ""
	}
	h := fnv.New128a()
	h.Write(edid)
	return hex.EncodeToString(h.Sum(nil))
}

// NewOutput builds an Output from a hardware snapshot. An output driven by
// an enabled channel takes that channel's geometry, mode and rotation; any
// other output takes its first listed mode at the origin.
func NewOutput(snap *platform.Snapshot, hw platform.Output, catalog *Catalog) (*Output, error) {
	o := &Output{
		Handle:      hw.ID,
		Name:        hw.Name,
		Fingerprint: Fingerprint(hw.EDID),
		Modes:       slices.Clone(hw.Modes),
		Preferred:   hw.Preferred,
		Possible:    slices.Clone(hw.Possible),
		Rotation:    platform.Rotate0,
		Enabled:     true,
		Connected:   hw.Connected,
		MMWidth:     hw.MMWidth,
		MMHeight:    hw.MMHeight,
	}

	if ch := snap.Channel(hw.Channel); ch != nil && ch.Enabled() {
		if _, err := catalog.Lookup(ch.Mode); err != nil {
			return nil, fmt.Errorf("output %s: %w", hw.Name, err)
		}
		o.Channel = ch.ID
		o.Mode = ch.Mode
		o.Rotation = ch.Rotation
		o.Real = ch.Bounds
		return o, nil
	}

	if len(hw.Modes) == 0 {
		return nil, fmt.Errorf("output %s reports no modes", hw.Name)
	}
	m, err := catalog.Lookup(hw.Modes[0])
	if err != nil {
		return nil, fmt.Errorf("output %s: %w", hw.Name, err)
	}
	o.Mode = m.ID
	o.applyModeSize(m)
	return o, nil
}
