package layout

import (
	"errors"
	"fmt"

	"github.com/1broseidon/monarrange/internal/platform"
)

// ErrModeNotFound means a mode id is absent from the resource snapshot.
var ErrModeNotFound = errors.New("mode not found")

// Catalog resolves mode ids for one hardware snapshot.
type Catalog struct {
	modes map[platform.ModeID]platform.Mode
}

// NewCatalog indexes the given modes.
func NewCatalog(modes []platform.Mode) *Catalog {
	c := &Catalog{modes: make(map[platform.ModeID]platform.Mode, len(modes))}
	for _, m := range modes {
		c.modes[m.ID] = m
	}
	return c
}

// Lookup returns the mode with the given id.
func (c *Catalog) Lookup(id platform.ModeID) (platform.Mode, error) {
	if c != nil {
		if m, ok := c.modes[id]; ok {
			return m, nil
		}
	}
	return platform.Mode{}, fmt.Errorf("mode %d: %w", id, ErrModeNotFound)
}

// ModesFor resolves the modes of an output in preference order, skipping
// ids the catalog does not know.
func (c *Catalog) ModesFor(o *Output) []platform.Mode {
	modes := make([]platform.Mode, 0, len(o.Modes))
	for _, id := range o.Modes {
		if m, err := c.Lookup(id); err == nil {
			modes = append(modes, m)
		}
	}
	return modes
}

// RefreshRate returns the vertical refresh rate in Hz, or 0 for a mode with
// zero totals.
func RefreshRate(m platform.Mode) float64 {
	vTotal := float64(m.VTotal)
	switch {
	case m.DoubleScan:
		vTotal *= 2
	case m.Interlace:
		vTotal /= 2
	}
	if m.HTotal == 0 || vTotal == 0 {
		return 0
	}
	return float64(m.DotClock) / (float64(m.HTotal) * vTotal)
}

// ModeLabel formats a mode as "WxH@R.RRHz".
func ModeLabel(m platform.Mode) string {
	rate := RefreshRate(m)
	if rate == 0 {
		return fmt.Sprintf("%dx%d", m.Width, m.Height)
	}
	return fmt.Sprintf("%dx%d@%.2fHz", m.Width, m.Height, rate)
}
