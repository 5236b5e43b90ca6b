package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/1broseidon/monarrange/internal/platform"
)

// ErrNoReference means no enabled output is driven by a channel, so there
// is neither a coordinate anchor nor a DPI source.
var ErrNoReference = errors.New("no enabled output with a channel")

// fallbackDPI is used when the reference output reports no physical height.
const fallbackDPI = 96.0

// Normalized is the outcome of Normalize.
type Normalized struct {
	Screen    platform.ScreenSize
	DPI       float64
	Reference *Output
}

// placed reports whether an output takes part in real-space layout.
func placed(o *Output) bool {
	return o.Enabled && o.Connected && o.CloneOf == 0
}

// Normalize derives real positions from canvas positions. Each placed output
// is converted through the inverse scale relative to the reference, then
// pinned flush against every earlier output its canvas rectangle touches, so
// touching outputs end up with no real-space gap. The result is translated
// so the bounding box starts at (0,0).
func Normalize(outputs []*Output, scale float64) (Normalized, error) {
	ref := reference(outputs)
	if ref == nil {
		return Normalized{}, ErrNoReference
	}
	if scale <= 0 {
		return Normalized{}, fmt.Errorf("invalid canvas scale %v", scale)
	}

	var (
		done          []*Output
		left, top     = math.MaxInt, math.MaxInt
		right, bottom = math.MinInt, math.MinInt
	)
	for _, o := range outputs {
		if !placed(o) {
			continue
		}
		x := int(math.Round(float64(o.Canvas.X-ref.Canvas.X) / scale))
		y := int(math.Round(float64(o.Canvas.Y-ref.Canvas.Y) / scale))
		w, h := o.Real.Width, o.Real.Height

		for _, adj := range AllNeighbors(o, done) {
			n := adj.Neighbor.Real
			switch adj.Direction {
			case DirTop:
				y = n.Y - h
			case DirBottom:
				y = n.Bottom()
			case DirLeft:
				x = n.X - w
			case DirRight:
				x = n.Right()
			}
		}
		o.Real.X, o.Real.Y = x, y

		left = min(left, x)
		top = min(top, y)
		right = max(right, x+w)
		bottom = max(bottom, y+h)
		done = append(done, o)
	}

	for _, o := range done {
		o.Real.X -= left
		o.Real.Y -= top
	}
	for _, o := range outputs {
		if o.CloneOf == 0 {
			continue
		}
		for _, owner := range done {
			if owner.Handle == o.CloneOf {
				o.Real.X, o.Real.Y = owner.Real.X, owner.Real.Y
			}
		}
	}

	width, height := right-left, bottom-top
	n := Normalized{
		Screen:    platform.ScreenSize{Width: width, Height: height},
		Reference: ref,
	}
	if ref.MMHeight > 0 && ref.Real.Height > 0 {
		mm, px := float64(ref.MMHeight), float64(ref.Real.Height)
		n.DPI = 25.4 * px / mm
		n.Screen.MMWidth = int(float64(width) * mm / px)
		n.Screen.MMHeight = int(float64(height) * mm / px)
	} else {
		n.DPI = fallbackDPI
		n.Screen.MMWidth = int(float64(width) * 254 / (fallbackDPI * 10))
		n.Screen.MMHeight = int(float64(height) * 254 / (fallbackDPI * 10))
	}
	return n, nil
}
