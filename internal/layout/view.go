package layout

import (
	"math"

	"github.com/1broseidon/monarrange/internal/platform"
)

// DefaultOverprovision keeps the combined outputs at most half the viewport
// on each axis so they can be dragged apart without leaving it.
const DefaultOverprovision = 2.0

// View maps real geometry onto a bounded canvas.
type View struct {
	Width         int
	Height        int
	Overprovision float64
	Scale         float64
}

// NewView creates a view for a viewport of the given size. A factor <= 1
// falls back to DefaultOverprovision.
func NewView(width, height int, overprovision float64) *View {
	if overprovision <= 1 {
		overprovision = DefaultOverprovision
	}
	return &View{Width: width, Height: height, Overprovision: overprovision, Scale: 1}
}

// Update recomputes the scale and canvas geometry of every output and
// centers the result. Called whenever the output set or viewport changes.
func (v *View) Update(outputs []*Output) {
	v.Fit(outputs)
	v.Reset(outputs)
	v.Recenter(outputs)
}

// Resize changes the viewport and updates the canvas.
func (v *View) Resize(width, height int, outputs []*Output) {
	v.Width = width
	v.Height = height
	v.Update(outputs)
}

// Fit chooses the largest scale at which the summed real widths and heights,
// times the overprovision factor, fit the viewport.
func (v *View) Fit(outputs []*Output) {
	var sumW, sumH int
	for _, o := range outputs {
		sumW += o.Real.Width
		sumH += o.Real.Height
	}
	if sumW == 0 || sumH == 0 || v.Width <= 0 || v.Height <= 0 {
		return
	}
	sx := float64(v.Width) / (float64(sumW) * v.Overprovision)
	sy := float64(v.Height) / (float64(sumH) * v.Overprovision)
	v.Scale = math.Min(sx, sy)
}

// Reset derives canvas rectangles from real ones, centering the real
// bounding box on the viewport.
func (v *View) Reset(outputs []*Output) {
	if len(outputs) == 0 {
		return
	}
	box := bounds(outputs, func(o *Output) platform.Rect { return o.Real })
	cx := float64(box.X) + float64(box.Width)/2
	cy := float64(box.Y) + float64(box.Height)/2

	for _, o := range outputs {
		o.Canvas = platform.Rect{
			X:      int(math.Round((float64(o.Real.X)-cx)*v.Scale)) + v.Width/2,
			Y:      int(math.Round((float64(o.Real.Y)-cy)*v.Scale)) + v.Height/2,
			Width:  int(math.Round(float64(o.Real.Width) * v.Scale)),
			Height: int(math.Round(float64(o.Real.Height) * v.Scale)),
		}
	}
}

// Recenter translates canvas rectangles so their bounding box is centered in
// the viewport. Relative positions are kept.
func (v *View) Recenter(outputs []*Output) {
	if len(outputs) == 0 {
		return
	}
	box := bounds(outputs, func(o *Output) platform.Rect { return o.Canvas })
	dx := (box.X+box.Right())/2 - v.Width/2
	dy := (box.Y+box.Bottom())/2 - v.Height/2
	for _, o := range outputs {
		o.Canvas.X -= dx
		o.Canvas.Y -= dy
	}
}

func bounds(outputs []*Output, rect func(*Output) platform.Rect) platform.Rect {
	first := rect(outputs[0])
	left, top := first.X, first.Y
	right, bottom := first.Right(), first.Bottom()
	for _, o := range outputs[1:] {
		r := rect(o)
		left = min(left, r.X)
		top = min(top, r.Y)
		right = max(right, r.Right())
		bottom = max(bottom, r.Bottom())
	}
	return platform.Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}
