package layout

import "math"

// DefaultSnapThreshold is the cross-axis distance, in canvas pixels, within
// which edges are aligned after a snap.
const DefaultSnapThreshold = 10

type snapAxis int

const (
	axisNone snapAxis = iota
	// axisVertical stacks o above or below the target.
	axisVertical
	// axisHorizontal places o beside the target.
	axisHorizontal
)

// Snap moves o flush against the nearest other output. Candidates whose
// perpendicular extent overlaps o's are preferred; if none does, every
// candidate is considered. Ties go to the earlier output in order, and for a
// single candidate the vertical-stacking distance is tested first. Returns
// the target, or nil when there is nothing to snap to.
func Snap(o *Output, outputs []*Output, threshold int) *Output {
	target, axis := nearest(o, outputs, true)
	if target == nil {
		target, axis = nearest(o, outputs, false)
	}
	if target == nil {
		return nil
	}

	c, t := &o.Canvas, target.Canvas
	switch axis {
	case axisHorizontal:
		if c.X >= t.X {
			c.X = t.Right()
		} else {
			c.X = t.X - c.Width
		}
		c.Y = align(c.Y, c.Height, t.Y, t.Height, threshold)
	case axisVertical:
		if c.Y >= t.Y {
			c.Y = t.Bottom()
		} else {
			c.Y = t.Y - c.Height
		}
		c.X = align(c.X, c.Width, t.X, t.Width, threshold)
	}
	return target
}

func nearest(o *Output, outputs []*Output, requireOverlap bool) (*Output, snapAxis) {
	var (
		target *Output
		axis   = axisNone
		best   = math.MaxInt
	)
	c := o.Canvas
	for _, other := range outputs {
		if other == o || other.CloneOf != 0 {
			continue
		}
		t := other.Canvas

		if !requireOverlap || (t.Right() >= c.X && t.X <= c.Right()) {
			var dist int
			if c.Y >= t.Y {
				dist = abs(c.Y - t.Bottom())
			} else {
				dist = abs(t.Y - c.Bottom())
			}
			if dist < best {
				best, target, axis = dist, other, axisVertical
			}
		}

		if !requireOverlap || (t.Bottom() >= c.Y && t.Y <= c.Bottom()) {
			var dist int
			if c.X >= t.X {
				dist = abs(c.X - t.Right())
			} else {
				dist = abs(t.X - c.Right())
			}
			if dist < best {
				best, target, axis = dist, other, axisHorizontal
			}
		}
	}
	return target, axis
}

// align snaps the start of a span to the target's start, or its end to the
// target's end, when either pair is within threshold. Near edges win ties.
func align(pos, size, tpos, tsize, threshold int) int {
	near := abs(pos - tpos)
	far := abs(pos + size - tpos - tsize)
	switch {
	case near < threshold && near <= far:
		return tpos
	case far < threshold:
		return tpos + tsize - size
	default:
		return pos
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
