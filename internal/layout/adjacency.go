package layout

import "github.com/1broseidon/monarrange/internal/platform"

// Direction says where an output lies relative to its neighbor.
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirRight
	DirTop
	DirBottom
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirTop:
		return "top"
	case DirBottom:
		return "bottom"
	default:
		return "none"
	}
}

// ParseDirection accepts left, right, top/above and bottom/below.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "left", "left-of":
		return DirLeft, true
	case "right", "right-of":
		return DirRight, true
	case "top", "above":
		return DirTop, true
	case "bottom", "below":
		return DirBottom, true
	default:
		return DirNone, false
	}
}

// Adjacency is one directional touching relation.
type Adjacency struct {
	Neighbor  *Output
	Direction Direction
}

// Touching reports how a touches b edge to edge. Perpendicular ranges are
// compared as closed intervals and the touching edges must be exactly equal.
// Horizontal contact is tested before vertical.
func Touching(a, b platform.Rect) Direction {
	if a.Y <= b.Bottom() && a.Bottom() >= b.Y {
		switch {
		case a.Right() == b.X:
			return DirLeft
		case a.X == b.Right():
			return DirRight
		}
	}
	if a.X <= b.Right() && a.Right() >= b.X {
		switch {
		case a.Bottom() == b.Y:
			return DirTop
		case a.Y == b.Bottom():
			return DirBottom
		}
	}
	return DirNone
}

// Neighbor scans candidates from index start in order and returns the first
// one whose canvas rectangle touches o's, along with its index. The index is
// -1 when none touch.
func Neighbor(o *Output, candidates []*Output, start int) (Adjacency, int) {
	for i := max(start, 0); i < len(candidates); i++ {
		c := candidates[i]
		if c == o {
			continue
		}
		if d := Touching(o.Canvas, c.Canvas); d != DirNone {
			return Adjacency{Neighbor: c, Direction: d}, i
		}
	}
	return Adjacency{}, -1
}

// AllNeighbors collects every touching relation of o among candidates in
// order, resuming the scan after each hit.
func AllNeighbors(o *Output, candidates []*Output) []Adjacency {
	var out []Adjacency
	for start := 0; ; {
		adj, i := Neighbor(o, candidates, start)
		if i < 0 {
			return out
		}
		out = append(out, adj)
		start = i + 1
	}
}
