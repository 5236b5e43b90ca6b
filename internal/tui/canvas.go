package tui

import (
	"strings"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/platform"
)

// A terminal cell is one canvas unit wide and two tall, which keeps outputs
// close to their real aspect ratio on common fonts.
const cellHeight = 2

const (
	headerRows = 1
	footerRows = 1
)

type cell struct {
	r     rune
	style styleID
}

type grid [][]cell

func newGrid(cols, rows int) grid {
	g := make(grid, rows)
	for y := range g {
		g[y] = make([]cell, cols)
		for x := range g[y] {
			g[y][x] = cell{r: ' ', style: styleNormal}
		}
	}
	return g
}

func (g grid) set(x, y int, r rune, s styleID) {
	if y < 0 || y >= len(g) || x < 0 || x >= len(g[y]) {
		return
	}
	g[y][x] = cell{r: r, style: s}
}

// canvasSize converts a terminal size into the canvas viewport size.
func canvasSize(cols, rows int) (int, int) {
	rows -= headerRows + footerRows
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return cols, rows * cellHeight
}

// toCanvas maps a terminal cell to canvas coordinates.
func toCanvas(col, row int) (int, int) {
	return col, (row - headerRows) * cellHeight
}

// cellSpan returns the inclusive cell rows covered by a canvas span.
func cellSpan(pos, size int) (int, int) {
	first := floorDiv(pos, cellHeight)
	last := floorDiv(pos+size-1, cellHeight)
	return first, last
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

type box struct {
	output *layout.Output
	labels []string
	style  styleID
}

// drawBoxes paints outputs in order; later boxes cover earlier ones.
func drawBoxes(g grid, boxes []box) {
	for _, b := range boxes {
		c := b.output.Canvas
		x0, x1 := c.X, c.Right()-1
		y0, y1 := cellSpan(c.Y, c.Height)
		if x1 < x0 {
			x1 = x0
		}

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				r := ' '
				switch {
				case y == y0 && x == x0:
					r = '┌'
				case y == y0 && x == x1:
					r = '┐'
				case y == y1 && x == x0:
					r = '└'
				case y == y1 && x == x1:
					r = '┘'
				case y == y0 || y == y1:
					r = '─'
				case x == x0 || x == x1:
					r = '│'
				}
				g.set(x, y, r, b.style)
			}
		}

		inner := x1 - x0 - 1
		mid := (y0 + y1) / 2
		top := mid - (len(b.labels)-1)/2
		for i, label := range b.labels {
			y := top + i
			if y <= y0 || y >= y1 || inner <= 0 {
				continue
			}
			runes := []rune(label)
			if len(runes) > inner {
				runes = runes[:inner]
			}
			start := x0 + 1 + (inner-len(runes))/2
			for j, r := range runes {
				g.set(start+j, y, r, b.style)
			}
		}
	}
}

// buildBoxes orders outputs for painting with the dragged or selected output
// on top. Clones are listed inside their owner's box.
func buildBoxes(outputs []*layout.Output, catalog *layout.Catalog, selected, dragged platform.OutputID) []box {
	clones := make(map[platform.OutputID][]string)
	for _, o := range outputs {
		if o.CloneOf != 0 {
			clones[o.CloneOf] = append(clones[o.CloneOf], o.Name)
		}
	}

	var boxes []box
	var top []box
	for _, o := range outputs {
		if o.CloneOf != 0 {
			continue
		}
		b := box{output: o, labels: outputLabels(o, catalog, clones[o.Handle])}
		switch {
		case o.Handle == selected:
			b.style = styleSelected
		case !o.Enabled:
			b.style = styleDisabled
		default:
			b.style = styleMonitor
		}
		if o.Handle == dragged || o.Handle == selected {
			top = append(top, b)
			continue
		}
		boxes = append(boxes, b)
	}
	return append(boxes, top...)
}

func outputLabels(o *layout.Output, catalog *layout.Catalog, clones []string) []string {
	name := o.Name
	if !o.Enabled {
		name += " (off)"
	}
	labels := []string{name}
	if m, err := catalog.Lookup(o.Mode); err == nil {
		labels = append(labels, layout.ModeLabel(m))
	} else {
		labels = append(labels, o.Real.String())
	}
	if len(clones) > 0 {
		labels = append(labels, "= "+strings.Join(clones, ", "))
	}
	return labels
}

// render turns the grid into styled lines, one style run at a time.
func (g grid) render(st styles) string {
	var out strings.Builder
	for y, row := range g {
		if y > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		cur := styleID(-1)
		flush := func() {
			if run.Len() > 0 {
				out.WriteString(st.cells[cur].Render(run.String()))
				run.Reset()
			}
		}
		for _, c := range row {
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return out.String()
}

// plain returns the grid characters without styling.
func (g grid) plain() string {
	lines := make([]string, len(g))
	for y, row := range g {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.r)
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}
