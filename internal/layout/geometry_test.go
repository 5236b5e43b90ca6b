package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/monarrange/internal/platform"
)

func rect(x, y, w, h int) platform.Rect {
	return platform.Rect{X: x, Y: y, Width: w, Height: h}
}

func canvasOutput(handle uint32, name string, canvas platform.Rect) *Output {
	return &Output{
		Handle:    platform.OutputID(handle),
		Name:      name,
		Canvas:    canvas,
		Enabled:   true,
		Connected: true,
	}
}

func TestTouching(t *testing.T) {
	a := rect(100, 100, 50, 40)
	tests := []struct {
		name string
		b    platform.Rect
		want Direction
	}{
		{"b to the right", rect(150, 110, 50, 40), DirLeft},
		{"b to the left", rect(50, 90, 50, 40), DirRight},
		{"b below", rect(120, 140, 50, 40), DirTop},
		{"b above", rect(80, 60, 50, 40), DirBottom},
		{"gap of one", rect(151, 100, 50, 40), DirNone},
		{"overlapping", rect(140, 100, 50, 40), DirNone},
		{"right edge but no vertical overlap", rect(150, 141, 50, 40), DirNone},
		{"corner contact counts as horizontal", rect(150, 140, 50, 40), DirLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Touching(a, tt.b))
		})
	}
}

func TestAllNeighbors(t *testing.T) {
	o := canvasOutput(1, "o", rect(100, 100, 50, 40))
	right := canvasOutput(2, "right", rect(150, 100, 50, 40))
	far := canvasOutput(3, "far", rect(400, 400, 10, 10))
	below := canvasOutput(4, "below", rect(100, 140, 50, 40))

	adj := AllNeighbors(o, []*Output{o, right, far, below})
	require.Len(t, adj, 2)
	assert.Equal(t, right, adj[0].Neighbor)
	assert.Equal(t, DirLeft, adj[0].Direction)
	assert.Equal(t, below, adj[1].Neighbor)
	assert.Equal(t, DirTop, adj[1].Direction)

	first, idx := Neighbor(o, []*Output{far, below, right}, 0)
	assert.Equal(t, 1, idx)
	assert.Equal(t, below, first.Neighbor)

	_, idx = Neighbor(o, []*Output{far}, 0)
	assert.Equal(t, -1, idx)
}

func TestViewFitResetRecenter(t *testing.T) {
	a := &Output{Handle: 1, Real: rect(0, 0, 1920, 1080)}
	b := &Output{Handle: 2, Real: rect(1920, 0, 1920, 1080)}
	outputs := []*Output{a, b}

	v := NewView(1000, 600, 2)
	v.Update(outputs)

	// 1000/(3840*2) = 0.1302; 600/(2160*2) = 0.1389
	assert.InDelta(t, 1000.0/7680.0, v.Scale, 1e-9)
	assert.Equal(t, 250, a.Canvas.Width)
	assert.Equal(t, 141, a.Canvas.Height)
	assert.Equal(t, a.Canvas.Right(), b.Canvas.X, "adjacent outputs stay adjacent")
	assert.Equal(t, a.Canvas.Y, b.Canvas.Y)

	left, right := a.Canvas.X, b.Canvas.Right()
	assert.InDelta(t, 500, (left+right)/2, 1)
	assert.InDelta(t, 300, a.Canvas.Y+a.Canvas.Height/2, 1)
}

func TestViewRecenterKeepsRelativePositions(t *testing.T) {
	a := canvasOutput(1, "a", rect(10, 10, 100, 50))
	b := canvasOutput(2, "b", rect(200, 80, 100, 50))
	outputs := []*Output{a, b}

	v := NewView(1000, 600, 2)
	v.Recenter(outputs)

	assert.Equal(t, 190, b.Canvas.X-a.Canvas.X)
	assert.Equal(t, 70, b.Canvas.Y-a.Canvas.Y)
	assert.Equal(t, 500, (a.Canvas.X+b.Canvas.Right())/2)
	assert.Equal(t, 300, (a.Canvas.Y+b.Canvas.Bottom())/2)

	before := []platform.Rect{a.Canvas, b.Canvas}
	v.Recenter(outputs)
	assert.Equal(t, before, []platform.Rect{a.Canvas, b.Canvas}, "recenter is stable")
}

func TestViewOverprovisionDefault(t *testing.T) {
	v := NewView(100, 100, 0.5)
	assert.Equal(t, DefaultOverprovision, v.Overprovision)
}
