package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/monarrange/internal/platform"
)

func monitor(handle uint32, name string, channel uint32, w, h int, canvas platform.Rect) *Output {
	return &Output{
		Handle:    platform.OutputID(handle),
		Name:      name,
		Channel:   platform.ChannelID(channel),
		Real:      rect(0, 0, w, h),
		Canvas:    canvas,
		Enabled:   true,
		Connected: true,
		MMHeight:  300,
	}
}

func TestNormalizeTwoOutputsSideBySide(t *testing.T) {
	a := monitor(1, "A", 10, 1920, 1080, rect(100, 100, 192, 108))
	b := monitor(2, "B", 0, 1920, 1080, rect(292, 100, 192, 108))

	n, err := Normalize([]*Output{a, b}, 0.1)
	require.NoError(t, err)

	assert.Equal(t, rect(0, 0, 1920, 1080), a.Real)
	assert.Equal(t, rect(1920, 0, 1920, 1080), b.Real)
	assert.Equal(t, platform.ScreenSize{Width: 3840, Height: 1080, MMWidth: 1066, MMHeight: 300}, n.Screen)
	assert.InDelta(t, 91.44, n.DPI, 0.001)
	assert.Equal(t, a, n.Reference)
}

func TestNormalizeRemovesScaleDrift(t *testing.T) {
	// At this scale 250 canvas pixels map back to 1923 real pixels.
	a := monitor(1, "A", 10, 1920, 1080, rect(100, 100, 250, 140))
	b := monitor(2, "B", 11, 1920, 1080, rect(350, 100, 250, 140))
	c := monitor(3, "C", 0, 1280, 720, rect(350, 240, 166, 94))

	n, err := Normalize([]*Output{a, b, c}, 0.13)
	require.NoError(t, err)

	assert.Equal(t, a.Real.Right(), b.Real.X)
	assert.Equal(t, a.Real.Y, b.Real.Y)
	assert.Equal(t, b.Real.Bottom(), c.Real.Y)
	assert.Equal(t, rect(1920, 1080, 1280, 720), c.Real)
	assert.Equal(t, 3840, n.Screen.Width)
	assert.Equal(t, 1800, n.Screen.Height)
	assert.Equal(t, 500, n.Screen.MMHeight)
}

func TestNormalizeTranslatesToOrigin(t *testing.T) {
	left := monitor(1, "left", 0, 1920, 1080, rect(50, 100, 250, 140))
	ref := monitor(2, "ref", 10, 1920, 1080, rect(300, 100, 250, 140))

	n, err := Normalize([]*Output{left, ref}, 0.13)
	require.NoError(t, err)

	assert.Equal(t, 0, min(left.Real.X, ref.Real.X))
	assert.Equal(t, 0, min(left.Real.Y, ref.Real.Y))
	assert.Equal(t, rect(0, 0, 1920, 1080), left.Real)
	assert.Equal(t, rect(1920, 0, 1920, 1080), ref.Real)
	assert.Equal(t, 3840, n.Screen.Width)
}

func TestNormalizePreservesAdjacency(t *testing.T) {
	scales := []float64{0.05, 0.0977, 0.13, 0.2, 0.333}
	for _, scale := range scales {
		v := NewView(2000, 1200, 2)
		v.Scale = scale
		a := monitor(1, "A", 10, 1920, 1080, platform.Rect{})
		b := monitor(2, "B", 11, 2560, 1440, platform.Rect{})
		c := monitor(3, "C", 12, 1280, 1024, platform.Rect{})
		outputs := []*Output{a, b, c}
		b.Real.X = a.Real.Right()
		c.Real.Y = a.Real.Bottom()
		v.Reset(outputs)

		// Force canvas contact where the real layout has it.
		b.Canvas.X = a.Canvas.Right()
		c.Canvas.Y = a.Canvas.Bottom()
		c.Canvas.X = a.Canvas.X

		_, err := Normalize(outputs, scale)
		require.NoError(t, err)

		assert.Equal(t, a.Real.Right(), b.Real.X, "scale %v", scale)
		assert.Equal(t, a.Real.Bottom(), c.Real.Y, "scale %v", scale)
		assert.Equal(t, 0, min(a.Real.X, b.Real.X, c.Real.X), "scale %v", scale)
		assert.Equal(t, 0, min(a.Real.Y, b.Real.Y, c.Real.Y), "scale %v", scale)
	}
}

func TestNormalizeSkipsDisabledAndClones(t *testing.T) {
	a := monitor(1, "A", 10, 1920, 1080, rect(100, 100, 192, 108))
	off := monitor(2, "off", 11, 1920, 1080, rect(292, 100, 192, 108))
	off.Enabled = false
	clone := monitor(3, "clone", 0, 1920, 1080, rect(100, 100, 192, 108))
	clone.CloneOf = a.Handle
	clone.Real = rect(50, 50, 1920, 1080)

	n, err := Normalize([]*Output{a, off, clone}, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 1920, n.Screen.Width)
	assert.Equal(t, a.Real.X, clone.Real.X)
	assert.Equal(t, a.Real.Y, clone.Real.Y)
}

func TestNormalizeNoReference(t *testing.T) {
	a := monitor(1, "A", 0, 1920, 1080, rect(0, 0, 10, 10))
	disabled := monitor(2, "B", 10, 1920, 1080, rect(10, 0, 10, 10))
	disabled.Enabled = false

	_, err := Normalize([]*Output{a, disabled}, 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoReference))
}

func TestNormalizeFallbackDPI(t *testing.T) {
	a := monitor(1, "A", 10, 1920, 1080, rect(0, 0, 192, 108))
	a.MMHeight = 0

	n, err := Normalize([]*Output{a}, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 96.0, n.DPI)
	assert.Equal(t, 508, n.Screen.MMWidth)
	assert.Equal(t, 285, n.Screen.MMHeight)
}
