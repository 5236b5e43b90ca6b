package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/platform"
	"github.com/1broseidon/monarrange/internal/session"
)

func dualHead() *platform.Fixture {
	return &platform.Fixture{
		Screen: platform.FixtureScreen{Width: 1920, Height: 1080, MMWidth: 530, MMHeight: 300},
		Modes: []platform.FixtureMode{
			{ID: 1, Width: 1920, Height: 1080, HTotal: 2200, VTotal: 1125, DotClock: 148500000},
			{ID: 2, Width: 1280, Height: 720, HTotal: 1650, VTotal: 750, DotClock: 74250000},
			{ID: 3, Width: 1920, Height: 1080, HTotal: 2640, VTotal: 1125, DotClock: 148500000},
		},
		Channels: []platform.FixtureChannel{
			{ID: 10, X: 0, Y: 0, Mode: 1, Outputs: []uint32{100}},
			{ID: 11},
		},
		Outputs: []platform.FixtureOutput{
			{ID: 100, Name: "DP-1", Connected: true, EDID: "01", MMWidth: 530, MMHeight: 300, Modes: []uint32{1, 3, 2}, Preferred: 1, Possible: []uint32{10, 11}},
			{ID: 101, Name: "HDMI-1", Connected: true, EDID: "02", MMWidth: 530, MMHeight: 300, Modes: []uint32{1, 2}, Preferred: 1, Possible: []uint32{10, 11}},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *platform.MemoryBackend) {
	t.Helper()
	b, err := platform.NewMemoryBackend(dualHead())
	require.NoError(t, err)
	sess := session.New(b, session.Options{Width: 1000, Height: 600})
	require.NoError(t, sess.Load())
	return NewServer(sess), b
}

func TestListOutputs(t *testing.T) {
	s, _ := newTestServer(t)
	_, out, err := s.handleListOutputs(context.Background(), nil, ListOutputsInput{})
	require.NoError(t, err)
	require.Len(t, out.Outputs, 2)

	dp := out.Outputs[0]
	assert.Equal(t, "DP-1", dp.Name)
	assert.True(t, dp.Active)
	assert.Equal(t, uint32(10), dp.Channel)
	assert.Equal(t, "1920x1080@60.00Hz", dp.Mode)
	assert.Equal(t, "1920x1080+0+0", dp.Real)
	assert.Equal(t, []string{"1920x1080@60.00Hz", "1920x1080@50.00Hz", "1280x720@60.00Hz"}, dp.Modes)

	hdmi := out.Outputs[1]
	assert.True(t, hdmi.Enabled)
	assert.False(t, hdmi.Active, "no channel yet")
	assert.Greater(t, out.Scale, 0.0)
}

func TestPlaceSetModeAndApply(t *testing.T) {
	s, b := newTestServer(t)
	ctx := context.Background()

	_, placed, err := s.handlePlaceOutput(ctx, nil, PlaceOutputInput{Output: "HDMI-1", Direction: "right-of", Other: "DP-1"})
	require.NoError(t, err)
	assert.Equal(t, "HDMI-1", placed.Output.Name)

	_, moded, err := s.handleSetMode(ctx, nil, SetModeInput{Output: "HDMI-1", Mode: "1280x720"})
	require.NoError(t, err)
	assert.Equal(t, "1280x720@60.00Hz", moded.Output.Mode)
	assert.Equal(t, "1280x720+0+0", moded.Output.Real)

	_, applied, err := s.handleApplyLayout(ctx, nil, ApplyLayoutInput{})
	require.NoError(t, err)
	assert.Empty(t, applied.Failures)
	assert.Equal(t, "3200x1080", applied.Screen)

	snap, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, platform.Rect{X: 1920, Width: 1280, Height: 720}, snap.Channel(11).Bounds)
	assert.Equal(t, platform.ChannelID(11), snap.Output(101).Channel)

	_, out, err := s.handleListOutputs(ctx, nil, ListOutputsInput{})
	require.NoError(t, err)
	assert.True(t, out.Outputs[1].Active)
}

func TestSetModeResolution(t *testing.T) {
	modes := []platform.Mode{
		{ID: 1, Width: 1920, Height: 1080, HTotal: 2200, VTotal: 1125, DotClock: 148500000},
		{ID: 3, Width: 1920, Height: 1080, HTotal: 2640, VTotal: 1125, DotClock: 148500000},
	}
	tests := []struct {
		query string
		want platform.ModeID
	}{
		{"1920x1080@50.00Hz", 3},
		{"1920x1080", 1},
		{"3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			m, err := resolveMode(modes, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.ID)
		})
	}

	_, err := resolveMode(modes, "640x480")
	assert.True(t, errors.Is(err, layout.ErrModeNotFound))
	_, err = resolveMode(modes, "")
	assert.Error(t, err)
}

func TestToolErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.handlePlaceOutput(ctx, nil, PlaceOutputInput{Output: "HDMI-1", Direction: "diagonal", Other: "DP-1"})
	assert.Error(t, err)

	_, _, err = s.handlePlaceOutput(ctx, nil, PlaceOutputInput{Output: "VGA-1", Direction: "above", Other: "DP-1"})
	assert.True(t, errors.Is(err, session.ErrUnknownOutput))

	_, _, err = s.handleSetMode(ctx, nil, SetModeInput{Output: "HDMI-1", Mode: "1920x1080@50.00Hz"})
	assert.True(t, errors.Is(err, layout.ErrModeNotFound), "mode not offered by HDMI-1")

	_, _, err = s.handleSetEnabled(ctx, nil, SetEnabledInput{Output: "nope"})
	assert.Error(t, err)
}

func TestSetEnabledAndWatch(t *testing.T) {
	s, b := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, res, err := s.handleSetEnabled(ctx, nil, SetEnabledInput{Output: "HDMI-1", Enabled: false})
	require.NoError(t, err)
	assert.False(t, res.Output.Enabled)

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, b) }()

	// Wait for the subscription, then unplug.
	require.Eventually(t, func() bool {
		if err := b.Unplug(101); err != nil {
			return false
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := s.sess.FindByName("HDMI-1")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
