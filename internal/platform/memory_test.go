package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDock(t *testing.T) *MemoryBackend {
	t.Helper()
	b, err := NewMemoryBackendFromFile(filepath.Join("testdata", "laptop-dock.yaml"))
	require.NoError(t, err)
	return b
}

func TestLoadFixture(t *testing.T) {
	b := loadDock(t)
	snap, err := b.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, ScreenSize{Width: 1920, Height: 1080, MMWidth: 344, MMHeight: 194}, snap.Screen)
	require.Len(t, snap.Outputs, 3)
	require.Len(t, snap.Channels, 3)
	require.Len(t, snap.Modes, 3)

	edp := snap.Output(66)
	require.NotNil(t, edp)
	assert.Equal(t, "eDP-1", edp.Name)
	assert.Equal(t, ChannelID(63), edp.Channel)
	assert.Len(t, edp.EDID, 16)
	assert.Equal(t, []ModeID{1, 3}, edp.Modes)

	ch := snap.Channel(63)
	require.NotNil(t, ch)
	assert.True(t, ch.Enabled())
	assert.Equal(t, Rect{Width: 1920, Height: 1080}, ch.Bounds)
	assert.Equal(t, Rotate0, ch.Rotation)
	assert.False(t, snap.Channel(64).Enabled())

	assert.False(t, snap.Output(68).Connected)
}

func TestLoadFixtureErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewMemoryBackendFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("outputs: [\n"), 0644))
	_, err = NewMemoryBackendFromFile(bad)
	require.Error(t, err)

	_, err = NewMemoryBackend(&Fixture{
		Channels: []FixtureChannel{{ID: 1, Outputs: []uint32{9}}},
	})
	require.Error(t, err)

	_, err = NewMemoryBackend(&Fixture{
		Outputs: []FixtureOutput{{ID: 1, Name: "X", EDID: "zz"}},
	})
	require.Error(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	b := loadDock(t)
	snap, err := b.Snapshot()
	require.NoError(t, err)
	snap.Channels[0].Outputs[0] = 999
	snap.Outputs[0].Name = "changed"

	again, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, OutputID(66), again.Channels[0].Outputs[0])
	assert.Equal(t, "eDP-1", again.Outputs[0].Name)
}

func TestMemoryBackendScreenBounds(t *testing.T) {
	b := loadDock(t)

	err := b.SetScreenSize(ScreenSize{Width: 1280, Height: 720})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected), "enabled channel would be cut off")

	err = b.SetScreenSize(ScreenSize{Width: 9000, Height: 1080})
	assert.True(t, errors.Is(err, ErrRejected), "above maximum")

	require.NoError(t, b.SetScreenSize(ScreenSize{Width: 4480, Height: 1440, MMWidth: 1185, MMHeight: 334}))

	err = b.ConfigureChannel(64, ChannelConfig{X: 4000, Y: 0, Mode: 2, Outputs: []OutputID{67}})
	assert.True(t, errors.Is(err, ErrRejected), "outside the screen")

	require.NoError(t, b.ConfigureChannel(64, ChannelConfig{X: 1920, Y: 0, Mode: 2, Outputs: []OutputID{67}}))

	snap, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 1920, Width: 2560, Height: 1440}, snap.Channel(64).Bounds)
	assert.Equal(t, ChannelID(64), snap.Output(67).Channel)
}

func TestMemoryBackendConfigureValidation(t *testing.T) {
	tests := []struct {
		name    string
		channel ChannelID
		cfg     ChannelConfig
	}{
		{"unknown channel", 99, ChannelConfig{Mode: 1, Outputs: []OutputID{67}}},
		{"unknown mode", 64, ChannelConfig{Mode: 42, Outputs: []OutputID{67}}},
		{"no outputs", 64, ChannelConfig{Mode: 1}},
		{"channel not possible", 65, ChannelConfig{Mode: 1, Outputs: []OutputID{66}}},
		{"mode not supported", 64, ChannelConfig{Mode: 2, Outputs: []OutputID{66}}},
		{"output busy elsewhere", 64, ChannelConfig{Mode: 1, Outputs: []OutputID{66}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := loadDock(t)
			require.Error(t, b.ConfigureChannel(tt.channel, tt.cfg))
			assert.Empty(t, b.Calls())
		})
	}
}

func TestMemoryBackendRotation(t *testing.T) {
	b := loadDock(t)
	require.NoError(t, b.SetScreenSize(ScreenSize{Width: 3400, Height: 2560}))
	require.NoError(t, b.ConfigureChannel(64, ChannelConfig{X: 1920, Mode: 2, Rotation: Rotate90, Outputs: []OutputID{67}}))

	snap, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 1920, Width: 1440, Height: 2560}, snap.Channel(64).Bounds)
	assert.True(t, Rotate270.Swapped())
	assert.False(t, Rotate180.Swapped())
	assert.Equal(t, "left", Rotate90.String())
}

func TestMemoryBackendDisable(t *testing.T) {
	b := loadDock(t)
	require.NoError(t, b.DisableChannel(63))

	snap, err := b.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.Channel(63).Enabled())
	assert.Empty(t, snap.Channel(63).Outputs)
	assert.Equal(t, ChannelID(0), snap.Output(66).Channel)
	assert.Equal(t, []string{"disable 63"}, b.Calls())

	b.ResetCalls()
	assert.Empty(t, b.Calls())
}

func TestMemoryBackendGrab(t *testing.T) {
	b := loadDock(t)
	require.NoError(t, b.Grab())
	assert.True(t, b.Grabbed())
	assert.Error(t, b.Grab())
	require.NoError(t, b.Ungrab())
	assert.Error(t, b.Ungrab())
}

func TestMemoryBackendHotplugEvents(t *testing.T) {
	b := loadDock(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Events(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Plug(FixtureOutput{ID: 68, Name: "HDMI-1", Modes: []uint32{1}, Possible: []uint32{64, 65}}))
	require.NoError(t, b.Unplug(67))
	assert.Error(t, b.Unplug(1234))

	var got []Event
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	assert.Equal(t, Event{Kind: EventOutputChange, Output: 68, Connected: true}, got[0])
	assert.Equal(t, Event{Kind: EventOutputChange, Output: 67, Connected: false}, got[1])

	snap, err := b.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Output(68).Connected)
	assert.False(t, snap.Output(67).Connected)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}
