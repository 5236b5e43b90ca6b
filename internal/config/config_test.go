package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval())
	assert.Equal(t, "#0d4b82", cfg.Colors.Selected.Background)
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), res.Config)
	assert.Empty(t, res.Files)
}

func TestLoadFromPathEmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty\n")
	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), res.Config)
	assert.Equal(t, []string{path}, res.Files)
}

func TestLoadFromPathOverridesAndExplain(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		`display: ":1"`,
		`canvas:`,
		`  width: 1600`,
		`  overprovision: 3`,
		`snap_threshold: 4`,
		`colors:`,
		`  selected:`,
		`    bg: "33"`,
		`log_level: WARNING`,
		``,
	}, "\n"))

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	cfg := res.Config
	assert.Equal(t, ":1", cfg.Display)
	assert.Equal(t, 1600, cfg.Canvas.Width)
	assert.Equal(t, DefaultCanvasHeight, cfg.Canvas.Height, "omitted keys keep defaults")
	assert.Equal(t, 3.0, cfg.Canvas.Overprovision)
	assert.Equal(t, 4, cfg.SnapThreshold)
	assert.Equal(t, "33", cfg.Colors.Selected.Background)
	assert.Equal(t, "#eeeeee", cfg.Colors.Selected.Foreground)
	assert.Equal(t, "warn", cfg.LogLevel)

	val, src, err := Explain(res, "canvas.width")
	require.NoError(t, err)
	assert.Equal(t, 1600, val)
	assert.Equal(t, SourceFile, src.Kind)
	assert.Equal(t, 3, src.Line)

	val, src, err = Explain(res, "frame_interval_ms")
	require.NoError(t, err)
	assert.Equal(t, DefaultFrameIntervalMS, val)
	assert.Equal(t, SourceDefault, src.Kind)

	val, _, err = Explain(res, "colors.selected.bg")
	require.NoError(t, err)
	assert.Equal(t, "33", val)

	_, _, err = Explain(res, "colors.bogus.fg")
	assert.Error(t, err)
}

func TestLoadFromPathStrictUnknownKey(t *testing.T) {
	path := writeConfig(t, "unknown_key: 1\n")
	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown_key")
	assert.Contains(t, err.Error(), path)
}

func TestLoadFromPathValidationHasSourceContext(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
	}{
		{"zero width", "canvas:\n  width: 0\n", "canvas.width"},
		{"small overprovision", "canvas:\n  overprovision: 0.5\n", "canvas.overprovision"},
		{"negative snap", "snap_threshold: -1\n", "snap_threshold"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad colour", "colors:\n  monitor:\n    fg: blue\n", "colors.monitor.fg"},
		{"colour out of range", "colors:\n  normal:\n    bg: \"300\"\n", "colors.normal.bg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := writeConfig(t, tt.body)
			_, err := LoadFromPath(file)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			assert.Equal(t, tt.path, verr.Path)
			assert.Equal(t, file, verr.Source.File)
			assert.Greater(t, verr.Source.Line, 0)
			assert.True(t, strings.HasPrefix(err.Error(), file+":"))
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Canvas.Width = 1234
	cfg.Colors.Monitor.Background = "#123"
	require.NoError(t, cfg.Save(path))

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, res.Config)

	cfg.SnapThreshold = -5
	assert.Error(t, cfg.Save(path))
}

func TestGetLogFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/state/monarrange/monarrange.log", cfg.GetLogFile())

	cfg.LogFile = "/var/log/m.log"
	assert.Equal(t, "/var/log/m.log", cfg.GetLogFile())
}

func TestDefaultConfigPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cfg/monarrange/config.yaml", path)
}

func TestPathsAllExplainable(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig()}
	for _, p := range Paths() {
		_, src, err := Explain(res, p)
		require.NoError(t, err, p)
		assert.Equal(t, SourceDefault, src.Kind, p)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "snap_threshold: 3\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *LoadResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(res *LoadResult) { got <- res })
	}()

	// Give the watcher time to register before writing.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for n := 5; ; n++ {
		select {
		case res := <-got:
			assert.Greater(t, res.Config.SnapThreshold, 3)
			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("watch did not stop after cancel")
			}
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("snap_threshold: "+strings.Repeat("9", n%3+1)+"\n"), 0644))
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
