package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCanvasWidth     = 1000
	DefaultCanvasHeight    = 600
	DefaultOverprovision   = 2.0
	DefaultSnapThreshold   = 10
	DefaultFrameIntervalMS = 16
)

// Color is a foreground/background pair. Values are "#rrggbb" or an ANSI
// colour index.
type Color struct {
	Foreground string `yaml:"fg"`
	Background string `yaml:"bg"`
}

// Colors holds the three palettes used by the terminal renderer.
type Colors struct {
	Normal   Color `yaml:"normal"`
	Selected Color `yaml:"selected"`
	Monitor  Color `yaml:"monitor"`
}

// Canvas is the size of the arranger surface in canvas pixels and the
// overprovision factor k used when fitting the layout into it.
type Canvas struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Overprovision float64 `yaml:"overprovision"`
}

type Config struct {
	// Display is the X display to connect to. Empty means $DISPLAY.
	Display string `yaml:"display"`
	// Simulate points at a YAML fixture; when set the in-memory backend is
	// used instead of the X server.
	Simulate string `yaml:"simulate"`

	Canvas          Canvas `yaml:"canvas"`
	SnapThreshold   int    `yaml:"snap_threshold"`
	FrameIntervalMS int    `yaml:"frame_interval_ms"`
	Colors          Colors `yaml:"colors"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Canvas: Canvas{
			Width:         DefaultCanvasWidth,
			Height:        DefaultCanvasHeight,
			Overprovision: DefaultOverprovision,
		},
		SnapThreshold:   DefaultSnapThreshold,
		FrameIntervalMS: DefaultFrameIntervalMS,
		Colors: Colors{
			Normal:   Color{Foreground: "#eeeeee", Background: "#222222"},
			Selected: Color{Foreground: "#eeeeee", Background: "#0d4b82"},
			Monitor:  Color{Foreground: "#eeeeee", Background: "#555555"},
		},
		LogLevel: "info",
	}
}

// FrameInterval is the minimum time between redraws while dragging.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// GetLogFile returns the configured log file, falling back to the XDG state
// directory.
func (c *Config) GetLogFile() string {
	if c != nil && c.LogFile != "" {
		return expandHome(c.LogFile)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		home = "."
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "monarrange", "monarrange.log")
	}
	return filepath.Join(home, ".local", "state", "monarrange", "monarrange.log")
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 {
		return &ValidationError{Path: "canvas.width", Err: fmt.Errorf("canvas.width must be > 0")}
	}
	if c.Canvas.Height <= 0 {
		return &ValidationError{Path: "canvas.height", Err: fmt.Errorf("canvas.height must be > 0")}
	}
	if c.Canvas.Overprovision < 1 {
		return &ValidationError{Path: "canvas.overprovision", Err: fmt.Errorf("canvas.overprovision must be >= 1")}
	}
	if c.SnapThreshold < 0 {
		return &ValidationError{Path: "snap_threshold", Err: fmt.Errorf("snap_threshold must be >= 0")}
	}
	if c.FrameIntervalMS <= 0 {
		return &ValidationError{Path: "frame_interval_ms", Err: fmt.Errorf("frame_interval_ms must be > 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}

	palettes := []struct {
		name  string
		color Color
	}{
		{"normal", c.Colors.Normal},
		{"selected", c.Colors.Selected},
		{"monitor", c.Colors.Monitor},
	}
	for _, p := range palettes {
		if err := ValidateColor(p.color.Foreground); err != nil {
			return &ValidationError{Path: "colors." + p.name + ".fg", Err: err}
		}
		if err := ValidateColor(p.color.Background); err != nil {
			return &ValidationError{Path: "colors." + p.name + ".bg", Err: err}
		}
	}
	return nil
}

// ValidateColor accepts #rgb, #rrggbb or an ANSI 256 index.
func ValidateColor(value string) error {
	if hexColor.MatchString(value) {
		return nil
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 255 {
		return nil
	}
	return fmt.Errorf("invalid colour %q: want #rgb, #rrggbb or 0-255", value)
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
