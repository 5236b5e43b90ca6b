package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig layers raw over the defaults and validates the result.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Simulate != nil {
		cfg.Simulate = expandHome(*raw.Simulate)
	}
	if raw.Canvas != nil {
		if raw.Canvas.Width != nil {
			cfg.Canvas.Width = *raw.Canvas.Width
		}
		if raw.Canvas.Height != nil {
			cfg.Canvas.Height = *raw.Canvas.Height
		}
		if raw.Canvas.Overprovision != nil {
			cfg.Canvas.Overprovision = *raw.Canvas.Overprovision
		}
	}
	if raw.SnapThreshold != nil {
		cfg.SnapThreshold = *raw.SnapThreshold
	}
	if raw.FrameIntervalMS != nil {
		cfg.FrameIntervalMS = *raw.FrameIntervalMS
	}
	if raw.Colors != nil {
		applyColor(&cfg.Colors.Normal, raw.Colors.Normal)
		applyColor(&cfg.Colors.Selected, raw.Colors.Selected)
		applyColor(&cfg.Colors.Monitor, raw.Colors.Monitor)
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
		if cfg.LogLevel == "warning" {
			cfg.LogLevel = "warn"
		}
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyColor(dst *Color, patch *RawColor) {
	if patch == nil {
		return
	}
	if patch.Foreground != nil {
		dst.Foreground = *patch.Foreground
	}
	if patch.Background != nil {
		dst.Background = *patch.Background
	}
}
