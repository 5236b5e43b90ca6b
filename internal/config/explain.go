package config

import (
	"fmt"
	"sort"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and where
// it came from.
//
// Supported paths:
//
//	display
//	simulate
//	canvas.width
//	canvas.height
//	canvas.overprovision
//	snap_threshold
//	frame_interval_ms
//	colors.<normal|selected|monitor>.<fg|bg>
//	log_level
//	log_file
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// Paths lists every path Explain understands, sorted.
func Paths() []string {
	paths := []string{
		"display", "simulate",
		"canvas.width", "canvas.height", "canvas.overprovision",
		"snap_threshold", "frame_interval_ms",
		"log_level", "log_file",
	}
	for _, palette := range []string{"normal", "selected", "monitor"} {
		paths = append(paths, "colors."+palette+".fg", "colors."+palette+".bg")
	}
	sort.Strings(paths)
	return paths
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "display":
		return cfg.Display, nil
	case "simulate":
		return cfg.Simulate, nil
	case "canvas.width":
		return cfg.Canvas.Width, nil
	case "canvas.height":
		return cfg.Canvas.Height, nil
	case "canvas.overprovision":
		return cfg.Canvas.Overprovision, nil
	case "snap_threshold":
		return cfg.SnapThreshold, nil
	case "frame_interval_ms":
		return cfg.FrameIntervalMS, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_file":
		return cfg.GetLogFile(), nil
	}

	parts := strings.Split(path, ".")
	if len(parts) != 3 || parts[0] != "colors" {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	var c Color
	switch parts[1] {
	case "normal":
		c = cfg.Colors.Normal
	case "selected":
		c = cfg.Colors.Selected
	case "monitor":
		c = cfg.Colors.Monitor
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch parts[2] {
	case "fg":
		return c.Foreground, nil
	case "bg":
		return c.Background, nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
