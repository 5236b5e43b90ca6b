package config

// RawConfig mirrors Config with pointer fields so the loader can tell an
// omitted key from an explicit zero value.
type RawConfig struct {
	Display         *string    `yaml:"display"`
	Simulate        *string    `yaml:"simulate"`
	Canvas          *RawCanvas `yaml:"canvas"`
	SnapThreshold   *int       `yaml:"snap_threshold"`
	FrameIntervalMS *int       `yaml:"frame_interval_ms"`
	Colors          *RawColors `yaml:"colors"`
	LogLevel        *string    `yaml:"log_level"`
	LogFile         *string    `yaml:"log_file"`
}

type RawCanvas struct {
	Width         *int     `yaml:"width"`
	Height        *int     `yaml:"height"`
	Overprovision *float64 `yaml:"overprovision"`
}

type RawColor struct {
	Foreground *string `yaml:"fg"`
	Background *string `yaml:"bg"`
}

type RawColors struct {
	Normal   *RawColor `yaml:"normal"`
	Selected *RawColor `yaml:"selected"`
	Monitor  *RawColor `yaml:"monitor"`
}
