package mcp

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// OutputInfo describes one connected output.
type OutputInfo struct {
	Name        string   `json:"name"`
	Handle      uint32   `json:"handle"`
	Enabled     bool     `json:"enabled"`
	Active      bool     `json:"active"`
	Mode        string   `json:"mode"`
	Real        string   `json:"real"`
	Canvas      string   `json:"canvas"`
	Channel     uint32   `json:"channel,omitempty"`
	CloneOf     string   `json:"clone_of,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Modes       []string `json:"modes"`
}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []OutputInfo `json:"outputs"`
	Scale   float64      `json:"scale"`
}

// PlaceOutputInput is the input for the place_output tool.
type PlaceOutputInput struct {
	Output    string `json:"output" jsonschema:"Connector name of the output to move (e.g. DP-1)"`
	Direction string `json:"direction" jsonschema:"Side of the other output to place it on: left-of, right-of, above or below"`
	Other     string `json:"other" jsonschema:"Connector name of the output to place against"`
}

// SetModeInput is the input for the set_mode tool.
type SetModeInput struct {
	Output string `json:"output" jsonschema:"Connector name of the output"`
	Mode   string `json:"mode" jsonschema:"Mode as WxH, WxH@RATEHz as shown by list_outputs, or a numeric mode id"`
}

// SetEnabledInput is the input for the set_enabled tool.
type SetEnabledInput struct {
	Output  string `json:"output" jsonschema:"Connector name of the output"`
	Enabled bool   `json:"enabled" jsonschema:"Whether the output should be lit on the next apply_layout"`
}

// OutputResult wraps a single output after a change.
type OutputResult struct {
	Output OutputInfo `json:"output"`
}

// ApplyLayoutInput is the input for the apply_layout tool.
type ApplyLayoutInput struct{}

// ApplyLayoutOutput is the output for the apply_layout tool.
type ApplyLayoutOutput struct {
	Screen   string   `json:"screen"`
	MMWidth  int      `json:"mm_width"`
	MMHeight int      `json:"mm_height"`
	DPI      float64  `json:"dpi"`
	Disabled []uint32 `json:"disabled_channels,omitempty"`
	Failures []string `json:"failures,omitempty"`
}
