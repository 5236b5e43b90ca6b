package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/platform"
)

type modeReport struct {
	ID        uint32  `json:"id"`
	Label     string  `json:"label"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   float64 `json:"refresh"`
	Current   bool    `json:"current,omitempty"`
	Preferred bool    `json:"preferred,omitempty"`
}

type outputReport struct {
	Name        string       `json:"name"`
	ID          uint32       `json:"id"`
	Connected   bool         `json:"connected"`
	Channel     uint32       `json:"channel,omitempty"`
	Geometry    string       `json:"geometry,omitempty"`
	MMWidth     int          `json:"mm_width"`
	MMHeight    int          `json:"mm_height"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Modes       []modeReport `json:"modes"`
}

type channelReport struct {
	ID       uint32   `json:"id"`
	Enabled  bool     `json:"enabled"`
	Geometry string   `json:"geometry,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Rotation string   `json:"rotation,omitempty"`
	Outputs  []string `json:"outputs"`
}

type report struct {
	Screen   string          `json:"screen"`
	MMWidth  int             `json:"mm_width"`
	MMHeight int             `json:"mm_height"`
	Outputs  []outputReport  `json:"outputs"`
	Channels []channelReport `json:"channels"`
}

func newOutputsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "List outputs, their modes and the channels driving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			snap, err := backend.Snapshot()
			if err != nil {
				return err
			}
			r := buildReport(snap)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			return printReport(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func buildReport(snap *platform.Snapshot) report {
	catalog := layout.NewCatalog(snap.Modes)
	r := report{
		Screen:   fmt.Sprintf("%dx%d", snap.Screen.Width, snap.Screen.Height),
		MMWidth:  snap.Screen.MMWidth,
		MMHeight: snap.Screen.MMHeight,
	}

	names := make(map[platform.OutputID]string, len(snap.Outputs))
	for _, hw := range snap.Outputs {
		names[hw.ID] = hw.Name
	}

	for _, hw := range snap.Outputs {
		or := outputReport{
			Name:        hw.Name,
			ID:          uint32(hw.ID),
			Connected:   hw.Connected,
			Channel:     uint32(hw.Channel),
			MMWidth:     hw.MMWidth,
			MMHeight:    hw.MMHeight,
			Fingerprint: layout.Fingerprint(hw.EDID),
			Modes:       []modeReport{},
		}
		var current platform.ModeID
		if ch := snap.Channel(hw.Channel); ch != nil && ch.Enabled() {
			or.Geometry = ch.Bounds.String()
			current = ch.Mode
		}
		for i, id := range hw.Modes {
			m, err := catalog.Lookup(id)
			if err != nil {
				continue
			}
			or.Modes = append(or.Modes, modeReport{
				ID:        uint32(m.ID),
				Label:     layout.ModeLabel(m),
				Width:     m.Width,
				Height:    m.Height,
				Refresh:   layout.RefreshRate(m),
				Current:   m.ID == current,
				Preferred: i < hw.Preferred,
			})
		}
		r.Outputs = append(r.Outputs, or)
	}

	for _, ch := range snap.Channels {
		cr := channelReport{ID: uint32(ch.ID), Enabled: ch.Enabled(), Outputs: []string{}}
		if ch.Enabled() {
			cr.Geometry = ch.Bounds.String()
			cr.Rotation = ch.Rotation.String()
			if m, err := catalog.Lookup(ch.Mode); err == nil {
				cr.Mode = layout.ModeLabel(m)
			}
		}
		for _, id := range ch.Outputs {
			cr.Outputs = append(cr.Outputs, names[id])
		}
		r.Channels = append(r.Channels, cr)
	}
	return r
}

func printReport(out io.Writer, r report) error {
	fmt.Fprintf(out, "Screen %s (%dx%d mm)\n\n", r.Screen, r.MMWidth, r.MMHeight)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTPUT\tSTATE\tCHANNEL\tGEOMETRY\tSIZE")
	for _, o := range r.Outputs {
		state := "disconnected"
		switch {
		case o.Geometry != "":
			state = "active"
		case o.Connected:
			state = "connected"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dx%d mm\n", o.Name, state, dash(o.Channel), orDash(o.Geometry), o.MMWidth, o.MMHeight)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, o := range r.Outputs {
		if len(o.Modes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s modes:\n", o.Name)
		for _, m := range o.Modes {
			flags := ""
			if m.Current {
				flags += "*"
			}
			if m.Preferred {
				flags += "+"
			}
			fmt.Fprintf(out, "  %-22s %s\n", m.Label, flags)
		}
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tSTATE\tGEOMETRY\tMODE\tROTATION\tOUTPUTS")
	for _, c := range r.Channels {
		state := "disabled"
		if c.Enabled {
			state = "enabled"
		}
		outputs := strings.Join(c.Outputs, ",")
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, state, orDash(c.Geometry), orDash(c.Mode), orDash(c.Rotation), orDash(outputs))
	}
	return w.Flush()
}

func dash(id uint32) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprint(id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
