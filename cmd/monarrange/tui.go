package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/1broseidon/monarrange/internal/config"
	"github.com/1broseidon/monarrange/internal/tui"
)

type colorFlags struct {
	normalFG, normalBG     string
	selectedFG, selectedBG string
}

func (c *colorFlags) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.normalFG, "nf", "", "normal foreground colour")
	f.StringVar(&c.normalBG, "nb", "", "normal background colour")
	f.StringVar(&c.selectedFG, "sf", "", "selected foreground colour")
	f.StringVar(&c.selectedBG, "sb", "", "selected background colour")
}

// apply overrides the configured colours with any flags given.
func (c *colorFlags) apply(cfg *config.Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Colors.Normal.Foreground, c.normalFG)
	set(&cfg.Colors.Normal.Background, c.normalBG)
	set(&cfg.Colors.Selected.Foreground, c.selectedFG)
	set(&cfg.Colors.Selected.Background, c.selectedBG)
	return cfg.Validate()
}

func newTUICmd(a *app, colors *colorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive arranger (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), colors)
		},
	}
}

func (a *app) runTUI(parent context.Context, colors *colorFlags) error {
	if err := colors.apply(a.cfg); err != nil {
		return err
	}
	sess, backend, err := a.openSession()
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := signalContext(parent)
	defer cancel()

	watch := ""
	if len(a.res.Files) > 0 {
		watch = a.configPath
	}
	return tui.Run(ctx, sess, backend, tui.Options{Config: a.cfg, ConfigPath: watch})
}
