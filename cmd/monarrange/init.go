package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/1broseidon/monarrange/internal/config"
)

// initValues holds the form fields as strings, converted on submit.
type initValues struct {
	logLevel      string
	snapThreshold string
	overprovision string
	selectedBG    string
	monitorBG     string
	confirm       bool
}

func newInitValues(cfg *config.Config) *initValues {
	return &initValues{
		logLevel:      cfg.LogLevel,
		snapThreshold: strconv.Itoa(cfg.SnapThreshold),
		overprovision: strconv.FormatFloat(cfg.Canvas.Overprovision, 'f', -1, 64),
		selectedBG:    cfg.Colors.Selected.Background,
		monitorBG:     cfg.Colors.Monitor.Background,
		confirm:       true,
	}
}

// apply copies the submitted values into cfg and validates the result.
func (v *initValues) apply(cfg *config.Config) error {
	snap, err := strconv.Atoi(v.snapThreshold)
	if err != nil {
		return fmt.Errorf("snap threshold: %w", err)
	}
	over, err := strconv.ParseFloat(v.overprovision, 64)
	if err != nil {
		return fmt.Errorf("overprovision: %w", err)
	}
	cfg.LogLevel = v.logLevel
	cfg.SnapThreshold = snap
	cfg.Canvas.Overprovision = over
	cfg.Colors.Selected.Background = v.selectedBG
	cfg.Colors.Monitor.Background = v.monitorBG
	return cfg.Validate()
}

func (v *initValues) form(path string) *huh.Form {
	isInt := func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return errors.New("enter a whole number >= 0")
		}
		return nil
	}
	isFactor := func(s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 1 {
			return errors.New("enter a number >= 1")
		}
		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&v.logLevel),
			huh.NewInput().
				Title("Snap threshold").
				Description("Canvas cells within which edges line up after a drag.").
				Value(&v.snapThreshold).
				Validate(isInt),
			huh.NewInput().
				Title("Canvas overprovision").
				Description("How much free canvas to leave around the outputs.").
				Value(&v.overprovision).
				Validate(isFactor),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Selected output background").
				Value(&v.selectedBG).
				Validate(config.ValidateColor),
			huh.NewInput().
				Title("Output background").
				Value(&v.monitorBG).
				Validate(config.ValidateColor),
			huh.NewConfirm().
				Title("Write " + path + "?").
				Value(&v.confirm),
		),
	).WithTheme(huh.ThemeBase())
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.res.Files) > 0 && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", a.configPath)
			}

			cfg := config.DefaultConfig()
			values := newInitValues(cfg)
			if err := values.form(a.configPath).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return fmt.Errorf("running config form: %w", err)
			}
			if !values.confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing written")
				return nil
			}
			if err := values.apply(cfg); err != nil {
				return err
			}
			if err := cfg.Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
