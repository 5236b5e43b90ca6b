package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/monarrange/internal/config"
	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/platform"
	"github.com/1broseidon/monarrange/internal/session"
)

// Version is set during build.
var Version = "0.1.0-dev"

// app holds state shared by every subcommand.
type app struct {
	configPath string
	simulate   string
	display    string
	logLevel   string

	res *config.LoadResult
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	colors := &colorFlags{}

	root := &cobra.Command{
		Use:   "monarrange",
		Short: "Arrange display outputs on a canvas and apply the layout",
		Long: `monarrange shows connected monitors as boxes on a canvas. Drag them
into place, pick modes, switch outputs on or off, then apply the layout to
the X server through RandR.

Run without a subcommand to start the interactive arranger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), colors)
		},
	}
	root.Version = Version
	root.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.config/monarrange/config.yaml)")
	pf.StringVar(&a.simulate, "simulate", "", "run against a YAML fixture instead of the X server")
	pf.StringVar(&a.display, "display", "", "X display to connect to (default $DISPLAY)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	colors.register(root)

	root.AddCommand(
		newTUICmd(a, colors),
		newOutputsCmd(a),
		newPlaceCmd(a),
		newConfigCmd(a),
		newMCPCmd(a),
	)
	return root
}

// load reads the config file and applies flag overrides.
func (a *app) load() error {
	if a.configPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}
	res, err := config.LoadFromPath(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.res = res
	a.cfg = res.Config

	if a.simulate != "" {
		a.cfg.Simulate = a.simulate
	}
	if a.display != "" {
		a.cfg.Display = a.display
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	logger.Configure(a.cfg.LogLevel)
	return nil
}

// openBackend connects to the X server, or loads the simulation fixture.
func (a *app) openBackend() (platform.Backend, error) {
	if a.cfg.Simulate != "" {
		logger.Debugf("simulating hardware from %s", a.cfg.Simulate)
		return platform.NewMemoryBackendFromFile(a.cfg.Simulate)
	}
	b, err := platform.NewLinuxBackendFromDisplay(a.cfg.Display)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// openSession opens the backend and loads a session from it. The caller
// closes the backend.
func (a *app) openSession() (*session.Session, platform.Backend, error) {
	backend, err := a.openBackend()
	if err != nil {
		return nil, nil, err
	}
	sess := session.New(backend, session.Options{
		Width:         a.cfg.Canvas.Width,
		Height:        a.cfg.Canvas.Height,
		Overprovision: a.cfg.Canvas.Overprovision,
		SnapThreshold: a.cfg.SnapThreshold,
	})
	if err := sess.Load(); err != nil {
		backend.Close()
		return nil, nil, err
	}
	return sess, backend, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
