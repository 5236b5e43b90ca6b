package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/monarrange/internal/config"
	"github.com/1broseidon/monarrange/internal/logger"
	"github.com/1broseidon/monarrange/internal/platform"
	"github.com/1broseidon/monarrange/internal/session"
)

// Options configures Run.
type Options struct {
	Config *config.Config
	// ConfigPath is watched for colour changes. Empty disables watching.
	ConfigPath string
}

// Run shows the arranger until the user quits or ctx is cancelled. Hotplug
// events from the backend and config reloads are fed into the same event
// loop as input, so the session is never touched concurrently.
func Run(ctx context.Context, sess *session.Session, backend platform.Backend, opts Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	restore, err := logger.ToFile(cfg.GetLogFile())
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fps := 1000 / max(cfg.FrameIntervalMS, 1)
	p := tea.NewProgram(newModel(sess, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithFPS(fps),
	)

	events, err := backend.Events(ctx)
	if err != nil {
		logger.Warnf("hotplug notifications unavailable: %v", err)
	} else {
		go func() {
			for ev := range events {
				p.Send(hotplugMsg{event: ev})
			}
		}()
	}

	if opts.ConfigPath != "" {
		go func() {
			err := config.Watch(ctx, opts.ConfigPath, func(res *config.LoadResult) {
				p.Send(configMsg{cfg: res.Config})
			})
			if err != nil {
				logger.Warnf("config watcher stopped: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		p.Quit()
		select {
		case err := <-errCh:
			return err
		case <-time.After(2 * time.Second):
			p.Kill()
			<-errCh
			return ctx.Err()
		}
	}
}
