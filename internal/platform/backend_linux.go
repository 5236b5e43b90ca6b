//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/1broseidon/monarrange/internal/x11"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxBackend drives RandR over an X11 connection.
type LinuxBackend struct {
	conn *x11.Connection

	mu              sync.Mutex
	configTimestamp xproto.Timestamp
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display
// ("" uses $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Close closes the underlying X11 connection.
func (b *LinuxBackend) Close() error {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
	return nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("linux backend is not connected")
	}
	return b.conn, nil
}

// Snapshot reads the RandR resources and converts them.
func (b *LinuxBackend) Snapshot() (*Snapshot, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	res, err := conn.Resources()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.configTimestamp = res.ConfigTimestamp
	b.mu.Unlock()

	return convertResources(res), nil
}

func convertResources(res *x11.Resources) *Snapshot {
	snap := &Snapshot{
		Screen: ScreenSize{
			Width:    res.Screen.Width,
			Height:   res.Screen.Height,
			MMWidth:  res.Screen.MMWidth,
			MMHeight: res.Screen.MMHeight,
		},
	}

	for _, m := range res.Modes {
		snap.Modes = append(snap.Modes, Mode{
			ID:         ModeID(m.Info.Id),
			Name:       m.Name,
			Width:      int(m.Info.Width),
			Height:     int(m.Info.Height),
			HTotal:     int(m.Info.Htotal),
			VTotal:     int(m.Info.Vtotal),
			DotClock:   m.Info.DotClock,
			Interlace:  m.Interlaced(),
			DoubleScan: m.DoubleScan(),
		})
	}

	for _, c := range res.Crtcs {
		x, y, w, h := c.Bounds().Pieces()
		ch := Channel{
			ID:       ChannelID(c.ID),
			Bounds:   Rect{X: x, Y: y, Width: w, Height: h},
			Mode:     ModeID(c.Info.Mode),
			Rotation: Rotation(c.Info.Rotation),
		}
		for _, o := range c.Info.Outputs {
			ch.Outputs = append(ch.Outputs, OutputID(o))
		}
		snap.Channels = append(snap.Channels, ch)
	}

	for _, o := range res.Outputs {
		out := Output{
			ID:        OutputID(o.ID),
			Name:      string(o.Info.Name),
			Connected: o.Connected(),
			EDID:      o.EDID,
			Channel:   ChannelID(o.Info.Crtc),
			MMWidth:   int(o.Info.MmWidth),
			MMHeight:  int(o.Info.MmHeight),
			Preferred: int(o.Info.NumPreferred),
		}
		for _, c := range o.Info.Crtcs {
			out.Possible = append(out.Possible, ChannelID(c))
		}
		for _, m := range o.Info.Modes {
			out.Modes = append(out.Modes, ModeID(m))
		}
		snap.Outputs = append(snap.Outputs, out)
	}

	return snap
}

// Grab takes the X server grab.
func (b *LinuxBackend) Grab() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if err := conn.GrabServer(); err != nil {
		return fmt.Errorf("grab server: %w", err)
	}
	return nil
}

// Ungrab releases the X server grab.
func (b *LinuxBackend) Ungrab() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	if err := conn.UngrabServer(); err != nil {
		return fmt.Errorf("ungrab server: %w", err)
	}
	return nil
}

// SetScreenSize resizes the virtual screen.
func (b *LinuxBackend) SetScreenSize(size ScreenSize) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetScreenSize(size.Width, size.Height, size.MMWidth, size.MMHeight)
}

// ConfigureChannel sets mode, position, rotation and outputs of a CRTC.
func (b *LinuxBackend) ConfigureChannel(id ChannelID, cfg ChannelConfig) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	outputs := make([]randr.Output, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		outputs = append(outputs, randr.Output(o))
	}
	rotation := cfg.Rotation
	if rotation == 0 {
		rotation = Rotate0
	}
	return conn.SetCrtc(randr.Crtc(id), b.timestamp(), cfg.X, cfg.Y, randr.Mode(cfg.Mode), uint16(rotation), outputs)
}

// DisableChannel turns a CRTC off.
func (b *LinuxBackend) DisableChannel(id ChannelID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.DisableCrtc(randr.Crtc(id), b.timestamp())
}

func (b *LinuxBackend) timestamp() xproto.Timestamp {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.configTimestamp
}

// Events translates RandR notifications into platform events.
func (b *LinuxBackend) Events(ctx context.Context) (<-chan Event, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	notes, err := conn.WatchRandr(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for n := range notes {
			ev := Event{Kind: EventUnknown}
			switch {
			case n.ScreenChange:
				ev.Kind = EventScreenChange
			case n.SubCode == randr.NotifyOutputChange:
				ev.Kind = EventOutputChange
				ev.Output = OutputID(n.Output.Output)
				ev.Connected = n.Output.Connected
			case n.SubCode == randr.NotifyCrtcChange:
				ev.Kind = EventChannelChange
			case n.SubCode == randr.NotifyOutputProperty:
				ev.Kind = EventOutputProperty
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
