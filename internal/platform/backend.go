package platform

import (
	"context"
	"fmt"
)

// OutputID is an opaque hardware output handle.
type OutputID uint32

// ChannelID identifies a display channel (a RandR CRTC). Zero means none.
type ChannelID uint32

// ModeID identifies a video mode within one resource snapshot. Zero means none.
type ModeID uint32

// Rotation mirrors the RandR rotation bits.
type Rotation uint16

const (
	Rotate0   Rotation = 1
	Rotate90  Rotation = 2
	Rotate180 Rotation = 4
	Rotate270 Rotation = 8
)

// Swapped reports whether the rotation exchanges width and height.
func (r Rotation) Swapped() bool {
	return r&(Rotate90|Rotate270) != 0
}

func (r Rotation) String() string {
	switch {
	case r&Rotate90 != 0:
		return "left"
	case r&Rotate180 != 0:
		return "inverted"
	case r&Rotate270 != 0:
		return "right"
	default:
		return "normal"
	}
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Mode is a hardware-reported video mode.
type Mode struct {
	ID         ModeID
	Name       string
	Width      int
	Height     int
	HTotal     int
	VTotal     int
	DotClock   uint32
	Interlace  bool
	DoubleScan bool
}

// Output is the hardware view of one connector.
type Output struct {
	ID        OutputID
	Name      string
	Connected bool
	// EDID is the raw identification block, empty when the device reports none.
	EDID      []byte
	Channel   ChannelID
	Possible  []ChannelID
	MMWidth   int
	MMHeight  int
	Modes     []ModeID
	Preferred int
}

// Channel is the hardware view of one display channel.
type Channel struct {
	ID       ChannelID
	Bounds   Rect
	Mode     ModeID
	Rotation Rotation
	Outputs  []OutputID
}

// Enabled reports whether the channel currently scans out a mode.
func (c Channel) Enabled() bool {
	return c.Mode != 0
}

// ScreenSize is the size of the virtual screen that all channels share.
type ScreenSize struct {
	Width    int
	Height   int
	MMWidth  int
	MMHeight int
}

// Snapshot is a consistent read of outputs, channels and modes.
type Snapshot struct {
	Screen   ScreenSize
	Outputs  []Output
	Channels []Channel
	Modes    []Mode
}

// Output returns the output with the given id, or nil.
func (s *Snapshot) Output(id OutputID) *Output {
	for i := range s.Outputs {
		if s.Outputs[i].ID == id {
			return &s.Outputs[i]
		}
	}
	return nil
}

// Channel returns the channel with the given id, or nil.
func (s *Snapshot) Channel(id ChannelID) *Channel {
	for i := range s.Channels {
		if s.Channels[i].ID == id {
			return &s.Channels[i]
		}
	}
	return nil
}

// ChannelConfig is the target state for ConfigureChannel.
type ChannelConfig struct {
	X        int
	Y        int
	Mode     ModeID
	Rotation Rotation
	Outputs  []OutputID
}

// EventKind classifies hotplug notifications.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventOutputChange
	EventChannelChange
	EventScreenChange
	EventOutputProperty
)

func (k EventKind) String() string {
	switch k {
	case EventOutputChange:
		return "output-change"
	case EventChannelChange:
		return "channel-change"
	case EventScreenChange:
		return "screen-change"
	case EventOutputProperty:
		return "output-property"
	default:
		return "unknown"
	}
}

// Event is a hardware notification delivered into the event loop.
type Event struct {
	Kind      EventKind
	Output    OutputID
	Connected bool
}

// Backend abstracts display-hardware enumeration and mutation.
type Backend interface {
	Snapshot() (*Snapshot, error)
	// Grab and Ungrab bracket a configuration change; no other client may
	// reconfigure the display in between.
	Grab() error
	Ungrab() error
	SetScreenSize(size ScreenSize) error
	ConfigureChannel(id ChannelID, cfg ChannelConfig) error
	DisableChannel(id ChannelID) error
	// Events streams hotplug notifications until ctx is done. Close must
	// still be called to release any reader blocked on the server.
	Events(ctx context.Context) (<-chan Event, error)
	Close() error
}
