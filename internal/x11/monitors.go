package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xrect"
)

// edidLength is the size of the base EDID block used for fingerprinting.
const edidLength = 128

// Mode flag bits from the RandR protocol.
const (
	modeFlagInterlace  = 1 << 4
	modeFlagDoubleScan = 1 << 5
)

// Mode is a RandR mode with its decoded name.
type Mode struct {
	Info randr.ModeInfo
	Name string
}

// Interlaced reports the interlace flag.
func (m Mode) Interlaced() bool { return m.Info.ModeFlags&modeFlagInterlace != 0 }

// DoubleScan reports the doublescan flag.
func (m Mode) DoubleScan() bool { return m.Info.ModeFlags&modeFlagDoubleScan != 0 }

// Output is one RandR output with its info reply and EDID block.
type Output struct {
	ID   randr.Output
	Info *randr.GetOutputInfoReply
	EDID []byte
}

// Connected reports whether a sink is attached.
func (o Output) Connected() bool {
	return o.Info.Connection == randr.ConnectionConnected
}

// Crtc is one RandR CRTC with its info reply.
type Crtc struct {
	ID   randr.Crtc
	Info *randr.GetCrtcInfoReply
}

// Bounds returns the CRTC geometry in screen coordinates.
func (c Crtc) Bounds() xrect.Rect {
	return xrect.New(int(c.Info.X), int(c.Info.Y), int(c.Info.Width), int(c.Info.Height))
}

// Resources is one consistent read of the RandR screen resources.
type Resources struct {
	ConfigTimestamp xproto.Timestamp
	Screen          Screen
	Modes           []Mode
	Outputs         []Output
	Crtcs           []Crtc
}

// Screen is the current root window size.
type Screen struct {
	Width    int
	Height   int
	MMWidth  int
	MMHeight int
}

// Resources reads outputs, CRTCs and modes from the server.
func (c *Connection) Resources() (*Resources, error) {
	conn := c.XUtil.Conn()

	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	res := &Resources{ConfigTimestamp: resources.ConfigTimestamp}

	if screen := c.XUtil.Screen(); screen != nil {
		res.Screen = Screen{
			Width:    int(screen.WidthInPixels),
			Height:   int(screen.HeightInPixels),
			MMWidth:  int(screen.WidthInMillimeters),
			MMHeight: int(screen.HeightInMillimeters),
		}
	}
	if geom, err := xproto.GetGeometry(conn, xproto.Drawable(c.Root)).Reply(); err == nil {
		res.Screen.Width = int(geom.Width)
		res.Screen.Height = int(geom.Height)
	}

	names := resources.Names
	for _, info := range resources.Modes {
		var name string
		if n := int(info.NameLen); n <= len(names) {
			name = string(names[:n])
			names = names[n:]
		}
		res.Modes = append(res.Modes, Mode{Info: info, Name: name})
	}

	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc %d info: %w", crtc, err)
		}
		res.Crtcs = append(res.Crtcs, Crtc{ID: crtc, Info: info})
	}

	edidAtom, err := xprop.Atm(c.XUtil, "EDID")
	if err != nil {
		edidAtom = 0
	}

	for _, out := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, out, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output %d info: %w", out, err)
		}
		o := Output{ID: out, Info: info}
		if edidAtom != 0 && o.Connected() {
			o.EDID = c.edid(out, edidAtom)
		}
		res.Outputs = append(res.Outputs, o)
	}

	return res, nil
}

// OutputInfo reads a single output, used for hotplug notifications.
func (c *Connection) OutputInfo(out randr.Output) (*randr.GetOutputInfoReply, error) {
	info, err := randr.GetOutputInfo(c.XUtil.Conn(), out, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get output %d info: %w", out, err)
	}
	return info, nil
}

// edid returns the first EDID block of an output, or nil when the output
// does not expose the property.
func (c *Connection) edid(out randr.Output, atom xproto.Atom) []byte {
	prop, err := randr.GetOutputProperty(c.XUtil.Conn(), out, atom, xproto.AtomAny, 0, edidLength/4, false, false).Reply()
	if err != nil || prop == nil {
		return nil
	}
	data := prop.Data
	if len(data) > edidLength {
		data = data[:edidLength]
	}
	return append([]byte(nil), data...)
}
