package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// SetCrtc points a CRTC at the given outputs with a mode, position and rotation.
func (c *Connection) SetCrtc(crtc randr.Crtc, configTimestamp xproto.Timestamp, x, y int, mode randr.Mode, rotation uint16, outputs []randr.Output) error {
	reply, err := randr.SetCrtcConfig(c.XUtil.Conn(), crtc, xproto.TimeCurrentTime, configTimestamp,
		int16(x), int16(y), mode, rotation, outputs).Reply()
	if err != nil {
		return fmt.Errorf("set crtc %d: %w", crtc, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("set crtc %d: %s", crtc, setConfigStatus(reply.Status))
	}
	return nil
}

// DisableCrtc turns a CRTC off and detaches its outputs.
func (c *Connection) DisableCrtc(crtc randr.Crtc, configTimestamp xproto.Timestamp) error {
	return c.SetCrtc(crtc, configTimestamp, 0, 0, randr.Mode(0), randr.RotationRotate0, nil)
}

// SetScreenSize resizes the root window.
func (c *Connection) SetScreenSize(width, height, mmWidth, mmHeight int) error {
	err := randr.SetScreenSizeChecked(c.XUtil.Conn(), c.Root,
		uint16(width), uint16(height), uint32(mmWidth), uint32(mmHeight)).Check()
	if err != nil {
		return fmt.Errorf("set screen size %dx%d: %w", width, height, err)
	}
	return nil
}

func setConfigStatus(status byte) string {
	switch status {
	case randr.SetConfigInvalidConfigTime:
		return "invalid config time"
	case randr.SetConfigInvalidTime:
		return "invalid time"
	case randr.SetConfigFailed:
		return "failed"
	default:
		return fmt.Sprintf("status %d", status)
	}
}
