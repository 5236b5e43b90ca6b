package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and the RandR extension.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to the given display ("" uses $DISPLAY) and
// initializes RandR.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	version, err := randr.QueryVersion(xu.Conn(), 1, 3).Reply()
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr version query failed: %w", err)
	}
	if version.MajorVersion < 1 || (version.MajorVersion == 1 && version.MinorVersion < 2) {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr %d.%d is too old, need 1.2", version.MajorVersion, version.MinorVersion)
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// GrabServer blocks every other client until UngrabServer.
func (c *Connection) GrabServer() error {
	return xproto.GrabServerChecked(c.XUtil.Conn()).Check()
}

// UngrabServer releases a GrabServer and flushes the request queue.
func (c *Connection) UngrabServer() error {
	if err := xproto.UngrabServerChecked(c.XUtil.Conn()).Check(); err != nil {
		return err
	}
	c.XUtil.Sync()
	return nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
