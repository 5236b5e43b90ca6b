package x11

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// OutputChange is a decoded RandR output change notification.
type OutputChange struct {
	Output    randr.Output
	Connected bool
}

// Notification is one RandR event. Output is only set when SubCode is
// randr.NotifyOutputChange.
type Notification struct {
	SubCode      byte
	ScreenChange bool
	Output       OutputChange
}

// SelectRandrEvents subscribes the root window to RandR notifications.
func (c *Connection) SelectRandrEvents() error {
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange |
		randr.NotifyMaskOutputChange | randr.NotifyMaskOutputProperty)
	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, mask).Check(); err != nil {
		return fmt.Errorf("randr select input failed: %w", err)
	}
	return nil
}

// WatchRandr reads events from the connection until ctx is done or the
// connection closes. Non-RandR events are dropped. The reader blocks in
// WaitForEvent, so after ctx is done it only exits on the next event or
// when Close shuts the connection; callers that cancel must also Close.
func (c *Connection) WatchRandr(ctx context.Context) (<-chan Notification, error) {
	if err := c.SelectRandrEvents(); err != nil {
		return nil, err
	}

	out := make(chan Notification, 16)
	go func() {
		defer close(out)
		conn := c.XUtil.Conn()
		for {
			ev, xerr := conn.WaitForEvent()
			if ev == nil && xerr == nil {
				return
			}
			if xerr != nil {
				continue
			}

			var n Notification
			switch e := ev.(type) {
			case randr.ScreenChangeNotifyEvent:
				n.ScreenChange = true
			case randr.NotifyEvent:
				n.SubCode = e.SubCode
				if e.SubCode == randr.NotifyOutputChange {
					n.Output = OutputChange{
						Output:    e.U.Oc.Output,
						Connected: e.U.Oc.Connection == randr.ConnectionConnected,
					}
				}
			default:
				continue
			}

			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
