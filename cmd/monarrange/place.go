package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/session"
)

type placeFlags struct {
	rightOf, leftOf, above, below string
	apply                         bool
}

// target returns the single relation given on the command line.
func (f placeFlags) target() (layout.Direction, string, error) {
	var (
		dir   layout.Direction
		other string
		n     int
	)
	for _, c := range []struct {
		dir   layout.Direction
		value string
	}{
		{layout.DirRight, f.rightOf},
		{layout.DirLeft, f.leftOf},
		{layout.DirTop, f.above},
		{layout.DirBottom, f.below},
	} {
		if c.value != "" {
			dir, other = c.dir, c.value
			n++
		}
	}
	if n != 1 {
		return layout.DirNone, "", fmt.Errorf("exactly one of --right-of, --left-of, --above, --below is required")
	}
	return dir, other, nil
}

func newPlaceCmd(a *app) *cobra.Command {
	var f placeFlags
	cmd := &cobra.Command{
		Use:   "place OUTPUT",
		Short: "Place an output beside another and optionally apply",
		Long: `Place moves OUTPUT flush against another output and prints the
resulting layout. With --apply the layout is pushed to the hardware.`,
		Example: `  monarrange place HDMI-1 --right-of eDP-1 --apply`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, other, err := f.target()
			if err != nil {
				return err
			}
			sess, backend, err := a.openSession()
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := sess.Place(args[0], dir, other); err != nil {
				return err
			}
			if !f.apply {
				return preview(cmd.OutOrStdout(), sess)
			}

			res, err := sess.Apply()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "screen %dx%d (%dx%d mm, %.0f dpi)\n",
				res.Screen.Width, res.Screen.Height, res.Screen.MMWidth, res.Screen.MMHeight, res.DPI)
			for _, o := range sess.Outputs() {
				fmt.Fprintf(out, "  %-10s %s\n", o.Name, o.Real)
			}
			if !res.OK() {
				for _, fail := range res.Failures {
					fmt.Fprintf(out, "  failed: %v\n", fail)
				}
				return fmt.Errorf("%d output(s) could not be configured", len(res.Failures))
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.rightOf, "right-of", "", "place to the right of this output")
	fl.StringVar(&f.leftOf, "left-of", "", "place to the left of this output")
	fl.StringVar(&f.above, "above", "", "place above this output")
	fl.StringVar(&f.below, "below", "", "place below this output")
	fl.BoolVar(&f.apply, "apply", false, "apply the layout to the hardware")
	return cmd
}

// preview prints the real positions the current canvas would produce.
func preview(out io.Writer, sess *session.Session) error {
	n, err := layout.Normalize(sess.Outputs(), sess.View().Scale)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "screen %dx%d (not applied)\n", n.Screen.Width, n.Screen.Height)
	for _, o := range sess.Outputs() {
		if !o.Enabled {
			fmt.Fprintf(out, "  %-10s off\n", o.Name)
			continue
		}
		fmt.Fprintf(out, "  %-10s %s\n", o.Name, o.Real)
	}
	return nil
}
