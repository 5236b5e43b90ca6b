package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monarrange/internal/layout"
	"github.com/1broseidon/monarrange/internal/platform"
)

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outputs := s.sess.Outputs()
	infos := make([]OutputInfo, 0, len(outputs))
	for _, o := range outputs {
		infos = append(infos, s.describe(o))
	}
	return nil, ListOutputsOutput{Outputs: infos, Scale: s.sess.View().Scale}, nil
}

func (s *Server) handlePlaceOutput(_ context.Context, _ *mcpsdk.CallToolRequest, args PlaceOutputInput) (*mcpsdk.CallToolResult, OutputResult, error) {
	dir, ok := layout.ParseDirection(strings.ToLower(strings.TrimSpace(args.Direction)))
	if !ok {
		return nil, OutputResult{}, fmt.Errorf("direction must be one of: left-of, right-of, above, below")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sess.Place(args.Output, dir, args.Other); err != nil {
		return nil, OutputResult{}, err
	}
	o, err := s.sess.FindByName(args.Output)
	if err != nil {
		return nil, OutputResult{}, err
	}
	return nil, OutputResult{Output: s.describe(o)}, nil
}

func (s *Server) handleSetMode(_ context.Context, _ *mcpsdk.CallToolRequest, args SetModeInput) (*mcpsdk.CallToolResult, OutputResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.sess.FindByName(args.Output)
	if err != nil {
		return nil, OutputResult{}, err
	}
	mode, err := resolveMode(s.sess.ModesFor(o), args.Mode)
	if err != nil {
		return nil, OutputResult{}, fmt.Errorf("%s: %w", o.Name, err)
	}
	if err := s.sess.SetMode(o.Handle, mode.ID); err != nil {
		return nil, OutputResult{}, err
	}
	return nil, OutputResult{Output: s.describe(o)}, nil
}

func (s *Server) handleSetEnabled(_ context.Context, _ *mcpsdk.CallToolRequest, args SetEnabledInput) (*mcpsdk.CallToolResult, OutputResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.sess.FindByName(args.Output)
	if err != nil {
		return nil, OutputResult{}, err
	}
	if err := s.sess.SetEnabled(o.Handle, args.Enabled); err != nil {
		return nil, OutputResult{}, err
	}
	return nil, OutputResult{Output: s.describe(o)}, nil
}

func (s *Server) handleApplyLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ ApplyLayoutInput) (*mcpsdk.CallToolResult, ApplyLayoutOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.sess.Apply()
	if err != nil {
		return nil, ApplyLayoutOutput{}, err
	}
	out := ApplyLayoutOutput{
		Screen:   fmt.Sprintf("%dx%d", res.Screen.Width, res.Screen.Height),
		MMWidth:  res.Screen.MMWidth,
		MMHeight: res.Screen.MMHeight,
		DPI:      res.DPI,
	}
	for _, id := range res.Disabled {
		out.Disabled = append(out.Disabled, uint32(id))
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, f.Error())
	}
	return nil, out, nil
}

func (s *Server) describe(o *layout.Output) OutputInfo {
	info := OutputInfo{
		Name:        o.Name,
		Handle:      uint32(o.Handle),
		Enabled:     o.Enabled,
		Active:      o.Active(),
		Real:        o.Real.String(),
		Canvas:      o.Canvas.String(),
		Channel:     uint32(o.Channel),
		Fingerprint: o.Fingerprint,
	}
	if m, err := s.sess.Catalog().Lookup(o.Mode); err == nil {
		info.Mode = layout.ModeLabel(m)
	}
	if o.CloneOf != 0 {
		if owner := s.sess.Find(o.CloneOf); owner != nil {
			info.CloneOf = owner.Name
		}
	}
	modes := s.sess.ModesFor(o)
	info.Modes = make([]string, 0, len(modes))
	for _, m := range modes {
		info.Modes = append(info.Modes, layout.ModeLabel(m))
	}
	return info
}

// resolveMode matches a full mode label first, then the first mode of the
// given size in preference order, then a numeric mode id.
func resolveMode(modes []platform.Mode, query string) (platform.Mode, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return platform.Mode{}, fmt.Errorf("mode is required")
	}
	for _, m := range modes {
		if strings.EqualFold(layout.ModeLabel(m), query) {
			return m, nil
		}
	}
	for _, m := range modes {
		if strings.EqualFold(fmt.Sprintf("%dx%d", m.Width, m.Height), query) {
			return m, nil
		}
	}
	if id, err := strconv.ParseUint(query, 10, 32); err == nil {
		for _, m := range modes {
			if m.ID == platform.ModeID(id) {
				return m, nil
			}
		}
	}
	return platform.Mode{}, fmt.Errorf("mode %q: %w", query, layout.ErrModeNotFound)
}
