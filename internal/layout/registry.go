package layout

import (
	"slices"

	"github.com/1broseidon/monarrange/internal/platform"
)

// Registry holds the known outputs in insertion order. Order matters: the
// adjacency, snap and normalize passes scan it first to last and the first
// match wins.
type Registry struct {
	outputs []*Output
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert appends o after removing any entry with the same handle or the same
// non-empty fingerprint. It returns the handles of removed entries so callers
// can drop references to them. Other entries keep their relative order.
func (r *Registry) Upsert(o *Output) []platform.OutputID {
	var removed []platform.OutputID
	r.outputs = slices.DeleteFunc(r.outputs, func(e *Output) bool {
		match := e.Handle == o.Handle || (o.Fingerprint != "" && e.Fingerprint == o.Fingerprint)
		if match {
			removed = append(removed, e.Handle)
		}
		return match
	})
	r.outputs = append(r.outputs, o)
	return removed
}

// Remove deletes the output with the given handle.
func (r *Registry) Remove(handle platform.OutputID) bool {
	n := len(r.outputs)
	r.outputs = slices.DeleteFunc(r.outputs, func(e *Output) bool {
		return e.Handle == handle
	})
	return len(r.outputs) != n
}

// Find returns the output with the given handle, or nil.
func (r *Registry) Find(handle platform.OutputID) *Output {
	for _, o := range r.outputs {
		if o.Handle == handle {
			return o
		}
	}
	return nil
}

// FindByName returns the first output with the given connector name, or nil.
func (r *Registry) FindByName(name string) *Output {
	for _, o := range r.outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Outputs returns the outputs in registry order. The slice is a copy; the
// outputs are shared.
func (r *Registry) Outputs() []*Output {
	return slices.Clone(r.outputs)
}

// Len returns the number of outputs.
func (r *Registry) Len() int {
	return len(r.outputs)
}

// Reference returns the first enabled output driven by a channel. It anchors
// real-space reconstruction and provides the DPI.
func (r *Registry) Reference() *Output {
	return reference(r.outputs)
}

func reference(outputs []*Output) *Output {
	for _, o := range outputs {
		if o.Active() && o.Connected {
			return o
		}
	}
	return nil
}
