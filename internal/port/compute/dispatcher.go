// Package compute defines the compute platform dispatch port.
package compute

import (
	"context"
	"fmt"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

// Dispatcher is the port interface for one compute platform backend.
// Dispatch performs exactly one external invocation and returns either the
// deployment reference or the underlying call's error. Implementations do
// not retry.
type Dispatcher interface {
	// Platform returns the compute platform this dispatcher serves.
	Platform() assignment.Platform

	// Dispatch invokes the platform with the event's payload and the
	// assignment's resource profile.
	Dispatch(ctx context.Context, ev *issue.Event, as assignment.Assignment) (*dispatch.Deployment, error)
}

// Registry holds exactly one dispatcher per compute platform.
type Registry struct {
	byPlatform map[assignment.Platform]Dispatcher
}

// NewRegistry builds a registry from the given dispatchers. Registering two
// dispatchers for the same platform is a wiring bug and returns an error.
func NewRegistry(dispatchers ...Dispatcher) (*Registry, error) {
	r := &Registry{byPlatform: make(map[assignment.Platform]Dispatcher, len(dispatchers))}
	for _, d := range dispatchers {
		p := d.Platform()
		if _, exists := r.byPlatform[p]; exists {
			return nil, fmt.Errorf("compute: duplicate dispatcher for platform %q", p)
		}
		r.byPlatform[p] = d
	}
	return r, nil
}

// Get returns the dispatcher for a platform.
func (r *Registry) Get(p assignment.Platform) (Dispatcher, bool) {
	d, ok := r.byPlatform[p]
	return d, ok
}

// Platforms returns the registered platforms.
func (r *Registry) Platforms() []assignment.Platform {
	out := make([]assignment.Platform, 0, len(r.byPlatform))
	for p := range r.byPlatform {
		out = append(out, p)
	}
	return out
}
