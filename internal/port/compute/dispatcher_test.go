package compute

import (
	"context"
	"testing"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/domain/dispatch"
	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

type stubDispatcher struct {
	platform assignment.Platform
}

func (s *stubDispatcher) Platform() assignment.Platform { return s.platform }

func (s *stubDispatcher) Dispatch(context.Context, *issue.Event, assignment.Assignment) (*dispatch.Deployment, error) {
	return &dispatch.Deployment{Platform: s.platform}, nil
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(
		&stubDispatcher{platform: assignment.PlatformLambda},
		&stubDispatcher{platform: assignment.PlatformFargate},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, ok := r.Get(assignment.PlatformLambda)
	if !ok {
		t.Fatal("lambda dispatcher missing")
	}
	if d.Platform() != assignment.PlatformLambda {
		t.Fatalf("got platform %q", d.Platform())
	}

	if _, ok := r.Get(assignment.PlatformBatch); ok {
		t.Fatal("unregistered platform should miss")
	}

	if len(r.Platforms()) != 2 {
		t.Fatalf("got %d platforms, want 2", len(r.Platforms()))
	}
}

func TestNewRegistry_DuplicatePlatform(t *testing.T) {
	_, err := NewRegistry(
		&stubDispatcher{platform: assignment.PlatformLambda},
		&stubDispatcher{platform: assignment.PlatformLambda},
	)
	if err == nil {
		t.Fatal("expected duplicate platform error")
	}
}
