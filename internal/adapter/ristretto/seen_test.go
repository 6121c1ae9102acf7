package ristretto

import (
	"testing"
	"time"
)

func TestObserve(t *testing.T) {
	s, err := New(128, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if n := s.Observe("octo/widgets#7"); n != 0 {
		t.Fatalf("first sighting = %d, want 0", n)
	}
	if n := s.Observe("octo/widgets#7"); n != 1 {
		t.Fatalf("second sighting = %d, want 1", n)
	}
	if n := s.Observe("octo/widgets#7"); n != 2 {
		t.Fatalf("third sighting = %d, want 2", n)
	}
}

func TestObserve_KeysAreIndependent(t *testing.T) {
	s, err := New(128, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	s.Observe("octo/widgets#7")
	if n := s.Observe("octo/widgets#8"); n != 0 {
		t.Fatalf("different issue = %d, want 0", n)
	}
}
