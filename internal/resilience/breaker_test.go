package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		if err := b.Execute(failing); err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d: err = %v, want underlying error", i, err)
		}
	}

	if err := b.Execute(failing); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	failing := func() error { return errors.New("boom") }
	ok := func() error { return nil }

	_ = b.Execute(failing)
	_ = b.Execute(failing)
	if err := b.Execute(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two more failures still under the threshold after the reset.
	_ = b.Execute(failing)
	if err := b.Execute(failing); errors.Is(err, ErrCircuitOpen) {
		t.Fatal("circuit opened early, failure count not reset")
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, 30*time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errors.New("boom") })
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen while open", err)
	}

	// After the timeout a single probe is allowed; success closes the circuit.
	now = now.Add(31 * time.Second)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("circuit should be closed: %v", err)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, 30*time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errors.New("boom") })

	now = now.Add(31 * time.Second)
	if err := b.Execute(func() error { return errors.New("still down") }); errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("probe should run, got %v", err)
	}

	// The failed probe reopens immediately.
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen after failed probe", err)
	}
}
