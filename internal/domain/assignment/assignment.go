// Package assignment defines the static agent assignment table: one resource
// and compute profile per agent role, read-only after load.
package assignment

import (
	"errors"
	"fmt"
)

// Platform is the compute backend an agent role is dispatched to.
type Platform string

const (
	PlatformLambda  Platform = "lambda"
	PlatformFargate Platform = "fargate"
	PlatformBatch   Platform = "batch"
)

// Valid reports whether p is a known compute platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformLambda, PlatformFargate, PlatformBatch:
		return true
	}
	return false
}

// Priority ranks agent work from critical (0) to low (3).
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 1
	PriorityMedium   Priority = 2
	PriorityLow      Priority = 3
)

// Assignment is one static configuration row: the compute platform and
// resource profile for a single agent role.
type Assignment struct {
	Agent          string   `yaml:"agent" json:"agent"`
	Type           string   `yaml:"type" json:"type"`
	Image          string   `yaml:"image" json:"image"`
	Platform       Platform `yaml:"platform" json:"platform"`
	Priority       Priority `yaml:"priority" json:"priority"`
	TimeoutMinutes int      `yaml:"timeout_minutes" json:"timeout_minutes"`
	MemoryMB       int      `yaml:"memory_mb" json:"memory_mb"`
	CPUUnits       int      `yaml:"cpu_units" json:"cpu_units"`
}

// Validate checks that an assignment row is complete and internally consistent.
func (a *Assignment) Validate() error {
	if a.Agent == "" {
		return errors.New("agent is required")
	}
	if !a.Platform.Valid() {
		return fmt.Errorf("unknown platform %q for agent %q", a.Platform, a.Agent)
	}
	if a.Priority < PriorityCritical || a.Priority > PriorityLow {
		return fmt.Errorf("priority %d for agent %q out of range 0..3", a.Priority, a.Agent)
	}
	if a.TimeoutMinutes <= 0 {
		return fmt.Errorf("timeout_minutes must be > 0 for agent %q", a.Agent)
	}
	if a.MemoryMB <= 0 {
		return fmt.Errorf("memory_mb must be > 0 for agent %q", a.Agent)
	}
	if a.CPUUnits <= 0 {
		return fmt.Errorf("cpu_units must be > 0 for agent %q", a.Agent)
	}
	return nil
}
