package assignment

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Table maps agent roles to assignments. It is built once at startup and
// read-only afterwards.
type Table struct {
	roles  []string
	byRole map[string]Assignment
}

// Row pairs a role with its assignment for ordered listing.
type Row struct {
	Role       string     `json:"role"`
	Assignment Assignment `json:"assignment"`
}

// New builds a table from explicit rows, validating each assignment.
func New(rows []Row) (*Table, error) {
	t := &Table{byRole: make(map[string]Assignment, len(rows))}
	for _, r := range rows {
		if err := r.Assignment.Validate(); err != nil {
			return nil, fmt.Errorf("assignment for role %q: %w", r.Role, err)
		}
		if _, exists := t.byRole[r.Role]; exists {
			return nil, fmt.Errorf("duplicate assignment for role %q", r.Role)
		}
		t.roles = append(t.roles, r.Role)
		t.byRole[r.Role] = r.Assignment
	}
	return t, nil
}

// Defaults returns the built-in assignment table. One row per known agent
// role; the YAML file overlays rows on top of these.
func Defaults() *Table {
	t := &Table{byRole: make(map[string]Assignment)}
	for _, r := range []Row{
		{Role: "developer", Assignment: Assignment{
			Agent: "developer", Type: "coding", Image: "agents/developer:latest",
			Platform: PlatformFargate, Priority: PriorityHigh,
			TimeoutMinutes: 60, MemoryMB: 2048, CPUUnits: 1024,
		}},
		{Role: "security", Assignment: Assignment{
			Agent: "security", Type: "audit", Image: "agents/security:latest",
			Platform: PlatformFargate, Priority: PriorityCritical,
			TimeoutMinutes: 45, MemoryMB: 2048, CPUUnits: 1024,
		}},
		{Role: "devops", Assignment: Assignment{
			Agent: "devops", Type: "infrastructure", Image: "agents/devops:latest",
			Platform: PlatformFargate, Priority: PriorityHigh,
			TimeoutMinutes: 30, MemoryMB: 1024, CPUUnits: 512,
		}},
		{Role: "qa", Assignment: Assignment{
			Agent: "qa", Type: "testing", Image: "agents/qa:latest",
			Platform: PlatformBatch, Priority: PriorityMedium,
			TimeoutMinutes: 120, MemoryMB: 4096, CPUUnits: 2048,
		}},
		{Role: "architect", Assignment: Assignment{
			Agent: "architect", Type: "design", Image: "agents/architect:latest",
			Platform: PlatformBatch, Priority: PriorityHigh,
			TimeoutMinutes: 90, MemoryMB: 2048, CPUUnits: 1024,
		}},
		{Role: "docs", Assignment: Assignment{
			Agent: "docs", Type: "documentation", Image: "agents/docs:latest",
			Platform: PlatformLambda, Priority: PriorityLow,
			TimeoutMinutes: 15, MemoryMB: 512, CPUUnits: 256,
		}},
		{Role: "support", Assignment: Assignment{
			Agent: "support", Type: "triage", Image: "agents/support:latest",
			Platform: PlatformLambda, Priority: PriorityMedium,
			TimeoutMinutes: 15, MemoryMB: 512, CPUUnits: 256,
		}},
	} {
		t.roles = append(t.roles, r.Role)
		t.byRole[r.Role] = r.Assignment
	}
	return t
}

// LoadFromFile returns the assignment table with rows from the given YAML
// file overlaid on the defaults. A missing file is not an error, matching
// the config loading pattern.
func LoadFromFile(path string) (*Table, error) {
	t := Defaults()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from validated config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("read assignment table %s: %w", path, err)
	}

	var overlay map[string]Assignment
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse assignment table %s: %w", path, err)
	}

	for role, a := range overlay {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("assignment table %s, role %q: %w", path, role, err)
		}
		if _, known := t.byRole[role]; !known {
			t.roles = append(t.roles, role)
		}
		t.byRole[role] = a
	}

	return t, nil
}

// Lookup returns the assignment for a role. The classifier only produces
// known roles, so a miss indicates a misconfigured table.
func (t *Table) Lookup(role string) (Assignment, bool) {
	a, ok := t.byRole[role]
	return a, ok
}

// Rows returns all assignments in declaration order.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.roles))
	for _, role := range t.roles {
		rows = append(rows, Row{Role: role, Assignment: t.byRole[role]})
	}
	return rows
}

// Roles returns all known role names in declaration order.
func (t *Table) Roles() []string {
	out := make([]string, len(t.roles))
	copy(out, t.roles)
	return out
}
