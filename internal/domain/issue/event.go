// Package issue defines the inbound issue event domain type.
package issue

import (
	"fmt"
	"strings"
	"time"
)

// Issue actions that trigger agent dispatch. Everything else is ignored.
const (
	ActionOpened   = "opened"
	ActionReopened = "reopened"
	ActionLabeled  = "labeled"
)

// Event is an immutable record of one inbound issue event. It is produced
// once per webhook delivery and never mutated afterwards.
type Event struct {
	Action     string    `json:"action"`
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Labels     []string  `json:"labels"`
	Repository string    `json:"repository"` // "owner/repo"
	Sender     string    `json:"sender"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Accepted reports whether the event's action triggers dispatch.
func (e *Event) Accepted() bool {
	switch e.Action {
	case ActionOpened, ActionReopened, ActionLabeled:
		return true
	}
	return false
}

// RepoOwnerName splits the repository reference into owner and name.
func (e *Event) RepoOwnerName() (owner, name string, err error) {
	parts := strings.Split(e.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository ref %q: expected owner/repo", e.Repository)
	}
	return parts[0], parts[1], nil
}

// Key identifies the issue this event belongs to. Two deliveries for the
// same issue share a key regardless of delivery ID.
func (e *Event) Key() string {
	return fmt.Sprintf("%s#%d", e.Repository, e.Number)
}
