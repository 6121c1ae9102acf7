// Package dispatch defines the outcome types of the dispatch pipeline.
package dispatch

import (
	"time"

	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
)

// Status is the terminal state of one processed issue event.
type Status string

const (
	// StatusSuccess: exactly one platform invocation was made.
	StatusSuccess Status = "success"
	// StatusFailed: the platform call errored; not retried, not escalated.
	StatusFailed Status = "failed"
	// StatusIgnored: the action does not trigger dispatch; no side effects.
	StatusIgnored Status = "ignored"
	// StatusError: the inbound payload could not be parsed.
	StatusError Status = "error"
)

// Deployment describes the platform invocation that was made.
type Deployment struct {
	Platform  assignment.Platform `json:"platform"`
	Reference string              `json:"reference"` // task ARN, job ID, or function name
	InvokedAt time.Time           `json:"invoked_at"`
}

// NotifyStatus reports the best-effort issue tracker write-back. It is
// advisory: a failed notification never changes the dispatch status.
type NotifyStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Result is the structured outcome of processing one issue event. Every
// path through the pipeline produces a Result; nothing raises to the caller.
type Result struct {
	ID            string              `json:"id,omitempty"`
	Status        Status              `json:"status"`
	IssueNumber   int                 `json:"issue_number,omitempty"`
	Repository    string              `json:"repository,omitempty"`
	AgentAssigned string              `json:"agent_assigned,omitempty"`
	ComputeType   assignment.Platform `json:"compute_type,omitempty"`
	Deployment    *Deployment         `json:"deployment,omitempty"`
	Notify        *NotifyStatus       `json:"notify,omitempty"`
	Reason        string              `json:"reason,omitempty"`
	Error         string              `json:"error,omitempty"`
}
