// Package tracker defines the issue tracker write-back port.
package tracker

import "context"

// AssignedLabel is added to every issue that received a dispatch.
const AssignedLabel = "agent-assigned"

// Labels returns the fixed label set for an assigned role.
func Labels(role string) []string {
	return []string{AssignedLabel, "agent:" + role}
}

// Tracker posts assignment feedback to the originating issue. Both calls
// are best-effort: the dispatch pipeline records their failure but never
// fails because of it.
type Tracker interface {
	// AddComment posts a comment on the issue. repo is "owner/repo".
	AddComment(ctx context.Context, repo string, number int, body string) error

	// AddLabels adds labels to the issue.
	AddLabels(ctx context.Context, repo string, number int, labels []string) error
}
