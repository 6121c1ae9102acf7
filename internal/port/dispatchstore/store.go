// Package dispatchstore defines the append-only dispatch audit log port.
package dispatchstore

import (
	"context"
	"time"
)

// Record is one audit row: the outcome of a single processed issue event.
type Record struct {
	ID          string    `json:"id"`
	Repository  string    `json:"repository"`
	IssueNumber int       `json:"issue_number"`
	Action      string    `json:"action"`
	Status      string    `json:"status"`
	Agent       string    `json:"agent,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page is a cursor-paginated slice of records, newest first.
type Page struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor,omitempty"`
	HasMore bool     `json:"has_more"`
}

// Store persists dispatch outcomes.
type Store interface {
	// Append inserts one record. Rows are never updated or deleted.
	Append(ctx context.Context, rec *Record) error

	// ListRecent returns a page of records ordered newest first.
	ListRecent(ctx context.Context, cursor string, limit int) (*Page, error)
}
