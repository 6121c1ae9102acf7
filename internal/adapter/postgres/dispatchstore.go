package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgeworks/agentdispatch/internal/port/dispatchstore"
)

// DispatchStore implements dispatchstore.Store using PostgreSQL (append-only).
type DispatchStore struct {
	pool *pgxpool.Pool
}

var _ dispatchstore.Store = (*DispatchStore)(nil)

// NewDispatchStore creates a DispatchStore backed by the given connection pool.
func NewDispatchStore(pool *pgxpool.Pool) *DispatchStore {
	return &DispatchStore{pool: pool}
}

// Append inserts a new record into the dispatches table.
func (s *DispatchStore) Append(ctx context.Context, rec *dispatchstore.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dispatches (id, repository, issue_number, action, status, agent, platform, reference, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Repository, rec.IssueNumber, rec.Action, rec.Status,
		rec.Agent, rec.Platform, rec.Reference, rec.Error)
	if err != nil {
		return fmt.Errorf("append dispatch record: %w", err)
	}
	return nil
}

const dispatchColumns = `id, repository, issue_number, action, status, agent, platform, reference, error, created_at`

// ListRecent returns a cursor-paginated page of records, newest first. The
// cursor is the created_at timestamp of the last record of the previous page.
func (s *DispatchStore) ListRecent(ctx context.Context, cursor string, limit int) (*dispatchstore.Page, error) {
	if limit <= 0 {
		limit = 50
	}

	args := []any{}
	where := ""
	if cursor != "" {
		where = "WHERE created_at < $1"
		args = append(args, cursor)
	}

	// Fetch limit+1 to detect hasMore.
	query := fmt.Sprintf(
		`SELECT %s FROM dispatches %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		dispatchColumns, where, len(args)+1)
	args = append(args, limit+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	var records []dispatchstore.Record
	for rows.Next() {
		var r dispatchstore.Record
		if err := rows.Scan(&r.ID, &r.Repository, &r.IssueNumber, &r.Action, &r.Status,
			&r.Agent, &r.Platform, &r.Reference, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dispatch record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	var nextCursor string
	if hasMore && len(records) > 0 {
		nextCursor = records[len(records)-1].CreatedAt.Format("2006-01-02T15:04:05.999999Z07:00")
	}

	return &dispatchstore.Page{
		Records: records,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}
