package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/db"
)

// Store provides access to the activity log.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated; a zero
// Status is recorded as ok.
func (s *Store) Log(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = StatusOK
	}
	if entry.Documents == nil {
		entry.Documents = []string{}
	}

	docs, err := json.Marshal(entry.Documents)
	if err != nil {
		return "", fmt.Errorf("marshalling documents: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity (id, action, status, documents, question, answer, detail, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.Action),
		string(entry.Status),
		string(docs),
		entry.Question,
		entry.Answer,
		entry.Detail,
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting activity entry: %w", err)
	}
	return entry.ID, nil
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: activity %s", apperr.ErrNotFound, id)
	}
	return e, err
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	Action   Action
	Status   Status
	Document string
	Since    *time.Time
	Limit    int
	Offset   int
}

const selectColumns = "SELECT id, timestamp, action, status, documents, question, answer, detail, duration_ms FROM activity"

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Document != "" {
		// JSON array stored as text; use LIKE for containment check.
		clauses = append(clauses, "documents LIKE ?")
		args = append(args, "%"+filter.Document+"%")
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM activity WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old activity: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e              Entry
		action, status string
		ts             string
		docsJSON       string
		durationMs     int64
	)

	err := sc.Scan(&e.ID, &ts, &action, &status, &docsJSON, &e.Question, &e.Answer, &e.Detail, &durationMs)
	if err != nil {
		return nil, err
	}

	e.Action = Action(action)
	e.Status = Status(status)
	e.Duration = time.Duration(durationMs) * time.Millisecond

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.Timestamp = t
	}

	if err := json.Unmarshal([]byte(docsJSON), &e.Documents); err != nil {
		e.Documents = nil
	}
	return &e, nil
}
