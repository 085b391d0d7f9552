package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action names a journaled operation.
type Action string

const (
	ActionFetch  Action = "fetch"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Outcome is the result of a journaled operation.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Entry is one line of operator activity.
type Entry struct {
	ID          string
	Action      Action
	ProductID   string
	ProductName string
	Outcome     Outcome
	Message     string
	CreatedAt   time.Time
}

// Journal stores entries in sqlite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db, now: Now}
}

// Record inserts e, filling in ID and CreatedAt when unset, and returns the stored entry.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	_, err := j.db.ExecContext(ctx, `
	INSERT INTO journal_entries(id, action, product_id, product_name, outcome, message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Action), e.ProductID, e.ProductName, string(e.Outcome), e.Message, e.CreatedAt.UTC())
	if err != nil {
		return Entry{}, fmt.Errorf("journal: record: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit returns all entries.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
	SELECT id, action, product_id, product_name, outcome, message, created_at
	FROM journal_entries
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			action, outcome string
		)
		if err := rows.Scan(&e.ID, &action, &e.ProductID, &e.ProductName, &outcome, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Action, e.Outcome = Action(action), Outcome(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear removes every entry. The schema is kept.
func (j *Journal) Clear(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM journal_entries`); err != nil {
		return fmt.Errorf("journal: clear: %w", err)
	}
	return nil
}
