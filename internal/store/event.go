package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

const sequenceTable = "event_sequence"

// sequenceCounter stamps every logged nudge event with a number that only
// grows, so two events sharing a millisecond still sort in append order.
// The counter row persists across restarts.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + sequenceTable + ` (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			value INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO ` + sequenceTable + ` (id, value) VALUES (1, 0)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("init %s: %w", sequenceTable, err)
		}
	}
	return &sequenceCounter{db: db}, nil
}

// Next bumps the counter and returns the new value. The first call returns 1.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var n int64
	row := sc.db.QueryRowContext(ctx,
		`UPDATE `+sequenceTable+` SET value = value + 1 WHERE id = 1 RETURNING value`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("bump sequence: %w", err)
	}
	return n, nil
}
