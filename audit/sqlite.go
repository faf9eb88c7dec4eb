package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"
)

// SQLite is a database-backed recorder. The events table is insert-only;
// there are no update or delete paths.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) an event log database at path. Use
// ":memory:" for an ephemeral log.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		challenge_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		day INTEGER NOT NULL DEFAULT 0,
		amount TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_challenge ON events(challenge_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append inserts the event.
func (s *SQLite) Append(ctx context.Context, event *Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, challenge_id, type, actor, day, amount, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.ChallengeID, event.Type, event.Actor, event.Day,
		event.Amount.Dec(), event.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("audit: appending event: %w", err)
	}
	return nil
}

// ByChallenge returns all events for one challenge in append order.
func (s *SQLite) ByChallenge(ctx context.Context, challengeID uint64) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, challenge_id, type, actor, day, amount, at
		 FROM events WHERE challenge_id = ? ORDER BY at, rowid`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("audit: querying events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// All returns every event in append order.
func (s *SQLite) All(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, challenge_id, type, actor, day, amount, at
		 FROM events ORDER BY at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("audit: querying events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		var (
			e      Event
			amount string
			at     int64
		)
		if err := rows.Scan(&e.ID, &e.ChallengeID, &e.Type, &e.Actor, &e.Day, &amount, &at); err != nil {
			return nil, fmt.Errorf("audit: scanning event: %w", err)
		}
		e.Amount = new(uint256.Int)
		if err := e.Amount.SetFromDecimal(amount); err != nil {
			return nil, fmt.Errorf("audit: invalid amount %q: %w", amount, err)
		}
		e.Timestamp = time.Unix(0, at)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

var (
	_ Recorder = (*SQLite)(nil)
	_ Reader   = (*SQLite)(nil)
)
