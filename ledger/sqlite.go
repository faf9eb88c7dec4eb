package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"

	"github.com/daystake/go-daystake/escrow"
)

// SQLite is a durable ledger. Amounts are stored as decimal strings, the
// unlock set as a binary-marshaled bitset, and timestamps as Unix
// nanoseconds so day gating survives a round trip exactly.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a ledger database at path. Use ":memory:"
// for an ephemeral ledger.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS challenges (
		id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL,
		beneficiary TEXT NOT NULL,
		principal TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		daily_slice TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		unlocked BLOB NOT NULL,
		released TEXT NOT NULL,
		claimed TEXT NOT NULL,
		penalized TEXT NOT NULL,
		finalized INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS challenge_seq (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO challenge_seq (id, next) VALUES (1, 0);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// NextID allocates the next challenge ID from the sequence row.
func (s *SQLite) NextID(ctx context.Context) (uint64, error) {
	var next uint64
	err := s.db.QueryRowContext(ctx,
		`UPDATE challenge_seq SET next = next + 1 WHERE id = 1 RETURNING next`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("ledger: allocating id: %w", err)
	}
	return next, nil
}

// Put stores or replaces the record.
func (s *SQLite) Put(ctx context.Context, c *escrow.Challenge) error {
	unlocked, err := c.Unlocked.MarshalBinary()
	if err != nil {
		return fmt.Errorf("ledger: encoding unlock set: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO challenges
			(id, owner, beneficiary, principal, duration_days, daily_slice,
			 start_time, unlocked, released, claimed, penalized, finalized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			unlocked = excluded.unlocked,
			released = excluded.released,
			claimed = excluded.claimed,
			penalized = excluded.penalized,
			finalized = excluded.finalized`,
		c.ID, string(c.Owner), string(c.Beneficiary), c.Principal.Dec(),
		c.DurationDays, c.DailySlice.Dec(), c.StartTime.UnixNano(),
		unlocked, c.Released.Dec(), c.Claimed.Dec(), c.Penalized.Dec(),
		boolToInt(c.Finalized))
	if err != nil {
		return fmt.Errorf("ledger: storing challenge %d: %w", c.ID, err)
	}
	return nil
}

// Get returns the record, or escrow.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id uint64) (*escrow.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, beneficiary, principal, duration_days, daily_slice,
		       start_time, unlocked, released, claimed, penalized, finalized
		FROM challenges WHERE id = ?`, id)

	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, escrow.ErrNotFound
	}
	return c, err
}

// List returns all records ordered by ID.
func (s *SQLite) List(ctx context.Context) ([]*escrow.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, beneficiary, principal, duration_days, daily_slice,
		       start_time, unlocked, released, claimed, penalized, finalized
		FROM challenges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: querying challenges: %w", err)
	}
	defer rows.Close()

	var out []*escrow.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row scanner) (*escrow.Challenge, error) {
	var (
		c                  escrow.Challenge
		owner, beneficiary string
		principal, slice   string
		released, claimed  string
		penalized          string
		startNanos         int64
		unlocked           []byte
		finalized          int
	)
	err := row.Scan(&c.ID, &owner, &beneficiary, &principal, &c.DurationDays,
		&slice, &startNanos, &unlocked, &released, &claimed, &penalized,
		&finalized)
	if err != nil {
		return nil, err
	}

	c.Owner = escrow.Address(owner)
	c.Beneficiary = escrow.Address(beneficiary)
	c.StartTime = time.Unix(0, startNanos)
	c.Finalized = finalized != 0

	c.Unlocked = bitset.New(uint(c.DurationDays))
	if err := c.Unlocked.UnmarshalBinary(unlocked); err != nil {
		return nil, fmt.Errorf("ledger: decoding unlock set: %w", err)
	}

	for _, field := range []struct {
		dst **uint256.Int
		src string
	}{
		{&c.Principal, principal},
		{&c.DailySlice, slice},
		{&c.Released, released},
		{&c.Claimed, claimed},
		{&c.Penalized, penalized},
	} {
		v := new(uint256.Int)
		if err := v.SetFromDecimal(field.src); err != nil {
			return nil, fmt.Errorf("ledger: invalid amount %q: %w", field.src, err)
		}
		*field.dst = v
	}

	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ escrow.Ledger = (*SQLite)(nil)
