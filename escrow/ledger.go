package escrow

import "context"

// Ledger is the source of truth for challenge records. All mutation goes
// through the Engine; implementations must return deep copies from Get and
// List so stored state can only change via Put.
type Ledger interface {
	// NextID allocates a fresh, monotonically increasing challenge ID.
	NextID(ctx context.Context) (uint64, error)

	// Put stores or replaces the record for challenge.ID.
	Put(ctx context.Context, challenge *Challenge) error

	// Get returns the record for the given ID, or ErrNotFound.
	Get(ctx context.Context, id uint64) (*Challenge, error)

	// List returns all records ordered by ID.
	List(ctx context.Context) ([]*Challenge, error)
}
