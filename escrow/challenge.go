// Package escrow implements a timed-unlock escrow engine. A challenge locks
// a principal for a fixed number of days; an attester unlocks one daily
// slice per completed day; the owner withdraws unlocked slices at will; any
// principal never unlocked is swept to a beneficiary at finalization.
package escrow

import (
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/holiman/uint256"
)

// Address identifies a party (wallet or account). The empty string is the
// zero identity and is never a valid owner, beneficiary, or attester.
type Address string

// ZeroAddress is the zero identity.
const ZeroAddress Address = ""

// IsZero reports whether the address is the zero identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Day is the unlock period granularity. Day i of a challenge becomes
// eligible for attestation once StartTime + i*Day has elapsed.
const Day = 24 * time.Hour

// Challenge is one locked-principal, timed-unlock escrow arrangement.
// ID, Owner, Beneficiary, Principal, DurationDays, DailySlice, and
// StartTime are immutable after creation. A challenge is never deleted; it
// persists as an auditable record after finalization.
type Challenge struct {
	ID           uint64
	Owner        Address
	Beneficiary  Address
	Principal    *uint256.Int
	DurationDays uint32

	// DailySlice is Principal / DurationDays, floored. The division
	// remainder is not distributed day by day; it stays in custody and is
	// swept to the beneficiary at finalization.
	DailySlice *uint256.Int

	StartTime time.Time

	// Unlocked holds the day indices already attested, sized to
	// DurationDays. Each index unlocks at most once.
	Unlocked *bitset.BitSet

	// Released is the balance currently owed to the owner and not yet
	// withdrawn.
	Released *uint256.Int

	// Claimed is the lifetime total already paid out to the owner.
	Claimed *uint256.Int

	// Penalized is the amount swept to the beneficiary, written exactly
	// once at finalization.
	Penalized *uint256.Int

	Finalized bool
}

// NewChallenge builds a challenge record in its initial state. The caller
// is responsible for validating the inputs; see Engine.CreateChallenge.
func NewChallenge(id uint64, owner, beneficiary Address, principal *uint256.Int, start time.Time, durationDays uint32) *Challenge {
	slice := new(uint256.Int).Div(principal, uint256.NewInt(uint64(durationDays)))
	return &Challenge{
		ID:           id,
		Owner:        owner,
		Beneficiary:  beneficiary,
		Principal:    principal.Clone(),
		DurationDays: durationDays,
		DailySlice:   slice,
		StartTime:    start,
		Unlocked:     bitset.New(uint(durationDays)),
		Released:     uint256.NewInt(0),
		Claimed:      uint256.NewInt(0),
		Penalized:    uint256.NewInt(0),
	}
}

// DayStart returns the instant at which the given day index becomes
// eligible for attestation.
func (c *Challenge) DayStart(day uint32) time.Time {
	return c.StartTime.Add(time.Duration(day) * Day)
}

// EndTime returns the instant at which the challenge period ends and
// finalization becomes possible.
func (c *Challenge) EndTime() time.Time {
	return c.StartTime.Add(time.Duration(c.DurationDays) * Day)
}

// IsDayUnlocked reports whether the day index has been attested. Out of
// range indices report false.
func (c *Challenge) IsDayUnlocked(day uint32) bool {
	if day >= c.DurationDays {
		return false
	}
	return c.Unlocked.Test(uint(day))
}

// UnlockedTotal returns DailySlice summed over every attested day.
func (c *Challenge) UnlockedTotal() *uint256.Int {
	count := uint64(c.Unlocked.Count())
	return new(uint256.Int).Mul(c.DailySlice, uint256.NewInt(count))
}

// Remainder returns the principal never unlocked so far. At finalization
// this is the amount swept to the beneficiary.
func (c *Challenge) Remainder() *uint256.Int {
	return new(uint256.Int).Sub(c.Principal, c.UnlockedTotal())
}

// Conserved checks the conservation invariant: everything ever paid out
// plus everything still owed never exceeds the principal, and after
// finalization equals it exactly.
func (c *Challenge) Conserved() bool {
	total := new(uint256.Int).Add(c.Claimed, c.Released)
	total.Add(total, c.Penalized)
	if c.Finalized {
		return total.Eq(c.Principal)
	}
	return total.Cmp(c.Principal) <= 0
}

// Clone returns a deep copy. Ledger implementations hand out clones so
// that callers cannot mutate stored state without going through Put.
func (c *Challenge) Clone() *Challenge {
	cp := *c
	cp.Principal = c.Principal.Clone()
	cp.DailySlice = c.DailySlice.Clone()
	cp.Unlocked = c.Unlocked.Clone()
	cp.Released = c.Released.Clone()
	cp.Claimed = c.Claimed.Clone()
	cp.Penalized = c.Penalized.Clone()
	return &cp
}
