package escrow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/daystake/go-daystake/audit"
)

// Engine drives challenges through their lifecycle. It owns all mutation
// of the ledger, enforces role checks and invariants, and invokes the
// gateway for every external transfer. Operations on the same challenge ID
// are serialized; different IDs proceed independently.
type Engine struct {
	ledger   Ledger
	gateway  Gateway
	recorder audit.Recorder
	clock    Clock
	log      zerolog.Logger
	locks    *keyedMutex

	roleMu   sync.RWMutex
	admin    Address
	attester Address
}

// NewEngine creates an engine over the given ledger and gateway. The admin
// may rotate the attester; the attester is the only identity permitted to
// record day completions.
func NewEngine(ledger Ledger, gateway Gateway, admin, attester Address) *Engine {
	return &Engine{
		ledger:   ledger,
		gateway:  gateway,
		clock:    SystemClock(),
		log:      zerolog.Nop(),
		locks:    newKeyedMutex(),
		admin:    admin,
		attester: attester,
	}
}

// WithClock replaces the time source. Tests use this to control day gating.
func (e *Engine) WithClock(clock Clock) *Engine {
	e.clock = clock
	return e
}

// WithLogger sets the structured logger.
func (e *Engine) WithLogger(log zerolog.Logger) *Engine {
	e.log = log
	return e
}

// WithRecorder sets the audit log recorder.
func (e *Engine) WithRecorder(recorder audit.Recorder) *Engine {
	e.recorder = recorder
	return e
}

// Attester returns the current attester identity.
func (e *Engine) Attester() Address {
	e.roleMu.RLock()
	defer e.roleMu.RUnlock()
	return e.attester
}

// SetAttester rotates the standing attester. Only the administrator may
// call this. Prior attestations remain valid.
func (e *Engine) SetAttester(caller, newAttester Address) error {
	if newAttester.IsZero() {
		return ErrInvalidAttester
	}

	e.roleMu.Lock()
	defer e.roleMu.Unlock()
	if caller != e.admin {
		return ErrNotAdmin
	}

	old := e.attester
	e.attester = newAttester
	e.log.Info().
		Str("old", string(old)).
		Str("new", string(newAttester)).
		Msg("attester rotated")
	return nil
}

// CreateChallenge locks amount from the caller for durationDays starting
// at startTime and returns the new challenge ID. The principal is pulled
// into custody before the record is stored; if the pull fails no record is
// created.
func (e *Engine) CreateChallenge(ctx context.Context, caller, beneficiary Address, amount *uint256.Int, startTime time.Time, durationDays uint32) (uint64, error) {
	now := e.clock.Now()

	if beneficiary.IsZero() {
		return 0, ErrInvalidBeneficiary
	}
	if amount == nil || amount.IsZero() {
		return 0, ErrZeroAmount
	}
	if durationDays == 0 {
		return 0, ErrZeroDuration
	}
	if startTime.Before(now) {
		return 0, ErrStartInPast
	}

	id, err := e.ledger.NextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("escrow: allocating id: %w", err)
	}

	if err := e.gateway.PullIn(ctx, caller, amount); err != nil {
		return 0, fmt.Errorf("%w: pull in: %v", ErrTransferFailed, err)
	}

	c := NewChallenge(id, caller, beneficiary, amount, startTime, durationDays)
	if err := e.ledger.Put(ctx, c); err != nil {
		// The principal is already in custody; send it back before
		// reporting failure so nothing is stranded.
		if refundErr := e.gateway.PayOut(ctx, caller, amount); refundErr != nil {
			e.log.Error().Err(refundErr).
				Uint64("challenge", id).
				Str("owner", string(caller)).
				Msg("refund after failed store did not complete")
		}
		return 0, fmt.Errorf("escrow: storing challenge: %w", err)
	}

	e.record(ctx, audit.NewEvent(id, audit.TypeCreated, string(caller), 0, amount, now))
	e.log.Info().
		Uint64("challenge", id).
		Str("owner", string(caller)).
		Str("beneficiary", string(beneficiary)).
		Str("principal", amount.Dec()).
		Uint32("duration_days", durationDays).
		Time("start", startTime).
		Msg("challenge created")
	return id, nil
}

// AttestCompletion records that the owner completed the given day,
// unlocking one daily slice. Only the current attester may call this. Days
// may be attested out of order; each is gated individually by its own
// elapsed time. No external assets move.
func (e *Engine) AttestCompletion(ctx context.Context, caller Address, id uint64, day uint32) error {
	if caller != e.Attester() {
		return ErrNotAuthorized
	}

	now := e.clock.Now()

	unlock := e.locks.lock(id)
	defer unlock()

	c, err := e.ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Finalized {
		return ErrAlreadyFinalized
	}
	if day >= c.DurationDays {
		return ErrInvalidDay
	}
	if c.Unlocked.Test(uint(day)) {
		return ErrAlreadyUnlocked
	}
	if now.Before(c.DayStart(day)) {
		return ErrDayNotStarted
	}

	c.Unlocked.Set(uint(day))
	c.Released.Add(c.Released, c.DailySlice)
	if err := e.ledger.Put(ctx, c); err != nil {
		return fmt.Errorf("escrow: storing attestation: %w", err)
	}

	e.record(ctx, audit.NewEvent(id, audit.TypeAttested, string(caller), day, c.DailySlice, now))
	e.log.Info().
		Uint64("challenge", id).
		Uint32("day", day).
		Str("released", c.Released.Dec()).
		Msg("day attested")
	return nil
}

// ClaimUnlocked pays the owner the full released balance and returns the
// amount paid. The released balance is zeroed in the ledger before the
// payout is issued, so a repeated call can never pay the same balance
// twice; if the payout fails the balance is restored and the call may be
// safely retried.
func (e *Engine) ClaimUnlocked(ctx context.Context, caller Address, id uint64) (*uint256.Int, error) {
	now := e.clock.Now()

	unlock := e.locks.lock(id)
	defer unlock()

	c, err := e.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller != c.Owner {
		return nil, ErrNotOwner
	}
	if c.Released.IsZero() {
		return nil, ErrNothingToClaim
	}

	amount := c.Released.Clone()

	// Zero first, pay second. The obligation leaves the ledger before any
	// external call is made.
	c.Released.Clear()
	c.Claimed.Add(c.Claimed, amount)
	if err := e.ledger.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("escrow: storing claim: %w", err)
	}

	if err := e.gateway.PayOut(ctx, c.Owner, amount); err != nil {
		// Compensate: put the obligation back so it is never lost.
		c.Released.Set(amount)
		c.Claimed.Sub(c.Claimed, amount)
		if putErr := e.ledger.Put(ctx, c); putErr != nil {
			e.log.Error().Err(putErr).
				Uint64("challenge", id).
				Str("amount", amount.Dec()).
				Msg("restoring released balance after failed payout did not complete")
			return nil, fmt.Errorf("escrow: restoring claim after failed payout: %w", putErr)
		}
		return nil, fmt.Errorf("%w: pay out: %v", ErrTransferFailed, err)
	}

	e.record(ctx, audit.NewEvent(id, audit.TypeClaimed, string(caller), 0, amount, now))
	e.log.Info().
		Uint64("challenge", id).
		Str("amount", amount.Dec()).
		Msg("released balance claimed")
	return amount, nil
}

// Finalize settles a challenge whose period has ended, sweeping every
// never-unlocked slice (and the floor-division remainder) to the
// beneficiary. Any caller may trigger it, exactly once per challenge. A
// failed sweep rolls the finalization back and may be retried.
func (e *Engine) Finalize(ctx context.Context, caller Address, id uint64) (*uint256.Int, error) {
	now := e.clock.Now()

	unlock := e.locks.lock(id)
	defer unlock()

	c, err := e.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Finalized {
		return nil, ErrAlreadyFinalized
	}
	if now.Before(c.EndTime()) {
		return nil, ErrNotEnded
	}

	remainder := c.Remainder()

	c.Penalized.Set(remainder)
	c.Finalized = true
	if err := e.ledger.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("escrow: storing finalization: %w", err)
	}

	if !remainder.IsZero() {
		if err := e.gateway.PayOut(ctx, c.Beneficiary, remainder); err != nil {
			c.Penalized.Clear()
			c.Finalized = false
			if putErr := e.ledger.Put(ctx, c); putErr != nil {
				e.log.Error().Err(putErr).
					Uint64("challenge", id).
					Str("amount", remainder.Dec()).
					Msg("rolling back finalization after failed sweep did not complete")
				return nil, fmt.Errorf("escrow: rolling back finalization: %w", putErr)
			}
			return nil, fmt.Errorf("%w: pay out: %v", ErrTransferFailed, err)
		}
	}

	e.record(ctx, audit.NewEvent(id, audit.TypeFinalized, string(caller), 0, remainder, now))
	e.log.Info().
		Uint64("challenge", id).
		Str("swept", remainder.Dec()).
		Str("beneficiary", string(c.Beneficiary)).
		Msg("challenge finalized")
	return remainder, nil
}

// GetChallenge returns a copy of the challenge record.
func (e *Engine) GetChallenge(ctx context.Context, id uint64) (*Challenge, error) {
	return e.ledger.Get(ctx, id)
}

// IsDayUnlocked reports whether the day index has been attested.
func (e *Engine) IsDayUnlocked(ctx context.Context, id uint64, day uint32) (bool, error) {
	c, err := e.ledger.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if day >= c.DurationDays {
		return false, ErrInvalidDay
	}
	return c.Unlocked.Test(uint(day)), nil
}

// record appends to the audit log. The transition is already committed and
// any transfer is irreversible, so a failed append is logged rather than
// rolled back.
func (e *Engine) record(ctx context.Context, event *audit.Event) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Append(ctx, event); err != nil {
		e.log.Error().Err(err).
			Uint64("challenge", event.ChallengeID).
			Str("type", event.Type).
			Msg("audit append failed")
	}
}
