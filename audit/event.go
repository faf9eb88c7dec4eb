// Package audit provides the append-only transition log for the escrow
// engine. Every successful state transition (create, attest, claim,
// finalize) is recorded as one immutable event carrying the challenge ID
// and the relevant amounts. Recorders only ever append; nothing is mutated
// or deleted.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Event types, one per engine state transition.
const (
	TypeCreated   = "created"
	TypeAttested  = "attested"
	TypeClaimed   = "claimed"
	TypeFinalized = "finalized"
)

// Event is one immutable audit record.
type Event struct {
	ID          string // unique event identifier
	ChallengeID uint64
	Type        string
	Actor       string // authenticated caller that triggered the transition
	Day         uint32 // day index, meaningful for attested events only
	Amount      *uint256.Int
	Timestamp   time.Time
}

// NewEvent builds an event with a fresh identifier. Amount may be nil; it
// is stored as zero.
func NewEvent(challengeID uint64, eventType, actor string, day uint32, amount *uint256.Int, at time.Time) *Event {
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	return &Event{
		ID:          uuid.New().String(),
		ChallengeID: challengeID,
		Type:        eventType,
		Actor:       actor,
		Day:         day,
		Amount:      amount.Clone(),
		Timestamp:   at,
	}
}

// Recorder appends events to an immutable log.
type Recorder interface {
	Append(ctx context.Context, event *Event) error
}

// Reader retrieves previously appended events.
type Reader interface {
	// ByChallenge returns all events for one challenge in append order.
	ByChallenge(ctx context.Context, challengeID uint64) ([]*Event, error)

	// All returns every event in append order.
	All(ctx context.Context) ([]*Event, error)
}

// wireEvent is the JSON shape shared by the JSONL recorder and anything
// tailing the log. Amounts travel as decimal strings.
type wireEvent struct {
	ID          string    `json:"id"`
	ChallengeID uint64    `json:"challenge_id"`
	Type        string    `json:"type"`
	Actor       string    `json:"actor,omitempty"`
	Day         uint32    `json:"day"`
	Amount      string    `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// MarshalJSON encodes the event with its amount as a decimal string.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		ID:          e.ID,
		ChallengeID: e.ChallengeID,
		Type:        e.Type,
		Actor:       e.Actor,
		Day:         e.Day,
		Amount:      e.Amount.Dec(),
		Timestamp:   e.Timestamp,
	})
}

// UnmarshalJSON decodes an event produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount := new(uint256.Int)
	if w.Amount != "" {
		if err := amount.SetFromDecimal(w.Amount); err != nil {
			return fmt.Errorf("audit: invalid amount %q: %w", w.Amount, err)
		}
	}
	e.ID = w.ID
	e.ChallengeID = w.ChallengeID
	e.Type = w.Type
	e.Actor = w.Actor
	e.Day = w.Day
	e.Amount = amount
	e.Timestamp = w.Timestamp
	return nil
}
