package escrow

import "errors"

var (
	// Validation errors, rejected before any side effect.
	ErrInvalidBeneficiary = errors.New("escrow: beneficiary is the zero identity")
	ErrInvalidAttester    = errors.New("escrow: attester is the zero identity")
	ErrZeroAmount         = errors.New("escrow: amount must be positive")
	ErrZeroDuration       = errors.New("escrow: duration must be at least one day")
	ErrStartInPast        = errors.New("escrow: start time is in the past")
	ErrInvalidDay         = errors.New("escrow: day index out of range")

	// Authorization errors.
	ErrNotAuthorized = errors.New("escrow: caller is not the attester")
	ErrNotOwner      = errors.New("escrow: caller is not the challenge owner")
	ErrNotAdmin      = errors.New("escrow: caller is not the administrator")

	// State errors.
	ErrNotFound         = errors.New("escrow: challenge not found")
	ErrAlreadyFinalized = errors.New("escrow: challenge already finalized")
	ErrAlreadyUnlocked  = errors.New("escrow: day already unlocked")
	ErrDayNotStarted    = errors.New("escrow: day has not started")
	ErrNotEnded         = errors.New("escrow: challenge period has not ended")
	ErrNothingToClaim   = errors.New("escrow: no released balance to claim")

	// Transfer errors. These occur after validation passes; the ledger is
	// rolled back to its pre-operation state and the caller may retry.
	ErrTransferFailed = errors.New("escrow: asset transfer failed")
)
