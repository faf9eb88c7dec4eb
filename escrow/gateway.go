package escrow

import (
	"context"

	"github.com/holiman/uint256"
)

// Gateway moves the custodial asset between external parties and the
// engine's custody balance. It is the single point where external balances
// change. Both operations are single blocking calls with a definite
// success or failure outcome; the engine never assumes a transfer
// succeeded without a nil error, and never issues the same logical
// transfer twice.
type Gateway interface {
	// PullIn moves amount from the given party into custody.
	PullIn(ctx context.Context, from Address, amount *uint256.Int) error

	// PayOut moves amount from custody to the given party.
	PayOut(ctx context.Context, to Address, amount *uint256.Int) error
}
