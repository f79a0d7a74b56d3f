package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Outcome is the result of one settlement invocation. The invocation either
// fully succeeded (profit delivered to the initiator) or fully failed with
// every external balance left as before the attempt.
type Outcome struct {
	State     State
	Plan      LiquidationPlan
	Borrowed  *uint256.Int // flash-borrowed amount, borrow-asset scale
	Repaid    *uint256.Int // debt actually repaid, debt-asset scale
	Seized    *uint256.Int // collateral actually seized, collateral-asset scale
	Profit    *uint256.Int // residual delivered to the initiator, borrow-asset scale
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the invocation completed with all effects
// committed.
func (o Outcome) Succeeded() bool {
	return o.State == StateCompleted && o.Err == nil
}
