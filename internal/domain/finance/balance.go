package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/shared"
)

// BalanceTracker is a domain service that applies write-off deltas to a
// receipt's derived balance fields. A positive delta records a new write-off;
// a negative delta releases a reverted one. The status is recomputed as a
// pure function of (amount, claimed) in the same step, so stored status can
// never drift from stored amounts.
type BalanceTracker struct{}

// NewBalanceTracker creates a new balance tracker
func NewBalanceTracker() *BalanceTracker {
	return &BalanceTracker{}
}

// ApplyDelta mutates the receipt's claimed/unclaimed amounts and status.
// Fails with INSUFFICIENT_BALANCE if the delta would push the unclaimed
// amount below zero. Callers persist the receipt in the same transaction
// as the ledger write.
func (t *BalanceTracker) ApplyDelta(p *ReceivedPayment, delta decimal.Decimal) (Balance, error) {
	if delta.IsZero() {
		return p.Balance(), nil
	}

	newClaimed := p.ClaimedAmount.Add(delta)
	newUnclaimed := p.Amount.Sub(newClaimed)

	if newUnclaimed.IsNegative() {
		return Balance{}, shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Write-off amount %s exceeds unclaimed amount %s",
				delta.StringFixed(2), p.UnclaimedAmount.StringFixed(2)))
	}
	if newClaimed.IsNegative() {
		// A revert can never release more than was claimed.
		return Balance{}, shared.ErrInvalidState
	}

	p.ClaimedAmount = newClaimed
	p.UnclaimedAmount = newUnclaimed
	p.Status = statusFor(p.Amount, newClaimed)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return p.Balance(), nil
}

// statusFor derives the receipt status from its amounts. A receipt inside
// this subsystem is always at least CLAIMED; it becomes FULLY_WRITTEN_OFF
// only when nothing remains, and a revert moves it back.
func statusFor(total, claimed decimal.Decimal) ReceiptStatus {
	if total.Sub(claimed).IsZero() {
		return ReceiptStatusFullyWrittenOff
	}
	return ReceiptStatusClaimed
}
