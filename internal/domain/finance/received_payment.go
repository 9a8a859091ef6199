package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/domain/shared/valueobject"
)

// ReceiptStatus represents the lifecycle status of a received payment
type ReceiptStatus int

const (
	ReceiptStatusReceived        ReceiptStatus = 1 // Recorded but not yet claimed (not used by this subsystem)
	ReceiptStatusPending         ReceiptStatus = 2 // Awaiting claim confirmation
	ReceiptStatusClaimed         ReceiptStatus = 3 // Claimed, available for write-off
	ReceiptStatusFullyWrittenOff ReceiptStatus = 4 // Entire amount consumed by active write-offs
)

// IsValid checks if the status is a valid ReceiptStatus
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusReceived, ReceiptStatusPending, ReceiptStatusClaimed, ReceiptStatusFullyWrittenOff:
		return true
	}
	return false
}

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	switch s {
	case ReceiptStatusReceived:
		return "RECEIVED"
	case ReceiptStatusPending:
		return "PENDING"
	case ReceiptStatusClaimed:
		return "CLAIMED"
	case ReceiptStatusFullyWrittenOff:
		return "FULLY_WRITTEN_OFF"
	}
	return "UNKNOWN"
}

// CanWriteOff returns true if write-offs may be recorded in this status
func (s ReceiptStatus) CanWriteOff() bool {
	return s == ReceiptStatusClaimed || s == ReceiptStatusFullyWrittenOff
}

// Balance is a snapshot of a receipt's write-off position
type Balance struct {
	Total     decimal.Decimal `json:"total"`
	Used      decimal.Decimal `json:"used"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    ReceiptStatus   `json:"status"`
}

// ReceivedPayment represents an incoming payment to be reconciled against
// payment requests. The total amount is fixed once recorded; the claimed and
// unclaimed amounts are derived from the set of active write-offs and are
// mutated only through the BalanceTracker.
type ReceivedPayment struct {
	shared.BaseAggregateRoot
	ReceiptNo       string          `json:"receipt_no"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	ContractID      *uuid.UUID      `json:"contract_id"`
	Amount          decimal.Decimal `json:"amount"`
	ClaimedAmount   decimal.Decimal `json:"claimed_amount"`
	UnclaimedAmount decimal.Decimal `json:"unclaimed_amount"`
	Status          ReceiptStatus   `json:"status"`
	ReceivedAt      time.Time       `json:"received_at"`
	Remark          string          `json:"remark"`
}

// NewReceivedPayment creates a receipt as the upstream claiming process hands
// it to this subsystem: fully unclaimed, status CLAIMED.
func NewReceivedPayment(
	receiptNo string,
	customerID uuid.UUID,
	contractID *uuid.UUID,
	amount valueobject.Money,
	receivedAt time.Time,
) (*ReceivedPayment, error) {
	if receiptNo == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NO", "Receipt number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if receivedAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_RECEIVED_DATE", "Received date is required")
	}

	return &ReceivedPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNo:         receiptNo,
		CustomerID:        customerID,
		ContractID:        contractID,
		Amount:            amount.Amount(),
		ClaimedAmount:     decimal.Zero,
		UnclaimedAmount:   amount.Amount(),
		Status:            ReceiptStatusClaimed,
		ReceivedAt:        receivedAt,
	}, nil
}

// Remaining returns the amount not yet consumed by active write-offs
func (p *ReceivedPayment) Remaining() decimal.Decimal {
	return p.UnclaimedAmount
}

// Balance returns a snapshot of the receipt's current position
func (p *ReceivedPayment) Balance() Balance {
	return Balance{
		Total:     p.Amount,
		Used:      p.ClaimedAmount,
		Remaining: p.UnclaimedAmount,
		Status:    p.Status,
	}
}

// IsFullyWrittenOff returns true if the entire amount is consumed
func (p *ReceivedPayment) IsFullyWrittenOff() bool {
	return p.Status == ReceiptStatusFullyWrittenOff
}
