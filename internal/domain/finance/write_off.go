package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/domain/shared/valueobject"
)

// WriteOffStatus represents the status of a write-off ledger entry
type WriteOffStatus int

const (
	WriteOffStatusCompleted WriteOffStatus = 1 // Active, counted in balance sums
	WriteOffStatusReverted  WriteOffStatus = 2 // Reverted, excluded from balance sums
)

// IsValid checks if the status is a valid WriteOffStatus
func (s WriteOffStatus) IsValid() bool {
	return s == WriteOffStatusCompleted || s == WriteOffStatusReverted
}

// String returns the string representation of WriteOffStatus
func (s WriteOffStatus) String() string {
	switch s {
	case WriteOffStatusCompleted:
		return "COMPLETED"
	case WriteOffStatusReverted:
		return "REVERTED"
	}
	return "UNKNOWN"
}

// WriteOff is a ledger entry recording that part (or all) of a receipt's
// amount has been matched against a payment request. Entries are never
// physically deleted; a revert flips the status and stamps revert metadata
// so the audit trail stays intact.
type WriteOff struct {
	shared.BaseAggregateRoot
	WriteOffNo        string          `json:"write_off_no"`
	PaymentReceivedID uuid.UUID       `json:"payment_received_id"`
	PaymentRequestID  *uuid.UUID      `json:"payment_request_id"`
	// CustomerID and ContractID are copied from the owning receipt for
	// reporting queries only; the receipt stays the source of truth.
	CustomerID   uuid.UUID       `json:"customer_id"`
	ContractID   *uuid.UUID      `json:"contract_id"`
	Amount       decimal.Decimal `json:"write_off_amount"`
	WriteOffDate time.Time       `json:"write_off_date"`
	Status       WriteOffStatus  `json:"status"`
	Remark       string          `json:"remark"`
	WriteOffBy   uuid.UUID       `json:"write_off_by"`
	WriteOffAt   time.Time       `json:"write_off_at"`
	RevertedBy   *uuid.UUID      `json:"reverted_by"`
	RevertedAt   *time.Time      `json:"reverted_at"`
	RevertReason string          `json:"revert_reason"`
}

// NewWriteOff creates a completed ledger entry for the given receipt
func NewWriteOff(
	writeOffNo string,
	receipt *ReceivedPayment,
	requestID *uuid.UUID,
	amount valueobject.Money,
	remark string,
	actorID uuid.UUID,
) (*WriteOff, error) {
	if writeOffNo == "" {
		return nil, shared.NewDomainError("INVALID_WRITE_OFF_NO", "Write-off number cannot be empty")
	}
	if receipt == nil {
		return nil, shared.ErrReceiptNotFound
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Operator ID is required")
	}

	now := time.Now()
	return &WriteOff{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WriteOffNo:        writeOffNo,
		PaymentReceivedID: receipt.ID,
		PaymentRequestID:  requestID,
		CustomerID:        receipt.CustomerID,
		ContractID:        receipt.ContractID,
		Amount:            amount.Amount(),
		WriteOffDate:      now,
		Status:            WriteOffStatusCompleted,
		Remark:            remark,
		WriteOffBy:        actorID,
		WriteOffAt:        now,
	}, nil
}

// Revert marks the entry as reverted with revert metadata. Reverting an
// already-reverted entry fails with INVALID_STATE.
func (w *WriteOff) Revert(actorID uuid.UUID, reason string) error {
	if w.Status != WriteOffStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Write-off is not in completed status")
	}
	if actorID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Operator ID is required")
	}

	now := time.Now()
	w.Status = WriteOffStatusReverted
	w.RevertedBy = &actorID
	w.RevertedAt = &now
	w.RevertReason = reason
	w.UpdatedAt = now
	w.IncrementVersion()

	return nil
}

// IsActive returns true if the entry counts toward balance sums
func (w *WriteOff) IsActive() bool {
	return w.Status == WriteOffStatusCompleted
}

// IsReverted returns true if the entry has been reverted
func (w *WriteOff) IsReverted() bool {
	return w.Status == WriteOffStatusReverted
}
