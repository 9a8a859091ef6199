package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/domain/shared/valueobject"
)

// defaultNumberRetries bounds write-off number generation attempts before
// the operation surfaces CODE_GENERATION_FAILED.
const defaultNumberRetries = 3

// WriteOffService is the reconciliation engine. It matches received payments
// against payment requests by recording write-off ledger entries and keeping
// the receipt's derived balance consistent, all within one transaction per
// operation.
type WriteOffService struct {
	uow            finance.UnitOfWork
	numberGen      finance.WriteOffNumberGenerator
	tracker        *finance.BalanceTracker
	numberRetries  int
	batchLockRetry bool
}

// WriteOffServiceOption is a functional option for configuring WriteOffService
type WriteOffServiceOption func(*WriteOffService)

// WithNumberRetries sets the write-off number generation retry budget
func WithNumberRetries(n int) WriteOffServiceOption {
	return func(s *WriteOffService) {
		if n > 0 {
			s.numberRetries = n
		}
	}
}

// WithBatchLockRetry enables one automatic retry of a batch item that failed
// with CONCURRENCY_CONFLICT. Off by default: contended items surface
// immediately as failures.
func WithBatchLockRetry(enabled bool) WriteOffServiceOption {
	return func(s *WriteOffService) {
		s.batchLockRetry = enabled
	}
}

// NewWriteOffService creates a new reconciliation engine
func NewWriteOffService(uow finance.UnitOfWork, numberGen finance.WriteOffNumberGenerator, opts ...WriteOffServiceOption) *WriteOffService {
	s := &WriteOffService{
		uow:           uow,
		numberGen:     numberGen,
		tracker:       finance.NewBalanceTracker(),
		numberRetries: defaultNumberRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteOffRequest represents a request to write off part of a receipt
type WriteOffRequest struct {
	ReceiptID uuid.UUID       `json:"receipt_id"`
	Amount    decimal.Decimal `json:"amount"`
	RequestID *uuid.UUID      `json:"request_id,omitempty"`
	Remark    string          `json:"remark,omitempty"`
	ActorID   uuid.UUID       `json:"-"` // Set from JWT context, not from request body
}

// BalanceResponse is a receipt balance snapshot in API responses
type BalanceResponse struct {
	ReceiptID uuid.UUID       `json:"receipt_id"`
	Total     decimal.Decimal `json:"total"`
	Used      decimal.Decimal `json:"used"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    string          `json:"status"`
}

// WriteOffResponse represents a ledger entry in API responses
type WriteOffResponse struct {
	ID                uuid.UUID       `json:"id"`
	WriteOffNo        string          `json:"write_off_no"`
	PaymentReceivedID uuid.UUID       `json:"payment_received_id"`
	PaymentRequestID  *uuid.UUID      `json:"payment_request_id,omitempty"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	ContractID        *uuid.UUID      `json:"contract_id,omitempty"`
	Amount            decimal.Decimal `json:"write_off_amount"`
	WriteOffDate      time.Time       `json:"write_off_date"`
	Status            string          `json:"status"`
	Remark            string          `json:"remark,omitempty"`
	WriteOffBy        uuid.UUID       `json:"write_off_by"`
	WriteOffAt        time.Time       `json:"write_off_at"`
	RevertedBy        *uuid.UUID      `json:"reverted_by,omitempty"`
	RevertedAt        *time.Time      `json:"reverted_at,omitempty"`
	RevertReason      string          `json:"revert_reason,omitempty"`
	Balance           *BalanceResponse `json:"balance,omitempty"`
}

// WriteOff validates and records a single write-off. The receipt row is
// locked for the duration of the transaction; on any failure no ledger row
// and no balance change survive.
func (s *WriteOffService) WriteOff(ctx context.Context, req WriteOffRequest) (*WriteOffResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if req.ActorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Operator ID is required")
	}

	var response *WriteOffResponse
	err := s.uow.Execute(ctx, func(repos finance.TxRepositories) error {
		receipt, err := repos.Receipts.FindByIDForUpdate(ctx, req.ReceiptID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrReceiptNotFound
			}
			return err
		}

		if !receipt.Status.CanWriteOff() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Receipt in status %s cannot be written off", receipt.Status))
		}

		if req.RequestID != nil {
			exists, err := repos.Requests.Exists(ctx, *req.RequestID)
			if err != nil {
				return err
			}
			if !exists {
				return shared.ErrRequestNotFound
			}
		}

		balance, err := s.tracker.ApplyDelta(receipt, req.Amount)
		if err != nil {
			return err
		}

		entry, err := s.createEntry(ctx, repos, receipt, req)
		if err != nil {
			return err
		}

		if err := repos.Receipts.UpdateBalance(ctx, receipt); err != nil {
			return err
		}

		response = toWriteOffResponse(entry)
		response.Balance = toBalanceResponse(receipt.ID, balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// createEntry generates a write-off number and inserts the ledger row,
// retrying generation a bounded number of times on collision.
func (s *WriteOffService) createEntry(ctx context.Context, repos finance.TxRepositories, receipt *finance.ReceivedPayment, req WriteOffRequest) (*finance.WriteOff, error) {
	for attempt := 0; attempt < s.numberRetries; attempt++ {
		writeOffNo, err := s.numberGen.Next(ctx, time.Now())
		if err != nil {
			return nil, fmt.Errorf("write-off number generation: %w", err)
		}

		taken, err := repos.WriteOffs.ExistsByNumber(ctx, writeOffNo)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		entry, err := finance.NewWriteOff(writeOffNo, receipt, req.RequestID,
			valueobject.NewMoneyCNY(req.Amount), req.Remark, req.ActorID)
		if err != nil {
			return nil, err
		}

		if err := repos.WriteOffs.Insert(ctx, entry); err != nil {
			// A racing insert can still slip past the existence check.
			// The unique index is authoritative; the transaction is already
			// doomed at this point, so surface it instead of looping.
			if errors.Is(err, shared.ErrAlreadyExists) {
				return nil, shared.ErrCodeGeneration
			}
			return nil, err
		}
		return entry, nil
	}
	return nil, shared.ErrCodeGeneration
}

// BatchWriteOffItem is one receipt/amount pair in a batch request
type BatchWriteOffItem struct {
	ReceiptID uuid.UUID       `json:"receipt_id"`
	Amount    decimal.Decimal `json:"amount"`
	RequestID *uuid.UUID      `json:"request_id,omitempty"`
	Remark    string          `json:"remark,omitempty"`
}

// BatchWriteOffRequest represents a batch write-off request
type BatchWriteOffRequest struct {
	Items   []BatchWriteOffItem `json:"items"`
	ActorID uuid.UUID           `json:"-"`
}

// BatchFailure describes one failed item in a batch result
type BatchFailure struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// BatchResult reports per-item outcomes of a batch operation
type BatchResult struct {
	SuccessCount int            `json:"success_count"`
	FailedItems  []BatchFailure `json:"failed_items"`
}

// BatchWriteOff processes each item as an independent transaction. One
// item's failure never rolls back its siblings; failures are collected by
// receipt identifier with the domain error code as reason.
func (s *WriteOffService) BatchWriteOff(ctx context.Context, req BatchWriteOffRequest) (*BatchResult, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "Batch contains no items")
	}

	result := &BatchResult{FailedItems: make([]BatchFailure, 0)}
	for _, item := range req.Items {
		_, err := s.WriteOff(ctx, WriteOffRequest{
			ReceiptID: item.ReceiptID,
			Amount:    item.Amount,
			RequestID: item.RequestID,
			Remark:    item.Remark,
			ActorID:   req.ActorID,
		})
		if err != nil && s.batchLockRetry && failureReason(err) == "CONCURRENCY_CONFLICT" {
			_, err = s.WriteOff(ctx, WriteOffRequest{
				ReceiptID: item.ReceiptID,
				Amount:    item.Amount,
				RequestID: item.RequestID,
				Remark:    item.Remark,
				ActorID:   req.ActorID,
			})
		}
		if err != nil {
			result.FailedItems = append(result.FailedItems, BatchFailure{
				Identifier: item.ReceiptID.String(),
				Reason:     failureReason(err),
			})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// RevertRequest represents a request to revert a ledger entry
type RevertRequest struct {
	WriteOffID uuid.UUID `json:"write_off_id"`
	Reason     string    `json:"reason,omitempty"`
	ActorID    uuid.UUID `json:"-"`
}

// Revert reverses a completed write-off, restoring its amount to the
// receipt's unclaimed balance. The ledger row stays visible with its
// terminal state for audit.
func (s *WriteOffService) Revert(ctx context.Context, req RevertRequest) (*WriteOffResponse, error) {
	if req.ActorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Operator ID is required")
	}

	var response *WriteOffResponse
	err := s.uow.Execute(ctx, func(repos finance.TxRepositories) error {
		entry, err := repos.WriteOffs.FindByID(ctx, req.WriteOffID)
		if err != nil {
			return err
		}

		receipt, err := repos.Receipts.FindByIDForUpdate(ctx, entry.PaymentReceivedID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrReceiptNotFound
			}
			return err
		}

		// Reload under the receipt lock: a concurrent revert may have
		// committed between the first read and the lock acquisition.
		entry, err = repos.WriteOffs.FindByID(ctx, req.WriteOffID)
		if err != nil {
			return err
		}

		if err := entry.Revert(req.ActorID, req.Reason); err != nil {
			return err
		}
		if err := repos.WriteOffs.UpdateStatus(ctx, entry); err != nil {
			return err
		}

		balance, err := s.tracker.ApplyDelta(receipt, entry.Amount.Neg())
		if err != nil {
			return err
		}
		if err := repos.Receipts.UpdateBalance(ctx, receipt); err != nil {
			return err
		}

		response = toWriteOffResponse(entry)
		response.Balance = toBalanceResponse(receipt.ID, balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// BatchRevertRequest represents a batch revert request
type BatchRevertRequest struct {
	WriteOffIDs []uuid.UUID `json:"write_off_ids"`
	Reason      string      `json:"reason,omitempty"`
	ActorID     uuid.UUID   `json:"-"`
}

// BatchRevert reverts each entry in its own transaction with the same
// continue-on-error contract as BatchWriteOff. Failures are keyed by the
// ledger entry identifier.
func (s *WriteOffService) BatchRevert(ctx context.Context, req BatchRevertRequest) (*BatchResult, error) {
	if len(req.WriteOffIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "Batch contains no items")
	}

	result := &BatchResult{FailedItems: make([]BatchFailure, 0)}
	for _, id := range req.WriteOffIDs {
		_, err := s.Revert(ctx, RevertRequest{
			WriteOffID: id,
			Reason:     req.Reason,
			ActorID:    req.ActorID,
		})
		if err != nil {
			result.FailedItems = append(result.FailedItems, BatchFailure{
				Identifier: id.String(),
				Reason:     failureReason(err),
			})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// failureReason maps an error to a stable batch failure reason string
func failureReason(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "UNKNOWN"
}

func toBalanceResponse(receiptID uuid.UUID, b finance.Balance) *BalanceResponse {
	return &BalanceResponse{
		ReceiptID: receiptID,
		Total:     b.Total,
		Used:      b.Used,
		Remaining: b.Remaining,
		Status:    b.Status.String(),
	}
}

func toWriteOffResponse(w *finance.WriteOff) *WriteOffResponse {
	return &WriteOffResponse{
		ID:                w.ID,
		WriteOffNo:        w.WriteOffNo,
		PaymentReceivedID: w.PaymentReceivedID,
		PaymentRequestID:  w.PaymentRequestID,
		CustomerID:        w.CustomerID,
		ContractID:        w.ContractID,
		Amount:            w.Amount,
		WriteOffDate:      w.WriteOffDate,
		Status:            w.Status.String(),
		Remark:            w.Remark,
		WriteOffBy:        w.WriteOffBy,
		WriteOffAt:        w.WriteOffAt,
		RevertedBy:        w.RevertedBy,
		RevertedAt:        w.RevertedAt,
		RevertReason:      w.RevertReason,
	}
}
