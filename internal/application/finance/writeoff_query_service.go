package finance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/domain/shared"
)

// WriteOffQueryService is the read-only reporting façade over receipts and
// the write-off ledger. It carries no invariant logic.
type WriteOffQueryService struct {
	receipts  finance.ReceivedPaymentRepository
	writeOffs finance.WriteOffRepository
}

// NewWriteOffQueryService creates a new query service
func NewWriteOffQueryService(receipts finance.ReceivedPaymentRepository, writeOffs finance.WriteOffRepository) *WriteOffQueryService {
	return &WriteOffQueryService{
		receipts:  receipts,
		writeOffs: writeOffs,
	}
}

// PendingReceiptResponse represents a receipt awaiting write-off in list views
type PendingReceiptResponse struct {
	ID              uuid.UUID       `json:"id"`
	ReceiptNo       string          `json:"receipt_no"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	ContractID      *uuid.UUID      `json:"contract_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	ClaimedAmount   decimal.Decimal `json:"claimed_amount"`
	UnclaimedAmount decimal.Decimal `json:"unclaimed_amount"`
	Status          string          `json:"status"`
	ReceivedAt      time.Time       `json:"received_at"`
	Remark          string          `json:"remark,omitempty"`
}

// PendingReceiptListFilter defines list options for the pending view
type PendingReceiptListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	ContractID *uuid.UUID `form:"contract_id"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// WriteOffListFilter defines list options for the ledger view
type WriteOffListFilter struct {
	ReceiptID  *uuid.UUID `form:"receipt_id"`
	RequestID  *uuid.UUID `form:"request_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     *int       `form:"status"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// GetBalance returns the current balance snapshot for a receipt
func (s *WriteOffQueryService) GetBalance(ctx context.Context, receiptID uuid.UUID) (*BalanceResponse, error) {
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return toBalanceResponse(receipt.ID, receipt.Balance()), nil
}

// ListPendingReceipts lists receipts with a positive unclaimed amount
func (s *WriteOffQueryService) ListPendingReceipts(ctx context.Context, filter PendingReceiptListFilter) (*shared.Paginated[PendingReceiptResponse], error) {
	domainFilter := finance.PendingReceiptFilter{
		CustomerID: filter.CustomerID,
		ContractID: filter.ContractID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize

	receipts, err := s.receipts.FindPending(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.receipts.CountPending(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]PendingReceiptResponse, len(receipts))
	for i, r := range receipts {
		items[i] = PendingReceiptResponse{
			ID:              r.ID,
			ReceiptNo:       r.ReceiptNo,
			CustomerID:      r.CustomerID,
			ContractID:      r.ContractID,
			Amount:          r.Amount,
			ClaimedAmount:   r.ClaimedAmount,
			UnclaimedAmount: r.UnclaimedAmount,
			Status:          r.Status.String(),
			ReceivedAt:      r.ReceivedAt,
			Remark:          r.Remark,
		}
	}

	result := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// ListWriteOffs lists ledger entries matching the filter
func (s *WriteOffQueryService) ListWriteOffs(ctx context.Context, filter WriteOffListFilter) (*shared.Paginated[WriteOffResponse], error) {
	domainFilter := finance.WriteOffFilter{
		PaymentReceivedID: filter.ReceiptID,
		PaymentRequestID:  filter.RequestID,
		CustomerID:        filter.CustomerID,
		FromDate:          filter.FromDate,
		ToDate:            filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize

	if filter.Status != nil {
		status := finance.WriteOffStatus(*filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown write-off status filter")
		}
		domainFilter.Status = &status
	}

	entries, err := s.writeOffs.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.writeOffs.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]WriteOffResponse, len(entries))
	for i := range entries {
		items[i] = *toWriteOffResponse(&entries[i])
	}

	result := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// GetWriteOff fetches a single ledger entry for audit display
func (s *WriteOffQueryService) GetWriteOff(ctx context.Context, id uuid.UUID) (*WriteOffResponse, error) {
	entry, err := s.writeOffs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWriteOffResponse(entry), nil
}

// SumActiveByReceipt totals the completed entries of a receipt. The result
// must equal the receipt's stored claimed amount; reporting callers use it
// to cross-check the derived balance.
func (s *WriteOffQueryService) SumActiveByReceipt(ctx context.Context, receiptID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.receipts.FindByID(ctx, receiptID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.ErrReceiptNotFound
		}
		return decimal.Zero, err
	}
	return s.writeOffs.SumActiveByReceipt(ctx, receiptID)
}

// ListByReceipt returns a receipt's full ledger, newest first
func (s *WriteOffQueryService) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]WriteOffResponse, error) {
	if _, err := s.receipts.FindByID(ctx, receiptID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrReceiptNotFound
		}
		return nil, err
	}
	entries, err := s.writeOffs.FindByReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	items := make([]WriteOffResponse, len(entries))
	for i := range entries {
		items[i] = *toWriteOffResponse(&entries[i])
	}
	return items, nil
}
