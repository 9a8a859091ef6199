package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/domain/shared"
)

// PendingReceiptFilter defines filtering options for pending-list queries
type PendingReceiptFilter struct {
	shared.Filter
	CustomerID *uuid.UUID // Filter by customer
	ContractID *uuid.UUID // Filter by contract
	FromDate   *time.Time // Filter by received date range start
	ToDate     *time.Time // Filter by received date range end
}

// WriteOffFilter defines filtering options for ledger queries
type WriteOffFilter struct {
	shared.Filter
	PaymentReceivedID *uuid.UUID      // Filter by owning receipt
	PaymentRequestID  *uuid.UUID      // Filter by matched request
	CustomerID        *uuid.UUID      // Filter by customer
	Status            *WriteOffStatus // Filter by entry status
	FromDate          *time.Time      // Filter by write-off date range start
	ToDate            *time.Time      // Filter by write-off date range end
}

// ReceivedPaymentRepository defines persistence for receipts. The balance
// fields are only written back by the reconciliation engine, inside the same
// transaction that locked the row.
type ReceivedPaymentRepository interface {
	// FindByID finds a receipt by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ReceivedPayment, error)

	// FindByIDForUpdate finds a receipt and takes an exclusive row lock.
	// Must be called inside a transaction; the lock is held until commit.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ReceivedPayment, error)

	// FindPending finds receipts with a positive unclaimed amount
	FindPending(ctx context.Context, filter PendingReceiptFilter) ([]ReceivedPayment, error)

	// CountPending counts receipts with a positive unclaimed amount
	CountPending(ctx context.Context, filter PendingReceiptFilter) (int64, error)

	// Save creates or updates a receipt
	Save(ctx context.Context, payment *ReceivedPayment) error

	// UpdateBalance persists the derived balance fields and status
	UpdateBalance(ctx context.Context, payment *ReceivedPayment) error
}

// WriteOffRepository defines persistence for the write-off ledger
type WriteOffRepository interface {
	// Insert appends a new ledger entry
	Insert(ctx context.Context, writeOff *WriteOff) error

	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*WriteOff, error)

	// FindByNumber finds a ledger entry by its write-off number
	FindByNumber(ctx context.Context, writeOffNo string) (*WriteOff, error)

	// FindByReceipt returns all entries for a receipt, newest first
	FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]WriteOff, error)

	// FindAll returns ledger entries matching the filter
	FindAll(ctx context.Context, filter WriteOffFilter) ([]WriteOff, error)

	// Count counts ledger entries matching the filter
	Count(ctx context.Context, filter WriteOffFilter) (int64, error)

	// UpdateStatus persists a status flip with its revert metadata
	UpdateStatus(ctx context.Context, writeOff *WriteOff) error

	// SumActiveByReceipt sums completed entries for a receipt
	SumActiveByReceipt(ctx context.Context, receiptID uuid.UUID) (decimal.Decimal, error)

	// ExistsByNumber checks whether a write-off number is already taken
	ExistsByNumber(ctx context.Context, writeOffNo string) (bool, error)

	// MaxSequenceForDay returns the highest per-day sequence already issued
	// for numbers carrying the given date segment. Used by the DB-backed
	// number generator.
	MaxSequenceForDay(ctx context.Context, prefix, day string) (int, error)
}

// PaymentRequestRepository provides read-only access to payment requests
type PaymentRequestRepository interface {
	// FindByID finds a payment request by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRequest, error)

	// Exists checks whether a payment request exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TxRepositories bundles the repositories bound to one transaction
type TxRepositories struct {
	Receipts  ReceivedPaymentRepository
	WriteOffs WriteOffRepository
	Requests  PaymentRequestRepository
}

// UnitOfWork executes a function within a single database transaction. All
// repository calls made through the provided TxRepositories share that
// transaction; any error rolls the whole unit back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos TxRepositories) error) error
}

// WriteOffNumberGenerator allocates candidate write-off numbers. Uniqueness
// is still enforced by the ledger's unique index; the engine retries a
// bounded number of times on collision.
type WriteOffNumberGenerator interface {
	Next(ctx context.Context, date time.Time) (string, error)
}
