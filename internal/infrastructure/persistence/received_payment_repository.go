package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/infrastructure/persistence/models"
)

// GormReceivedPaymentRepository implements ReceivedPaymentRepository using GORM
type GormReceivedPaymentRepository struct {
	db *gorm.DB
}

// NewGormReceivedPaymentRepository creates a new GormReceivedPaymentRepository
func NewGormReceivedPaymentRepository(db *gorm.DB) *GormReceivedPaymentRepository {
	return &GormReceivedPaymentRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormReceivedPaymentRepository) WithTx(tx *gorm.DB) *GormReceivedPaymentRepository {
	return &GormReceivedPaymentRepository{db: tx}
}

// FindByID finds a receipt by its ID
func (r *GormReceivedPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ReceivedPayment, error) {
	var model models.ReceivedPaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a receipt under a row lock. Must be called inside
// a transaction; the lock is held until the transaction ends. SQLite has no
// FOR UPDATE, its transactions already serialize writers.
func (r *GormReceivedPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.ReceivedPayment, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model models.ReceivedPaymentModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending finds receipts with a positive unclaimed amount
func (r *GormReceivedPaymentRepository) FindPending(ctx context.Context, filter finance.PendingReceiptFilter) ([]finance.ReceivedPayment, error) {
	var paymentModels []models.ReceivedPaymentModel
	query := r.pendingQuery(ctx, filter).
		Order("received_at ASC").
		Limit(filter.Limit()).
		Offset(filter.Offset())
	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]finance.ReceivedPayment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// CountPending counts receipts with a positive unclaimed amount
func (r *GormReceivedPaymentRepository) CountPending(ctx context.Context, filter finance.PendingReceiptFilter) (int64, error) {
	var count int64
	if err := r.pendingQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormReceivedPaymentRepository) pendingQuery(ctx context.Context, filter finance.PendingReceiptFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.ReceivedPaymentModel{}).
		Where("unclaimed_amount > 0")
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.FromDate != nil {
		query = query.Where("received_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("received_at <= ?", *filter.ToDate)
	}
	return query
}

// Save creates or updates a receipt
func (r *GormReceivedPaymentRepository) Save(ctx context.Context, payment *finance.ReceivedPayment) error {
	model := models.ReceivedPaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateBalance persists the derived balance fields and status. The version
// check guards against lost updates when the caller skipped the row lock.
func (r *GormReceivedPaymentRepository) UpdateBalance(ctx context.Context, payment *finance.ReceivedPayment) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReceivedPaymentModel{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(map[string]interface{}{
			"claimed_amount":   payment.ClaimedAmount,
			"unclaimed_amount": payment.UnclaimedAmount,
			"status":           payment.Status,
			"version":          payment.Version,
			"updated_at":       payment.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
