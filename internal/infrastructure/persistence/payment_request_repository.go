package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRequestRepository implements PaymentRequestRepository using GORM.
// Read-only: the intake workflow owns payment request rows.
type GormPaymentRequestRepository struct {
	db *gorm.DB
}

// NewGormPaymentRequestRepository creates a new GormPaymentRequestRepository
func NewGormPaymentRequestRepository(db *gorm.DB) *GormPaymentRequestRepository {
	return &GormPaymentRequestRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormPaymentRequestRepository) WithTx(tx *gorm.DB) *GormPaymentRequestRepository {
	return &GormPaymentRequestRepository{db: tx}
}

// FindByID finds a payment request by its ID
func (r *GormPaymentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.PaymentRequest, error) {
	var model models.PaymentRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists checks whether a payment request exists
func (r *GormPaymentRequestRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentRequestModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
