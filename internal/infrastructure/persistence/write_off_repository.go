package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/infrastructure/persistence/models"
)

// GormWriteOffRepository implements WriteOffRepository using GORM
type GormWriteOffRepository struct {
	db *gorm.DB
}

// NewGormWriteOffRepository creates a new GormWriteOffRepository
func NewGormWriteOffRepository(db *gorm.DB) *GormWriteOffRepository {
	return &GormWriteOffRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormWriteOffRepository) WithTx(tx *gorm.DB) *GormWriteOffRepository {
	return &GormWriteOffRepository{db: tx}
}

// Insert appends a new ledger entry. The unique index on write_off_no
// surfaces duplicate numbers as shared.ErrAlreadyExists.
func (r *GormWriteOffRepository) Insert(ctx context.Context, writeOff *finance.WriteOff) error {
	model := models.WriteOffModelFromDomain(writeOff)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a ledger entry by its ID
func (r *GormWriteOffRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.WriteOff, error) {
	var model models.WriteOffModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a ledger entry by its write-off number
func (r *GormWriteOffRepository) FindByNumber(ctx context.Context, writeOffNo string) (*finance.WriteOff, error) {
	var model models.WriteOffModel
	if err := r.db.WithContext(ctx).First(&model, "write_off_no = ?", writeOffNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReceipt returns a receipt's full ledger, newest first
func (r *GormWriteOffRepository) FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]finance.WriteOff, error) {
	var writeOffModels []models.WriteOffModel
	if err := r.db.WithContext(ctx).
		Where("payment_received_id = ?", receiptID).
		Order("write_off_at DESC").
		Find(&writeOffModels).Error; err != nil {
		return nil, err
	}
	return toDomainWriteOffs(writeOffModels), nil
}

// FindAll returns ledger entries matching the filter, newest first
func (r *GormWriteOffRepository) FindAll(ctx context.Context, filter finance.WriteOffFilter) ([]finance.WriteOff, error) {
	var writeOffModels []models.WriteOffModel
	query := r.filterQuery(ctx, filter).
		Order("write_off_at DESC").
		Limit(filter.Limit()).
		Offset(filter.Offset())
	if err := query.Find(&writeOffModels).Error; err != nil {
		return nil, err
	}
	return toDomainWriteOffs(writeOffModels), nil
}

// Count counts ledger entries matching the filter
func (r *GormWriteOffRepository) Count(ctx context.Context, filter finance.WriteOffFilter) (int64, error) {
	var count int64
	if err := r.filterQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormWriteOffRepository) filterQuery(ctx context.Context, filter finance.WriteOffFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.WriteOffModel{})
	if filter.PaymentReceivedID != nil {
		query = query.Where("payment_received_id = ?", *filter.PaymentReceivedID)
	}
	if filter.PaymentRequestID != nil {
		query = query.Where("payment_request_id = ?", *filter.PaymentRequestID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("write_off_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("write_off_date <= ?", *filter.ToDate)
	}
	return query
}

// UpdateStatus persists a revert: status and revert metadata only. The
// amount and receipt reference of a ledger entry never change.
func (r *GormWriteOffRepository) UpdateStatus(ctx context.Context, writeOff *finance.WriteOff) error {
	result := r.db.WithContext(ctx).
		Model(&models.WriteOffModel{}).
		Where("id = ? AND version = ?", writeOff.ID, writeOff.Version-1).
		Updates(map[string]interface{}{
			"status":        writeOff.Status,
			"reverted_by":   writeOff.RevertedBy,
			"reverted_at":   writeOff.RevertedAt,
			"revert_reason": writeOff.RevertReason,
			"version":       writeOff.Version,
			"updated_at":    writeOff.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SumActiveByReceipt sums the amounts of completed entries for a receipt
func (r *GormWriteOffRepository) SumActiveByReceipt(ctx context.Context, receiptID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.WriteOffModel{}).
		Select("SUM(amount)").
		Where("payment_received_id = ? AND status = ?", receiptID, finance.WriteOffStatusCompleted).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// ExistsByNumber checks whether a write-off number is already taken
func (r *GormWriteOffRepository) ExistsByNumber(ctx context.Context, writeOffNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WriteOffModel{}).
		Where("write_off_no = ?", writeOffNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MaxSequenceForDay returns the highest sequence already allocated for the
// given prefix and day, 0 if none. Sequences can outgrow their four-digit
// padding, so the scan orders by length first and parses the whole suffix.
func (r *GormWriteOffRepository) MaxSequenceForDay(ctx context.Context, prefix, day string) (int, error) {
	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.WriteOffModel{}).
		Select("write_off_no").
		Where("write_off_no LIKE ?", fmt.Sprintf("%s-%s-%%", prefix, day)).
		Order("LENGTH(write_off_no) DESC, write_off_no DESC").
		Limit(1).
		Scan(&maxNumber).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if maxNumber == "" {
		return 0, nil
	}

	suffix := maxNumber[strings.LastIndex(maxNumber, "-")+1:]
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("malformed write-off number %q: %w", maxNumber, err)
	}
	return seq, nil
}

func toDomainWriteOffs(writeOffModels []models.WriteOffModel) []finance.WriteOff {
	writeOffs := make([]finance.WriteOff, len(writeOffModels))
	for i, model := range writeOffModels {
		writeOffs[i] = *model.ToDomain()
	}
	return writeOffs
}
