package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/ipagency/backend/internal/domain/finance"
)

// GormUnitOfWork implements finance.UnitOfWork on top of a GORM transaction.
// Each Execute call opens one transaction and hands the callback repositories
// bound to it, so row locks taken inside the callback are held until commit.
type GormUnitOfWork struct {
	db       *Database
	receipts *GormReceivedPaymentRepository
	entries  *GormWriteOffRepository
	requests *GormPaymentRequestRepository
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *Database) *GormUnitOfWork {
	return &GormUnitOfWork{
		db:       db,
		receipts: NewGormReceivedPaymentRepository(db.DB),
		entries:  NewGormWriteOffRepository(db.DB),
		requests: NewGormPaymentRequestRepository(db.DB),
	}
}

// Execute runs fn within a database transaction. Any error rolls the whole
// transaction back.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos finance.TxRepositories) error) error {
	return u.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(finance.TxRepositories{
			Receipts:  u.receipts.WithTx(tx),
			WriteOffs: u.entries.WithTx(tx),
			Requests:  u.requests.WithTx(tx),
		})
	})
}
