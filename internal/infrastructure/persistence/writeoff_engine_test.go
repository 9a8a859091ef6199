package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	financeapp "github.com/ipagency/backend/internal/application/finance"
	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/infrastructure/persistence/models"
)

// serialNumberGen hands out strictly increasing numbers and is safe for
// concurrent callers, so competing write-offs never collide on the number.
type serialNumberGen struct {
	mu sync.Mutex
	n  int
}

func (g *serialNumberGen) Next(_ context.Context, date time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("WO-%s-%04d", date.Format("20060102"), g.n), nil
}

// setupEngine wires the write-off service to a real transactional unit of
// work over sqlite. The pool is pinned to one connection: the in-memory
// database stays shared and competing transactions serialize the same way
// postgres row locks serialize them.
func setupEngine(t *testing.T) (*financeapp.WriteOffService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	uow := NewGormUnitOfWork(&Database{DB: db})
	return financeapp.NewWriteOffService(uow, &serialNumberGen{}), db
}

func TestWriteOffServiceConcurrentOverdraw(t *testing.T) {
	ctx := context.Background()
	svc, db := setupEngine(t)
	receipt := createReceipt(t, db, 100)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.WriteOff(ctx, financeapp.WriteOffRequest{
				ReceiptID: receipt.ID,
				Amount:    decimal.NewFromInt(60),
				ActorID:   uuid.New(),
			})
			errs <- err
		}()
	}

	var succeeded int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			succeeded++
			continue
		}
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Contains(t, []string{"INSUFFICIENT_BALANCE", "CONCURRENCY_CONFLICT"}, domainErr.Code)
	}
	assert.Equal(t, 1, succeeded, "exactly one of two competing write-offs may claim the balance")

	found, err := NewGormReceivedPaymentRepository(db).FindByID(ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, found.ClaimedAmount.Equal(decimal.NewFromInt(60)))
	assert.True(t, found.UnclaimedAmount.Equal(decimal.NewFromInt(40)))

	entries, err := NewGormWriteOffRepository(db).FindByReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the losing attempt must leave no ledger row")
}

func TestWriteOffServiceSoftDeletedReceipt(t *testing.T) {
	ctx := context.Background()
	svc, db := setupEngine(t)
	receipt := createReceipt(t, db, 100)

	require.NoError(t, db.Delete(&models.ReceivedPaymentModel{}, "id = ?", receipt.ID).Error)

	_, err := svc.WriteOff(ctx, financeapp.WriteOffRequest{
		ReceiptID: receipt.ID,
		Amount:    decimal.NewFromInt(10),
		ActorID:   uuid.New(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "RECEIPT_NOT_FOUND", domainErr.Code)

	entries, err := NewGormWriteOffRepository(db).FindByReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
