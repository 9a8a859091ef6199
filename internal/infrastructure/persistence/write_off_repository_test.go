package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ipagency/backend/internal/domain/finance"
	"github.com/ipagency/backend/internal/domain/shared"
	"github.com/ipagency/backend/internal/domain/shared/valueobject"
	"github.com/ipagency/backend/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ReceivedPaymentModel{},
		&models.WriteOffModel{},
		&models.PaymentRequestModel{},
	)
	require.NoError(t, err)
	return db
}

func createReceipt(t *testing.T, db *gorm.DB, amount float64) *finance.ReceivedPayment {
	t.Helper()
	receipt, err := finance.NewReceivedPayment(
		fmt.Sprintf("RC-%s", uuid.New().String()[:8]),
		uuid.New(),
		nil,
		valueobject.NewMoneyCNYFromFloat(amount),
		time.Now(),
	)
	require.NoError(t, err)
	require.NoError(t, NewGormReceivedPaymentRepository(db).Save(context.Background(), receipt))
	return receipt
}

func createEntry(t *testing.T, db *gorm.DB, receipt *finance.ReceivedPayment, no string, amount float64) *finance.WriteOff {
	t.Helper()
	entry, err := finance.NewWriteOff(no, receipt, nil,
		valueobject.NewMoneyCNYFromFloat(amount), "", uuid.New())
	require.NoError(t, err)
	require.NoError(t, NewGormWriteOffRepository(db).Insert(context.Background(), entry))
	return entry
}

func TestGormWriteOffRepository_Insert(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormWriteOffRepository(db)
	receipt := createReceipt(t, db, 1000)

	entry := createEntry(t, db, receipt, "WO-20260829-0001", 100)

	t.Run("round-trips all fields", func(t *testing.T) {
		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, "WO-20260829-0001", found.WriteOffNo)
		assert.Equal(t, receipt.ID, found.PaymentReceivedID)
		assert.Equal(t, receipt.CustomerID, found.CustomerID)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, finance.WriteOffStatusCompleted, found.Status)
	})

	t.Run("duplicate number is rejected by the unique index", func(t *testing.T) {
		dup, err := finance.NewWriteOff("WO-20260829-0001", receipt, nil,
			valueobject.NewMoneyCNYFromFloat(50), "", uuid.New())
		require.NoError(t, err)

		err = repo.Insert(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("finds by number", func(t *testing.T) {
		found, err := repo.FindByNumber(ctx, "WO-20260829-0001")
		require.NoError(t, err)
		assert.Equal(t, entry.ID, found.ID)

		_, err = repo.FindByNumber(ctx, "WO-00000000-9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("exists by number", func(t *testing.T) {
		taken, err := repo.ExistsByNumber(ctx, "WO-20260829-0001")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.ExistsByNumber(ctx, "WO-00000000-9999")
		require.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestGormWriteOffRepository_Queries(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormWriteOffRepository(db)
	receipt := createReceipt(t, db, 1000)
	other := createReceipt(t, db, 500)

	first := createEntry(t, db, receipt, "WO-20260829-0001", 100)
	createEntry(t, db, receipt, "WO-20260829-0002", 200)
	createEntry(t, db, other, "WO-20260829-0003", 50)

	t.Run("finds by receipt", func(t *testing.T) {
		entries, err := repo.FindByReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("filters by receipt and status", func(t *testing.T) {
		status := finance.WriteOffStatusCompleted
		entries, err := repo.FindAll(ctx, finance.WriteOffFilter{
			PaymentReceivedID: &receipt.ID,
			Status:            &status,
		})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		count, err := repo.Count(ctx, finance.WriteOffFilter{PaymentReceivedID: &receipt.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("filters by customer", func(t *testing.T) {
		entries, err := repo.FindAll(ctx, finance.WriteOffFilter{CustomerID: &other.CustomerID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "WO-20260829-0003", entries[0].WriteOffNo)
	})

	t.Run("sums only completed entries", func(t *testing.T) {
		sum, err := repo.SumActiveByReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(300)))

		require.NoError(t, first.Revert(uuid.New(), "test"))
		require.NoError(t, repo.UpdateStatus(ctx, first))

		sum, err = repo.SumActiveByReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(200)))
	})

	t.Run("sum of receipt without entries is zero", func(t *testing.T) {
		empty := createReceipt(t, db, 100)
		sum, err := repo.SumActiveByReceipt(ctx, empty.ID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("max sequence for day", func(t *testing.T) {
		seq, err := repo.MaxSequenceForDay(ctx, "WO", "20260829")
		require.NoError(t, err)
		assert.Equal(t, 3, seq)

		seq, err = repo.MaxSequenceForDay(ctx, "WO", "19990101")
		require.NoError(t, err)
		assert.Equal(t, 0, seq)
	})

	t.Run("sequence survives outgrowing four digits", func(t *testing.T) {
		// "WO-...-9999" sorts after "WO-...-10000" lexically; the
		// length-first ordering must still find the real maximum.
		createEntry(t, db, receipt, "WO-20260830-9999", 1)
		createEntry(t, db, receipt, "WO-20260830-10000", 1)

		seq, err := repo.MaxSequenceForDay(ctx, "WO", "20260830")
		require.NoError(t, err)
		assert.Equal(t, 10000, seq)
	})
}

func TestGormWriteOffRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormWriteOffRepository(db)
	receipt := createReceipt(t, db, 1000)
	entry := createEntry(t, db, receipt, "WO-20260829-0001", 100)

	actorID := uuid.New()
	require.NoError(t, entry.Revert(actorID, "wrong receipt"))
	require.NoError(t, repo.UpdateStatus(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.WriteOffStatusReverted, found.Status)
	require.NotNil(t, found.RevertedBy)
	assert.Equal(t, actorID, *found.RevertedBy)
	assert.Equal(t, "wrong receipt", found.RevertReason)

	t.Run("stale version is rejected", func(t *testing.T) {
		stale := *entry
		stale.Version = 99
		err := repo.UpdateStatus(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormReceivedPaymentRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormReceivedPaymentRepository(db)

	t.Run("find by id", func(t *testing.T) {
		receipt := createReceipt(t, db, 800)
		found, err := repo.FindByID(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Equal(t, receipt.ReceiptNo, found.ReceiptNo)
		assert.True(t, found.UnclaimedAmount.Equal(decimal.NewFromInt(800)))

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update balance persists derived fields", func(t *testing.T) {
		receipt := createReceipt(t, db, 300)
		tracker := finance.NewBalanceTracker()
		_, err := tracker.ApplyDelta(receipt, decimal.NewFromInt(300))
		require.NoError(t, err)

		require.NoError(t, repo.UpdateBalance(ctx, receipt))

		found, err := repo.FindByID(ctx, receipt.ID)
		require.NoError(t, err)
		assert.True(t, found.UnclaimedAmount.IsZero())
		assert.Equal(t, finance.ReceiptStatusFullyWrittenOff, found.Status)
		assert.Equal(t, receipt.Version, found.Version)
	})

	t.Run("stale balance update is rejected", func(t *testing.T) {
		receipt := createReceipt(t, db, 300)
		stale := *receipt
		stale.Version = 99
		err := repo.UpdateBalance(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("pending excludes exhausted receipts", func(t *testing.T) {
		fresh := setupTestDB(t)
		freshRepo := NewGormReceivedPaymentRepository(fresh)

		open := createReceipt(t, fresh, 100)
		exhausted := createReceipt(t, fresh, 100)
		tracker := finance.NewBalanceTracker()
		_, err := tracker.ApplyDelta(exhausted, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, freshRepo.UpdateBalance(ctx, exhausted))

		pending, err := freshRepo.FindPending(ctx, finance.PendingReceiptFilter{})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, open.ID, pending[0].ID)

		count, err := freshRepo.CountPending(ctx, finance.PendingReceiptFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("soft-deleted receipt is invisible", func(t *testing.T) {
		fresh := setupTestDB(t)
		freshRepo := NewGormReceivedPaymentRepository(fresh)
		receipt := createReceipt(t, fresh, 100)

		require.NoError(t, fresh.Delete(&models.ReceivedPaymentModel{}, "id = ?", receipt.ID).Error)

		_, err := freshRepo.FindByID(ctx, receipt.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = freshRepo.FindByIDForUpdate(ctx, receipt.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		count, err := freshRepo.CountPending(ctx, finance.PendingReceiptFilter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("pending filters by customer", func(t *testing.T) {
		fresh := setupTestDB(t)
		freshRepo := NewGormReceivedPaymentRepository(fresh)
		target := createReceipt(t, fresh, 100)
		createReceipt(t, fresh, 100)

		pending, err := freshRepo.FindPending(ctx, finance.PendingReceiptFilter{
			CustomerID: &target.CustomerID,
		})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, target.ID, pending[0].ID)
	})
}

func TestGormPaymentRequestRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormPaymentRequestRepository(db)

	request := &models.PaymentRequestModel{
		RequestNo: "PR-20260829-0001",
		Title:     "Patent annuity batch",
		Amount:    decimal.NewFromInt(5000),
	}
	request.ID = uuid.New()
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()
	require.NoError(t, db.Create(request).Error)

	found, err := repo.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "PR-20260829-0001", found.RequestNo)

	exists, err := repo.Exists(ctx, request.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	uow := NewGormUnitOfWork(&Database{DB: db})
	receipt := createReceipt(t, db, 500)

	t.Run("commits on success", func(t *testing.T) {
		err := uow.Execute(ctx, func(repos finance.TxRepositories) error {
			locked, err := repos.Receipts.FindByIDForUpdate(ctx, receipt.ID)
			if err != nil {
				return err
			}
			tracker := finance.NewBalanceTracker()
			if _, err := tracker.ApplyDelta(locked, decimal.NewFromInt(100)); err != nil {
				return err
			}
			return repos.Receipts.UpdateBalance(ctx, locked)
		})
		require.NoError(t, err)

		found, err := NewGormReceivedPaymentRepository(db).FindByID(ctx, receipt.ID)
		require.NoError(t, err)
		assert.True(t, found.ClaimedAmount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := fmt.Errorf("boom")
		err := uow.Execute(ctx, func(repos finance.TxRepositories) error {
			locked, err := repos.Receipts.FindByIDForUpdate(ctx, receipt.ID)
			if err != nil {
				return err
			}
			tracker := finance.NewBalanceTracker()
			if _, err := tracker.ApplyDelta(locked, decimal.NewFromInt(100)); err != nil {
				return err
			}
			if err := repos.Receipts.UpdateBalance(ctx, locked); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := NewGormReceivedPaymentRepository(db).FindByID(ctx, receipt.ID)
		require.NoError(t, err)
		assert.True(t, found.ClaimedAmount.Equal(decimal.NewFromInt(100)),
			"first committed delta survives, the rolled back one does not")
	})
}

func TestSequenceNumberGenerator(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	gen := NewSequenceNumberGenerator(db, "WO")
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	no, err := gen.Next(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "WO-20260829-0001", no)

	receipt := createReceipt(t, db, 1000)
	createEntry(t, db, receipt, no, 100)

	no, err = gen.Next(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "WO-20260829-0002", no)

	t.Run("sequences are per day", func(t *testing.T) {
		no, err := gen.Next(ctx, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, "WO-20260830-0001", no)
	})
}
