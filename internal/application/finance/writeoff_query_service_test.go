package finance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryService(t *testing.T) (*WriteOffQueryService, *WriteOffService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	engine := NewWriteOffService(&fakeUnitOfWork{store: store}, &seqNumberGen{prefix: "WO-20260829"})
	query := NewWriteOffQueryService(&fakeReceiptRepo{store: store}, &fakeWriteOffRepo{store: store})
	return query, engine, store
}

func TestWriteOffQueryService_GetBalance(t *testing.T) {
	ctx := context.Background()
	query, engine, store := newTestQueryService(t)
	receipt := seedReceipt(t, store, 500)

	_, err := engine.WriteOff(ctx, WriteOffRequest{
		ReceiptID: receipt.ID,
		Amount:    decimal.NewFromInt(200),
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	balance, err := query.GetBalance(ctx, receipt.ID)
	require.NoError(t, err)

	assert.True(t, balance.Total.Equal(decimal.NewFromInt(500)))
	assert.True(t, balance.Used.Equal(decimal.NewFromInt(200)))
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "CLAIMED", balance.Status)

	_, err = query.GetBalance(ctx, uuid.New())
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestWriteOffQueryService_ListPendingReceipts(t *testing.T) {
	ctx := context.Background()
	query, engine, store := newTestQueryService(t)
	open := seedReceipt(t, store, 100)
	exhausted := seedReceipt(t, store, 100)

	_, err := engine.WriteOff(ctx, WriteOffRequest{
		ReceiptID: exhausted.ID,
		Amount:    decimal.NewFromInt(100),
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	page, err := query.ListPendingReceipts(ctx, PendingReceiptListFilter{})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, open.ID, page.Items[0].ID)
	assert.Equal(t, int64(1), page.Total)
}

func TestWriteOffQueryService_SumActiveByReceipt(t *testing.T) {
	ctx := context.Background()
	query, engine, store := newTestQueryService(t)
	receipt := seedReceipt(t, store, 500)

	first, err := engine.WriteOff(ctx, WriteOffRequest{
		ReceiptID: receipt.ID, Amount: decimal.NewFromInt(200), ActorID: uuid.New(),
	})
	require.NoError(t, err)
	_, err = engine.WriteOff(ctx, WriteOffRequest{
		ReceiptID: receipt.ID, Amount: decimal.NewFromInt(100), ActorID: uuid.New(),
	})
	require.NoError(t, err)

	sum, err := query.SumActiveByReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(300)))
	assert.True(t, sum.Equal(store.receipts[receipt.ID].ClaimedAmount),
		"ledger sum must agree with the stored claimed amount")

	_, err = engine.Revert(ctx, RevertRequest{WriteOffID: first.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	sum, err = query.SumActiveByReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(100)))

	_, err = query.SumActiveByReceipt(ctx, uuid.New())
	assertDomainCode(t, err, "RECEIPT_NOT_FOUND")
}

func TestWriteOffQueryService_ListWriteOffs(t *testing.T) {
	ctx := context.Background()
	query, engine, store := newTestQueryService(t)
	receipt := seedReceipt(t, store, 300)

	first, err := engine.WriteOff(ctx, WriteOffRequest{
		ReceiptID: receipt.ID, Amount: decimal.NewFromInt(100), ActorID: uuid.New(),
	})
	require.NoError(t, err)
	_, err = engine.WriteOff(ctx, WriteOffRequest{
		ReceiptID: receipt.ID, Amount: decimal.NewFromInt(50), ActorID: uuid.New(),
	})
	require.NoError(t, err)
	_, err = engine.Revert(ctx, RevertRequest{WriteOffID: first.ID, ActorID: uuid.New()})
	require.NoError(t, err)

	t.Run("filters by status", func(t *testing.T) {
		reverted := 2
		page, err := query.ListWriteOffs(ctx, WriteOffListFilter{Status: &reverted})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, first.ID, page.Items[0].ID)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		bogus := 9
		_, err := query.ListWriteOffs(ctx, WriteOffListFilter{Status: &bogus})
		assertDomainCode(t, err, "INVALID_STATUS")
	})

	t.Run("lists entries of one receipt including reverted", func(t *testing.T) {
		entries, err := query.ListByReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("list by unknown receipt fails", func(t *testing.T) {
		_, err := query.ListByReceipt(ctx, uuid.New())
		assertDomainCode(t, err, "RECEIPT_NOT_FOUND")
	})
}
