package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
)

func seedMemory(t *testing.T, m *Memory) {
	t.Helper()
	err := m.WithinTx(context.Background(), func(tx Tx) error {
		return tx.InsertProduct(context.Background(), domain.Product{
			ID:       "amber-noir",
			Name:     "Amber Noir",
			Category: domain.CategoryLuxury,
			IsActive: true,
			Sizes: []domain.SizeEntry{
				{Size: 10, Price: 8500, Stock: 4},
				{Size: 30, Price: 21000, Stock: 0},
			},
		})
	})
	require.NoError(t, err)
}

func TestMemoryReserveRelease(t *testing.T) {
	m := NewMemory()
	seedMemory(t, m)
	ctx := context.Background()

	err := m.WithinTx(ctx, func(tx Tx) error {
		if err := tx.ReserveStock(ctx, "amber-noir", 10, 3); err != nil {
			return err
		}
		p, err := tx.GetProduct(ctx, "amber-noir")
		if err != nil {
			return err
		}
		assert.Equal(t, 1, p.SizeEntry(10).Stock)
		return tx.ReleaseStock(ctx, "amber-noir", 10, 1)
	})
	require.NoError(t, err)

	err = m.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetProduct(ctx, "amber-noir")
		require.NoError(t, err)
		assert.Equal(t, 2, p.SizeEntry(10).Stock)

		assert.ErrorIs(t, tx.ReserveStock(ctx, "amber-noir", 10, 3), domain.ErrOutOfStock)
		assert.ErrorIs(t, tx.ReserveStock(ctx, "amber-noir", 99, 1), domain.ErrSizeNotFound)
		assert.ErrorIs(t, tx.ReserveStock(ctx, "ghost", 10, 1), domain.ErrProductNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryRollbackDiscardsEverything(t *testing.T) {
	m := NewMemory()
	seedMemory(t, m)
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithinTx(ctx, func(tx Tx) error {
		if err := tx.ReserveStock(ctx, "amber-noir", 10, 4); err != nil {
			return err
		}
		if err := tx.SaveCart(ctx, domain.Cart{CustomerID: "cust-1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = m.WithinTx(ctx, func(tx Tx) error {
		p, err := tx.GetProduct(ctx, "amber-noir")
		require.NoError(t, err)
		assert.Equal(t, 4, p.SizeEntry(10).Stock, "reservation rolled back")

		_, err = tx.GetCart(ctx, "cust-1")
		assert.ErrorIs(t, err, domain.ErrCartNotFound, "cart write rolled back")
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryDuplicateOrderReference(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	order := domain.Order{ID: "ord-1", CustomerID: "cust-1", PaymentReference: "ref-1"}
	err := m.WithinTx(ctx, func(tx Tx) error {
		return tx.InsertOrder(ctx, order)
	})
	require.NoError(t, err)

	err = m.WithinTx(ctx, func(tx Tx) error {
		return tx.InsertOrder(ctx, order)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMemoryListExpiredUnpaid(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	orders := []domain.Order{
		{ID: "a", PaymentReference: "expired", PaymentStatus: domain.PaymentUnpaid, Status: domain.OrderPending, ExpiresAt: &past},
		{ID: "b", PaymentReference: "live", PaymentStatus: domain.PaymentUnpaid, Status: domain.OrderPending, ExpiresAt: &future},
		{ID: "c", PaymentReference: "paid", PaymentStatus: domain.PaymentPaid, Status: domain.OrderProcessing},
		{ID: "d", PaymentReference: "swept", PaymentStatus: domain.PaymentUnpaid, Status: domain.OrderCancelled, ExpiresAt: &past},
	}
	err := m.WithinTx(ctx, func(tx Tx) error {
		for _, o := range orders {
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = m.WithinTx(ctx, func(tx Tx) error {
		got, err := tx.ListExpiredUnpaid(ctx, now)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "expired", got[0].PaymentReference)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStats(t *testing.T) {
	m := NewMemory()
	seedMemory(t, m)
	ctx := context.Background()

	err := m.WithinTx(ctx, func(tx Tx) error {
		now := time.Now().UTC()
		if err := tx.InsertOrder(ctx, domain.Order{
			ID: "a", PaymentReference: "r1", Total: 25500,
			PaymentStatus: domain.PaymentPaid, Status: domain.OrderProcessing, PaidAt: &now,
		}); err != nil {
			return err
		}
		return tx.InsertOrder(ctx, domain.Order{
			ID: "b", PaymentReference: "r2", Total: 8500,
			PaymentStatus: domain.PaymentUnpaid, Status: domain.OrderPending,
		})
	})
	require.NoError(t, err)

	err = m.WithinTx(ctx, func(tx Tx) error {
		st, err := tx.Stats(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 1, st.TotalProducts)
		assert.Equal(t, 2, st.TotalOrders)
		assert.Equal(t, 1, st.PaidOrders)
		assert.Equal(t, int64(25500), st.Revenue)
		require.Len(t, st.LowStock, 2, "both sizes sit at or under the threshold")
		assert.Equal(t, 0, st.LowStock[1].Stock)
		return nil
	})
	require.NoError(t, err)
}
