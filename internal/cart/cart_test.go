package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steph2502/oohlalaa-shop-go/internal/delivery"
	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
)

func testPolicy() delivery.Policy {
	return delivery.Policy{
		Zones: []delivery.Zone{
			{Name: "Default", Fee: 4000},
			{Name: "Lagos Mainland", Fee: 4000},
			{Name: "Lagos Island", Fee: 6000},
		},
		FreeKeyword: "Covenant University",
		DefaultZone: "Default",
	}
}

func seedProduct(t *testing.T, st store.Store, id string, size int, price int64, stock int) {
	t.Helper()
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertProduct(context.Background(), domain.Product{
			ID:       domain.ProductID(id),
			Name:     "Test " + id,
			Category: domain.CategoryClassic,
			IsActive: true,
			Sizes:    []domain.SizeEntry{{Size: size, Price: price, Stock: stock}},
		})
	})
	require.NoError(t, err)
}

func stockOf(t *testing.T, st store.Store, id string, size int) int {
	t.Helper()
	var stock int
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		p, err := tx.GetProduct(context.Background(), domain.ProductID(id))
		if err != nil {
			return err
		}
		stock = p.SizeEntry(size).Stock
		return nil
	})
	require.NoError(t, err)
	return stock
}

func TestAddItemReservesStock(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 10)
	svc := NewService(st, testPolicy())

	view, err := svc.AddItem(context.Background(), "cust-1", "musk-oud", 30, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, int64(36000), view.Subtotal)
	assert.Equal(t, 7, stockOf(t, st, "musk-oud", 30))
}

func TestAddItemGrowsExistingLineKeepingPriceSnapshot(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 10)
	svc := NewService(st, testPolicy())

	_, err := svc.AddItem(context.Background(), "cust-1", "musk-oud", 30, 1)
	require.NoError(t, err)

	// Catalog price changes after the first add.
	err = st.WithinTx(context.Background(), func(tx store.Tx) error {
		p, err := tx.GetProduct(context.Background(), "musk-oud")
		if err != nil {
			return err
		}
		p.Sizes[0].Price = 15000
		return tx.InsertProduct(context.Background(), p)
	})
	require.NoError(t, err)

	view, err := svc.AddItem(context.Background(), "cust-1", "musk-oud", 30, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, int64(12000), view.Items[0].Price, "line keeps its original snapshot")
}

func TestAddItemErrors(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 2)
	svc := NewService(st, testPolicy())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cust-1", "nope", 30, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.AddItem(ctx, "cust-1", "musk-oud", 50, 1)
	assert.ErrorIs(t, err, domain.ErrSizeNotFound)

	_, err = svc.AddItem(ctx, "cust-1", "musk-oud", 30, 5)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 2, stockOf(t, st, "musk-oud", 30), "failed add must not move stock")

	_, err = svc.AddItem(ctx, "cust-1", "musk-oud", 30, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetQuantityMovesOnlyTheDelta(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 10)
	svc := NewService(st, testPolicy())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cust-1", "musk-oud", 30, 4)
	require.NoError(t, err)

	view, err := svc.SetQuantity(ctx, "cust-1", "musk-oud", 30, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, view.Items[0].Quantity)
	assert.Equal(t, 4, stockOf(t, st, "musk-oud", 30))

	view, err = svc.SetQuantity(ctx, "cust-1", "musk-oud", 30, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 8, stockOf(t, st, "musk-oud", 30))
}

func TestSetQuantityZeroRemovesLineAndReleasesAll(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 10)
	svc := NewService(st, testPolicy())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cust-1", "musk-oud", 30, 4)
	require.NoError(t, err)

	view, err := svc.SetQuantity(ctx, "cust-1", "musk-oud", 30, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 10, stockOf(t, st, "musk-oud", 30))
}

func TestSetQuantityMissingLine(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 10)
	svc := NewService(st, testPolicy())
	ctx := context.Background()

	_, err := svc.SetQuantity(ctx, "cust-1", "musk-oud", 30, 2)
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	_, err = svc.AddItem(ctx, "cust-1", "musk-oud", 30, 1)
	require.NoError(t, err)
	_, err = svc.SetQuantity(ctx, "cust-1", "other", 30, 2)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestConcurrentLastUnit(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 1)
	svc := NewService(st, testPolicy())

	const shoppers = 8
	errs := make([]error, shoppers)
	var wg sync.WaitGroup
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			customer := domain.CustomerID(string(rune('a' + i)))
			_, errs[i] = svc.AddItem(context.Background(), customer, "musk-oud", 30, 1)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domain.ErrOutOfStock)
		}
	}
	assert.Equal(t, 1, won, "exactly one shopper gets the last unit")
	assert.Equal(t, 0, stockOf(t, st, "musk-oud", 30))
}

func TestStockConservation(t *testing.T) {
	st := store.NewMemory()
	seedProduct(t, st, "musk-oud", 30, 12000, 20)
	svc := NewService(st, testPolicy())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cust-1", "musk-oud", 30, 5)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "cust-2", "musk-oud", 30, 7)
	require.NoError(t, err)
	_, err = svc.SetQuantity(ctx, "cust-1", "musk-oud", 30, 2)
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, "cust-2", "musk-oud", 30)
	require.NoError(t, err)

	view, err := svc.View(ctx, "cust-1")
	require.NoError(t, err)
	held := 0
	for _, it := range view.Items {
		held += it.Quantity
	}
	assert.Equal(t, 20, stockOf(t, st, "musk-oud", 30)+held, "stock plus reservations stays constant")
}

func TestDeliveryZoneAndAddress(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, testPolicy())
	ctx := context.Background()

	view, err := svc.SetDeliveryZone(ctx, "cust-1", "Lagos Island")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), view.DeliveryFee)

	view, err = svc.SetDeliveryAddress(ctx, "cust-1", "", "12 Marina Road")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), view.DeliveryFee, "empty location keeps the zone")

	view, err = svc.SetDeliveryZone(ctx, "cust-1", "Covenant University Gate 2")
	require.NoError(t, err)
	assert.Zero(t, view.DeliveryFee)

	_, err = svc.SetDeliveryAddress(ctx, "cust-2", "", "5 Nowhere Lane")
	assert.ErrorIs(t, err, domain.ErrCartNotFound, "address needs an existing cart")
}

func TestViewWithoutCart(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, testPolicy())

	view, err := svc.View(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
}
