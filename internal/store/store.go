// Package store is the persistence boundary of the storefront. Every mutation
// flow runs inside WithinTx so that stock movements and the cart or order
// rows they belong to commit or roll back as one unit.
package store

import (
	"context"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
)

// Tx is one transactional unit of work. Implementations guarantee that two
// transactions touching the same size entry never both pass the stock
// sufficiency check for the last units.
type Tx interface {
	// Inventory ledger.
	GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error)
	ListProducts(ctx context.Context, category domain.Category) ([]domain.Product, error)
	InsertProduct(ctx context.Context, p domain.Product) error

	// ReserveStock checks stock >= qty for the size entry and decrements.
	// Fails with ErrProductNotFound, ErrSizeNotFound or ErrOutOfStock.
	ReserveStock(ctx context.Context, id domain.ProductID, size, qty int) error
	// ReleaseStock increments stock unconditionally; tracking what was
	// already released is the caller's job.
	ReleaseStock(ctx context.Context, id domain.ProductID, size, qty int) error

	// Carts. GetCart returns ErrCartNotFound for customers without one.
	GetCart(ctx context.Context, customer domain.CustomerID) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
	ListIdleCarts(ctx context.Context, idleSince time.Time) ([]domain.Cart, error)

	// Orders.
	InsertOrder(ctx context.Context, o domain.Order) error
	UpdateOrder(ctx context.Context, o domain.Order) error
	GetOrderByReference(ctx context.Context, ref string) (domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customer domain.CustomerID) ([]domain.Order, error)
	ListExpiredUnpaid(ctx context.Context, now time.Time) ([]domain.Order, error)

	// Checkout idempotency: a replayed key maps back to the original
	// order's payment reference.
	GetCheckoutReference(ctx context.Context, key string) (string, error)
	SaveCheckoutReference(ctx context.Context, key, ref string) error

	Stats(ctx context.Context, lowStockThreshold int) (Stats, error)
}

type Store interface {
	// WithinTx runs fn in one transaction. A non-nil error from fn rolls
	// everything back and is returned unchanged.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type LowStockEntry struct {
	ProductID   domain.ProductID `json:"product_id"`
	ProductName string           `json:"product_name"`
	Size        int              `json:"size"`
	Stock       int              `json:"stock"`
}

type Stats struct {
	TotalProducts int             `json:"total_products"`
	TotalOrders   int             `json:"total_orders"`
	PaidOrders    int             `json:"paid_orders"`
	Revenue       int64           `json:"revenue"`
	LowStock      []LowStockEntry `json:"low_stock"`
}
