package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
)

// Postgres is the production Store on pgx. Stock movements rely on a guarded
// UPDATE (stock = stock - n WHERE stock >= n), so two racing reservations for
// the last units are resolved by the database, never by an oversell.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var p domain.Product
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, category, is_active, created_at, updated_at
		 FROM products WHERE id=$1`, string(id)).
		Scan(&p.ID, &p.Name, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}

	sizes, err := t.productSizes(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Sizes = sizes
	return p, nil
}

func (t *pgTx) productSizes(ctx context.Context, id domain.ProductID) ([]domain.SizeEntry, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT size, price, stock FROM product_sizes WHERE product_id=$1 ORDER BY size`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []domain.SizeEntry
	for rows.Next() {
		var s domain.SizeEntry
		if err := rows.Scan(&s.Size, &s.Price, &s.Stock); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

func (t *pgTx) ListProducts(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	q := `SELECT id, name, category, is_active, created_at, updated_at
	      FROM products WHERE is_active`
	args := []any{}
	if category != "" {
		q += ` AND category=$1`
		args = append(args, string(category))
	}
	q += ` ORDER BY name`

	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		sizes, err := t.productSizes(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Sizes = sizes
	}
	return out, nil
}

func (t *pgTx) InsertProduct(ctx context.Context, p domain.Product) error {
	if p.ID == "" || p.Name == "" || !p.Category.Valid() {
		return domain.ErrInvalidInput
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO products(id, name, category, is_active) VALUES ($1, $2, $3, $4)`,
		string(p.ID), p.Name, string(p.Category), p.IsActive)
	if err != nil {
		return err
	}
	for _, s := range p.Sizes {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO product_sizes(product_id, size, price, stock) VALUES ($1, $2, $3, $4)`,
			string(p.ID), s.Size, s.Price, s.Stock)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ReserveStock(ctx context.Context, id domain.ProductID, size, qty int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE product_sizes SET stock = stock - $3
		 WHERE product_id=$1 AND size=$2 AND stock >= $3`,
		string(id), size, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// No row moved: tell apart missing product, missing size, short stock.
	var stock int
	err = t.tx.QueryRow(ctx,
		`SELECT stock FROM product_sizes WHERE product_id=$1 AND size=$2`,
		string(id), size).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := t.tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, string(id)).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrProductNotFound
		}
		return domain.ErrSizeNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrOutOfStock
}

func (t *pgTx) ReleaseStock(ctx context.Context, id domain.ProductID, size, qty int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE product_sizes SET stock = stock + $3 WHERE product_id=$1 AND size=$2`,
		string(id), size, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSizeNotFound
	}
	return nil
}

func (t *pgTx) GetCart(ctx context.Context, customer domain.CustomerID) (domain.Cart, error) {
	var c domain.Cart
	err := t.tx.QueryRow(ctx,
		`SELECT customer_id, delivery_location, delivery_address, delivery_fee, reminder_sent, created_at, updated_at
		 FROM carts WHERE customer_id=$1`, string(customer)).
		Scan(&c.CustomerID, &c.DeliveryLocation, &c.DeliveryAddress, &c.DeliveryFee, &c.ReminderSent, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	rows, err := t.tx.Query(ctx,
		`SELECT product_id, size, quantity, price FROM cart_items
		 WHERE customer_id=$1 ORDER BY position`, string(customer))
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ProductID, &it.Size, &it.Quantity, &it.Price); err != nil {
			return domain.Cart{}, err
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (t *pgTx) SaveCart(ctx context.Context, cart domain.Cart) error {
	if cart.CustomerID == "" {
		return domain.ErrInvalidInput
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO carts(customer_id, delivery_location, delivery_address, delivery_fee, reminder_sent)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (customer_id) DO UPDATE SET
		   delivery_location=EXCLUDED.delivery_location,
		   delivery_address=EXCLUDED.delivery_address,
		   delivery_fee=EXCLUDED.delivery_fee,
		   reminder_sent=EXCLUDED.reminder_sent,
		   updated_at=now()`,
		string(cart.CustomerID), cart.DeliveryLocation, cart.DeliveryAddress, cart.DeliveryFee, cart.ReminderSent)
	if err != nil {
		return err
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE customer_id=$1`, string(cart.CustomerID)); err != nil {
		return err
	}
	for i, it := range cart.Items {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO cart_items(customer_id, product_id, size, quantity, price, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			string(cart.CustomerID), string(it.ProductID), it.Size, it.Quantity, it.Price, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ListIdleCarts(ctx context.Context, idleSince time.Time) ([]domain.Cart, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT customer_id FROM carts c
		 WHERE NOT reminder_sent
		   AND updated_at <= $1
		   AND EXISTS (SELECT 1 FROM cart_items i WHERE i.customer_id = c.customer_id)
		 ORDER BY customer_id`, idleSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []domain.CustomerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, domain.CustomerID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []domain.Cart
	for _, id := range ids {
		c, err := t.GetCart(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o domain.Order) error {
	if o.PaymentReference == "" {
		return domain.ErrInvalidInput
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO orders(id, customer_id, customer_name, subtotal, delivery_fee, total,
		                    delivery_location, delivery_address, payment_reference, payment_status,
		                    payment_link, payment_channel, paid_at, status, expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		string(o.ID), string(o.CustomerID), o.CustomerName, o.Subtotal, o.DeliveryFee, o.Total,
		o.DeliveryLocation, o.DeliveryAddress, o.PaymentReference, string(o.PaymentStatus),
		o.PaymentLink, o.PaymentChannel, o.PaidAt, string(o.Status), o.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidInput
		}
		return err
	}
	for _, it := range o.Items {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO order_items(order_id, product_id, product_name, size, quantity, price)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			string(o.ID), string(it.ProductID), it.ProductName, it.Size, it.Quantity, it.Price)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) UpdateOrder(ctx context.Context, o domain.Order) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET payment_status=$2, payment_link=$3, payment_channel=$4, paid_at=$5,
		                   status=$6, expires_at=$7, updated_at=now()
		 WHERE payment_reference=$1`,
		o.PaymentReference, string(o.PaymentStatus), o.PaymentLink, o.PaymentChannel, o.PaidAt,
		string(o.Status), o.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

const orderColumns = `id, customer_id, customer_name, subtotal, delivery_fee, total,
	delivery_location, delivery_address, payment_reference, payment_status,
	payment_link, payment_channel, paid_at, status, expires_at, created_at, updated_at`

func (t *pgTx) scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.Subtotal, &o.DeliveryFee, &o.Total,
		&o.DeliveryLocation, &o.DeliveryAddress, &o.PaymentReference, &o.PaymentStatus,
		&o.PaymentLink, &o.PaymentChannel, &o.PaidAt, &o.Status, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (t *pgTx) orderItems(ctx context.Context, id domain.OrderID) ([]domain.OrderItem, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT product_id, product_name, size, quantity, price
		 FROM order_items WHERE order_id=$1`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Size, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (t *pgTx) GetOrderByReference(ctx context.Context, ref string) (domain.Order, error) {
	o, err := t.scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_reference=$1`, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Items, err = t.orderItems(ctx, o.ID)
	return o, err
}

func (t *pgTx) listOrders(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := t.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := t.orderItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (t *pgTx) ListOrdersByCustomer(ctx context.Context, customer domain.CustomerID) ([]domain.Order, error) {
	return t.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 ORDER BY created_at`, string(customer))
}

func (t *pgTx) ListExpiredUnpaid(ctx context.Context, now time.Time) ([]domain.Order, error) {
	return t.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE payment_status='UNPAID' AND status <> 'CANCELLED' AND expires_at < $1
		 ORDER BY created_at`, now)
}

func (t *pgTx) GetCheckoutReference(ctx context.Context, key string) (string, error) {
	var ref string
	err := t.tx.QueryRow(ctx,
		`SELECT payment_reference FROM checkout_idempotency WHERE idempotency_key=$1`, key).Scan(&ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrOrderNotFound
	}
	return ref, err
}

func (t *pgTx) SaveCheckoutReference(ctx context.Context, key, ref string) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO checkout_idempotency(idempotency_key, payment_reference) VALUES ($1, $2)`,
		key, ref)
	return err
}

func (t *pgTx) Stats(ctx context.Context, lowStockThreshold int) (Stats, error) {
	var st Stats
	err := t.tx.QueryRow(ctx,
		`SELECT
		   (SELECT count(*) FROM products),
		   (SELECT count(*) FROM orders),
		   (SELECT count(*) FROM orders WHERE payment_status='PAID'),
		   (SELECT coalesce(sum(total), 0) FROM orders WHERE payment_status='PAID')`).
		Scan(&st.TotalProducts, &st.TotalOrders, &st.PaidOrders, &st.Revenue)
	if err != nil {
		return Stats{}, err
	}

	rows, err := t.tx.Query(ctx,
		`SELECT p.id, p.name, s.size, s.stock
		 FROM product_sizes s JOIN products p ON p.id = s.product_id
		 WHERE p.is_active AND s.stock <= $1
		 ORDER BY p.id, s.size`, lowStockThreshold)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e LowStockEntry
		if err := rows.Scan(&e.ProductID, &e.ProductName, &e.Size, &e.Stock); err != nil {
			return Stats{}, err
		}
		st.LowStock = append(st.LowStock, e)
	}
	return st, rows.Err()
}

// isUniqueViolation reports a UNIQUE constraint conflict (pg code 23505).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
		strings.Contains(strings.ToLower(err.Error()), "unique")
}
