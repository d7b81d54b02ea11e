package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
)

// Memory is an in-process Store for tests and local runs. A single mutex
// serializes transactions; fn mutates a staged copy of the state that is
// swapped in only on success, so a failed transaction leaves nothing behind.
type Memory struct {
	mu sync.Mutex
	st *memState
}

type memState struct {
	products map[domain.ProductID]domain.Product
	carts    map[domain.CustomerID]domain.Cart
	orders   map[string]domain.Order // keyed by payment reference
	orderSeq []string                // insertion order, for stable listings
	idem     map[string]string
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{st: &memState{
		products: make(map[domain.ProductID]domain.Product),
		carts:    make(map[domain.CustomerID]domain.Cart),
		orders:   make(map[string]domain.Order),
		idem:     make(map[string]string),
		now:      func() time.Time { return time.Now().UTC() },
	}}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.st.clone()
	if err := fn(&memTx{st: staged}); err != nil {
		return err
	}
	m.st = staged
	return nil
}

func (s *memState) clone() *memState {
	out := &memState{
		products: make(map[domain.ProductID]domain.Product, len(s.products)),
		carts:    make(map[domain.CustomerID]domain.Cart, len(s.carts)),
		orders:   make(map[string]domain.Order, len(s.orders)),
		orderSeq: append([]string(nil), s.orderSeq...),
		idem:     make(map[string]string, len(s.idem)),
		now:      s.now,
	}
	for id, p := range s.products {
		p.Sizes = append([]domain.SizeEntry(nil), p.Sizes...)
		out.products[id] = p
	}
	for id, c := range s.carts {
		c.Items = append([]domain.CartItem(nil), c.Items...)
		out.carts[id] = c
	}
	for ref, o := range s.orders {
		o.Items = append([]domain.OrderItem(nil), o.Items...)
		out.orders[ref] = o
	}
	for k, v := range s.idem {
		out.idem[k] = v
	}
	return out
}

type memTx struct {
	st *memState
}

func (t *memTx) GetProduct(_ context.Context, id domain.ProductID) (domain.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	p.Sizes = append([]domain.SizeEntry(nil), p.Sizes...)
	return p, nil
}

func (t *memTx) ListProducts(_ context.Context, category domain.Category) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range t.st.products {
		if !p.IsActive {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		p.Sizes = append([]domain.SizeEntry(nil), p.Sizes...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *memTx) InsertProduct(_ context.Context, p domain.Product) error {
	if p.ID == "" || p.Name == "" || !p.Category.Valid() {
		return domain.ErrInvalidInput
	}
	now := t.st.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Sizes = append([]domain.SizeEntry(nil), p.Sizes...)
	t.st.products[p.ID] = p
	return nil
}

func (t *memTx) ReserveStock(_ context.Context, id domain.ProductID, size, qty int) error {
	p, ok := t.st.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	entry := p.SizeEntry(size)
	if entry == nil {
		return domain.ErrSizeNotFound
	}
	if entry.Stock < qty {
		return domain.ErrOutOfStock
	}
	entry.Stock -= qty
	p.UpdatedAt = t.st.now()
	t.st.products[id] = p
	return nil
}

func (t *memTx) ReleaseStock(_ context.Context, id domain.ProductID, size, qty int) error {
	p, ok := t.st.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	entry := p.SizeEntry(size)
	if entry == nil {
		return domain.ErrSizeNotFound
	}
	entry.Stock += qty
	p.UpdatedAt = t.st.now()
	t.st.products[id] = p
	return nil
}

func (t *memTx) GetCart(_ context.Context, customer domain.CustomerID) (domain.Cart, error) {
	c, ok := t.st.carts[customer]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	c.Items = append([]domain.CartItem(nil), c.Items...)
	return c, nil
}

func (t *memTx) SaveCart(_ context.Context, cart domain.Cart) error {
	if cart.CustomerID == "" {
		return domain.ErrInvalidInput
	}
	now := t.st.now()
	if prev, ok := t.st.carts[cart.CustomerID]; ok {
		cart.CreatedAt = prev.CreatedAt
	} else {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	cart.Items = append([]domain.CartItem(nil), cart.Items...)
	t.st.carts[cart.CustomerID] = cart
	return nil
}

func (t *memTx) ListIdleCarts(_ context.Context, idleSince time.Time) ([]domain.Cart, error) {
	var out []domain.Cart
	for _, c := range t.st.carts {
		if len(c.Items) == 0 || c.ReminderSent || c.UpdatedAt.After(idleSince) {
			continue
		}
		c.Items = append([]domain.CartItem(nil), c.Items...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

func (t *memTx) InsertOrder(_ context.Context, o domain.Order) error {
	if o.PaymentReference == "" {
		return domain.ErrInvalidInput
	}
	if _, exists := t.st.orders[o.PaymentReference]; exists {
		return domain.ErrInvalidInput
	}
	now := t.st.now()
	o.CreatedAt, o.UpdatedAt = now, now
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	t.st.orders[o.PaymentReference] = o
	t.st.orderSeq = append(t.st.orderSeq, o.PaymentReference)
	return nil
}

func (t *memTx) UpdateOrder(_ context.Context, o domain.Order) error {
	prev, ok := t.st.orders[o.PaymentReference]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.CreatedAt = prev.CreatedAt
	o.UpdatedAt = t.st.now()
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	t.st.orders[o.PaymentReference] = o
	return nil
}

func (t *memTx) GetOrderByReference(_ context.Context, ref string) (domain.Order, error) {
	o, ok := t.st.orders[ref]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o, nil
}

func (t *memTx) ListOrdersByCustomer(_ context.Context, customer domain.CustomerID) ([]domain.Order, error) {
	var out []domain.Order
	for _, ref := range t.st.orderSeq {
		o := t.st.orders[ref]
		if o.CustomerID != customer {
			continue
		}
		o.Items = append([]domain.OrderItem(nil), o.Items...)
		out = append(out, o)
	}
	return out, nil
}

func (t *memTx) ListExpiredUnpaid(_ context.Context, now time.Time) ([]domain.Order, error) {
	var out []domain.Order
	for _, ref := range t.st.orderSeq {
		o := t.st.orders[ref]
		if !o.Expired(now) {
			continue
		}
		o.Items = append([]domain.OrderItem(nil), o.Items...)
		out = append(out, o)
	}
	return out, nil
}

func (t *memTx) GetCheckoutReference(_ context.Context, key string) (string, error) {
	ref, ok := t.st.idem[key]
	if !ok {
		return "", domain.ErrOrderNotFound
	}
	return ref, nil
}

func (t *memTx) SaveCheckoutReference(_ context.Context, key, ref string) error {
	t.st.idem[key] = ref
	return nil
}

func (t *memTx) Stats(_ context.Context, lowStockThreshold int) (Stats, error) {
	st := Stats{TotalProducts: len(t.st.products), TotalOrders: len(t.st.orders)}
	for _, o := range t.st.orders {
		if o.PaymentStatus == domain.PaymentPaid {
			st.PaidOrders++
			st.Revenue += o.Total
		}
	}
	for _, p := range t.st.products {
		if !p.IsActive {
			continue
		}
		for _, s := range p.Sizes {
			if s.Stock <= lowStockThreshold {
				st.LowStock = append(st.LowStock, LowStockEntry{
					ProductID:   p.ID,
					ProductName: p.Name,
					Size:        s.Size,
					Stock:       s.Stock,
				})
			}
		}
	}
	sort.Slice(st.LowStock, func(i, j int) bool {
		if st.LowStock[i].ProductID != st.LowStock[j].ProductID {
			return st.LowStock[i].ProductID < st.LowStock[j].ProductID
		}
		return st.LowStock[i].Size < st.LowStock[j].Size
	})
	return st, nil
}
