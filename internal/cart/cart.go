// Package cart mutates customer carts. Every mutation pairs the cart write
// with the matching stock reservation or release in one store transaction,
// so a failed mutation never leaks a stock decrement.
package cart

import (
	"context"
	"errors"

	"github.com/steph2502/oohlalaa-shop-go/internal/delivery"
	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
)

type Service struct {
	store  store.Store
	policy delivery.Policy
}

func NewService(st store.Store, policy delivery.Policy) *Service {
	return &Service{store: st, policy: policy}
}

func (s *Service) view(cart domain.Cart) domain.CartView {
	v := domain.CartView{
		Items:       cart.Items,
		Subtotal:    cart.Subtotal(),
		DeliveryFee: cart.DeliveryFee,
	}
	if v.Items == nil {
		v.Items = []domain.CartItem{}
	}
	v.Total = v.Subtotal + v.DeliveryFee
	return v
}

// AddItem reserves qty units of the size and adds them to the cart at the
// current catalog price. An existing line keeps its original price snapshot
// and only grows its quantity.
func (s *Service) AddItem(ctx context.Context, customer domain.CustomerID, productID domain.ProductID, size, qty int) (domain.CartView, error) {
	if customer == "" || productID == "" || qty <= 0 {
		return domain.CartView{}, domain.ErrInvalidInput
	}

	var out domain.CartView
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		entry := product.SizeEntry(size)
		if entry == nil {
			return domain.ErrSizeNotFound
		}

		if err := tx.ReserveStock(ctx, productID, size, qty); err != nil {
			return err
		}

		cart, err := tx.GetCart(ctx, customer)
		if errors.Is(err, domain.ErrCartNotFound) {
			cart = domain.Cart{CustomerID: customer}
		} else if err != nil {
			return err
		}

		if item := cart.Item(productID, size); item != nil {
			item.Quantity += qty
		} else {
			cart.Items = append(cart.Items, domain.CartItem{
				ProductID: productID,
				Size:      size,
				Quantity:  qty,
				Price:     entry.Price,
			})
		}
		cart.ReminderSent = false

		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}
		out = s.view(cart)
		return nil
	})
	return out, err
}

// SetQuantity moves a line to newQty, reserving or releasing the difference.
// newQty <= 0 releases the full line and removes it.
func (s *Service) SetQuantity(ctx context.Context, customer domain.CustomerID, productID domain.ProductID, size, newQty int) (domain.CartView, error) {
	if customer == "" || productID == "" {
		return domain.CartView{}, domain.ErrInvalidInput
	}

	var out domain.CartView
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		cart, err := tx.GetCart(ctx, customer)
		if err != nil {
			return err
		}
		item := cart.Item(productID, size)
		if item == nil {
			return domain.ErrItemNotFound
		}

		if newQty <= 0 {
			if err := tx.ReleaseStock(ctx, productID, size, item.Quantity); err != nil {
				return err
			}
			cart.RemoveItem(productID, size)
		} else {
			delta := newQty - item.Quantity
			switch {
			case delta > 0:
				if err := tx.ReserveStock(ctx, productID, size, delta); err != nil {
					return err
				}
			case delta < 0:
				if err := tx.ReleaseStock(ctx, productID, size, -delta); err != nil {
					return err
				}
			}
			item.Quantity = newQty
		}
		cart.ReminderSent = false

		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}
		out = s.view(cart)
		return nil
	})
	return out, err
}

// RemoveItem releases the line's full reserved quantity and deletes it.
func (s *Service) RemoveItem(ctx context.Context, customer domain.CustomerID, productID domain.ProductID, size int) (domain.CartView, error) {
	return s.SetQuantity(ctx, customer, productID, size, 0)
}

// SetDeliveryZone records the drop-off zone and recomputes the fee. A cart is
// created on demand so a customer can pick a zone before adding items.
func (s *Service) SetDeliveryZone(ctx context.Context, customer domain.CustomerID, location string) (domain.CartView, error) {
	if customer == "" || location == "" {
		return domain.CartView{}, domain.ErrInvalidInput
	}

	var out domain.CartView
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		cart, err := tx.GetCart(ctx, customer)
		if errors.Is(err, domain.ErrCartNotFound) {
			cart = domain.Cart{CustomerID: customer}
		} else if err != nil {
			return err
		}
		cart.DeliveryLocation = location
		cart.DeliveryFee = s.policy.Fee(location)

		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}
		out = s.view(cart)
		return nil
	})
	return out, err
}

// SetDeliveryAddress stores the street address; an empty location keeps the
// cart's current zone. Requires an existing cart.
func (s *Service) SetDeliveryAddress(ctx context.Context, customer domain.CustomerID, location, address string) (domain.CartView, error) {
	if customer == "" || address == "" {
		return domain.CartView{}, domain.ErrInvalidInput
	}

	var out domain.CartView
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		cart, err := tx.GetCart(ctx, customer)
		if err != nil {
			return err
		}
		if location != "" {
			cart.DeliveryLocation = location
		}
		cart.DeliveryAddress = address
		cart.DeliveryFee = s.policy.Fee(cart.DeliveryLocation)

		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}
		out = s.view(cart)
		return nil
	})
	return out, err
}

// View returns the cart's current shape. A customer without a cart gets the
// empty view; the fee is re-derived so zone table changes show up, and the
// cart row is refreshed when the stored fee drifted.
func (s *Service) View(ctx context.Context, customer domain.CustomerID) (domain.CartView, error) {
	if customer == "" {
		return domain.CartView{}, domain.ErrInvalidInput
	}

	var out domain.CartView
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		cart, err := tx.GetCart(ctx, customer)
		if errors.Is(err, domain.ErrCartNotFound) {
			out = domain.EmptyCartView()
			return nil
		} else if err != nil {
			return err
		}

		fee := s.policy.Fee(cart.DeliveryLocation)
		if fee != cart.DeliveryFee {
			cart.DeliveryFee = fee
			if err := tx.SaveCart(ctx, cart); err != nil {
				return err
			}
		}
		out = s.view(cart)
		return nil
	})
	return out, err
}
