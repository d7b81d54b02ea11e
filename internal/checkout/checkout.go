// Package checkout converts carts into orders. The whole flow (snapshot,
// order insert, gateway charge, cart clear) is one store transaction: either
// the order exists with a valid checkout URL, or nothing happened.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/steph2502/oohlalaa-shop-go/internal/delivery"
	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/payment"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
)

const narration = "Oohlalaa Fragrance Order"

type Engine struct {
	store   store.Store
	gateway payment.Gateway
	policy  delivery.Policy

	redirectURL     string
	notificationURL string
	ttl             time.Duration

	now    func() time.Time
	newRef func() string
}

func NewEngine(st store.Store, gw payment.Gateway, policy delivery.Policy, redirectURL, notificationURL string, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Engine{
		store:           st,
		gateway:         gw,
		policy:          policy,
		redirectURL:     redirectURL,
		notificationURL: notificationURL,
		ttl:             ttl,
		now:             func() time.Time { return time.Now().UTC() },
		newRef:          uuid.NewString,
	}
}

type Result struct {
	CheckoutURL string `json:"checkoutUrl"`
	Reference   string `json:"reference"`
	Replayed    bool   `json:"-"`
}

// Checkout turns the customer's cart into an UNPAID/PENDING order with a
// 30 minute payment window. Stock is not re-checked: it was reserved when
// the items went into the cart and stays reserved against the order. A
// repeated idempotency key replays the original result without re-charging.
func (e *Engine) Checkout(ctx context.Context, customer domain.CustomerID, customerName, idemKey string) (Result, error) {
	if customer == "" || customerName == "" {
		return Result{}, domain.ErrInvalidInput
	}

	var out Result
	err := e.store.WithinTx(ctx, func(tx store.Tx) error {
		if idemKey != "" {
			if ref, err := tx.GetCheckoutReference(ctx, idemKey); err == nil {
				prev, err := tx.GetOrderByReference(ctx, ref)
				if err != nil {
					return err
				}
				out = Result{CheckoutURL: prev.PaymentLink, Reference: prev.PaymentReference, Replayed: true}
				return nil
			}
		}

		cart, err := tx.GetCart(ctx, customer)
		if errors.Is(err, domain.ErrCartNotFound) || (err == nil && len(cart.Items) == 0) {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}

		// Re-validate every line against the live catalog. Only existence
		// matters here; sufficiency was settled at reservation time.
		items := make([]domain.OrderItem, 0, len(cart.Items))
		var subtotal int64
		for _, it := range cart.Items {
			product, err := tx.GetProduct(ctx, it.ProductID)
			if errors.Is(err, domain.ErrProductNotFound) {
				return domain.ErrProductUnavailable
			}
			if err != nil {
				return err
			}
			entry := product.SizeEntry(it.Size)
			if entry == nil {
				return domain.ErrProductUnavailable
			}
			subtotal += entry.Price * int64(it.Quantity)
			items = append(items, domain.OrderItem{
				ProductID:   it.ProductID,
				ProductName: product.Name,
				Size:        it.Size,
				Quantity:    it.Quantity,
				Price:       entry.Price,
			})
		}

		// The fee is re-derived, not reused, so zone table changes apply.
		fee := e.policy.Fee(cart.DeliveryLocation)
		total := subtotal + fee

		now := e.now()
		expiresAt := now.Add(e.ttl)
		order := domain.Order{
			ID:               domain.OrderID(e.newRef()),
			CustomerID:       customer,
			CustomerName:     customerName,
			Items:            items,
			Subtotal:         subtotal,
			DeliveryFee:      fee,
			Total:            total,
			DeliveryLocation: cart.DeliveryLocation,
			DeliveryAddress:  cart.DeliveryAddress,
			PaymentReference: e.newRef(),
			PaymentStatus:    domain.PaymentUnpaid,
			Status:           domain.OrderPending,
			ExpiresAt:        &expiresAt,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		checkoutURL, err := e.gateway.InitializeCharge(ctx, payment.ChargeRequest{
			Amount:          total,
			Currency:        "NGN",
			Reference:       order.PaymentReference,
			RedirectURL:     e.redirectURL,
			NotificationURL: e.notificationURL,
			Narration:       narration,
			Customer: payment.ChargeCustomer{
				Email: fmt.Sprintf("%s@oohlalaa.shop", customer),
				Name:  customerName,
			},
			Metadata: map[string]string{
				"customerId": string(customer),
				"orderId":    string(order.ID),
			},
		})
		if err != nil {
			return err
		}
		order.PaymentLink = checkoutURL
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}

		if idemKey != "" {
			if err := tx.SaveCheckoutReference(ctx, idemKey, order.PaymentReference); err != nil {
				return err
			}
		}

		// Stock stays reserved against the order now, not the cart.
		cart.Items = nil
		cart.DeliveryFee = fee
		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}

		out = Result{CheckoutURL: checkoutURL, Reference: order.PaymentReference}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	status := "created"
	if out.Replayed {
		status = "idempotent_replay"
	}
	logging.Log(logging.Fields{
		Service:    "storefront",
		CustomerID: string(customer),
		OrderRef:   out.Reference,
		Step:       "checkout",
		Status:     status,
	})
	return out, nil
}
