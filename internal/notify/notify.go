// Package notify sends outbound Telegram messages for checkout state changes.
// Delivery is fire and forget: a lost message never rolls back an order.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
)

// Sink accepts a single notification for delivery. Implementations: direct
// Telegram send, the Postgres outbox, a test recorder.
type Sink interface {
	Send(ctx context.Context, n contracts.Notification) error
}

// Service fans domain events out to the customer and the configured admins.
type Service struct {
	sink     Sink
	adminIDs []string
	name     string
}

func NewService(sink Sink, adminIDs []string) *Service {
	return &Service{sink: sink, adminIDs: adminIDs, name: "storefront"}
}

func (s *Service) send(ctx context.Context, n contracts.Notification) {
	n.EventID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	if err := s.sink.Send(ctx, n); err != nil {
		logging.Log(logging.Fields{
			Service:  s.name,
			OrderRef: n.OrderRef,
			Step:     "notify_" + string(n.Kind),
			Status:   "error",
			Message:  err.Error(),
		})
	}
}

func itemLines(items []domain.OrderItem) string {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "\n- %s (%dml) x%d", it.ProductName, it.Size, it.Quantity)
	}
	return b.String()
}

func (s *Service) PaymentConfirmed(ctx context.Context, o domain.Order) {
	s.send(ctx, contracts.Notification{
		Recipient: string(o.CustomerID),
		OrderRef:  o.PaymentReference,
		Kind:      contracts.NotifyPaymentConfirmed,
		Text: fmt.Sprintf("Payment confirmed!\nOrder: %s\nItems:%s\nTotal: NGN %d\nDelivery: %s",
			o.PaymentReference, itemLines(o.Items), o.Total, o.DeliveryAddress),
	})
}

func (s *Service) PaymentFailed(ctx context.Context, o domain.Order) {
	s.send(ctx, contracts.Notification{
		Recipient: string(o.CustomerID),
		OrderRef:  o.PaymentReference,
		Kind:      contracts.NotifyPaymentFailed,
		Text:      "Payment failed. Your order was cancelled and the items are back in stock. You can try again anytime.",
	})
}

func (s *Service) OrderExpired(ctx context.Context, o domain.Order) {
	s.send(ctx, contracts.Notification{
		Recipient: string(o.CustomerID),
		OrderRef:  o.PaymentReference,
		Kind:      contracts.NotifyOrderExpired,
		Text: fmt.Sprintf("Your payment link expired after 30 minutes and the reservation lapsed.\nItems:%s\nTotal: NGN %d\nWant to complete your purchase?",
			itemLines(o.Items), o.Total),
	})
}

func (s *Service) CartReminder(ctx context.Context, c domain.Cart) {
	var b strings.Builder
	for _, it := range c.Items {
		fmt.Fprintf(&b, "\n- %s (%dml) x%d", it.ProductID, it.Size, it.Quantity)
	}
	s.send(ctx, contracts.Notification{
		Recipient: string(c.CustomerID),
		Kind:      contracts.NotifyCartReminder,
		Text: fmt.Sprintf("Still thinking about your order? You left items in your cart:%s\nSubtotal: NGN %d",
			b.String(), c.Subtotal()),
	})
}

func (s *Service) AdminsPaidOrder(ctx context.Context, o domain.Order) {
	text := fmt.Sprintf("New paid order!\nCustomer: %s (%s)\nOrder: %s\nItems:%s\nTotal: NGN %d\nDelivery: %s",
		o.CustomerName, o.CustomerID, o.PaymentReference, itemLines(o.Items), o.Total, o.DeliveryAddress)
	for _, id := range s.adminIDs {
		s.send(ctx, contracts.Notification{
			Recipient: id,
			OrderRef:  o.PaymentReference,
			Kind:      contracts.NotifyAdminPaidOrder,
			Text:      text,
		})
	}
}

// AdminsLatePayment flags a success webhook that arrived after the sweep
// already cancelled the order; the money needs a manual refund.
func (s *Service) AdminsLatePayment(ctx context.Context, o domain.Order) {
	text := fmt.Sprintf("Late payment on cancelled order %s (customer %s, NGN %d). Stock was already released; refund manually.",
		o.PaymentReference, o.CustomerID, o.Total)
	for _, id := range s.adminIDs {
		s.send(ctx, contracts.Notification{
			Recipient: id,
			OrderRef:  o.PaymentReference,
			Kind:      contracts.NotifyAdminLatePayment,
			Text:      text,
		})
	}
}
