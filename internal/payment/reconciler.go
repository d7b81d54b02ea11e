package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
)

const (
	eventChargeSuccess = "charge.success"
	channelKorapay     = "KORAPAY"
)

type Outcome string

const (
	// OutcomeProcessed: the order state changed.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate: the order was already settled; nothing changed.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIgnored: an event type we do not handle.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeLatePayment: a success arrived after the sweep cancelled the
	// order; the state stays CANCELLED and admins are told to refund.
	OutcomeLatePayment Outcome = "late_payment"
)

type webhookBody struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type webhookData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Reconciler applies provider callbacks to orders, exactly once. Duplicate
// deliveries of a settled reference are acknowledged without modification.
type Reconciler struct {
	store    store.Store
	secret   string
	notifier *notify.Service
	now      func() time.Time
}

func NewReconciler(st store.Store, secret string, notifier *notify.Service) *Reconciler {
	return &Reconciler{
		store:    st,
		secret:   secret,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhook verifies and applies one provider callback. The signature is
// the hex HMAC over the raw `data` segment of the body.
func (r *Reconciler) HandleWebhook(ctx context.Context, signature string, body []byte) (Outcome, error) {
	var evt webhookBody
	if err := json.Unmarshal(body, &evt); err != nil {
		return "", domain.ErrInvalidInput
	}
	if len(evt.Data) == 0 {
		return "", domain.ErrInvalidInput
	}
	if !VerifySignature(r.secret, evt.Data, signature) {
		return "", domain.ErrInvalidSignature
	}
	if evt.Event != eventChargeSuccess {
		return OutcomeIgnored, nil
	}

	var data webhookData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return "", domain.ErrInvalidInput
	}
	if data.Reference == "" {
		return "", domain.ErrInvalidInput
	}

	var (
		outcome Outcome
		settled domain.Order
	)
	err := r.store.WithinTx(ctx, func(tx store.Tx) error {
		order, err := tx.GetOrderByReference(ctx, data.Reference)
		if err != nil {
			return err
		}

		// Exactly-once guard: a settled order absorbs duplicates.
		if order.PaymentStatus == domain.PaymentPaid {
			outcome, settled = OutcomeDuplicate, order
			return nil
		}

		if data.Status == "success" {
			if order.Status == domain.OrderCancelled {
				// Swept before the money arrived. Stock is already
				// back on the shelf, so the payment cannot be honored.
				outcome, settled = OutcomeLatePayment, order
				return nil
			}
			now := r.now()
			order.PaymentStatus = domain.PaymentPaid
			order.Status = domain.OrderProcessing
			order.PaymentChannel = channelKorapay
			order.PaidAt = &now
			order.ExpiresAt = nil
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return err
			}
			outcome, settled = OutcomeProcessed, order
			return nil
		}

		// Failure report. Already-cancelled orders are duplicates.
		if order.Status == domain.OrderCancelled {
			outcome, settled = OutcomeDuplicate, order
			return nil
		}
		for _, it := range order.Items {
			if err := tx.ReleaseStock(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
				return err
			}
		}
		order.PaymentStatus = domain.PaymentFailed
		order.Status = domain.OrderCancelled
		order.ExpiresAt = nil
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		outcome, settled = OutcomeProcessed, order
		return nil
	})
	if err != nil {
		return "", err
	}

	switch outcome {
	case OutcomeProcessed:
		if settled.PaymentStatus == domain.PaymentPaid {
			r.notifier.PaymentConfirmed(ctx, settled)
			r.notifier.AdminsPaidOrder(ctx, settled)
		} else {
			r.notifier.PaymentFailed(ctx, settled)
		}
	case OutcomeLatePayment:
		r.notifier.AdminsLatePayment(ctx, settled)
	}

	logging.Log(logging.Fields{
		Service:  "storefront",
		OrderRef: data.Reference,
		Step:     "webhook",
		Status:   string(outcome),
	})
	return outcome, nil
}
