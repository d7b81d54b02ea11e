package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
)

const testSecret = "sk_test_secret"

func webhook(event, reference, status string) (string, []byte) {
	data := fmt.Sprintf(`{"reference":%q,"status":%q,"amount":18000}`, reference, status)
	body := fmt.Sprintf(`{"event":%q,"data":%s}`, event, data)
	return SignPayload(testSecret, []byte(data)), []byte(body)
}

func seedOrder(t *testing.T, st store.Store, ref string, stock int) {
	t.Helper()
	expires := time.Now().UTC().Add(30 * time.Minute)
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		if err := tx.InsertProduct(context.Background(), domain.Product{
			ID:       "musk-oud",
			Name:     "Musk Oud",
			Category: domain.CategoryClassic,
			IsActive: true,
			Sizes:    []domain.SizeEntry{{Size: 30, Price: 12000, Stock: stock}},
		}); err != nil {
			return err
		}
		return tx.InsertOrder(context.Background(), domain.Order{
			ID:               "ord-1",
			CustomerID:       "cust-1",
			CustomerName:     "Ada",
			Items:            []domain.OrderItem{{ProductID: "musk-oud", ProductName: "Musk Oud", Size: 30, Quantity: 2, Price: 12000}},
			Subtotal:         24000,
			Total:            24000,
			PaymentReference: ref,
			PaymentStatus:    domain.PaymentUnpaid,
			Status:           domain.OrderPending,
			ExpiresAt:        &expires,
		})
	})
	require.NoError(t, err)
}

func getOrder(t *testing.T, st store.Store, ref string) domain.Order {
	t.Helper()
	var out domain.Order
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		out, err = tx.GetOrderByReference(context.Background(), ref)
		return err
	})
	require.NoError(t, err)
	return out
}

func stockOf(t *testing.T, st store.Store) int {
	t.Helper()
	var stock int
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		p, err := tx.GetProduct(context.Background(), "musk-oud")
		if err != nil {
			return err
		}
		stock = p.SizeEntry(30).Stock
		return nil
	})
	require.NoError(t, err)
	return stock
}

func newReconciler(st store.Store) (*Reconciler, *notify.Recorder) {
	rec := notify.NewRecorder()
	return NewReconciler(st, testSecret, notify.NewService(rec, []string{"admin-1"})), rec
}

func TestWebhookSuccessConfirmsOrder(t *testing.T) {
	st := store.NewMemory()
	seedOrder(t, st, "ref-1", 8)
	r, rec := newReconciler(st)

	sig, body := webhook("charge.success", "ref-1", "success")
	outcome, err := r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	o := getOrder(t, st, "ref-1")
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, domain.OrderProcessing, o.Status)
	assert.NotNil(t, o.PaidAt)
	assert.Nil(t, o.ExpiresAt)
	assert.Equal(t, "KORAPAY", o.PaymentChannel)
	assert.Equal(t, 8, stockOf(t, st), "success keeps the reservation sold")

	kinds := map[contracts.NotificationKind]int{}
	for _, n := range rec.Sent() {
		kinds[n.Kind]++
	}
	assert.Equal(t, 1, kinds[contracts.NotifyPaymentConfirmed])
	assert.Equal(t, 1, kinds[contracts.NotifyAdminPaidOrder])
}

func TestWebhookDuplicateSuccessIsNoOp(t *testing.T) {
	st := store.NewMemory()
	seedOrder(t, st, "ref-1", 8)
	r, rec := newReconciler(st)

	sig, body := webhook("charge.success", "ref-1", "success")
	_, err := r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	first := getOrder(t, st, "ref-1")
	sent := len(rec.Sent())

	outcome, err := r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, first.PaidAt, getOrder(t, st, "ref-1").PaidAt, "PaidAt untouched by the duplicate")
	assert.Equal(t, sent, len(rec.Sent()), "no duplicate notifications")
}

func TestWebhookFailureReleasesStock(t *testing.T) {
	st := store.NewMemory()
	seedOrder(t, st, "ref-1", 8)
	r, rec := newReconciler(st)

	sig, body := webhook("charge.success", "ref-1", "failed")
	outcome, err := r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	o := getOrder(t, st, "ref-1")
	assert.Equal(t, domain.PaymentFailed, o.PaymentStatus)
	assert.Equal(t, domain.OrderCancelled, o.Status)
	assert.Equal(t, 10, stockOf(t, st), "the two reserved units go back")

	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, contracts.NotifyPaymentFailed, rec.Sent()[0].Kind)

	// A repeated failure report must not release stock twice.
	outcome, err = r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 10, stockOf(t, st))
}

func TestWebhookLatePaymentAfterCancellation(t *testing.T) {
	st := store.NewMemory()
	seedOrder(t, st, "ref-1", 8)

	// The sweeper got there first: stock restored, order cancelled.
	err := st.WithinTx(context.Background(), func(tx store.Tx) error {
		o, err := tx.GetOrderByReference(context.Background(), "ref-1")
		if err != nil {
			return err
		}
		if err := tx.ReleaseStock(context.Background(), "musk-oud", 30, 2); err != nil {
			return err
		}
		o.PaymentStatus = domain.PaymentFailed
		o.Status = domain.OrderCancelled
		o.ExpiresAt = nil
		return tx.UpdateOrder(context.Background(), o)
	})
	require.NoError(t, err)

	r, rec := newReconciler(st)
	sig, body := webhook("charge.success", "ref-1", "success")
	outcome, err := r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLatePayment, outcome)

	o := getOrder(t, st, "ref-1")
	assert.Equal(t, domain.OrderCancelled, o.Status, "a late payment does not resurrect the order")
	assert.Equal(t, 10, stockOf(t, st))

	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, contracts.NotifyAdminLatePayment, rec.Sent()[0].Kind)
	assert.Equal(t, "admin-1", rec.Sent()[0].Recipient)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	st := store.NewMemory()
	seedOrder(t, st, "ref-1", 8)
	r, rec := newReconciler(st)

	sig, body := webhook("transfer.success", "ref-1", "success")
	outcome, err := r.HandleWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, rec.Sent())
	assert.Equal(t, domain.PaymentUnpaid, getOrder(t, st, "ref-1").PaymentStatus)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	st := store.NewMemory()
	seedOrder(t, st, "ref-1", 8)
	r, _ := newReconciler(st)

	_, body := webhook("charge.success", "ref-1", "success")
	_, err := r.HandleWebhook(context.Background(), "deadbeef", body)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = r.HandleWebhook(context.Background(), "", body)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestWebhookUnknownReference(t *testing.T) {
	st := store.NewMemory()
	r, _ := newReconciler(st)

	sig, body := webhook("charge.success", "ghost", "success")
	_, err := r.HandleWebhook(context.Background(), sig, body)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestWebhookMalformedBody(t *testing.T) {
	st := store.NewMemory()
	r, _ := newReconciler(st)

	_, err := r.HandleWebhook(context.Background(), "sig", []byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.HandleWebhook(context.Background(), "sig", []byte(`{"event":"charge.success"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
