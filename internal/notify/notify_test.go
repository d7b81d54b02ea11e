package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
)

func sampleOrder() domain.Order {
	return domain.Order{
		ID:               "ord-1",
		CustomerID:       "cust-1",
		CustomerName:     "Ada",
		PaymentReference: "ref-1",
		Total:            18000,
		DeliveryAddress:  "12 Marina Road",
		Items: []domain.OrderItem{
			{ProductID: "musk-oud", ProductName: "Musk Oud", Size: 30, Quantity: 2, Price: 12000},
		},
	}
}

func TestPaymentConfirmedFillsEnvelope(t *testing.T) {
	rec := NewRecorder()
	svc := NewService(rec, nil)

	svc.PaymentConfirmed(context.Background(), sampleOrder())

	require.Len(t, rec.Sent(), 1)
	n := rec.Sent()[0]
	assert.Equal(t, "cust-1", n.Recipient)
	assert.Equal(t, "ref-1", n.OrderRef)
	assert.Equal(t, contracts.NotifyPaymentConfirmed, n.Kind)
	assert.NotEmpty(t, n.EventID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Contains(t, n.Text, "Musk Oud (30ml) x2")
	assert.Contains(t, n.Text, "NGN 18000")
}

func TestAdminFanOut(t *testing.T) {
	rec := NewRecorder()
	svc := NewService(rec, []string{"admin-1", "admin-2"})

	svc.AdminsPaidOrder(context.Background(), sampleOrder())

	sent := rec.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "admin-1", sent[0].Recipient)
	assert.Equal(t, "admin-2", sent[1].Recipient)
	assert.NotEqual(t, sent[0].EventID, sent[1].EventID, "each copy gets its own event id")
}

func TestSendSwallowsSinkErrors(t *testing.T) {
	svc := NewService(failingSink{}, nil)
	// Must not panic or propagate; delivery is fire and forget.
	svc.PaymentFailed(context.Background(), sampleOrder())
}

type failingSink struct{}

func (failingSink) Send(context.Context, contracts.Notification) error {
	return assert.AnError
}
