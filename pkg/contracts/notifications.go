// Package contracts holds the wire types shared between the storefront and
// the notification worker.
package contracts

import "time"

type NotificationKind string

const (
	NotifyPaymentConfirmed NotificationKind = "payment.confirmed"
	NotifyPaymentFailed    NotificationKind = "payment.failed"
	NotifyOrderExpired     NotificationKind = "order.expired"
	NotifyCartReminder     NotificationKind = "cart.reminder"
	NotifyAdminPaidOrder   NotificationKind = "admin.paid_order"
	NotifyAdminLatePayment NotificationKind = "admin.late_payment"
)

// Notification is one outbound Telegram message. EventID deduplicates
// redelivered Kafka messages on the worker side.
type Notification struct {
	EventID   string           `json:"event_id"`
	Recipient string           `json:"recipient"` // Telegram chat id
	OrderRef  string           `json:"order_ref,omitempty"`
	Kind      NotificationKind `json:"kind"`
	Text      string           `json:"text"`
	CreatedAt time.Time        `json:"created_at"`
}
