package domain

import "time"

type OrderID string

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
	PaymentFailed PaymentStatus = "FAILED"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// fulfillmentNext lists the manual admin transitions past PAID. CANCELLED and
// DELIVERED are terminal.
var fulfillmentNext = map[OrderStatus][]OrderStatus{
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
}

// CanTransition reports whether an administrator may move an order from one
// fulfillment status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range fulfillmentNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is a purchased line captured at checkout time. Name and price are
// snapshots, deliberately decoupled from later catalog changes.
type OrderItem struct {
	ProductID   ProductID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Size        int       `json:"size"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
}

// Order is the immutable result of a checkout. Stock for its items stays
// reserved until the order is paid or swept.
type Order struct {
	ID           OrderID     `json:"id"`
	CustomerID   CustomerID  `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	Items        []OrderItem `json:"items"`

	Subtotal         int64  `json:"subtotal"`
	DeliveryFee      int64  `json:"delivery_fee"`
	Total            int64  `json:"total"`
	DeliveryLocation string `json:"delivery_location"`
	DeliveryAddress  string `json:"delivery_address"`

	// PaymentReference is globally unique and is the key the payment
	// provider echoes back in webhooks.
	PaymentReference string        `json:"payment_reference"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentLink      string        `json:"payment_link,omitempty"`
	PaymentChannel   string        `json:"payment_channel,omitempty"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`

	Status    OrderStatus `json:"status"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether an unpaid order is past its payment window.
func (o *Order) Expired(now time.Time) bool {
	return o.PaymentStatus == PaymentUnpaid &&
		o.Status != OrderCancelled &&
		o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}
