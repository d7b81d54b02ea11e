package domain

import "time"

// CustomerID is the Telegram chat id of a customer, kept as a string.
type CustomerID string

// CartItem is one pending line in a customer's cart. Price is a snapshot
// taken when the line was added; later catalog price changes do not touch it.
type CartItem struct {
	ProductID ProductID `json:"product_id"`
	Size      int       `json:"size"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
}

// Cart is the single mutable cart of one customer. Every line item holds a
// quantity that is already reserved against product stock.
type Cart struct {
	CustomerID       CustomerID `json:"customer_id"`
	Items            []CartItem `json:"items"`
	DeliveryLocation string     `json:"delivery_location"`
	DeliveryAddress  string     `json:"delivery_address"`
	DeliveryFee      int64      `json:"delivery_fee"`
	ReminderSent     bool       `json:"reminder_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Item(productID ProductID, size int) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Size == size {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) RemoveItem(productID ProductID, size int) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID == productID && it.Size == size {
			continue
		}
		kept = append(kept, it)
	}
	c.Items = kept
}

func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.Price * int64(it.Quantity)
	}
	return sum
}

// CartView is the read shape returned to callers. A customer without a cart
// gets the zero view, not an error.
type CartView struct {
	Items       []CartItem `json:"items"`
	Subtotal    int64      `json:"subtotal"`
	DeliveryFee int64      `json:"delivery_fee"`
	Total       int64      `json:"total"`
}

func EmptyCartView() CartView {
	return CartView{Items: []CartItem{}}
}
