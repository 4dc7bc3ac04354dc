package models

import "time"

// Order status lifecycle. PAID_AND_CONFIRMED and CANCELLED are terminal.
// Only the PENDING_* -> PAID_AND_CONFIRMED admin approval decrements stock.
const (
	StatusPendingCOD         = "PENDING_COD"
	StatusPendingPayOS       = "PENDING_PAYOS"
	StatusPaidPendingConfirm = "PAID_PENDING_CONFIRM"
	StatusPaidAndConfirmed   = "PAID_AND_CONFIRMED"
	StatusCancelled          = "CANCELLED"
)

// Payment methods accepted at checkout
const (
	PaymentMethodCOD   = "COD"
	PaymentMethodPayOS = "PAYOS"
)

// Order is the model for the 'orders' table.
// OrderCode is the gateway-facing numeric code. It is serialized as a JSON
// string because JavaScript clients decode JSON numbers as float64.
// UserID is nil for guest checkout.
type Order struct {
	ID            int64     `json:"id" db:"id"`
	OrderCode     int64     `json:"orderCode,string" db:"order_code"`
	UserID        *int64    `json:"userId,omitempty" db:"user_id"`
	CustomerName  string    `json:"customerName" db:"customer_name"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	Total         float64   `json:"total" db:"total"`
	PaymentMethod string    `json:"paymentMethod" db:"payment_method"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`

	// Populated manually from 'order_items'
	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
// ProductName is a snapshot taken at checkout so the order history survives
// product deletion or renaming; VariantID nulls out if the variant goes away.
type OrderItem struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"orderId" db:"order_id"`
	VariantID   *int64  `json:"variantId,omitempty" db:"variant_id"`
	ProductName string  `json:"productName" db:"product_name"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Price       float64 `json:"price" db:"price"`
}
