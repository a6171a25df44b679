package orders

import (
	"errors"
	"time"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod enumerates accepted payment kinds.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

// OrderItem is a denormalized snapshot of a purchased variant. Title and
// price are frozen at checkout so later product edits or deletions do not
// corrupt order history.
type OrderItem struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
	Category  string  `json:"category"`
}

// Customer holds the buyer contact.
type Customer struct {
	Email string `json:"email"`
}

// Delivery holds the shipping address.
type Delivery struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Government string `json:"government"`
}

// Payment tracks how and whether the order was paid.
type Payment struct {
	Method          PaymentMethod `json:"method"`
	Paid            bool          `json:"paid"`
	DepositAmount   *float64      `json:"depositAmount,omitempty"`
	PaymentPhotoURL *string       `json:"paymentPhotoUrl,omitempty"`
}

// Totals are computed once at order creation and never re-derived.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Order is a customer order.
type Order struct {
	ID        string      `json:"id"`
	Items     []OrderItem `json:"items"`
	Customer  Customer    `json:"customer"`
	Delivery  Delivery    `json:"delivery"`
	Payment   Payment     `json:"payment"`
	Totals    Totals      `json:"totals"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ErrOrderNotFound indicates a missing order document.
var ErrOrderNotFound = errors.New("orders: order not found")

// ErrEmptyOrder indicates an order with no items.
var ErrEmptyOrder = errors.New("orders: order has no items")

// ErrInvalidQuantity indicates a non-positive item quantity.
var ErrInvalidQuantity = errors.New("orders: quantity must be positive")

// ErrInsufficientStock indicates a deduct would take a variant below zero.
// Raised only on the strict (order-creation) path; status transitions clamp.
var ErrInsufficientStock = errors.New("orders: insufficient stock")
