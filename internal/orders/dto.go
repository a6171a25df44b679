package orders

// CreateOrderItemRequest references a variant by id; title, price and
// category are snapshotted server-side from the catalog.
type CreateOrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	VariantID string `json:"variantId" validate:"required"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items    []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Customer Customer                 `json:"customer" validate:"required"`
	Delivery DeliveryRequest          `json:"delivery" validate:"required"`
	Payment  PaymentRequest           `json:"payment" validate:"required"`
}

// DeliveryRequest is the shipping address payload.
type DeliveryRequest struct {
	FirstName  string `json:"firstName" validate:"required,max=60"`
	LastName   string `json:"lastName" validate:"required,max=60"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Address    string `json:"address" validate:"required,max=300"`
	City       string `json:"city" validate:"required,max=80"`
	Government string `json:"government" validate:"required,max=80"`
}

// PaymentRequest selects the payment method at checkout.
type PaymentRequest struct {
	Method          PaymentMethod `json:"method" validate:"required,oneof=cash online"`
	DepositAmount   *float64      `json:"depositAmount,omitempty" validate:"omitempty,gt=0"`
	PaymentPhotoURL *string       `json:"paymentPhotoUrl,omitempty" validate:"omitempty,url"`
}

// TransitionRequest moves an order to a new status.
type TransitionRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending confirmed shipped delivered cancelled"`
}
