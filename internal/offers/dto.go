package offers

// CreateOfferRequest is the payload for applying a new discount.
type CreateOfferRequest struct {
	Name               string     `json:"name" validate:"required,max=120"`
	Type               TargetType `json:"type" validate:"required,oneof=all category product"`
	TargetID           *string    `json:"targetId,omitempty"`
	DiscountPercentage int        `json:"discountPercentage" validate:"required"`
}
