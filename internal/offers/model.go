package offers

import (
	"errors"
	"time"
)

// TargetType selects which products an offer applies to.
type TargetType string

const (
	// TargetAll discounts every product in the catalog.
	TargetAll TargetType = "all"
	// TargetCategory discounts products in one category.
	TargetCategory TargetType = "category"
	// TargetProduct discounts a single product.
	TargetProduct TargetType = "product"
)

// Offer is a percentage discount over a product selection. The selection is
// resolved once at apply time; products link back via their offerId and the
// offer never enumerates them.
type Offer struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Type               TargetType `json:"type"`
	TargetID           *string    `json:"targetId,omitempty"`
	TargetName         string     `json:"targetName"`
	DiscountPercentage int        `json:"discountPercentage"`
	IsActive           bool       `json:"isActive"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// ErrOfferNotFound indicates a missing offer.
var ErrOfferNotFound = errors.New("offers: offer not found")

// ErrInvalidDiscount indicates a discount outside [1,99].
var ErrInvalidDiscount = errors.New("offers: discount must be between 1 and 99")

// ErrMissingTarget indicates a category or product offer without a target.
var ErrMissingTarget = errors.New("offers: target required for this offer type")
