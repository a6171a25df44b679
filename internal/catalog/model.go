package catalog

import (
	"errors"
	"strings"
	"time"
)

// ProductStatus enumerates catalog visibility states.
type ProductStatus string

const (
	// ProductStatusActive marks a product purchasable on the storefront.
	ProductStatusActive ProductStatus = "active"
	// ProductStatusInactive hides a product without deleting it.
	ProductStatusInactive ProductStatus = "inactive"
)

// Variant is one purchasable color/size combination of a product.
type Variant struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// Product is a catalog entry. Variants carry the per-combination stock and
// TotalStock is the denormalized sum, recomputed on every variant write.
type Product struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Price         float64       `json:"price"`
	OriginalPrice *float64      `json:"originalPrice,omitempty"`
	OfferID       *string       `json:"offerId,omitempty"`
	Variants      []Variant     `json:"variants"`
	TotalStock    int           `json:"totalStock"`
	Status        ProductStatus `json:"status"`
	IsBestSeller  bool          `json:"isBestSeller"`
	Images        []string      `json:"images"`
	Version       int64         `json:"-"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Category groups products. Products reference categories by name.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// VariantID derives the stable variant identifier from color and size:
// lowercased, inner whitespace stripped, joined with a hyphen.
func VariantID(color, size string) string {
	normalize := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.Join(strings.Fields(s), "")
	}
	return normalize(color) + "-" + normalize(size)
}

// SumStock recomputes the denormalized total from the variant slice.
func SumStock(variants []Variant) int {
	total := 0
	for _, v := range variants {
		total += v.Stock
	}
	return total
}

// FindVariant locates a variant by id.
func FindVariant(variants []Variant, id string) (int, bool) {
	for i, v := range variants {
		if v.ID == id {
			return i, true
		}
	}
	return -1, false
}

// ErrProductNotFound indicates a missing product document.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrVariantNotFound indicates a missing variant within a product.
var ErrVariantNotFound = errors.New("catalog: variant not found")

// ErrVersionConflict indicates a concurrent write raced this one.
var ErrVersionConflict = errors.New("catalog: product version conflict")

// ErrCategoryNotFound indicates a missing category.
var ErrCategoryNotFound = errors.New("catalog: category not found")
