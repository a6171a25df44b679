package catalog

// VariantInput describes one variant row in a create/update request.
type VariantInput struct {
	Color string `json:"color" validate:"required,max=40"`
	Size  string `json:"size" validate:"required,max=20"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// CreateProductRequest is the payload for creating a product.
type CreateProductRequest struct {
	Title        string         `json:"title" validate:"required,max=200"`
	Description  string         `json:"description" validate:"max=5000"`
	Category     string         `json:"category" validate:"required,max=100"`
	Price        float64        `json:"price" validate:"required,gt=0"`
	Variants     []VariantInput `json:"variants" validate:"required,min=1,dive"`
	Status       ProductStatus  `json:"status" validate:"omitempty,oneof=active inactive"`
	IsBestSeller bool           `json:"isBestSeller"`
	Images       []string       `json:"images" validate:"max=5,dive,url"`
}

// UpdateProductRequest is the payload for editing a product. Nil fields are
// left untouched.
type UpdateProductRequest struct {
	Title        *string         `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category     *string         `json:"category,omitempty" validate:"omitempty,max=100"`
	Price        *float64        `json:"price,omitempty" validate:"omitempty,gt=0"`
	Variants     *[]VariantInput `json:"variants,omitempty" validate:"omitempty,min=1,dive"`
	Status       *ProductStatus  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	IsBestSeller *bool           `json:"isBestSeller,omitempty"`
	Images       *[]string       `json:"images,omitempty" validate:"omitempty,max=5,dive,url"`
}

// ListFilters narrows the product listing.
type ListFilters struct {
	Category       string
	Status         ProductStatus
	Search         string
	BestSellerOnly bool
	Page           int
	PerPage        int
}

// CategoryRequest is the payload for creating a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
}
