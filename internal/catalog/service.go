package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/shared"
)

// AuditPort abstracts activity logging.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// ErrDuplicateVariant indicates two variant rows normalise to the same id.
var ErrDuplicateVariant = errors.New("catalog: duplicate variant")

// Service coordinates catalog operations.
type Service struct {
	repo  Repository
	audit AuditPort
	cache *Cache
}

// NewService builds Service.
func NewService(repo Repository, auditPort AuditPort, cache *Cache) *Service {
	return &Service{repo: repo, audit: auditPort, cache: cache}
}

// ProductPage is a paginated product listing.
type ProductPage struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

// List returns products, served from the redis cache when warm.
func (s *Service) List(ctx context.Context, filters ListFilters) (ProductPage, error) {
	if filters.PerPage <= 0 || filters.PerPage > 100 {
		filters.PerPage = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	key, err := s.cache.BuildKey(ctx, keyProductList(filters))
	if err != nil {
		return ProductPage{}, err
	}
	var page ProductPage
	err = s.cache.FetchJSON(ctx, key, &page, func(ctx context.Context) (interface{}, error) {
		products, total, err := s.repo.List(ctx, filters)
		if err != nil {
			return nil, err
		}
		return ProductPage{
			Products:   products,
			Pagination: shared.NewPagination(filters.Page, filters.PerPage, total),
		}, nil
	})
	return page, err
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, req CreateProductRequest, actor shared.Actor) (Product, error) {
	variants, err := buildVariants(req.Variants)
	if err != nil {
		return Product{}, err
	}
	status := req.Status
	if status == "" {
		status = ProductStatusActive
	}
	now := time.Now().UTC()
	product := Product{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Variants:     variants,
		TotalStock:   SumStock(variants),
		Status:       status,
		IsBestSeller: req.IsBestSeller,
		Images:       req.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	_ = s.cache.Bump(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Created Product",
			Details: fmt.Sprintf("Created product %q with %d variants", product.Title, len(product.Variants)),
			Actor:   actor,
		})
	}
	return product, nil
}

// Update applies a partial edit and records the before/after diff.
func (s *Service) Update(ctx context.Context, id string, req UpdateProductRequest, actor shared.Actor) (Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}

	changes := map[string]audit.FieldChange{}
	updated := existing

	if req.Title != nil && *req.Title != existing.Title {
		changes["title"] = audit.FieldChange{From: existing.Title, To: *req.Title}
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Category != nil && *req.Category != existing.Category {
		changes["category"] = audit.FieldChange{From: existing.Category, To: *req.Category}
		updated.Category = *req.Category
	}
	if req.Price != nil && *req.Price != existing.Price {
		changes["price"] = audit.FieldChange{From: existing.Price, To: *req.Price}
		updated.Price = *req.Price
	}
	if req.Status != nil && *req.Status != existing.Status {
		changes["status"] = audit.FieldChange{From: string(existing.Status), To: string(*req.Status)}
		updated.Status = *req.Status
	}
	if req.IsBestSeller != nil {
		updated.IsBestSeller = *req.IsBestSeller
	}
	if req.Images != nil {
		updated.Images = *req.Images
	}
	if req.Variants != nil {
		variants, err := buildVariants(*req.Variants)
		if err != nil {
			return Product{}, err
		}
		if SumStock(variants) != existing.TotalStock {
			changes["totalStock"] = audit.FieldChange{From: existing.TotalStock, To: SumStock(variants)}
		}
		updated.Variants = variants
		updated.TotalStock = SumStock(variants)
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return Product{}, fmt.Errorf("catalog: update product: %w", err)
	}
	_ = s.cache.Bump(ctx)
	if s.audit != nil {
		var changesArg map[string]audit.FieldChange
		if len(changes) > 0 {
			changesArg = changes
		}
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Updated Product",
			Details: fmt.Sprintf("Updated product %q", updated.Title),
			Actor:   actor,
			Changes: changesArg,
		})
	}
	return updated, nil
}

// Delete removes a product. Orders keep denormalized item snapshots so
// deleting a product does not corrupt order history.
func (s *Service) Delete(ctx context.Context, id string, actor shared.Actor) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Bump(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Deleted Product",
			Details: fmt.Sprintf("Deleted product %q", existing.Title),
			Actor:   actor,
		})
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory persists a category, deriving the slug when absent.
func (s *Service) CreateCategory(ctx context.Context, req CategoryRequest, actor shared.Actor) (Category, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	category := Category{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return Category{}, fmt.Errorf("catalog: create category: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Created Category",
			Details: fmt.Sprintf("Created category %q", category.Name),
			Actor:   actor,
		})
	}
	return category, nil
}

// DeleteCategory removes a category. Products keep the category name they
// were assigned; reassignment is an explicit product edit.
func (s *Service) DeleteCategory(ctx context.Context, id string, actor shared.Actor) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Deleted Category",
			Details: fmt.Sprintf("Deleted category %s", id),
			Actor:   actor,
		})
	}
	return nil
}

// Slugify lowercases and hyphenates a display name.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

func buildVariants(inputs []VariantInput) ([]Variant, error) {
	variants := make([]Variant, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		id := VariantID(in.Color, in.Size)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVariant, id)
		}
		seen[id] = struct{}{}
		variants = append(variants, Variant{
			ID:    id,
			Color: in.Color,
			Size:  in.Size,
			Stock: in.Stock,
		})
	}
	return variants, nil
}
