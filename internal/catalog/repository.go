package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hedoomy/backoffice/internal/platform/db"
)

// Repository is the catalog persistence contract.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	ListAll(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	ListByOfferID(ctx context.Context, offerID string) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, product Product) error
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error

	// CompareAndSwapStock writes the variant slice and recomputed total only
	// when the stored version still matches; ErrVersionConflict otherwise.
	CompareAndSwapStock(ctx context.Context, id string, version int64, variants []Variant, totalStock int) error

	// UpdateOfferPricing rewrites the price/originalPrice/offerId triple.
	UpdateOfferPricing(ctx context.Context, id string, price float64, originalPrice *float64, offerID *string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, category Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const productColumns = `id, title, description, category, price, original_price, offer_id, variants, total_stock, status, is_best_seller, images, version, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Category != "" {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filters.Category)
	}
	if filters.Status != "" {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(filters.Status))
	}
	if filters.Search != "" {
		argCount++
		where += ` AND (title ILIKE $` + strconv.Itoa(argCount) + ` OR description ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.BestSellerOnly {
		where += ` AND is_best_seller = TRUE`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at DESC`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *repository) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY created_at DESC`, category)
}

func (r *repository) ListByOfferID(ctx context.Context, offerID string) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE offer_id = $1 ORDER BY created_at DESC`, offerID)
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, product Product) error {
	variantsJSON, err := json.Marshal(product.Variants)
	if err != nil {
		return err
	}
	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO products (id, title, description, category, price, original_price, offer_id, variants, total_stock, status, is_best_seller, images, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $13)`,
		product.ID, product.Title, product.Description, product.Category, product.Price,
		product.OriginalPrice, product.OfferID, variantsJSON, product.TotalStock,
		string(product.Status), product.IsBestSeller, imagesJSON, time.Now().UTC())
	return err
}

func (r *repository) Update(ctx context.Context, product Product) error {
	variantsJSON, err := json.Marshal(product.Variants)
	if err != nil {
		return err
	}
	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET title = $1, description = $2, category = $3, price = $4, variants = $5, total_stock = $6, status = $7, is_best_seller = $8, images = $9, version = version + 1, updated_at = $10 WHERE id = $11`,
		product.Title, product.Description, product.Category, product.Price, variantsJSON,
		product.TotalStock, string(product.Status), product.IsBestSeller, imagesJSON,
		time.Now().UTC(), product.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) CompareAndSwapStock(ctx context.Context, id string, version int64, variants []Variant, totalStock int) error {
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET variants = $1, total_stock = $2, version = version + 1, updated_at = $3 WHERE id = $4 AND version = $5`,
		variantsJSON, totalStock, time.Now().UTC(), id, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a vanished product from a raced write.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *repository) UpdateOfferPricing(ctx context.Context, id string, price float64, originalPrice *float64, offerID *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET price = $1, original_price = $2, offer_id = $3, version = version + 1, updated_at = $4 WHERE id = $5`,
		price, originalPrice, offerID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, category Category) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.Slug, time.Now().UTC())
	return err
}

func (r *repository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *repository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var variantsJSON, imagesJSON []byte
	var status string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Price,
		&p.OriginalPrice, &p.OfferID, &variantsJSON, &p.TotalStock,
		&status, &p.IsBestSeller, &imagesJSON, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.Status = ProductStatus(status)
	if len(variantsJSON) > 0 {
		if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
			return Product{}, err
		}
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return Product{}, err
		}
	}
	return p, nil
}
