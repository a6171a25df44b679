package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListFilters narrows the order listing.
type ListFilters struct {
	Status  Status
	Email   string
	Page    int
	PerPage int
}

// Repository is the order persistence contract.
type Repository interface {
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filters ListFilters) ([]Order, int, error)
	Create(ctx context.Context, order Order) error
	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
	UpdatePayment(ctx context.Context, id string, payment Payment, updatedAt time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed order repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, items, customer, delivery, payment, totals, status, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Status != "" {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(filters.Status))
	}
	if filters.Email != "" {
		argCount++
		where += ` AND customer->>'email' = $` + strconv.Itoa(argCount)
		args = append(args, filters.Email)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC`
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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	return orders, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, order Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return err
	}
	deliveryJSON, err := json.Marshal(order.Delivery)
	if err != nil {
		return err
	}
	paymentJSON, err := json.Marshal(order.Payment)
	if err != nil {
		return err
	}
	totalsJSON, err := json.Marshal(order.Totals)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO orders (id, items, customer, delivery, payment, totals, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID, itemsJSON, customerJSON, deliveryJSON, paymentJSON, totalsJSON,
		string(order.Status), order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, string(status), updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) UpdatePayment(ctx context.Context, id string, payment Payment, updatedAt time.Time) error {
	paymentJSON, err := json.Marshal(payment)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET payment = $1, updated_at = $2 WHERE id = $3`, paymentJSON, updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var itemsJSON, customerJSON, deliveryJSON, paymentJSON, totalsJSON []byte
	var status string
	err := row.Scan(&o.ID, &itemsJSON, &customerJSON, &deliveryJSON, &paymentJSON, &totalsJSON, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(deliveryJSON, &o.Delivery); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(paymentJSON, &o.Payment); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(totalsJSON, &o.Totals); err != nil {
		return nil, err
	}
	return &o, nil
}
