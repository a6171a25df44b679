package offers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the offer persistence contract.
type Repository interface {
	Get(ctx context.Context, id string) (Offer, error)
	List(ctx context.Context) ([]Offer, error)
	Create(ctx context.Context, offer Offer) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed offer repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const offerColumns = `id, name, type, target_id, target_name, discount_percentage, is_active, created_at`

func (r *repository) Get(ctx context.Context, id string) (Offer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	offer, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, ErrOfferNotFound
	}
	return offer, err
}

func (r *repository) List(ctx context.Context) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *repository) Create(ctx context.Context, offer Offer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO offers (id, name, type, target_id, target_name, discount_percentage, is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		offer.ID, offer.Name, string(offer.Type), offer.TargetID, offer.TargetName,
		offer.DiscountPercentage, offer.IsActive, offer.CreatedAt)
	return err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOfferNotFound
	}
	return nil
}

func scanOffer(row pgx.Row) (Offer, error) {
	var o Offer
	var offerType string
	err := row.Scan(&o.ID, &o.Name, &offerType, &o.TargetID, &o.TargetName,
		&o.DiscountPercentage, &o.IsActive, &o.CreatedAt)
	if err != nil {
		return Offer{}, err
	}
	o.Type = TargetType(offerType)
	return o, nil
}
