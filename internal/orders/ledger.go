package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/hedoomy/backoffice/internal/catalog"
)

// Direction selects how the ledger adjusts variant stock.
type Direction int

const (
	// DeductStrict subtracts and fails with ErrInsufficientStock before
	// writing when any variant would go negative. Order-creation path.
	DeductStrict Direction = iota
	// DeductClamp subtracts and clamps at zero. Used when reactivating a
	// cancelled order: the stock was already reserved historically, so the
	// transition must not be blocked retroactively.
	DeductClamp
	// Restore adds quantities back unconditionally.
	Restore
)

// CatalogPort is the slice of the catalog the ledger needs.
type CatalogPort interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	CompareAndSwapStock(ctx context.Context, id string, version int64, variants []catalog.Variant, totalStock int) error
}

// Ledger applies order line-item deltas to product variant stock, keeping the
// denormalized total in sync. Deltas for items sharing a product are merged
// into a single write so sequential read-then-write cycles on the same
// document cannot lose updates.
type Ledger struct {
	catalog CatalogPort
	retries int
}

// NewLedger builds a Ledger. retries bounds the compare-and-swap retry loop.
func NewLedger(catalogPort CatalogPort, retries int) *Ledger {
	if retries <= 0 {
		retries = 3
	}
	return &Ledger{catalog: catalogPort, retries: retries}
}

type productDelta struct {
	productID string
	items     []OrderItem
}

// Apply adjusts stock for every line item in the given direction.
//
// Products are processed one at a time; a failure on one product leaves
// earlier products applied. No compensating rollback is attempted; the
// failure names the offending item so the caller can surface it.
func (l *Ledger) Apply(ctx context.Context, items []OrderItem, direction Direction) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range items {
		if item.Qty <= 0 {
			return fmt.Errorf("%w: %q x%d", ErrInvalidQuantity, item.VariantID, item.Qty)
		}
	}

	for _, delta := range groupByProduct(items) {
		if err := l.applyProduct(ctx, delta, direction); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) applyProduct(ctx context.Context, delta productDelta, direction Direction) error {
	var lastErr error
	for attempt := 0; attempt < l.retries; attempt++ {
		product, err := l.catalog.Get(ctx, delta.productID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return fmt.Errorf("product %s: %w", delta.productID, err)
			}
			return fmt.Errorf("orders: load product %s: %w", delta.productID, err)
		}

		variants := make([]catalog.Variant, len(product.Variants))
		copy(variants, product.Variants)

		for _, item := range delta.items {
			idx, ok := catalog.FindVariant(variants, item.VariantID)
			if !ok {
				return fmt.Errorf("product %s variant %s: %w", delta.productID, item.VariantID, catalog.ErrVariantNotFound)
			}
			next := variants[idx].Stock
			switch direction {
			case Restore:
				next += item.Qty
			case DeductStrict:
				next -= item.Qty
				if next < 0 {
					return fmt.Errorf("%w: %q needs %d, have %d", ErrInsufficientStock, item.Title, item.Qty, variants[idx].Stock)
				}
			case DeductClamp:
				next -= item.Qty
				if next < 0 {
					next = 0
				}
			}
			variants[idx].Stock = next
		}

		err = l.catalog.CompareAndSwapStock(ctx, product.ID, product.Version, variants, catalog.SumStock(variants))
		if err == nil {
			return nil
		}
		if !errors.Is(err, catalog.ErrVersionConflict) {
			return fmt.Errorf("orders: write product %s: %w", delta.productID, err)
		}
		lastErr = err
	}
	return fmt.Errorf("orders: product %s: %w", delta.productID, lastErr)
}

// groupByProduct merges items referencing the same product, preserving the
// order in which products first appear.
func groupByProduct(items []OrderItem) []productDelta {
	index := make(map[string]int, len(items))
	var deltas []productDelta
	for _, item := range items {
		i, ok := index[item.ProductID]
		if !ok {
			i = len(deltas)
			index[item.ProductID] = i
			deltas = append(deltas, productDelta{productID: item.ProductID})
		}
		deltas[i].items = append(deltas[i].items, item)
	}
	return deltas
}
