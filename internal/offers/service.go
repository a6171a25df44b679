package offers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/catalog"
	"github.com/hedoomy/backoffice/internal/shared"
)

// AuditPort abstracts activity logging.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// CachePort invalidates cached product listings after price rewrites.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service applies and reverts percentage discounts over product selections.
//
// Baseline rule: originalPrice is captured from the current price the first
// time a product is discounted and never overwritten afterwards, so stacking
// a second offer replaces the first offer's link but still discounts from the
// true pre-offer price, and removal reverts to it exactly.
type Service struct {
	repo    Repository
	catalog catalog.Repository
	audit   AuditPort
	cache   CachePort
}

// NewService builds Service.
func NewService(repo Repository, catalogRepo catalog.Repository, auditPort AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, catalog: catalogRepo, audit: auditPort, cache: cache}
}

// Create resolves the target product set, rewrites prices in one transaction,
// then persists the offer. A selection that matches nothing still creates the
// offer, inert.
func (s *Service) Create(ctx context.Context, req CreateOfferRequest, actor shared.Actor) (*Offer, error) {
	if req.DiscountPercentage < 1 || req.DiscountPercentage > 99 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDiscount, req.DiscountPercentage)
	}
	if req.Type != TargetAll && (req.TargetID == nil || *req.TargetID == "") {
		return nil, fmt.Errorf("%w: type %q", ErrMissingTarget, req.Type)
	}

	products, targetName, err := s.resolveTargets(ctx, req.Type, req.TargetID)
	if err != nil {
		return nil, err
	}

	offer := Offer{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		Type:               req.Type,
		TargetID:           req.TargetID,
		TargetName:         targetName,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           true,
		CreatedAt:          time.Now().UTC(),
	}

	if len(products) > 0 {
		factor := 1 - float64(req.DiscountPercentage)/100
		err = s.catalog.WithTx(ctx, func(ctx context.Context, tx catalog.Repository) error {
			for _, p := range products {
				baseline := p.Price
				if p.OriginalPrice != nil {
					baseline = *p.OriginalPrice
				}
				newPrice := math.Round(baseline * factor)
				if err := tx.UpdateOfferPricing(ctx, p.ID, newPrice, &baseline, &offer.ID); err != nil {
					return fmt.Errorf("offers: discount product %s: %w", p.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("offers: persist offer: %w", err)
	}

	details := fmt.Sprintf("Offer %q: %d%% off %s, %d products discounted", offer.Name, offer.DiscountPercentage, targetName, len(products))
	if len(products) == 0 {
		details = fmt.Sprintf("Offer %q: %d%% off %s, no matching products (inert)", offer.Name, offer.DiscountPercentage, targetName)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Created Offer",
			Details: details,
			Actor:   actor,
		})
	}
	if s.cache != nil && len(products) > 0 {
		_ = s.cache.Bump(ctx)
	}
	return &offer, nil
}

// Remove reverts every product linked to the offer back to its stored
// baseline, then deletes the offer.
func (s *Service) Remove(ctx context.Context, offerID string, actor shared.Actor) error {
	offer, err := s.repo.Get(ctx, offerID)
	if err != nil {
		return err
	}

	products, err := s.catalog.ListByOfferID(ctx, offerID)
	if err != nil {
		return fmt.Errorf("offers: list discounted products: %w", err)
	}

	if len(products) > 0 {
		err = s.catalog.WithTx(ctx, func(ctx context.Context, tx catalog.Repository) error {
			for _, p := range products {
				// Fallback to the current price if the baseline is missing;
				// should not happen when the pricing invariant held.
				price := p.Price
				if p.OriginalPrice != nil {
					price = *p.OriginalPrice
				}
				if err := tx.UpdateOfferPricing(ctx, p.ID, price, nil, nil); err != nil {
					return fmt.Errorf("offers: revert product %s: %w", p.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, offerID); err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Removed Offer",
			Details: fmt.Sprintf("Offer %q removed, %d products reverted", offer.Name, len(products)),
			Actor:   actor,
		})
	}
	if s.cache != nil && len(products) > 0 {
		_ = s.cache.Bump(ctx)
	}
	return nil
}

// Get fetches one offer.
func (s *Service) Get(ctx context.Context, id string) (Offer, error) {
	return s.repo.Get(ctx, id)
}

// List returns all offers newest first.
func (s *Service) List(ctx context.Context) ([]Offer, error) {
	return s.repo.List(ctx)
}

func (s *Service) resolveTargets(ctx context.Context, targetType TargetType, targetID *string) ([]catalog.Product, string, error) {
	switch targetType {
	case TargetAll:
		products, err := s.catalog.ListAll(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("offers: list products: %w", err)
		}
		return products, "All Products", nil
	case TargetCategory:
		products, err := s.catalog.ListByCategory(ctx, *targetID)
		if err != nil {
			return nil, "", fmt.Errorf("offers: list category products: %w", err)
		}
		return products, *targetID, nil
	case TargetProduct:
		product, err := s.catalog.Get(ctx, *targetID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				// Missing target product yields an inert offer, not a failure.
				return nil, *targetID, nil
			}
			return nil, "", fmt.Errorf("offers: load product: %w", err)
		}
		return []catalog.Product{product}, product.Title, nil
	default:
		return nil, "", fmt.Errorf("offers: unknown offer type %q", targetType)
	}
}
