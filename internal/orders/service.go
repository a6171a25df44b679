package orders

import (
	"context"
	"errors"
	"fmt"
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

// Notifier dispatches order confirmation notifications. Implementations
// enqueue rather than send; delivery happens in the worker.
type Notifier interface {
	OrderPlaced(ctx context.Context, order Order) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	ShippingFee float64
}

// Service coordinates order intake and lifecycle transitions.
type Service struct {
	repo     Repository
	ledger   *Ledger
	catalog  CatalogPort
	audit    AuditPort
	lock     *shared.Lock
	notifier Notifier
	idem     *shared.IdempotencyStore
	shipping float64
}

// NewService builds Service. idem may be nil, which disables checkout
// deduplication.
func NewService(repo Repository, ledger *Ledger, catalogPort CatalogPort, auditPort AuditPort, lock *shared.Lock, notifier Notifier, idem *shared.IdempotencyStore, cfg ServiceConfig) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		catalog:  catalogPort,
		audit:    auditPort,
		lock:     lock,
		notifier: notifier,
		idem:     idem,
		shipping: cfg.ShippingFee,
	}
}

// Create validates stock, reserves it, and persists a pending order.
//
// The deduct happens before the order write: a crash in between leaves stock
// reserved with no order, which is recoverable, whereas an order without a
// reservation oversells.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, idemKey string) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	insertedKey := false
	if s.idem != nil && idemKey != "" {
		if err := s.idem.CheckAndInsert(ctx, idemKey, "orders"); err != nil {
			return nil, err
		}
		insertedKey = true
	}
	order, err := s.create(ctx, req)
	if err != nil && insertedKey {
		// Free the key so the client can retry a failed checkout.
		_ = s.idem.Delete(ctx, idemKey)
	}
	return order, err
}

func (s *Service) create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	// Snapshot title/price/category per item so order history survives
	// product edits and deletions.
	productByID := make(map[string]catalog.Product, len(req.Items))
	items := make([]OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		if in.Qty <= 0 {
			return nil, fmt.Errorf("%w: %q x%d", ErrInvalidQuantity, in.VariantID, in.Qty)
		}
		product, ok := productByID[in.ProductID]
		if !ok {
			var err error
			product, err = s.catalog.Get(ctx, in.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return nil, fmt.Errorf("product %s: %w", in.ProductID, err)
				}
				return nil, fmt.Errorf("orders: load product %s: %w", in.ProductID, err)
			}
			productByID[in.ProductID] = product
		}
		if _, ok := catalog.FindVariant(product.Variants, in.VariantID); !ok {
			return nil, fmt.Errorf("product %s variant %s: %w", in.ProductID, in.VariantID, catalog.ErrVariantNotFound)
		}
		items = append(items, OrderItem{
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Title:     product.Title,
			Price:     product.Price,
			Qty:       in.Qty,
			Category:  product.Category,
		})
	}

	if err := s.ledger.Apply(ctx, items, DeductStrict); err != nil {
		return nil, err
	}

	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Price * float64(item.Qty)
	}
	now := time.Now().UTC()
	order := Order{
		ID:       uuid.NewString(),
		Items:    items,
		Customer: req.Customer,
		Delivery: Delivery(req.Delivery),
		Payment: Payment{
			Method:          req.Payment.Method,
			Paid:            false,
			DepositAmount:   req.Payment.DepositAmount,
			PaymentPhotoURL: req.Payment.PaymentPhotoURL,
		},
		Totals: Totals{
			Subtotal: subtotal,
			Shipping: s.shipping,
			Total:    subtotal + s.shipping,
		},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("orders: persist order: %w", err)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Order Placed",
			Details: fmt.Sprintf("Order %s: %d items, total %.0f", order.ID, len(order.Items), order.Totals.Total),
			Actor:   shared.Actor{ID: "storefront", Name: "Storefront"},
		})
	}
	if s.notifier != nil {
		_ = s.notifier.OrderPlaced(ctx, order)
	}
	return &order, nil
}

// Transition moves an order to a new status, adjusting stock per the
// lifecycle table. Same-status calls return immediately with no writes and
// no activity entry.
//
// The stock write precedes the status write: a crash in between leaves stock
// adjusted with a stale status, the safer failure direction for inventory.
func (s *Service) Transition(ctx context.Context, orderID string, newStatus Status, actor shared.Actor) (*Order, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	if s.lock != nil {
		key := shared.OrderLockKey(orderID)
		if err := s.lock.Acquire(ctx, key); err != nil {
			if errors.Is(err, shared.ErrLockHeld) {
				return nil, fmt.Errorf("orders: order %s: %w", orderID, err)
			}
			return nil, err
		}
		defer func() { _ = s.lock.Release(ctx, key) }()
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == newStatus {
		return order, nil
	}

	effect, err := TransitionEffect(order.Status, newStatus)
	if err != nil {
		return nil, err
	}

	switch effect {
	case EffectRestore:
		if err := s.ledger.Apply(ctx, order.Items, Restore); err != nil {
			return nil, err
		}
	case EffectDeduct:
		if err := s.ledger.Apply(ctx, order.Items, DeductClamp); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, orderID, newStatus, now); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Updated Order Status",
			Details: fmt.Sprintf("Order %s: %s -> %s", orderID, order.Status, newStatus),
			Actor:   actor,
			Changes: map[string]audit.FieldChange{
				"status": {From: string(order.Status), To: string(newStatus)},
			},
		})
	}

	order.Status = newStatus
	order.UpdatedAt = now
	return order, nil
}

// ConfirmPayment marks the order paid. Deliberately unconditional: no status
// gating and no receipt precondition; the UI decides when to expose it.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string, actor shared.Actor) (*Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Payment.Paid = true
	now := time.Now().UTC()
	if err := s.repo.UpdatePayment(ctx, orderID, order.Payment, now); err != nil {
		return nil, err
	}
	order.UpdatedAt = now

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Confirmed Payment",
			Details: fmt.Sprintf("Order %s marked paid (%s)", orderID, order.Payment.Method),
			Actor:   actor,
		})
	}
	return order, nil
}

// Get fetches a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	if filters.PerPage <= 0 || filters.PerPage > 100 {
		filters.PerPage = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	return s.repo.List(ctx, filters)
}
