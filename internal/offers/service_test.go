package offers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/catalog"
	"github.com/hedoomy/backoffice/internal/shared"
)

// memCatalog is an in-memory catalog.Repository covering what the offer
// engine touches.
type memCatalog struct {
	products map[string]catalog.Product
}

func newMemCatalog(products ...catalog.Product) *memCatalog {
	m := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &memCatalog{products: m}
}

func (m *memCatalog) WithTx(ctx context.Context, fn func(context.Context, catalog.Repository) error) error {
	return fn(ctx, m)
}

func (m *memCatalog) List(context.Context, catalog.ListFilters) ([]catalog.Product, int, error) {
	all, _ := m.ListAll(context.Background())
	return all, len(all), nil
}

func (m *memCatalog) ListAll(context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalog) ListByCategory(_ context.Context, category string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) ListByOfferID(_ context.Context, offerID string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.OfferID != nil && *p.OfferID == offerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) Get(_ context.Context, id string) (catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *memCatalog) Create(_ context.Context, product catalog.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *memCatalog) Update(_ context.Context, product catalog.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *memCatalog) Delete(_ context.Context, id string) error {
	delete(m.products, id)
	return nil
}

func (m *memCatalog) CompareAndSwapStock(_ context.Context, id string, version int64, variants []catalog.Variant, totalStock int) error {
	p, ok := m.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if p.Version != version {
		return catalog.ErrVersionConflict
	}
	p.Variants = variants
	p.TotalStock = totalStock
	p.Version++
	m.products[id] = p
	return nil
}

func (m *memCatalog) UpdateOfferPricing(_ context.Context, id string, price float64, originalPrice *float64, offerID *string) error {
	p, ok := m.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.Price = price
	p.OriginalPrice = originalPrice
	p.OfferID = offerID
	p.Version++
	m.products[id] = p
	return nil
}

func (m *memCatalog) ListCategories(context.Context) ([]catalog.Category, error) { return nil, nil }
func (m *memCatalog) CreateCategory(context.Context, catalog.Category) error    { return nil }
func (m *memCatalog) DeleteCategory(context.Context, string) error              { return nil }

type memOfferRepo struct {
	offers map[string]Offer
}

func newMemOfferRepo() *memOfferRepo {
	return &memOfferRepo{offers: map[string]Offer{}}
}

func (m *memOfferRepo) Get(_ context.Context, id string) (Offer, error) {
	o, ok := m.offers[id]
	if !ok {
		return Offer{}, ErrOfferNotFound
	}
	return o, nil
}

func (m *memOfferRepo) List(context.Context) ([]Offer, error) {
	var out []Offer
	for _, o := range m.offers {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOfferRepo) Create(_ context.Context, offer Offer) error {
	m.offers[offer.ID] = offer
	return nil
}

func (m *memOfferRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.offers[id]; !ok {
		return ErrOfferNotFound
	}
	delete(m.offers, id)
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func strPtr(s string) *string { return &s }

func product(id, category string, price float64) catalog.Product {
	return catalog.Product{ID: id, Title: "Product " + id, Category: category, Price: price, Version: 1}
}

func TestCreateOfferDiscountsSingleProduct(t *testing.T) {
	cat := newMemCatalog(product("p1", "tees", 100))
	repo := newMemOfferRepo()
	auditRec := &recordingAudit{}
	svc := NewService(repo, cat, auditRec, nil)

	offer, err := svc.Create(context.Background(), CreateOfferRequest{
		Name:               "Summer Sale",
		Type:               TargetProduct,
		TargetID:           strPtr("p1"),
		DiscountPercentage: 20,
	}, shared.Actor{Email: "admin@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Product p1", offer.TargetName)
	require.True(t, offer.IsActive)

	p, err := cat.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 80.0, p.Price)
	require.NotNil(t, p.OriginalPrice)
	require.Equal(t, 100.0, *p.OriginalPrice)
	require.NotNil(t, p.OfferID)
	require.Equal(t, offer.ID, *p.OfferID)

	require.Len(t, auditRec.entries, 1)
	require.Equal(t, "Created Offer", auditRec.entries[0].Action)
}

func TestCreateOfferCategoryAndAll(t *testing.T) {
	cat := newMemCatalog(
		product("p1", "tees", 100),
		product("p2", "tees", 50),
		product("p3", "hats", 30),
	)
	repo := newMemOfferRepo()
	svc := NewService(repo, cat, &recordingAudit{}, nil)

	offer, err := svc.Create(context.Background(), CreateOfferRequest{
		Name:               "Tees Week",
		Type:               TargetCategory,
		TargetID:           strPtr("tees"),
		DiscountPercentage: 10,
	}, shared.Actor{})
	require.NoError(t, err)
	require.Equal(t, "tees", offer.TargetName)

	p1, _ := cat.Get(context.Background(), "p1")
	p2, _ := cat.Get(context.Background(), "p2")
	p3, _ := cat.Get(context.Background(), "p3")
	require.Equal(t, 90.0, p1.Price)
	require.Equal(t, 45.0, p2.Price)
	require.Equal(t, 30.0, p3.Price)
	require.Nil(t, p3.OfferID)

	all, err := svc.Create(context.Background(), CreateOfferRequest{
		Name:               "Everything",
		Type:               TargetAll,
		DiscountPercentage: 50,
	}, shared.Actor{})
	require.NoError(t, err)
	require.Equal(t, "All Products", all.TargetName)

	// Already-discounted products discount from the captured baseline, not
	// the current price.
	p1, _ = cat.Get(context.Background(), "p1")
	p3, _ = cat.Get(context.Background(), "p3")
	require.Equal(t, 50.0, p1.Price)
	require.Equal(t, 100.0, *p1.OriginalPrice)
	require.Equal(t, all.ID, *p1.OfferID)
	require.Equal(t, 15.0, p3.Price)
	require.Equal(t, 30.0, *p3.OriginalPrice)
}

func TestCreateOfferRoundsPrice(t *testing.T) {
	cat := newMemCatalog(product("p1", "tees", 99))
	svc := NewService(newMemOfferRepo(), cat, &recordingAudit{}, nil)

	_, err := svc.Create(context.Background(), CreateOfferRequest{
		Name:               "Odd",
		Type:               TargetProduct,
		TargetID:           strPtr("p1"),
		DiscountPercentage: 15,
	}, shared.Actor{})
	require.NoError(t, err)

	// 99 * 0.85 = 84.15, rounded to 84.
	p, _ := cat.Get(context.Background(), "p1")
	require.Equal(t, 84.0, p.Price)
}

func TestCreateOfferValidation(t *testing.T) {
	svc := NewService(newMemOfferRepo(), newMemCatalog(), &recordingAudit{}, nil)

	_, err := svc.Create(context.Background(), CreateOfferRequest{Name: "x", Type: TargetAll, DiscountPercentage: 0}, shared.Actor{})
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = svc.Create(context.Background(), CreateOfferRequest{Name: "x", Type: TargetAll, DiscountPercentage: 100}, shared.Actor{})
	require.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = svc.Create(context.Background(), CreateOfferRequest{Name: "x", Type: TargetCategory, DiscountPercentage: 10}, shared.Actor{})
	require.ErrorIs(t, err, ErrMissingTarget)

	_, err = svc.Create(context.Background(), CreateOfferRequest{Name: "x", Type: TargetProduct, DiscountPercentage: 10}, shared.Actor{})
	require.ErrorIs(t, err, ErrMissingTarget)
}

func TestCreateOfferInertWhenNothingMatches(t *testing.T) {
	repo := newMemOfferRepo()
	auditRec := &recordingAudit{}
	svc := NewService(repo, newMemCatalog(), auditRec, nil)

	offer, err := svc.Create(context.Background(), CreateOfferRequest{
		Name:               "Ghost",
		Type:               TargetProduct,
		TargetID:           strPtr("missing"),
		DiscountPercentage: 10,
	}, shared.Actor{})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), offer.ID)
	require.NoError(t, err)
	require.True(t, stored.IsActive)
	require.Len(t, auditRec.entries, 1)
	require.Contains(t, auditRec.entries[0].Details, "inert")
}

func TestRemoveOfferRevertsExactly(t *testing.T) {
	cat := newMemCatalog(product("p1", "tees", 100), product("p2", "tees", 79))
	repo := newMemOfferRepo()
	auditRec := &recordingAudit{}
	svc := NewService(repo, cat, auditRec, nil)

	offer, err := svc.Create(context.Background(), CreateOfferRequest{
		Name:               "Tees Week",
		Type:               TargetCategory,
		TargetID:           strPtr("tees"),
		DiscountPercentage: 33,
	}, shared.Actor{})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), offer.ID, shared.Actor{}))

	p1, _ := cat.Get(context.Background(), "p1")
	p2, _ := cat.Get(context.Background(), "p2")
	require.Equal(t, 100.0, p1.Price)
	require.Equal(t, 79.0, p2.Price)
	require.Nil(t, p1.OriginalPrice)
	require.Nil(t, p1.OfferID)
	require.Nil(t, p2.OriginalPrice)
	require.Nil(t, p2.OfferID)

	_, err = repo.Get(context.Background(), offer.ID)
	require.ErrorIs(t, err, ErrOfferNotFound)

	require.Len(t, auditRec.entries, 2)
	require.Equal(t, "Removed Offer", auditRec.entries[1].Action)
}

func TestRemoveOfferNotFound(t *testing.T) {
	svc := NewService(newMemOfferRepo(), newMemCatalog(), &recordingAudit{}, nil)
	err := svc.Remove(context.Background(), "missing", shared.Actor{})
	require.ErrorIs(t, err, ErrOfferNotFound)
}

func TestRemoveReplacedOfferRevertsToBaseline(t *testing.T) {
	cat := newMemCatalog(product("p1", "tees", 100))
	repo := newMemOfferRepo()
	svc := NewService(repo, cat, &recordingAudit{}, nil)

	first, err := svc.Create(context.Background(), CreateOfferRequest{
		Name: "First", Type: TargetProduct, TargetID: strPtr("p1"), DiscountPercentage: 20,
	}, shared.Actor{})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), CreateOfferRequest{
		Name: "Second", Type: TargetProduct, TargetID: strPtr("p1"), DiscountPercentage: 40,
	}, shared.Actor{})
	require.NoError(t, err)

	p, _ := cat.Get(context.Background(), "p1")
	require.Equal(t, 60.0, p.Price)
	require.Equal(t, second.ID, *p.OfferID)

	// Removing the replaced offer touches nothing: no product links to it.
	require.NoError(t, svc.Remove(context.Background(), first.ID, shared.Actor{}))
	p, _ = cat.Get(context.Background(), "p1")
	require.Equal(t, 60.0, p.Price)

	// Removing the live offer reverts to the original 100, not 80.
	require.NoError(t, svc.Remove(context.Background(), second.ID, shared.Actor{}))
	p, _ = cat.Get(context.Background(), "p1")
	require.Equal(t, 100.0, p.Price)
	require.Nil(t, p.OriginalPrice)
	require.Nil(t, p.OfferID)
}
