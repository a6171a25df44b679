package orders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/shared"
)

type fakeOrderRepo struct {
	orders        map[string]Order
	statusWrites  int
	paymentWrites int
}

func newFakeOrderRepo(orders ...Order) *fakeOrderRepo {
	m := make(map[string]Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m}
}

func (f *fakeOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ ListFilters) ([]Order, int, error) {
	var out []Order
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) Create(_ context.Context, order Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status Status, updatedAt time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	f.orders[id] = o
	f.statusWrites++
	return nil
}

func (f *fakeOrderRepo) UpdatePayment(_ context.Context, id string, payment Payment, updatedAt time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Payment = payment
	o.UpdatedAt = updatedAt
	f.orders[id] = o
	f.paymentWrites++
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type recordingNotifier struct {
	placed []Order
}

func (r *recordingNotifier) OrderPlaced(_ context.Context, order Order) error {
	r.placed = append(r.placed, order)
	return nil
}

func testLock(t *testing.T) (*shared.Lock, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewLock(client, time.Minute), client
}

func newTestService(t *testing.T, fake *fakeCatalog, repo *fakeOrderRepo) (*Service, *recordingAudit, *recordingNotifier) {
	t.Helper()
	auditRec := &recordingAudit{}
	notifier := &recordingNotifier{}
	lock, _ := testLock(t)
	svc := NewService(repo, NewLedger(fake, 3), fake, auditRec, lock, notifier, nil, ServiceConfig{ShippingFee: 50})
	return svc, auditRec, notifier
}

func TestServiceCreateSnapshotsAndDeducts(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 10}))
	repo := newFakeOrderRepo()
	svc, auditRec, notifier := newTestService(t, fake, repo)

	req := CreateOrderRequest{
		Items:    []CreateOrderItemRequest{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Customer: Customer{Email: "buyer@example.com"},
		Delivery: DeliveryRequest{FirstName: "A", LastName: "B", Phone: "0100", Address: "1 St", City: "Cairo", Government: "Cairo"},
		Payment:  PaymentRequest{Method: PaymentCash},
	}
	order, err := svc.Create(context.Background(), req, "")
	require.NoError(t, err)

	require.Equal(t, StatusPending, order.Status)
	require.False(t, order.Payment.Paid)
	require.Equal(t, "Tee p1", order.Items[0].Title)
	require.Equal(t, 100.0, order.Items[0].Price)
	require.Equal(t, 300.0, order.Totals.Subtotal)
	require.Equal(t, 50.0, order.Totals.Shipping)
	require.Equal(t, 350.0, order.Totals.Total)
	require.Equal(t, 7, fake.stock(t, "p1", "red-m"))

	stored, err := repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, stored.ID)

	require.Len(t, auditRec.entries, 1)
	require.Equal(t, "Order Placed", auditRec.entries[0].Action)
	require.Len(t, notifier.placed, 1)
}

func TestServiceCreateInsufficientStock(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 2}))
	repo := newFakeOrderRepo()
	svc, auditRec, notifier := newTestService(t, fake, repo)

	req := CreateOrderRequest{
		Items:    []CreateOrderItemRequest{{ProductID: "p1", VariantID: "red-m", Qty: 5}},
		Customer: Customer{Email: "buyer@example.com"},
		Payment:  PaymentRequest{Method: PaymentCash},
	}
	_, err := svc.Create(context.Background(), req, "")
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.Equal(t, 2, fake.stock(t, "p1", "red-m"))
	require.Empty(t, repo.orders)
	require.Empty(t, auditRec.entries)
	require.Empty(t, notifier.placed)
}

func TestServiceTransitionSameStatusIsNoOp(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 7}))
	existing := Order{
		ID:     "o1",
		Items:  []OrderItem{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Status: StatusPending,
	}
	repo := newFakeOrderRepo(existing)
	svc, auditRec, _ := newTestService(t, fake, repo)

	order, err := svc.Transition(context.Background(), "o1", StatusPending, shared.Actor{Email: "a@b.c"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)

	require.Zero(t, repo.statusWrites)
	require.Zero(t, fake.casCalls)
	require.Empty(t, auditRec.entries)
}

func TestServiceTransitionCancelRestoresStock(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 7}))
	existing := Order{
		ID:     "o1",
		Items:  []OrderItem{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Status: StatusPending,
	}
	repo := newFakeOrderRepo(existing)
	svc, auditRec, _ := newTestService(t, fake, repo)

	actor := shared.Actor{ID: "u1", Email: "admin@example.com", Role: "admin"}
	order, err := svc.Transition(context.Background(), "o1", StatusCancelled, actor)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, order.Status)
	require.Equal(t, 10, fake.stock(t, "p1", "red-m"))

	require.Len(t, auditRec.entries, 1)
	entry := auditRec.entries[0]
	require.Equal(t, "Updated Order Status", entry.Action)
	require.Equal(t, actor, entry.Actor)
	require.Equal(t, audit.FieldChange{From: "pending", To: "cancelled"}, entry.Changes["status"])
}

func TestServiceTransitionReactivateClampsDeduct(t *testing.T) {
	// Stock drained to 1 while the order was cancelled; reactivation clamps
	// instead of failing.
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 1}))
	existing := Order{
		ID:     "o1",
		Items:  []OrderItem{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Status: StatusCancelled,
	}
	repo := newFakeOrderRepo(existing)
	svc, _, _ := newTestService(t, fake, repo)

	order, err := svc.Transition(context.Background(), "o1", StatusConfirmed, shared.Actor{})
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, order.Status)
	require.Equal(t, 0, fake.stock(t, "p1", "red-m"))
}

func TestServiceTransitionInvalid(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 7}))
	existing := Order{
		ID:     "o1",
		Items:  []OrderItem{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Status: StatusDelivered,
	}
	repo := newFakeOrderRepo(existing)
	svc, _, _ := newTestService(t, fake, repo)

	_, err := svc.Transition(context.Background(), "o1", StatusCancelled, shared.Actor{})
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 7, fake.stock(t, "p1", "red-m"))
	require.Zero(t, repo.statusWrites)
}

func TestServiceTransitionLockContention(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 7}))
	existing := Order{
		ID:     "o1",
		Items:  []OrderItem{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Status: StatusPending,
	}
	repo := newFakeOrderRepo(existing)

	lock, client := testLock(t)
	svc := NewService(repo, NewLedger(fake, 3), fake, &recordingAudit{}, lock, nil, nil, ServiceConfig{ShippingFee: 50})

	// Simulate a concurrent admin holding the transition lock.
	require.NoError(t, client.SetNX(context.Background(), shared.OrderLockKey("o1"), "1", time.Minute).Err())

	_, err := svc.Transition(context.Background(), "o1", StatusConfirmed, shared.Actor{})
	require.ErrorIs(t, err, shared.ErrLockHeld)

	// Lock released: the transition goes through.
	require.NoError(t, client.Del(context.Background(), shared.OrderLockKey("o1")).Err())
	order, err := svc.Transition(context.Background(), "o1", StatusConfirmed, shared.Actor{})
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, order.Status)

	// And the lock was released afterwards.
	exists, err := client.Exists(context.Background(), shared.OrderLockKey("o1")).Result()
	require.NoError(t, err)
	require.Zero(t, exists)
}

func TestServiceConfirmPayment(t *testing.T) {
	fake := newFakeCatalog(testProduct("p1", map[string]int{"red-m": 7}))
	existing := Order{
		ID:      "o1",
		Items:   []OrderItem{{ProductID: "p1", VariantID: "red-m", Qty: 3}},
		Status:  StatusPending,
		Payment: Payment{Method: PaymentOnline},
	}
	repo := newFakeOrderRepo(existing)
	svc, auditRec, _ := newTestService(t, fake, repo)

	order, err := svc.ConfirmPayment(context.Background(), "o1", shared.Actor{Email: "admin@example.com"})
	require.NoError(t, err)
	require.True(t, order.Payment.Paid)
	require.Equal(t, 1, repo.paymentWrites)
	require.Len(t, auditRec.entries, 1)
	require.Equal(t, "Confirmed Payment", auditRec.entries[0].Action)

	// Confirming again stays paid.
	order, err = svc.ConfirmPayment(context.Background(), "o1", shared.Actor{})
	require.NoError(t, err)
	require.True(t, order.Payment.Paid)
}

func TestServiceCreateRejectsEmptyOrder(t *testing.T) {
	fake := newFakeCatalog()
	svc, _, _ := newTestService(t, fake, newFakeOrderRepo())
	_, err := svc.Create(context.Background(), CreateOrderRequest{}, "")
	require.ErrorIs(t, err, ErrEmptyOrder)
}
