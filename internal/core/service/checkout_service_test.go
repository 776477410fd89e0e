package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelarde/storefront/internal/checkoutlog"
	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/metrics"
	"github.com/avelarde/storefront/internal/port"
	"github.com/avelarde/storefront/internal/telemetry"
)

type checkoutFixture struct {
	svc      *CheckoutService
	products *mockProductRepo
	carts    *mockCartRepo
	tickets  *mockTicketRepo
	bus      *mockBus
	attempts *mockCheckoutLog
}

func newCheckoutFixture(products []domain.Product, items []domain.LineItem) *checkoutFixture {
	f := &checkoutFixture{
		products: newMockProductRepo(products...),
		carts:    newMockCartRepo(domain.Cart{ID: "c1", Items: items}),
		tickets:  &mockTicketRepo{},
		bus:      &mockBus{},
		attempts: &mockCheckoutLog{},
	}
	f.svc = NewCheckoutService(f.carts, f.products, f.tickets, f.bus, f.attempts, metrics.NewRegistry(), telemetry.NewNop())
	return f
}

func TestCheckout_CartNotFound(t *testing.T) {
	f := newCheckoutFixture(nil, nil)

	_, err := f.svc.Checkout(context.Background(), "ghost", "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{{ID: "a", Title: "A", Price: 10, Stock: 5}},
		nil,
	)

	report, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Nil(t, report)

	// Nothing was written anywhere.
	assert.Equal(t, 5, f.products.stock("a"))
	assert.Equal(t, 0, f.tickets.count())
	assert.Equal(t, 0, f.carts.replaceCalls)
	assert.Equal(t, 0, f.carts.clearCalls)
}

func TestCheckout_PartialFulfillment(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{
			{ID: "a", Title: "A", Price: 10, Stock: 5},
			{ID: "b", Title: "B", Price: 20, Stock: 1},
		},
		[]domain.LineItem{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 3},
		},
	)

	report, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, report.PurchasedProducts)
	assert.Equal(t, 20.0, report.TotalAmount)
	require.NotNil(t, report.Ticket)
	assert.Equal(t, 20.0, report.Ticket.Amount)
	assert.Equal(t, "ana@example.com", report.Ticket.Purchaser)

	require.Len(t, report.NotPurchased, 1)
	assert.Equal(t, domain.UnfulfilledItem{
		ProductID:         "b",
		ProductName:       "B",
		RequestedQuantity: 3,
		AvailableStock:    1,
	}, report.NotPurchased[0])

	// Stock moved only for the fulfilled line.
	assert.Equal(t, 3, f.products.stock("a"))
	assert.Equal(t, 1, f.products.stock("b"))

	// The cart keeps the unfulfilled remainder untouched.
	assert.Equal(t, []domain.LineItem{{ProductID: "b", Quantity: 3}}, f.carts.items("c1"))
	assert.Equal(t, 1, f.tickets.count())
}

func TestCheckout_AllFulfilled(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{
			{ID: "a", Title: "A", Price: 10, Stock: 5},
			{ID: "b", Title: "B", Price: 20, Stock: 4},
		},
		[]domain.LineItem{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 3},
		},
	)

	report, err := f.svc.Checkout(context.Background(), "c1", "carla@example.com")
	require.NoError(t, err)

	assert.Equal(t, 2, report.PurchasedProducts)
	assert.Equal(t, 80.0, report.TotalAmount)
	assert.Empty(t, report.NotPurchased)
	require.NotNil(t, report.Ticket)
	assert.Equal(t, 80.0, report.Ticket.Amount)

	assert.Equal(t, 3, f.products.stock("a"))
	assert.Equal(t, 1, f.products.stock("b"))
	assert.Empty(t, f.carts.items("c1"))
	assert.Equal(t, 1, f.carts.clearCalls)
}

func TestCheckout_NothingFulfilled(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{{ID: "a", Title: "A", Price: 10, Stock: 1}},
		[]domain.LineItem{{ProductID: "a", Quantity: 2}},
	)

	report, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.NoError(t, err)

	// No ticket when nothing was purchased, and the cart stays as it was.
	assert.Nil(t, report.Ticket)
	assert.Equal(t, 0, report.PurchasedProducts)
	assert.Equal(t, 0.0, report.TotalAmount)
	require.Len(t, report.NotPurchased, 1)
	assert.Equal(t, 1, report.NotPurchased[0].AvailableStock)

	assert.Equal(t, 1, f.products.stock("a"))
	assert.Equal(t, 0, f.tickets.count())
	assert.Equal(t, []domain.LineItem{{ProductID: "a", Quantity: 2}}, f.carts.items("c1"))
}

func TestCheckout_DeletedProductStaysInCart(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{{ID: "a", Title: "A", Price: 10, Stock: 5}},
		[]domain.LineItem{
			{ProductID: "a", Quantity: 1},
			{ProductID: "gone", Quantity: 2},
		},
	)

	report, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, report.PurchasedProducts)
	require.Len(t, report.NotPurchased, 1)
	assert.Equal(t, "gone", report.NotPurchased[0].ProductID)
	assert.Equal(t, 0, report.NotPurchased[0].AvailableStock)

	assert.Equal(t, []domain.LineItem{{ProductID: "gone", Quantity: 2}}, f.carts.items("c1"))
}

func TestCheckout_LostDecrementDowngradesLine(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{
			{ID: "a", Title: "A", Price: 10, Stock: 5},
			{ID: "b", Title: "B", Price: 20, Stock: 4},
		},
		[]domain.LineItem{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 3},
		},
	)
	// Stock for b reads as sufficient but the conditional write is lost, as
	// when a concurrent checkout consumed the remainder between read and
	// decrement.
	f.products.denyDecrement["b"] = true

	report, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, report.PurchasedProducts)
	assert.Equal(t, 20.0, report.TotalAmount)
	require.Len(t, report.NotPurchased, 1)
	assert.Equal(t, "b", report.NotPurchased[0].ProductID)

	assert.Equal(t, 3, f.products.stock("a"))
	assert.Equal(t, 4, f.products.stock("b"))
	assert.Equal(t, []domain.LineItem{{ProductID: "b", Quantity: 3}}, f.carts.items("c1"))
}

func TestCheckout_DecrementErrorAborts(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{{ID: "a", Title: "A", Price: 10, Stock: 5}},
		[]domain.LineItem{{ProductID: "a", Quantity: 2}},
	)
	f.products.decrementErr = errors.New("connection reset")

	_, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.Error(t, err)

	assert.Equal(t, 0, f.tickets.count())
	assert.Equal(t, 0, f.carts.replaceCalls)
	assert.Equal(t, 0, f.carts.clearCalls)

	entries := f.attempts.all()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, checkoutlog.StatusFailed, last.Status)
	assert.Equal(t, checkoutlog.StepApplyStock, last.CurrentStep)
}

func TestCheckout_TicketAppendFailureLeavesCart(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{{ID: "a", Title: "A", Price: 10, Stock: 5}},
		[]domain.LineItem{{ProductID: "a", Quantity: 2}},
	)
	f.tickets.appendErr = errors.New("disk full")

	_, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.Error(t, err)

	// The stock write already committed; the cart must not be trimmed so the
	// failure is visible rather than silently swallowed.
	assert.Equal(t, 3, f.products.stock("a"))
	assert.Equal(t, 0, f.carts.replaceCalls)
	assert.Equal(t, 0, f.carts.clearCalls)
	assert.Equal(t, []domain.LineItem{{ProductID: "a", Quantity: 2}}, f.carts.items("c1"))

	entries := f.attempts.all()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, checkoutlog.StatusFailed, last.Status)
	assert.Equal(t, checkoutlog.StepIssueTicket, last.CurrentStep)
}

func TestCheckout_LogRecordsAttemptLifecycle(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{{ID: "a", Title: "A", Price: 10, Stock: 5}},
		[]domain.LineItem{{ProductID: "a", Quantity: 2}},
	)

	_, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.NoError(t, err)

	entries := f.attempts.all()
	require.Len(t, entries, 5)

	wantStatus := []checkoutlog.Status{
		checkoutlog.StatusStarted,
		checkoutlog.StatusStepDone,
		checkoutlog.StatusStepDone,
		checkoutlog.StatusStepDone,
		checkoutlog.StatusCompleted,
	}
	wantStep := []string{"", checkoutlog.StepApplyStock, checkoutlog.StepIssueTicket, checkoutlog.StepTrimCart, ""}
	for i, entry := range entries {
		assert.Equal(t, wantStatus[i], entry.Status)
		assert.Equal(t, wantStep[i], entry.CurrentStep)
		assert.Equal(t, entries[0].AttemptID, entry.AttemptID)
		assert.Equal(t, "c1", entry.CartID)
		assert.Equal(t, "ana@example.com", entry.Purchaser)
	}
}

func TestCheckout_BroadcastsOneEventPerFulfilledLine(t *testing.T) {
	f := newCheckoutFixture(
		[]domain.Product{
			{ID: "a", Title: "A", Price: 10, Stock: 5},
			{ID: "b", Title: "B", Price: 20, Stock: 1},
		},
		[]domain.LineItem{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 3},
		},
	)

	_, err := f.svc.Checkout(context.Background(), "c1", "ana@example.com")
	require.NoError(t, err)

	events := f.bus.published()
	require.Len(t, events, 1)
	assert.Equal(t, port.EventProductUpdated, events[0].Type)
	assert.Equal(t, "a", events[0].ProductID)
	require.NotNil(t, events[0].Product)
	assert.Equal(t, 3, events[0].Product.Stock)
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	const buyers = 50
	const stock = 20

	products := newMockProductRepo(domain.Product{ID: "a", Title: "A", Price: 10, Stock: stock})
	seed := make([]domain.Cart, 0, buyers)
	for i := 0; i < buyers; i++ {
		seed = append(seed, domain.Cart{
			ID:    cartID(i),
			Items: []domain.LineItem{{ProductID: "a", Quantity: 1}},
		})
	}
	carts := newMockCartRepo(seed...)
	tickets := &mockTicketRepo{}
	svc := NewCheckoutService(carts, products, tickets, &mockBus{}, &mockCheckoutLog{}, metrics.NewRegistry(), telemetry.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), id, "buyer@example.com")
			assert.NoError(t, err)
		}(cartID(i))
	}
	wg.Wait()

	// Exactly the available units were sold, never more.
	assert.Equal(t, 0, products.stock("a"))
	assert.Equal(t, stock, tickets.count())

	// The losing buyers kept their line items.
	kept := 0
	for i := 0; i < buyers; i++ {
		if len(carts.items(cartID(i))) > 0 {
			kept++
		}
	}
	assert.Equal(t, buyers-stock, kept)
}

func cartID(i int) string { return fmt.Sprintf("cart-%d", i) }
