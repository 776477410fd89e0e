package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avelarde/storefront/internal/checkoutlog"
	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/metrics"
	"github.com/avelarde/storefront/internal/port"
	"github.com/avelarde/storefront/internal/telemetry"
)

// CheckoutService reconciles a cart's requested quantities against current
// stock. Fulfillable lines get their stock decremented and are billed on a
// single ticket; lines short on stock stay in the cart untouched. A cart
// with any unfulfillable line still checks out, it just degrades to a
// partial purchase.
//
// The three writes of a checkout (stock decrements, ticket append, cart
// trim) are independent; there is no cross-store transaction. Each step is
// recorded in the checkout log so a crash mid-sequence can be diagnosed.
type CheckoutService struct {
	carts    port.CartRepository
	products port.ProductRepository
	tickets  port.TicketRepository
	bus      port.Broadcaster
	attempts checkoutlog.Repository
	metrics  *metrics.Registry
	log      *telemetry.Logger
}

func NewCheckoutService(
	carts port.CartRepository,
	products port.ProductRepository,
	tickets port.TicketRepository,
	bus port.Broadcaster,
	attempts checkoutlog.Repository,
	reg *metrics.Registry,
	log *telemetry.Logger,
) *CheckoutService {
	if attempts == nil {
		attempts = checkoutlog.Nop{}
	}
	return &CheckoutService{
		carts:    carts,
		products: products,
		tickets:  tickets,
		bus:      bus,
		attempts: attempts,
		metrics:  reg,
		log:      log,
	}
}

// fulfillable is a line item that passed the stock check on read. The
// decrement itself is still conditional, so a line can be downgraded to
// unfulfilled if a concurrent checkout consumed the remainder first.
type fulfillable struct {
	product  *domain.Product
	quantity int
}

// Checkout executes one purchase of the given cart on behalf of purchaser.
//
// Line items are processed in the cart's stored order. Per-line stock
// shortage is not an error: the line is reported as not purchased and kept
// in the cart. Infrastructure failures abort the remaining steps but do not
// roll back writes that already committed.
func (s *CheckoutService) Checkout(ctx context.Context, cartID, purchaser string) (*domain.PurchaseReport, error) {
	start := time.Now()
	attemptID := uuid.NewString()

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusStarted, "", fmt.Sprintf("%d line items", len(cart.Items))))

	if len(cart.Items) == 0 {
		s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusFailed, "", "empty cart"))
		s.metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrEmptyCart
	}

	// Evaluate every line against the stock value read now. Lines that look
	// fulfillable are decremented below; the rest are reported as-is.
	var candidates []fulfillable
	var notPurchased []domain.UnfulfilledItem
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			// The product was deleted after it entered the cart. Keep the
			// line so the customer sees it rather than having it vanish.
			notPurchased = append(notPurchased, domain.UnfulfilledItem{
				ProductID:         item.ProductID,
				RequestedQuantity: item.Quantity,
				AvailableStock:    0,
			})
			continue
		}
		if err != nil {
			s.fail(ctx, attemptID, cartID, purchaser, checkoutlog.StepApplyStock, err)
			return nil, fmt.Errorf("read product %s: %w", item.ProductID, err)
		}

		if product.Stock >= item.Quantity {
			candidates = append(candidates, fulfillable{product: product, quantity: item.Quantity})
		} else {
			notPurchased = append(notPurchased, domain.UnfulfilledItem{
				ProductID:         product.ID,
				ProductName:       product.Title,
				RequestedQuantity: item.Quantity,
				AvailableStock:    product.Stock,
			})
		}
	}

	// Apply the decrements. Each one is a conditional write; if stock moved
	// under us since the read, the line is downgraded, never oversold.
	var totalAmount float64
	fulfilledCount := 0
	for _, c := range candidates {
		ok, err := s.products.DecrementStock(ctx, c.product.ID, c.quantity)
		if err != nil {
			s.fail(ctx, attemptID, cartID, purchaser, checkoutlog.StepApplyStock, err)
			return nil, fmt.Errorf("decrement stock for %s: %w", c.product.ID, err)
		}
		if !ok {
			notPurchased = append(notPurchased, domain.UnfulfilledItem{
				ProductID:         c.product.ID,
				ProductName:       c.product.Title,
				RequestedQuantity: c.quantity,
				AvailableStock:    s.currentStock(ctx, c.product.ID),
			})
			continue
		}

		totalAmount += c.product.Price * float64(c.quantity)
		fulfilledCount++
		c.product.Stock -= c.quantity
		s.publishUpdate(ctx, c.product)
	}
	s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusStepDone, checkoutlog.StepApplyStock,
		fmt.Sprintf("fulfilled %d of %d line items", fulfilledCount, len(cart.Items))))

	// One ticket per checkout that fulfilled anything; none otherwise.
	var ticket *domain.Ticket
	if fulfilledCount > 0 {
		ticket = &domain.Ticket{
			ID:          uuid.NewString(),
			Code:        domain.NewTicketCode(),
			Amount:      totalAmount,
			Purchaser:   purchaser,
			PurchasedAt: time.Now().UTC(),
		}
		if err := s.tickets.Append(ctx, ticket); err != nil {
			s.fail(ctx, attemptID, cartID, purchaser, checkoutlog.StepIssueTicket, err)
			return nil, fmt.Errorf("append ticket: %w", err)
		}
		s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusStepDone, checkoutlog.StepIssueTicket, ticket.Code))
	}

	// The cart keeps exactly the unfulfilled remainder, in its stored order.
	if err := s.trimCart(ctx, cart, notPurchased); err != nil {
		s.fail(ctx, attemptID, cartID, purchaser, checkoutlog.StepTrimCart, err)
		return nil, err
	}
	s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusStepDone, checkoutlog.StepTrimCart,
		fmt.Sprintf("%d line items remain", len(notPurchased))))

	s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusCompleted, "",
		fmt.Sprintf("amount %.2f", totalAmount)))
	s.observe(start, fulfilledCount, len(notPurchased), totalAmount)

	s.log.Info("checkout completed",
		"cart_id", cartID,
		"purchaser", purchaser,
		"fulfilled", fulfilledCount,
		"not_purchased", len(notPurchased),
		"amount", totalAmount,
	)

	return &domain.PurchaseReport{
		Ticket:            ticket,
		PurchasedProducts: fulfilledCount,
		TotalAmount:       totalAmount,
		NotPurchased:      notPurchased,
	}, nil
}

// trimCart persists the unfulfilled remainder: full replacement when items
// remain, clear when everything was purchased.
func (s *CheckoutService) trimCart(ctx context.Context, cart *domain.Cart, notPurchased []domain.UnfulfilledItem) error {
	if len(notPurchased) == 0 {
		if err := s.carts.Clear(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart %s: %w", cart.ID, err)
		}
		return nil
	}

	keep := make(map[string]bool, len(notPurchased))
	for _, item := range notPurchased {
		keep[item.ProductID] = true
	}
	remaining := make([]domain.LineItem, 0, len(notPurchased))
	for _, item := range cart.Items {
		if keep[item.ProductID] {
			remaining = append(remaining, item)
		}
	}
	if err := s.carts.ReplaceItems(ctx, cart.ID, remaining); err != nil {
		return fmt.Errorf("trim cart %s: %w", cart.ID, err)
	}
	return nil
}

// currentStock re-reads stock after a lost conditional decrement so the
// report shows what was actually left. Best effort: 0 on any failure.
func (s *CheckoutService) currentStock(ctx context.Context, productID string) int {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		s.log.Warn("re-read stock failed", "product_id", productID, "error", err)
		return 0
	}
	return product.Stock
}

// publishUpdate notifies the catalog channel that stock changed. The same
// event fires for direct product edits; subscribers cannot tell the
// difference. Broadcast failures never fail a checkout.
func (s *CheckoutService) publishUpdate(ctx context.Context, product *domain.Product) {
	if s.bus == nil {
		return
	}
	event := port.CatalogEvent{Type: port.EventProductUpdated, ProductID: product.ID, Product: product}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn("broadcast failed", "product_id", product.ID, "error", err)
	}
}

func (s *CheckoutService) logAttempt(ctx context.Context, entry *checkoutlog.Entry) {
	if err := s.attempts.Save(ctx, entry); err != nil {
		s.log.Warn("checkout log write failed", "attempt_id", entry.AttemptID, "status", entry.Status, "error", err)
	}
}

func (s *CheckoutService) fail(ctx context.Context, attemptID, cartID, purchaser, step string, err error) {
	s.logAttempt(ctx, checkoutlog.NewEntry(attemptID, cartID, purchaser, checkoutlog.StatusFailed, step, err.Error()))
	s.metrics.CheckoutsTotal.WithLabelValues("error").Inc()
}

func (s *CheckoutService) observe(start time.Time, fulfilled, notPurchased int, amount float64) {
	outcome := "full"
	switch {
	case fulfilled == 0:
		outcome = "rejected"
	case notPurchased > 0:
		outcome = "partial"
	}
	s.metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
	s.metrics.ItemsFulfilled.Add(float64(fulfilled))
	s.metrics.ItemsRejected.Add(float64(notPurchased))
	s.metrics.AmountTotal.Add(amount)
	s.metrics.CheckoutLatencySec.Observe(time.Since(start).Seconds())
}
