package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/port"
	"github.com/avelarde/storefront/internal/telemetry"
)

// CartService owns the line-item rules of a cart: one line item per product,
// positive quantities, duplicates merged by summing. It transforms the cart
// in memory and hands the result to the cart repository; stock sufficiency
// is not checked here but at checkout time.
type CartService struct {
	carts    port.CartRepository
	products port.ProductRepository
	log      *telemetry.Logger
}

func NewCartService(carts port.CartRepository, products port.ProductRepository, log *telemetry.Logger) *CartService {
	return &CartService{carts: carts, products: products, log: log}
}

func (s *CartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	cart := &domain.Cart{ID: uuid.NewString(), Items: []domain.LineItem{}}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	s.log.Info("cart created", "cart_id", cart.ID)
	return cart, nil
}

// CartViewItem is a line item resolved to its product's current price and
// stock for display.
type CartViewItem struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type CartView struct {
	ID    string         `json:"id"`
	Items []CartViewItem `json:"items"`
}

// GetCart returns the cart with each line item resolved against the product
// store. Items whose product no longer exists are shown with quantity only.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*CartView, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, Items: make([]CartViewItem, 0, len(cart.Items))}
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			view.Items = append(view.Items, CartViewItem{
				Product:  domain.Product{ID: item.ProductID},
				Quantity: item.Quantity,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve product %s: %w", item.ProductID, err)
		}
		view.Items = append(view.Items, CartViewItem{Product: *product, Quantity: item.Quantity})
	}
	return view, nil
}

// AddProduct merges quantity into the cart's line item for productID, or
// appends a new one. The product must resolve in the product store; its
// stock is deliberately not checked, a cart may hold more than is in stock.
func (s *CartService) AddProduct(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(productID, quantity)
	if err := s.carts.ReplaceItems(ctx, cart.ID, cart.Items); err != nil {
		return nil, fmt.Errorf("persist cart %s: %w", cart.ID, err)
	}
	return cart, nil
}

// RemoveProduct deletes the line item for productID. Removing a product that
// is not in the cart is a no-op, not an error.
func (s *CartService) RemoveProduct(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return cart, nil
	}
	if err := s.carts.ReplaceItems(ctx, cart.ID, cart.Items); err != nil {
		return nil, fmt.Errorf("persist cart %s: %w", cart.ID, err)
	}
	return cart, nil
}

// SetQuantity overwrites the quantity of an existing line item.
func (s *CartService) SetQuantity(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if !cart.SetItemQuantity(productID, quantity) {
		return nil, domain.ErrItemNotFound
	}
	if err := s.carts.ReplaceItems(ctx, cart.ID, cart.Items); err != nil {
		return nil, fmt.Errorf("persist cart %s: %w", cart.ID, err)
	}
	return cart, nil
}

// ReplaceItems swaps the cart's entire line-item set. Every item is
// validated before anything is applied; one bad item rejects the whole
// batch and leaves the cart untouched. Duplicate product references in the
// batch are merged by summing.
func (s *CartService) ReplaceItems(ctx context.Context, cartID string, items []domain.LineItem) (*domain.Cart, error) {
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrInvalidQuantity)
		}
		if _, err := s.products.GetByID(ctx, item.ProductID); err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
			}
			return nil, err
		}
	}

	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.Items = domain.MergeItems(items)
	if err := s.carts.ReplaceItems(ctx, cart.ID, cart.Items); err != nil {
		return nil, fmt.Errorf("persist cart %s: %w", cart.ID, err)
	}
	return cart, nil
}

// Clear empties the cart. An empty cart stays valid.
func (s *CartService) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.Items = []domain.LineItem{}
	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart %s: %w", cart.ID, err)
	}
	return cart, nil
}
