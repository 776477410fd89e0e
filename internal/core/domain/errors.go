package domain

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrItemNotFound      = errors.New("product not in cart")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidProduct    = errors.New("invalid product data")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateCode     = errors.New("product code already exists")
	ErrTicketNotFound    = errors.New("ticket not found")
)
