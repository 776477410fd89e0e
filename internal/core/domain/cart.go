package domain

import "time"

// LineItem is one (product, quantity) pair inside a cart.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart holds line items in insertion order. A cart keeps at most one line
// item per product; adding an existing product merges by summing quantities.
type Cart struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ItemIndex returns the position of the line item for productID, or -1.
func (c *Cart) ItemIndex(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges quantity into an existing line item or appends a new one.
func (c *Cart) AddItem(productID string, quantity int) {
	if i := c.ItemIndex(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, LineItem{ProductID: productID, Quantity: quantity})
}

// RemoveItem deletes the line item for productID. Returns false if the
// product was not in the cart; callers treat that as a no-op, not an error.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.ItemIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetItemQuantity overwrites the quantity of an existing line item.
// Returns false if the product is not a line item of the cart.
func (c *Cart) SetItemQuantity(productID string, quantity int) bool {
	i := c.ItemIndex(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = quantity
	return true
}

// MergeItems collapses duplicate product references by summing quantities,
// preserving first-seen order.
func MergeItems(items []LineItem) []LineItem {
	merged := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
