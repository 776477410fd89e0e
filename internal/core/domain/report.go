package domain

// UnfulfilledItem describes a line item that could not be purchased because
// stock ran short, annotated with what was asked for versus what was left.
type UnfulfilledItem struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableStock    int    `json:"available_stock"`
}

// PurchaseReport is the transient result of one checkout. It is returned to
// the caller and never persisted.
type PurchaseReport struct {
	Ticket            *Ticket           `json:"ticket"`
	PurchasedProducts int               `json:"purchased_products"`
	TotalAmount       float64           `json:"total_amount"`
	NotPurchased      []UnfulfilledItem `json:"not_purchased"`
}
