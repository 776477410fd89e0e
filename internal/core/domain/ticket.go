package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket is an immutable record of a completed (possibly partial) purchase.
type Ticket struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Amount      float64   `json:"amount"`
	Purchaser   string    `json:"purchaser"`
	PurchasedAt time.Time `json:"purchase_datetime"`
}

// NewTicketCode generates a unique human-readable ticket code,
// e.g. "TICKET-3FA85F64".
func NewTicketCode() string {
	return "TICKET-" + strings.ToUpper(uuid.NewString()[:8])
}
