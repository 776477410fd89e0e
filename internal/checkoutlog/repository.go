package checkoutlog

import "context"

// Repository persists checkout log entries. The table is append-only; Save
// always inserts a new row.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// Nop discards every entry. Used when no log store is configured.
type Nop struct{}

func (Nop) Save(context.Context, *Entry) error { return nil }
