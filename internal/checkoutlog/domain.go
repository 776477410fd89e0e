// Package checkoutlog defines an append-only audit trail for checkout
// attempts. A checkout performs three independent writes (stock decrements,
// ticket append, cart trim) with no surrounding transaction; the log records
// each completed step so that a crash mid-sequence is diagnosable from the
// database instead of leaving silent drift.
package checkoutlog

import "time"

// Status is the lifecycle state of a checkout attempt.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusStepDone  Status = "STEP_DONE"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Step names for the three writes of a checkout, in execution order.
const (
	StepApplyStock  = "apply_stock"
	StepIssueTicket = "issue_ticket"
	StepTrimCart    = "trim_cart"
)

// Entry is a single row in the checkout log. Rows are immutable; each
// transition appends a new one.
type Entry struct {
	// AttemptID identifies one checkout call. All rows of the same call
	// share it.
	AttemptID string

	CartID    string
	Purchaser string

	Status Status

	// CurrentStep is the step that just finished (or was in flight when the
	// attempt failed). Empty on STARTED.
	CurrentStep string

	// Detail carries free-form context: item counts, the ticket code, or the
	// failure message.
	Detail string

	CreatedAt time.Time
}

// NewEntry builds a log entry stamped with the current UTC time.
func NewEntry(attemptID, cartID, purchaser string, status Status, step, detail string) *Entry {
	return &Entry{
		AttemptID:   attemptID,
		CartID:      cartID,
		Purchaser:   purchaser,
		Status:      status,
		CurrentStep: step,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}
}
