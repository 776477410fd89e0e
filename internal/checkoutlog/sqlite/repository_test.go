package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelarde/storefront/internal/checkoutlog"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_SaveAndListByAttempt(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entries := []*checkoutlog.Entry{
		checkoutlog.NewEntry("att-1", "cart-1", "ana@example.com", checkoutlog.StatusStarted, "", "2 line items"),
		checkoutlog.NewEntry("att-1", "cart-1", "ana@example.com", checkoutlog.StatusStepDone, checkoutlog.StepApplyStock, "fulfilled 2 of 2 line items"),
		checkoutlog.NewEntry("att-1", "cart-1", "ana@example.com", checkoutlog.StatusStepDone, checkoutlog.StepIssueTicket, "TICKET-0A1B2C3D"),
		checkoutlog.NewEntry("att-1", "cart-1", "ana@example.com", checkoutlog.StatusCompleted, "", "amount 80.00"),
		checkoutlog.NewEntry("att-2", "cart-2", "leo@example.com", checkoutlog.StatusFailed, checkoutlog.StepApplyStock, "connection reset"),
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	got, err := repo.ListByAttempt(ctx, "att-1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Write order is preserved.
	assert.Equal(t, checkoutlog.StatusStarted, got[0].Status)
	assert.Equal(t, checkoutlog.StepApplyStock, got[1].CurrentStep)
	assert.Equal(t, "TICKET-0A1B2C3D", got[2].Detail)
	assert.Equal(t, checkoutlog.StatusCompleted, got[3].Status)
	for _, e := range got {
		assert.Equal(t, "cart-1", e.CartID)
		assert.Equal(t, "ana@example.com", e.Purchaser)
		assert.WithinDuration(t, time.Now().UTC(), e.CreatedAt, time.Minute)
	}

	got, err = repo.ListByAttempt(ctx, "att-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, checkoutlog.StatusFailed, got[0].Status)
	assert.Equal(t, "connection reset", got[0].Detail)
}

func TestRepository_ListByAttempt_Unknown(t *testing.T) {
	repo := openTestRepo(t)

	got, err := repo.ListByAttempt(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_Latest(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Two attempts for the same cart; the later one wins.
	require.NoError(t, repo.Save(ctx, checkoutlog.NewEntry("att-1", "cart-1", "ana@example.com", checkoutlog.StatusFailed, checkoutlog.StepApplyStock, "timeout")))
	require.NoError(t, repo.Save(ctx, checkoutlog.NewEntry("att-2", "cart-1", "ana@example.com", checkoutlog.StatusStarted, "", "1 line items")))
	require.NoError(t, repo.Save(ctx, checkoutlog.NewEntry("att-2", "cart-1", "ana@example.com", checkoutlog.StatusCompleted, "", "amount 10.00")))

	latest, err := repo.Latest(ctx, "cart-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "att-2", latest.AttemptID)
	assert.Equal(t, checkoutlog.StatusCompleted, latest.Status)
}

func TestRepository_Latest_NoHistory(t *testing.T) {
	repo := openTestRepo(t)

	latest, err := repo.Latest(context.Background(), "cart-never")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
