package integration

import (
	"context"
	"testing"

	"github.com/comercio/backend/internal/domain/ledger"
	"github.com/comercio/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks a small bookkeeping session across two stores: numbering,
// partial payment, and marking the record paid.
func TestTwoStoreBookkeepingScenario(t *testing.T) {
	tdb := NewTestDB(t)
	repo := persistence.NewGormRecordRepository(tdb.DB)
	ctx := context.Background()

	owner := tdb.SeedUser("scenario-owner@example.com", "Scenario Owner")
	bakery := tdb.SeedStore("Bakery", owner.GetID())
	butcher := tdb.SeedStore("Butcher", owner.GetID())

	flour, created := newRecordWithAudit(t, bakery.GetID(), ledger.KindExpense, "100.00", owner.GetID())
	require.NoError(t, repo.Create(ctx, flour, created))
	assert.Equal(t, int64(1), flour.DocumentNumber)

	rent, created := newRecordWithAudit(t, bakery.GetID(), ledger.KindExpense, "500.00", owner.GetID())
	require.NoError(t, repo.Create(ctx, rent, created))
	assert.Equal(t, int64(2), rent.DocumentNumber)

	knives, created := newRecordWithAudit(t, butcher.GetID(), ledger.KindExpense, "80.00", owner.GetID())
	require.NoError(t, repo.Create(ctx, knives, created))
	assert.Equal(t, int64(1), knives.DocumentNumber, "the second store numbers from 1")

	// A 40 partial payment on the 100 expense leaves 60 outstanding.
	addPayment(t, repo, flour.GetID(), "40.00", owner.GetID())
	payments, err := repo.ListPayments(ctx, flour.GetID())
	require.NoError(t, err)
	balance := ledger.ComputeBalance(flour.Amount, payments)
	assert.True(t, balance.Outstanding.Equal(decimal.RequireFromString("60.00")),
		"outstanding was %s", balance.Outstanding)

	require.NoError(t, flour.ChangeStatus(ledger.StatusPaid, owner.GetID()))
	entry, err := ledger.NewAuditLogEntry(flour.GetID(), owner.GetID(),
		ledger.AuditActionMarkedPaid, ledger.StatusDetails(ledger.StatusPending, ledger.StatusPaid))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, flour, entry))

	paid, err := repo.FindByIDForStore(ctx, bakery.GetID(), ledger.KindExpense, flour.GetID())
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	entries, err := repo.ListAuditLog(ctx, flour.GetID())
	require.NoError(t, err)
	var markedPaid int
	for _, e := range entries {
		if e.Action == ledger.AuditActionMarkedPaid {
			markedPaid++
		}
	}
	assert.Equal(t, 1, markedPaid, "exactly one marked_paid entry")
	require.Len(t, entries, 3, "created, payment, marked_paid")
}
