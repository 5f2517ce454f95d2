package ledger

import (
	"context"
	"time"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordFilter defines filtering options for ledger record queries
type RecordFilter struct {
	shared.Filter
	Status   *RecordStatus
	Category *string
	FromDate *time.Time
	ToDate   *time.Time
	DueFrom  *time.Time
	DueTo    *time.Time
}

// KindSummary aggregates committed records of one kind for a store
type KindSummary struct {
	Count        int64           `json:"count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalPending decimal.Decimal `json:"total_pending"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

// RecordRepository defines persistence for ledger records, their
// payments and their audit trail.
//
// Create, Save and AddPayment each run in a single transaction that
// co-commits the mutation with exactly one audit entry; a failure at
// any step rolls back the whole transaction. Create additionally
// serializes concurrent callers per (store, kind) with a
// transaction-scoped advisory lock and assigns the next document
// number inside that critical section.
type RecordRepository interface {
	// Create assigns record.DocumentNumber and persists the record plus
	// its created audit entry atomically.
	Create(ctx context.Context, record *LedgerRecord, entry *AuditLogEntry) error

	// FindByIDForStore finds a record by ID scoped to a store and kind
	FindByIDForStore(ctx context.Context, storeID uuid.UUID, kind RecordKind, id uuid.UUID) (*LedgerRecord, error)

	// FindAllForStore lists records of a kind for a store with filtering
	FindAllForStore(ctx context.Context, storeID uuid.UUID, kind RecordKind, filter RecordFilter) ([]LedgerRecord, error)

	// CountForStore counts records of a kind for a store with filtering
	CountForStore(ctx context.Context, storeID uuid.UUID, kind RecordKind, filter RecordFilter) (int64, error)

	// Save persists a mutated record with optimistic locking and
	// co-commits the given audit entry.
	Save(ctx context.Context, record *LedgerRecord, entry *AuditLogEntry) error

	// AddPayment persists a payment and its audit entry atomically
	AddPayment(ctx context.Context, payment *Payment, entry *AuditLogEntry) error

	// ListPayments returns the payments of a record in creation order
	ListPayments(ctx context.Context, recordID uuid.UUID) ([]Payment, error)

	// SumPayments returns the paid total per record for a batch of
	// record IDs; records without payments are absent from the map.
	SumPayments(ctx context.Context, recordIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// ListAuditLog returns the audit entries of a record in creation
	// order with the actor display name resolved where available.
	ListAuditLog(ctx context.Context, recordID uuid.UUID) ([]AuditLogEntry, error)

	// Summarize aggregates records of a kind for a store
	Summarize(ctx context.Context, storeID uuid.UUID, kind RecordKind, filter RecordFilter) (*KindSummary, error)
}
