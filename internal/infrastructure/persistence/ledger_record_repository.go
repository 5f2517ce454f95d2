package persistence

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/comercio/backend/internal/domain/ledger"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormRecordRepository implements ledger.RecordRepository using GORM.
//
// Document numbers are assigned under a transaction-scoped advisory
// lock keyed on (store, kind), so concurrent creates for the same
// sequence serialize while other sequences proceed in parallel. The
// lock releases automatically at commit or rollback. The unique index
// on (store_id, kind, document_number) backs the lock up: if the lock
// discipline is ever bypassed the insert fails instead of writing a
// duplicate number.
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// sequenceLockKey derives the advisory lock key for a (store, kind)
// sequence. FNV-1a over "storeID|kind", reinterpreted as a signed
// 64-bit integer for pg_advisory_xact_lock.
func sequenceLockKey(storeID uuid.UUID, kind ledger.RecordKind) int64 {
	h := fnv.New64a()
	h.Write([]byte(storeID.String()))
	h.Write([]byte{'|'})
	h.Write([]byte(kind))
	return int64(h.Sum64())
}

// Create assigns the next document number and persists the record with
// its created audit entry in one transaction.
func (r *GormRecordRepository) Create(ctx context.Context, record *ledger.LedgerRecord, entry *ledger.AuditLogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockKey := sequenceLockKey(record.StoreID, record.Kind)
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", lockKey).Error; err != nil {
			return translateError(err)
		}

		var next int64
		if err := tx.Model(&models.LedgerRecordModel{}).
			Where("store_id = ? AND kind = ?", record.StoreID, record.Kind).
			Select("COALESCE(MAX(document_number), 0) + 1").
			Scan(&next).Error; err != nil {
			return translateError(err)
		}

		record.DocumentNumber = next
		entry.Details.DocumentNumber = next

		if err := tx.Create(models.LedgerRecordModelFromDomain(record)).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Create(models.AuditLogModelFromDomain(entry)).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

// FindByIDForStore finds a record by ID scoped to a store and kind
func (r *GormRecordRepository) FindByIDForStore(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID) (*ledger.LedgerRecord, error) {
	var model models.LedgerRecordModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND kind = ? AND id = ?", storeID, kind, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForStore lists records of a kind for a store with filtering
func (r *GormRecordRepository) FindAllForStore(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, filter ledger.RecordFilter) ([]ledger.LedgerRecord, error) {
	var recordModels []models.LedgerRecordModel
	query := r.scoped(ctx, storeID, kind)
	query = applyRecordFilter(query, filter)

	sortField := validateSortField(filter.OrderBy, ledgerRecordSortFields, "created_at")
	sortOrder := validateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder)).
		Limit(filter.Limit()).
		Offset(filter.Offset())

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, translateError(err)
	}

	records := make([]ledger.LedgerRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// CountForStore counts records of a kind for a store with filtering
func (r *GormRecordRepository) CountForStore(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, filter ledger.RecordFilter) (int64, error) {
	var count int64
	query := applyRecordFilter(r.scoped(ctx, storeID, kind), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Save persists a mutated record with optimistic locking and co-commits
// the given audit entry. The version check detects lost updates; a
// conflict rolls back the audit entry as well.
func (r *GormRecordRepository) Save(ctx context.Context, record *ledger.LedgerRecord, entry *ledger.AuditLogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expected := record.GetVersion()
		model := models.LedgerRecordModelFromDomain(record)
		model.Version = expected + 1

		result := tx.Model(&models.LedgerRecordModel{}).
			Where("id = ? AND version = ?", record.GetID(), expected).
			Select("*").
			Omit("id", "created_at", "store_id", "kind", "document_number", "created_by").
			Updates(model)
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Create(models.AuditLogModelFromDomain(entry)).Error; err != nil {
			return translateError(err)
		}

		record.IncrementVersion()
		return nil
	})
}

// AddPayment persists a payment and its audit entry atomically
func (r *GormRecordRepository) AddPayment(ctx context.Context, payment *ledger.Payment, entry *ledger.AuditLogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.PaymentModelFromDomain(payment)).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Create(models.AuditLogModelFromDomain(entry)).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

// ListPayments returns the payments of a record in creation order
func (r *GormRecordRepository) ListPayments(ctx context.Context, recordID uuid.UUID) ([]ledger.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, translateError(err)
	}

	payments := make([]ledger.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// SumPayments returns the paid total per record for a batch of IDs
func (r *GormRecordRepository) SumPayments(ctx context.Context, recordIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals := make(map[uuid.UUID]decimal.Decimal, len(recordIDs))
	if len(recordIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		RecordID uuid.UUID
		Total    decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("record_id, COALESCE(SUM(amount), 0) AS total").
		Where("record_id IN ?", recordIDs).
		Group("record_id").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	for _, row := range rows {
		totals[row.RecordID] = row.Total
	}
	return totals, nil
}

// ListAuditLog returns the audit entries of a record in creation order
// with actor names resolved from the users table where possible.
func (r *GormRecordRepository) ListAuditLog(ctx context.Context, recordID uuid.UUID) ([]ledger.AuditLogEntry, error) {
	var rows []struct {
		models.AuditLogModel
		ActorName *string
	}
	if err := r.db.WithContext(ctx).
		Model(&models.AuditLogModel{}).
		Select("ledger_audit_logs.*, users.name AS actor_name").
		Joins("LEFT JOIN users ON users.id = ledger_audit_logs.actor_id").
		Where("ledger_audit_logs.record_id = ?", recordID).
		Order("ledger_audit_logs.created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	entries := make([]ledger.AuditLogEntry, len(rows))
	for i, row := range rows {
		entry := row.AuditLogModel.ToDomain()
		if row.ActorName != nil {
			entry.ActorName = *row.ActorName
		}
		entries[i] = *entry
	}
	return entries, nil
}

// Summarize aggregates committed records of a kind for a store
func (r *GormRecordRepository) Summarize(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, filter ledger.RecordFilter) (*ledger.KindSummary, error) {
	var row struct {
		Count        int64
		TotalAmount  decimal.Decimal
		TotalPending decimal.Decimal
		TotalPaid    decimal.Decimal
	}
	query := applyRecordFilter(r.scoped(ctx, storeID, kind), filter)
	if err := query.
		Select(
			"COUNT(*) AS count, " +
				"COALESCE(SUM(amount), 0) AS total_amount, " +
				"COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING'), 0) AS total_pending, " +
				"COALESCE(SUM(amount) FILTER (WHERE status = 'PAID'), 0) AS total_paid").
		Scan(&row).Error; err != nil {
		return nil, translateError(err)
	}

	return &ledger.KindSummary{
		Count:        row.Count,
		TotalAmount:  row.TotalAmount,
		TotalPending: row.TotalPending,
		TotalPaid:    row.TotalPaid,
	}, nil
}

// scoped returns a query filtered to one store and kind
func (r *GormRecordRepository) scoped(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.LedgerRecordModel{}).
		Where("store_id = ? AND kind = ?", storeID, kind)
}

// applyRecordFilter applies non-pagination filter conditions
func applyRecordFilter(query *gorm.DB, filter ledger.RecordFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("(description ILIKE ? OR category ILIKE ?)", pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", filter.ToDate)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", filter.DueTo)
	}
	return query
}

// translateError maps driver errors to domain errors. Unique
// violations become conflicts; lock and serialization failures become
// transient errors the caller may retry. The GORM connection runs on
// pgx while raw database/sql paths use lib/pq, so both error shapes
// are handled.
func translateError(err error) error {
	var code string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code = pgErr.Code
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	default:
		return err
	}

	switch code {
	case "23505": // unique_violation
		return shared.ErrConflict
	case "40001", "40P01", "55P03": // serialization, deadlock, lock_not_available
		return shared.ErrTransient
	}
	return err
}
