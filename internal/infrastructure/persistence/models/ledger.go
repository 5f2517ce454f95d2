package models

import (
	"time"

	"github.com/comercio/backend/internal/domain/ledger"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// LedgerRecordModel is the persistence model for the LedgerRecord
// aggregate root. The unique index on (store_id, kind, document_number)
// is the database-side guarantee behind the sequencer.
type LedgerRecordModel struct {
	StoreAggregateModel
	Kind           ledger.RecordKind   `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_store_kind_number,priority:2"`
	DocumentNumber int64               `gorm:"not null;uniqueIndex:idx_ledger_store_kind_number,priority:3"`
	Amount         decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency       string              `gorm:"type:varchar(3);not null"`
	Description    string              `gorm:"type:varchar(500);not null"`
	Category       string              `gorm:"type:varchar(100);index"`
	Status         ledger.RecordStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate        *time.Time          `gorm:"index"`
	PaidAt         *time.Time
	AttachmentURLs pq.StringArray `gorm:"type:text[]"`
}

// TableName returns the table name for GORM
func (LedgerRecordModel) TableName() string {
	return "ledger_records"
}

// ToDomain converts the persistence model to a domain LedgerRecord
func (m *LedgerRecordModel) ToDomain() *ledger.LedgerRecord {
	return &ledger.LedgerRecord{
		StoreAggregateRoot: m.ToStoreAggregateRoot(),
		Kind:               m.Kind,
		DocumentNumber:     m.DocumentNumber,
		Amount:             m.Amount,
		Currency:           valueobject.Currency(m.Currency),
		Description:        m.Description,
		Category:           m.Category,
		Status:             m.Status,
		DueDate:            m.DueDate,
		PaidAt:             m.PaidAt,
		AttachmentURLs:     m.AttachmentURLs,
	}
}

// FromDomain populates the persistence model from a domain LedgerRecord
func (m *LedgerRecordModel) FromDomain(r *ledger.LedgerRecord) {
	m.FromStoreAggregateRoot(r.StoreAggregateRoot)
	m.Kind = r.Kind
	m.DocumentNumber = r.DocumentNumber
	m.Amount = r.Amount
	m.Currency = r.Currency.String()
	m.Description = r.Description
	m.Category = r.Category
	m.Status = r.Status
	m.DueDate = r.DueDate
	m.PaidAt = r.PaidAt
	m.AttachmentURLs = r.AttachmentURLs
}

// LedgerRecordModelFromDomain creates a persistence model from a domain LedgerRecord
func LedgerRecordModelFromDomain(r *ledger.LedgerRecord) *LedgerRecordModel {
	m := &LedgerRecordModel{}
	m.FromDomain(r)
	return m
}

// PaymentModel is the persistence model for ledger payments.
// Rows are insert-only.
type PaymentModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	RecordID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Notes     string          `gorm:"type:varchar(500)"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "ledger_payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		ID:        m.ID,
		RecordID:  m.RecordID,
		Amount:    m.Amount,
		Currency:  valueobject.Currency(m.Currency),
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	return &PaymentModel{
		ID:        p.ID,
		RecordID:  p.RecordID,
		Amount:    p.Amount,
		Currency:  p.Currency.String(),
		Notes:     p.Notes,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

// AuditLogModel is the persistence model for the append-only audit
// trail. It has no UpdatedAt on purpose; rows are never mutated.
type AuditLogModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primary_key"`
	RecordID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	ActorID   *uuid.UUID          `gorm:"type:uuid;index"`
	Action    ledger.AuditAction  `gorm:"type:varchar(30);not null"`
	Details   ledger.AuditDetails `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "ledger_audit_logs"
}

// ToDomain converts the persistence model to a domain AuditLogEntry.
// The actor display name is resolved by the repository, not stored here.
func (m *AuditLogModel) ToDomain() *ledger.AuditLogEntry {
	return &ledger.AuditLogEntry{
		ID:        m.ID,
		RecordID:  m.RecordID,
		ActorID:   m.ActorID,
		Action:    m.Action,
		Details:   m.Details,
		CreatedAt: m.CreatedAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain AuditLogEntry
func AuditLogModelFromDomain(e *ledger.AuditLogEntry) *AuditLogModel {
	return &AuditLogModel{
		ID:        e.ID,
		RecordID:  e.RecordID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
}
