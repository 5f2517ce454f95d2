package ledger

import (
	"fmt"
	"time"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordStatus represents the settlement status of a ledger record
type RecordStatus string

const (
	StatusPending   RecordStatus = "PENDING"
	StatusPaid      RecordStatus = "PAID"
	StatusCancelled RecordStatus = "CANCELLED"
)

// IsValid checks if the status is a valid RecordStatus
func (s RecordStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RecordStatus
func (s RecordStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are defined.
// PAID can be reopened, so only CANCELLED is terminal.
func (s RecordStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// LedgerRecord is the aggregate root for a money-movement document
// (expense, purchase, sale or receivable). DocumentNumber is assigned
// once at creation by the repository's sequencer and never reassigned.
type LedgerRecord struct {
	shared.StoreAggregateRoot
	Kind           RecordKind           `json:"kind"`
	DocumentNumber int64                `json:"document_number"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       valueobject.Currency `json:"currency"`
	Description    string               `json:"description"`
	Category       string               `json:"category"`
	Status         RecordStatus         `json:"status"`
	DueDate        *time.Time           `json:"due_date"`
	PaidAt         *time.Time           `json:"paid_at"`
	AttachmentURLs []string             `json:"attachment_urls"`
}

// NewLedgerRecord creates a new ledger record in PENDING status.
// The document number is zero until the sequencer assigns it at insert.
func NewLedgerRecord(
	storeID uuid.UUID,
	kind RecordKind,
	amount valueobject.Money,
	description string,
	category string,
	dueDate *time.Time,
) (*LedgerRecord, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Record kind %q is not valid", kind))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if len(category) > 100 {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 100 characters")
	}

	return &LedgerRecord{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		Kind:               kind,
		Amount:             amount.Amount(),
		Currency:           amount.Currency(),
		Description:        description,
		Category:           category,
		Status:             StatusPending,
		DueDate:            dueDate,
	}, nil
}

// ChangeStatus applies a status transition. Defined edges:
// PENDING -> PAID, PENDING -> CANCELLED, PAID -> PENDING (reopen).
// PaidAt is non-nil iff Status == PAID; this is the only place that
// touches either field.
func (r *LedgerRecord) ChangeStatus(target RecordStatus, actor uuid.UUID) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Status %q is not recognized", target))
	}
	if target == r.Status {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Record is already %s", r.Status))
	}
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transition a %s record", r.Status))
	}
	if r.Status == StatusPaid && target == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "A paid record cannot be cancelled; reopen it first")
	}

	now := time.Now()
	r.Status = target
	switch target {
	case StatusPaid:
		r.PaidAt = &now
	default:
		r.PaidAt = nil
	}
	r.SetUpdatedBy(actor)
	r.UpdatedAt = now
	return nil
}

// Update edits the business fields. Only PENDING records may be edited.
func (r *LedgerRecord) Update(
	amount valueobject.Money,
	description string,
	category string,
	dueDate *time.Time,
	actor uuid.UUID,
) error {
	if r.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a %s record", r.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if len(category) > 100 {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 100 characters")
	}

	r.Amount = amount.Amount()
	r.Currency = amount.Currency()
	r.Description = description
	r.Category = category
	r.DueDate = dueDate
	r.SetUpdatedBy(actor)
	r.UpdatedAt = time.Now()
	return nil
}

// AddAttachmentURL appends an uploaded attachment location
func (r *LedgerRecord) AddAttachmentURL(url string, actor uuid.UUID) error {
	if url == "" {
		return shared.NewDomainError("INVALID_ATTACHMENT", "Attachment URL cannot be empty")
	}
	r.AttachmentURLs = append(r.AttachmentURLs, url)
	r.SetUpdatedBy(actor)
	r.UpdatedAt = time.Now()
	return nil
}

// GetAmountMoney returns the amount as a Money value object
func (r *LedgerRecord) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(r.Amount, r.Currency)
	return m
}

// IsPending returns true if the record awaits settlement
func (r *LedgerRecord) IsPending() bool {
	return r.Status == StatusPending
}

// IsPaid returns true if the record is settled
func (r *LedgerRecord) IsPaid() bool {
	return r.Status == StatusPaid
}

// IsCancelled returns true if the record was voided
func (r *LedgerRecord) IsCancelled() bool {
	return r.Status == StatusCancelled
}
