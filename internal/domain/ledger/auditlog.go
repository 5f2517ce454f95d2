package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction tags the kind of mutation an audit entry documents
type AuditAction string

const (
	AuditActionCreated    AuditAction = "created"
	AuditActionUpdated    AuditAction = "updated"
	AuditActionMarkedPaid AuditAction = "marked_paid"
	AuditActionReopened   AuditAction = "reopened"
	AuditActionCancelled  AuditAction = "cancelled"
	AuditActionPayment    AuditAction = "payment"
)

// IsValid checks if the action belongs to the closed set
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreated, AuditActionUpdated, AuditActionMarkedPaid,
		AuditActionReopened, AuditActionCancelled, AuditActionPayment:
		return true
	}
	return false
}

// String returns the string representation of the action
func (a AuditAction) String() string {
	return string(a)
}

// AuditDetails is the structured payload attached to an audit entry.
// It is a closed schema rather than an open map: only the fields that
// make sense for the entry's action are populated. Persisted as JSONB.
type AuditDetails struct {
	DocumentNumber int64            `json:"document_number,omitempty"` // created
	ChangedFields  []string         `json:"changed_fields,omitempty"`  // updated
	FromStatus     RecordStatus     `json:"from_status,omitempty"`     // status transitions
	ToStatus       RecordStatus     `json:"to_status,omitempty"`       // status transitions
	Amount         *decimal.Decimal `json:"amount,omitempty"`          // payment
	Currency       string           `json:"currency,omitempty"`        // payment
	Attachment     string           `json:"attachment,omitempty"`      // attachment upload
}

// Value implements driver.Valuer for JSONB storage
func (d AuditDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB retrieval
func (d *AuditDetails) Scan(value interface{}) error {
	if value == nil {
		*d = AuditDetails{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AuditDetails", value)
	}
	return json.Unmarshal(bytes, d)
}

// CreatedDetails builds the payload for a created entry
func CreatedDetails(documentNumber int64) AuditDetails {
	return AuditDetails{DocumentNumber: documentNumber}
}

// UpdatedDetails builds the payload for a field-edit entry
func UpdatedDetails(changedFields ...string) AuditDetails {
	return AuditDetails{ChangedFields: changedFields}
}

// StatusDetails builds the payload for a status-transition entry
func StatusDetails(from, to RecordStatus) AuditDetails {
	return AuditDetails{FromStatus: from, ToStatus: to}
}

// PaymentDetails builds the payload for a payment entry
func PaymentDetails(amount valueobject.Money) AuditDetails {
	a := amount.Amount()
	return AuditDetails{Amount: &a, Currency: amount.Currency().String()}
}

// AttachmentDetails builds the payload for an attachment upload entry
func AttachmentDetails(url string) AuditDetails {
	return AuditDetails{Attachment: url}
}

// AuditLogEntry is an immutable event row documenting one state
// transition of a LedgerRecord. Entries are append-only and are always
// written in the same transaction as the mutation they document.
type AuditLogEntry struct {
	ID        uuid.UUID    `json:"id"`
	RecordID  uuid.UUID    `json:"record_id"`
	ActorID   *uuid.UUID   `json:"actor_id"` // nil for system-initiated changes
	ActorName string       `json:"actor_name,omitempty"`
	Action    AuditAction  `json:"action"`
	Details   AuditDetails `json:"details"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewAuditLogEntry creates an audit entry for a record mutation.
// actorID may be uuid.Nil for system-initiated changes.
func NewAuditLogEntry(recordID uuid.UUID, actorID uuid.UUID, action AuditAction, details AuditDetails) (*AuditLogEntry, error) {
	if recordID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECORD", "Record ID cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", fmt.Sprintf("Audit action %q is not valid", action))
	}

	e := &AuditLogEntry{
		ID:        uuid.New(),
		RecordID:  recordID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if actorID != uuid.Nil {
		e.ActorID = &actorID
	}
	return e, nil
}

// ActionForTransition derives the audit action for a status transition
func ActionForTransition(from, to RecordStatus) AuditAction {
	switch to {
	case StatusPaid:
		return AuditActionMarkedPaid
	case StatusCancelled:
		return AuditActionCancelled
	case StatusPending:
		if from == StatusPaid {
			return AuditActionReopened
		}
	}
	return AuditActionUpdated
}
