package ledger

import (
	"time"

	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is a child entity of a LedgerRecord. Payments are immutable
// once created; there is no update or delete path. The sum of payments
// may exceed the record amount (overpayment is reported, not blocked).
type Payment struct {
	ID        uuid.UUID            `json:"id"`
	RecordID  uuid.UUID            `json:"record_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	Notes     string               `json:"notes"`
	CreatedBy *uuid.UUID           `json:"created_by"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewPayment creates a payment against a ledger record
func NewPayment(recordID uuid.UUID, amount valueobject.Money, notes string, createdBy uuid.UUID) (*Payment, error) {
	if recordID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECORD", "Record ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if len(notes) > 500 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 500 characters")
	}

	p := &Payment{
		ID:        uuid.New(),
		RecordID:  recordID,
		Amount:    amount.Amount(),
		Currency:  amount.Currency(),
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if createdBy != uuid.Nil {
		p.CreatedBy = &createdBy
	}
	return p, nil
}

// GetAmountMoney returns the payment amount as a Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}
