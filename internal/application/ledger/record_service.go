package ledger

import (
	"context"
	"time"

	"github.com/comercio/backend/internal/domain/ledger"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordService provides application-level operations over ledger
// records: creation (number assignment), edits, status transitions,
// payments and the audit trail.
type RecordService struct {
	records ledger.RecordRepository
}

// NewRecordService creates a new RecordService
func NewRecordService(records ledger.RecordRepository) *RecordService {
	return &RecordService{records: records}
}

// ===================== DTOs =====================

// RecordResponse represents a ledger record in API responses
type RecordResponse struct {
	ID             uuid.UUID       `json:"id"`
	StoreID        uuid.UUID       `json:"store_id"`
	Kind           string          `json:"kind"`
	DocumentNumber int64           `json:"document_number"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description"`
	Category       string          `json:"category,omitempty"`
	Status         string          `json:"status"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	AttachmentURLs []string        `json:"attachment_urls,omitempty"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	UpdatedBy      *uuid.UUID      `json:"updated_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	RecordID  uuid.UUID       `json:"record_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Notes     string          `json:"notes,omitempty"`
	CreatedBy *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditLogResponse represents an audit entry in API responses
type AuditLogResponse struct {
	ID        uuid.UUID           `json:"id"`
	RecordID  uuid.UUID           `json:"record_id"`
	ActorID   *uuid.UUID          `json:"actor_id,omitempty"`
	ActorName string              `json:"actor_name,omitempty"`
	Action    string              `json:"action"`
	Details   ledger.AuditDetails `json:"details"`
	CreatedAt time.Time           `json:"created_at"`
}

// CreateRecordRequest represents a request to create a ledger record
type CreateRecordRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category"`
	DueDate     *time.Time      `json:"due_date"`
	ActorID     uuid.UUID       `json:"-"` // from JWT context, never from the body
}

// UpdateRecordRequest represents a request to edit a pending record
type UpdateRecordRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category"`
	DueDate     *time.Time      `json:"due_date"`
	ActorID     uuid.UUID       `json:"-"`
}

// ChangeStatusRequest represents a status transition request
type ChangeStatusRequest struct {
	Status  string    `json:"status" binding:"required"`
	ActorID uuid.UUID `json:"-"`
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency"`
	Notes    string          `json:"notes"`
	ActorID  uuid.UUID       `json:"-"`
}

// RecordListFilter defines filtering options for record list queries
type RecordListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status"`
	Category string     `form:"category"`
	FromDate *time.Time `form:"from_date"`
	ToDate   *time.Time `form:"to_date"`
	DueFrom  *time.Time `form:"due_from"`
	DueTo    *time.Time `form:"due_to"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// SummaryResponse represents aggregate totals for a (store, kind) pair
type SummaryResponse struct {
	Kind         string          `json:"kind"`
	Count        int64           `json:"count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalPending decimal.Decimal `json:"total_pending"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

// ===================== Operations =====================

func parseMoney(amount decimal.Decimal, currency string) (valueobject.Money, error) {
	cur := valueobject.DefaultCurrency
	if currency != "" {
		cur = valueobject.Currency(currency)
	}
	money, err := valueobject.NewMoney(amount, cur)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	return money, nil
}

// CreateRecord validates the request, then delegates to the repository
// sequencer which assigns the document number and co-commits the
// created audit entry in one transaction.
func (s *RecordService) CreateRecord(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, req CreateRecordRequest) (*RecordResponse, error) {
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	record, err := ledger.NewLedgerRecord(storeID, kind, amount, req.Description, req.Category, req.DueDate)
	if err != nil {
		return nil, err
	}
	if req.ActorID != uuid.Nil {
		record.SetCreatedBy(req.ActorID)
	}

	// The created entry's document number is filled in by the
	// repository once the sequencer has assigned it.
	entry, err := ledger.NewAuditLogEntry(record.ID, req.ActorID, ledger.AuditActionCreated, ledger.AuditDetails{})
	if err != nil {
		return nil, err
	}

	if err := s.records.Create(ctx, record, entry); err != nil {
		return nil, err
	}

	return toRecordResponse(record, ledger.ComputeBalance(record.Amount, nil)), nil
}

// GetRecord returns a record with its derived balance
func (s *RecordService) GetRecord(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID) (*RecordResponse, error) {
	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.records.ListPayments(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	return toRecordResponse(record, ledger.ComputeBalance(record.Amount, payments)), nil
}

// ListRecords lists records with balances derived from a single
// grouped payment sum.
func (s *RecordService) ListRecords(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, filter RecordListFilter) ([]RecordResponse, int64, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	records, err := s.records.FindAllForStore(ctx, storeID, kind, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.records.CountForStore(ctx, storeID, kind, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	paidTotals, err := s.records.SumPayments(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]RecordResponse, len(records))
	for i := range records {
		balance := ledger.BalanceFromTotal(records[i].Amount, paidTotals[records[i].ID])
		responses[i] = *toRecordResponse(&records[i], balance)
	}
	return responses, total, nil
}

// UpdateRecord edits a pending record's business fields
func (s *RecordService) UpdateRecord(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID, req UpdateRecordRequest) (*RecordResponse, error) {
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}

	changed := changedFields(record, amount, req.Description, req.Category, req.DueDate)
	if err := record.Update(amount, req.Description, req.Category, req.DueDate, req.ActorID); err != nil {
		return nil, err
	}

	entry, err := ledger.NewAuditLogEntry(record.ID, req.ActorID, ledger.AuditActionUpdated, ledger.UpdatedDetails(changed...))
	if err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, record, entry); err != nil {
		return nil, err
	}

	payments, err := s.records.ListPayments(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return toRecordResponse(record, ledger.ComputeBalance(record.Amount, payments)), nil
}

// ChangeStatus applies a status transition and co-commits the matching
// audit entry (marked_paid, cancelled or reopened).
func (s *RecordService) ChangeStatus(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID, req ChangeStatusRequest) (*RecordResponse, error) {
	target := ledger.RecordStatus(req.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Status must be one of PENDING, PAID, CANCELLED")
	}

	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}

	from := record.Status
	if err := record.ChangeStatus(target, req.ActorID); err != nil {
		return nil, err
	}

	action := ledger.ActionForTransition(from, target)
	entry, err := ledger.NewAuditLogEntry(record.ID, req.ActorID, action, ledger.StatusDetails(from, target))
	if err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, record, entry); err != nil {
		return nil, err
	}

	payments, err := s.records.ListPayments(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return toRecordResponse(record, ledger.ComputeBalance(record.Amount, payments)), nil
}

// RecordPayment inserts an immutable payment and its audit entry in
// one transaction. The record status is never changed by a payment.
func (s *RecordService) RecordPayment(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}
	if record.IsCancelled() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot record a payment on a cancelled record")
	}

	payment, err := ledger.NewPayment(record.ID, amount, req.Notes, req.ActorID)
	if err != nil {
		return nil, err
	}

	entry, err := ledger.NewAuditLogEntry(record.ID, req.ActorID, ledger.AuditActionPayment, ledger.PaymentDetails(amount))
	if err != nil {
		return nil, err
	}

	if err := s.records.AddPayment(ctx, payment, entry); err != nil {
		return nil, err
	}

	return toPaymentResponse(payment), nil
}

// ListPayments returns the payments of a record in creation order
func (s *RecordService) ListPayments(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID) ([]PaymentResponse, error) {
	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.records.ListPayments(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}
	return responses, nil
}

// GetAuditLog returns the record's audit trail in creation order
func (s *RecordService) GetAuditLog(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID) ([]AuditLogResponse, error) {
	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.records.ListAuditLog(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]AuditLogResponse, len(entries))
	for i, e := range entries {
		responses[i] = AuditLogResponse{
			ID:        e.ID,
			RecordID:  e.RecordID,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			Action:    e.Action.String(),
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		}
	}
	return responses, nil
}

// AttachFile saves an uploaded attachment URL on the record with an
// audit entry. The upload itself happens before this call, outside any
// database transaction.
func (s *RecordService) AttachFile(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, id uuid.UUID, url string, actorID uuid.UUID) (*RecordResponse, error) {
	record, err := s.records.FindByIDForStore(ctx, storeID, kind, id)
	if err != nil {
		return nil, err
	}

	if err := record.AddAttachmentURL(url, actorID); err != nil {
		return nil, err
	}

	entry, err := ledger.NewAuditLogEntry(record.ID, actorID, ledger.AuditActionUpdated, ledger.AttachmentDetails(url))
	if err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, record, entry); err != nil {
		return nil, err
	}

	payments, err := s.records.ListPayments(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return toRecordResponse(record, ledger.ComputeBalance(record.Amount, payments)), nil
}

// Summarize aggregates committed records of a kind for a store
func (s *RecordService) Summarize(ctx context.Context, storeID uuid.UUID, kind ledger.RecordKind, filter RecordListFilter) (*SummaryResponse, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, err
	}

	summary, err := s.records.Summarize(ctx, storeID, kind, domainFilter)
	if err != nil {
		return nil, err
	}

	return &SummaryResponse{
		Kind:         kind.String(),
		Count:        summary.Count,
		TotalAmount:  summary.TotalAmount,
		TotalPending: summary.TotalPending,
		TotalPaid:    summary.TotalPaid,
	}, nil
}

// ===================== Mapping =====================

func toDomainFilter(filter RecordListFilter) (ledger.RecordFilter, error) {
	df := ledger.RecordFilter{
		Filter:   shared.DefaultFilter(),
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		DueFrom:  filter.DueFrom,
		DueTo:    filter.DueTo,
	}
	df.Search = filter.Search
	if filter.Page > 0 {
		df.Page = filter.Page
	}
	if filter.PageSize > 0 {
		df.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status := ledger.RecordStatus(filter.Status)
		if !status.IsValid() {
			return ledger.RecordFilter{}, shared.NewDomainError("INVALID_STATUS", "Unknown status filter")
		}
		df.Status = &status
	}
	if filter.Category != "" {
		df.Category = &filter.Category
	}
	return df, nil
}

func changedFields(record *ledger.LedgerRecord, amount valueobject.Money, description, category string, dueDate *time.Time) []string {
	var changed []string
	if !record.Amount.Equal(amount.Amount()) || record.Currency != amount.Currency() {
		changed = append(changed, "amount")
	}
	if record.Description != description {
		changed = append(changed, "description")
	}
	if record.Category != category {
		changed = append(changed, "category")
	}
	switch {
	case (record.DueDate == nil) != (dueDate == nil):
		changed = append(changed, "due_date")
	case record.DueDate != nil && dueDate != nil && !record.DueDate.Equal(*dueDate):
		changed = append(changed, "due_date")
	}
	return changed
}

func toRecordResponse(r *ledger.LedgerRecord, balance ledger.Balance) *RecordResponse {
	return &RecordResponse{
		ID:             r.ID,
		StoreID:        r.StoreID,
		Kind:           r.Kind.String(),
		DocumentNumber: r.DocumentNumber,
		Amount:         r.Amount,
		Currency:       r.Currency.String(),
		Description:    r.Description,
		Category:       r.Category,
		Status:         r.Status.String(),
		DueDate:        r.DueDate,
		PaidAt:         r.PaidAt,
		AttachmentURLs: r.AttachmentURLs,
		TotalPaid:      balance.TotalPaid,
		Outstanding:    balance.Outstanding,
		CreatedBy:      r.CreatedBy,
		UpdatedBy:      r.UpdatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
}

func toPaymentResponse(p *ledger.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:        p.ID,
		RecordID:  p.RecordID,
		Amount:    p.Amount,
		Currency:  p.Currency.String(),
		Notes:     p.Notes,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}
