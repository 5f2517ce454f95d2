package handler

import (
	"io"
	"net/http"

	ledgerapp "github.com/comercio/backend/internal/application/ledger"
	storeapp "github.com/comercio/backend/internal/application/store"
	"github.com/comercio/backend/internal/domain/ledger"
	"github.com/comercio/backend/internal/infrastructure/storage"
	"github.com/comercio/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxAttachmentSize caps attachment uploads at 10 MiB
const maxAttachmentSize = 10 << 20

// LedgerHandler handles ledger record endpoints. Every route is
// scoped by store and by record kind taken from the path.
type LedgerHandler struct {
	BaseHandler
	service       *ledgerapp.RecordService
	attachments   storage.AttachmentStore
	authenticator *middleware.Authenticator
	stores        *storeapp.StoreService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(
	service *ledgerapp.RecordService,
	attachments storage.AttachmentStore,
	authenticator *middleware.Authenticator,
	stores *storeapp.StoreService,
) *LedgerHandler {
	return &LedgerHandler{
		service:       service,
		attachments:   attachments,
		authenticator: authenticator,
		stores:        stores,
	}
}

// RegisterRoutes registers ledger routes under the store scope
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	scoped := rg.Group("/stores/:storeId",
		h.authenticator.RequireAuth(), middleware.StoreAccess(h.stores))
	records := scoped.Group("/ledger/:kind")
	{
		records.GET("", h.ListRecords)
		records.GET("/summary", h.Summarize)
		records.POST("", h.CreateRecord)
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id", middleware.RequireManage(), h.UpdateRecord)
		records.POST("/:id/status", middleware.RequireManage(), h.ChangeStatus)
		records.GET("/:id/payments", h.ListPayments)
		records.POST("/:id/payments", h.RecordPayment)
		records.GET("/:id/logs", h.GetAuditLog)
		records.POST("/:id/attachments", h.UploadAttachment)
	}
}

// kindFromPath resolves the :kind route segment. Unknown tokens are
// answered with 404 so the kind namespace behaves like a path.
func (h *LedgerHandler) kindFromPath(c *gin.Context) (ledger.RecordKind, bool) {
	kind, ok := ledger.ParseRecordKind(c.Param("kind"))
	if !ok {
		h.NotFound(c, "Unknown ledger kind")
		return "", false
	}
	return kind, true
}

func (h *LedgerHandler) recordIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "Record not found")
		return uuid.Nil, false
	}
	return id, true
}

// CreateRecord creates a record and assigns its document number
func (h *LedgerHandler) CreateRecord(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ActorID = middleware.CurrentUserID(c)

	record, err := h.service.CreateRecord(c.Request.Context(), middleware.CurrentStoreID(c), kind, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// GetRecord returns a single record with its paid balance
func (h *LedgerHandler) GetRecord(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), middleware.CurrentStoreID(c), kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// ListRecords lists records of a kind with filtering and pagination
func (h *LedgerHandler) ListRecords(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}

	var filter ledgerapp.RecordListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records, total, err := h.service.ListRecords(c.Request.Context(), middleware.CurrentStoreID(c), kind, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// UpdateRecord edits a pending record
func (h *LedgerHandler) UpdateRecord(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	var req ledgerapp.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ActorID = middleware.CurrentUserID(c)

	record, err := h.service.UpdateRecord(c.Request.Context(), middleware.CurrentStoreID(c), kind, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// ChangeStatus transitions a record between statuses
func (h *LedgerHandler) ChangeStatus(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	var req ledgerapp.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ActorID = middleware.CurrentUserID(c)

	record, err := h.service.ChangeStatus(c.Request.Context(), middleware.CurrentStoreID(c), kind, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// RecordPayment registers a payment against a record
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	var req ledgerapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ActorID = middleware.CurrentUserID(c)

	payment, err := h.service.RecordPayment(c.Request.Context(), middleware.CurrentStoreID(c), kind, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payment)
}

// ListPayments lists the payments of a record in entry order
func (h *LedgerHandler) ListPayments(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), middleware.CurrentStoreID(c), kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// GetAuditLog returns the audit trail of a record, oldest first
func (h *LedgerHandler) GetAuditLog(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	entries, err := h.service.GetAuditLog(c.Request.Context(), middleware.CurrentStoreID(c), kind, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// Summarize returns record counts and per-status totals for a kind
func (h *LedgerHandler) Summarize(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}

	var filter ledgerapp.RecordListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), middleware.CurrentStoreID(c), kind, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// UploadAttachment stores an uploaded file and links it to the record
func (h *LedgerHandler) UploadAttachment(c *gin.Context) {
	kind, ok := h.kindFromPath(c)
	if !ok {
		return
	}
	id, ok := h.recordIDFromPath(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file upload")
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Attachment exceeds the size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		h.BadRequest(c, "Unreadable file upload")
		return
	}
	if len(data) > maxAttachmentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Attachment exceeds the size limit")
		return
	}

	storeID := middleware.CurrentStoreID(c)
	contentType := fileHeader.Header.Get("Content-Type")

	url, err := h.attachments.UploadAttachment(c.Request.Context(), storeID, id, data, contentType)
	if err != nil {
		if err == storage.ErrUnsupportedType {
			h.Error(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Attachment type is not allowed")
			return
		}
		h.HandleError(c, err)
		return
	}

	record, err := h.service.AttachFile(c.Request.Context(), storeID, kind, id, url, middleware.CurrentUserID(c))
	if err != nil {
		// The record rejected the link; drop the orphaned upload.
		_ = h.attachments.DeleteAttachment(c.Request.Context(), url)
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}
