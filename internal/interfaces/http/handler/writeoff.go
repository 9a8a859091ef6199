package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	financeapp "github.com/ipagency/backend/internal/application/finance"
	"github.com/ipagency/backend/internal/domain/shared"
)

// WriteOffHandler handles write-off and receipt balance API endpoints
type WriteOffHandler struct {
	BaseHandler
	writeOffService *financeapp.WriteOffService
	queryService    *financeapp.WriteOffQueryService
}

// NewWriteOffHandler creates a new WriteOffHandler
func NewWriteOffHandler(writeOffService *financeapp.WriteOffService, queryService *financeapp.WriteOffQueryService) *WriteOffHandler {
	return &WriteOffHandler{
		writeOffService: writeOffService,
		queryService:    queryService,
	}
}

// ===================== Request DTOs =====================

// CreateWriteOffRequest is the body of POST /write-offs
type CreateWriteOffRequest struct {
	ReceiptID string          `json:"receipt_id" binding:"required,uuid"`
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	RequestID *string         `json:"request_id,omitempty" binding:"omitempty,uuid"`
	Remark    string          `json:"remark,omitempty" binding:"max=500"`
}

// BatchWriteOffItemRequest is one item of POST /write-offs/batch
type BatchWriteOffItemRequest struct {
	ReceiptID string          `json:"receipt_id" binding:"required,uuid"`
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	RequestID *string         `json:"request_id,omitempty" binding:"omitempty,uuid"`
	Remark    string          `json:"remark,omitempty" binding:"max=500"`
}

// BatchWriteOffBody is the body of POST /write-offs/batch
type BatchWriteOffBody struct {
	Items []BatchWriteOffItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// RevertBody is the body of POST /write-offs/:id/revert
type RevertBody struct {
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

// BatchRevertBody is the body of POST /write-offs/batch-revert
type BatchRevertBody struct {
	WriteOffIDs []string `json:"write_off_ids" binding:"required,min=1,max=100,dive,uuid"`
	Reason      string   `json:"reason,omitempty" binding:"max=500"`
}

// ===================== Command endpoints =====================

// Create records a single write-off against a receipt
func (h *WriteOffHandler) Create(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identity required")
		return
	}

	var body CreateWriteOffRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req, err := toWriteOffRequest(body.ReceiptID, body.Amount, body.RequestID, body.Remark, actorID)
	if err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.writeOffService.WriteOff(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateBatch records multiple write-offs, each in its own transaction.
// Partial failure is a success response carrying the failed items.
func (h *WriteOffHandler) CreateBatch(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identity required")
		return
	}

	var body BatchWriteOffBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	batch := financeapp.BatchWriteOffRequest{ActorID: actorID}
	for _, item := range body.Items {
		req, err := toWriteOffRequest(item.ReceiptID, item.Amount, item.RequestID, item.Remark, actorID)
		if err != nil {
			h.BindingError(c, err)
			return
		}
		batch.Items = append(batch.Items, financeapp.BatchWriteOffItem{
			ReceiptID: req.ReceiptID,
			Amount:    req.Amount,
			RequestID: req.RequestID,
			Remark:    req.Remark,
		})
	}

	result, err := h.writeOffService.BatchWriteOff(c.Request.Context(), batch)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Revert reverses a completed write-off
func (h *WriteOffHandler) Revert(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identity required")
		return
	}

	writeOffID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid write-off ID format")
		return
	}

	var body RevertBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.writeOffService.Revert(c.Request.Context(), financeapp.RevertRequest{
		WriteOffID: writeOffID,
		Reason:     body.Reason,
		ActorID:    actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// RevertBatch reverses multiple write-offs with continue-on-error semantics
func (h *WriteOffHandler) RevertBatch(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identity required")
		return
	}

	var body BatchRevertBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	ids := make([]uuid.UUID, len(body.WriteOffIDs))
	for i, raw := range body.WriteOffIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid write-off ID format")
			return
		}
		ids[i] = id
	}

	result, err := h.writeOffService.BatchRevert(c.Request.Context(), financeapp.BatchRevertRequest{
		WriteOffIDs: ids,
		Reason:      body.Reason,
		ActorID:     actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// ===================== Query endpoints =====================

// List returns ledger entries matching query filters
func (h *WriteOffHandler) List(c *gin.Context) {
	var filter financeapp.WriteOffListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	normalizePaging(&filter.Page, &filter.PageSize)

	page, err := h.queryService.ListWriteOffs(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, filter.Page, filter.PageSize)
}

// Get returns a single ledger entry
func (h *WriteOffHandler) Get(c *gin.Context) {
	writeOffID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid write-off ID format")
		return
	}

	resp, err := h.queryService.GetWriteOff(c.Request.Context(), writeOffID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPendingReceipts returns receipts with a positive unclaimed amount
func (h *WriteOffHandler) ListPendingReceipts(c *gin.Context) {
	var filter financeapp.PendingReceiptListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}
	normalizePaging(&filter.Page, &filter.PageSize)

	page, err := h.queryService.ListPendingReceipts(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, filter.Page, filter.PageSize)
}

// GetReceiptBalance returns a receipt's balance snapshot
func (h *WriteOffHandler) GetReceiptBalance(c *gin.Context) {
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	balance, err := h.queryService.GetBalance(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, balance)
}

// ListReceiptWriteOffs returns a receipt's full ledger including reverted entries
func (h *WriteOffHandler) ListReceiptWriteOffs(c *gin.Context) {
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	entries, err := h.queryService.ListByReceipt(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, entries)
}

// ===================== helpers =====================

func toWriteOffRequest(receiptID string, amount decimal.Decimal, requestID *string, remark string, actorID uuid.UUID) (financeapp.WriteOffRequest, error) {
	rid, err := uuid.Parse(receiptID)
	if err != nil {
		return financeapp.WriteOffRequest{}, err
	}
	req := financeapp.WriteOffRequest{
		ReceiptID: rid,
		Amount:    amount,
		Remark:    remark,
		ActorID:   actorID,
	}
	if requestID != nil {
		parsed, err := uuid.Parse(*requestID)
		if err != nil {
			return financeapp.WriteOffRequest{}, err
		}
		req.RequestID = &parsed
	}
	return req, nil
}

func normalizePaging(page, pageSize *int) {
	defaults := shared.DefaultFilter()
	if *page <= 0 {
		*page = defaults.Page
	}
	if *pageSize <= 0 {
		*pageSize = defaults.PageSize
	}
	if *pageSize > 100 {
		*pageSize = 100
	}
}
