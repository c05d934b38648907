package handler

import (
	ledgerapp "github.com/edufin/backend/internal/application/ledger"
	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices *ledgerapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *ledgerapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/invoices")
	{
		group.POST("", h.CreateDraft)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("/:id/issue", h.Issue)
		group.POST("/:id/mark-paid", h.MarkPaid)
		group.POST("/:id/cancel", h.Cancel)
	}
}

// CreateDraft builds a draft invoice
func (h *InvoiceHandler) CreateDraft(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoices.CreateDraft(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns invoices matching the filter
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.InvoiceFilter{
		Filter: toSharedFilter(listReq),
		Status: ledger.InvoiceStatus(c.Query("status")),
	}
	if filter.ThirdPartyID, err = queryUUID(c, "third_party_id"); err != nil {
		h.BadRequest(c, "Invalid third_party_id parameter")
		return
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		h.BadRequest(c, "Invalid from parameter")
		return
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		h.BadRequest(c, "Invalid to parameter")
		return
	}

	resp, total, err := h.invoices.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp, total, listReq.Page, listReq.PageSize)
}

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoices.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Issue numbers a draft and makes it final
func (h *InvoiceHandler) Issue(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoices.Issue(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkPaid flags an issued invoice as settled
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoices.MarkPaid(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel terminally cancels an invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoices.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
