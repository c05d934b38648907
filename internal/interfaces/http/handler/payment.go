package handler

import (
	"strconv"

	ledgerapp "github.com/edufin/backend/internal/application/ledger"
	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment intake and audit endpoints
type PaymentHandler struct {
	BaseHandler
	payments *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/payments")
	{
		group.POST("", h.Register)
		group.GET("", h.List)
		group.GET("/stats", h.Stats)
		group.GET("/receipt/:receipt", h.GetByReceipt)
		group.GET("/:id", h.Get)
		group.POST("/:id/void", h.Void)
	}
}

// Register records a payment against an obligation or as a standalone receipt
func (h *PaymentHandler) Register(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req ledgerapp.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	// Header takes precedence over the body field for the idempotency key
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	resp, err := h.payments.Register(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns payments matching the filter
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.PaymentFilter{
		Filter: toSharedFilter(listReq),
		Method: ledger.PaymentMethod(c.Query("method")),
	}
	if filter.ThirdPartyID, err = queryUUID(c, "third_party_id"); err != nil {
		h.BadRequest(c, "Invalid third_party_id parameter")
		return
	}
	if filter.ObligationID, err = queryUUID(c, "obligation_id"); err != nil {
		h.BadRequest(c, "Invalid obligation_id parameter")
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
	if raw := c.Query("include_voided"); raw != "" {
		if filter.IncludeVoided, err = strconv.ParseBool(raw); err != nil {
			h.BadRequest(c, "Invalid include_voided parameter")
			return
		}
	}
	filter.OnlyStandalone = c.Query("standalone") == "true"

	resp, total, err := h.payments.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp, total, listReq.Page, listReq.PageSize)
}

// Stats returns collection totals for a date window
func (h *PaymentHandler) Stats(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	from, err := queryDate(c, "from")
	if err != nil || from == nil {
		h.BadRequest(c, "A valid from parameter is required")
		return
	}
	to, err := queryDate(c, "to")
	if err != nil || to == nil {
		h.BadRequest(c, "A valid to parameter is required")
		return
	}

	stats, err := h.payments.CollectedInWindow(c.Request.Context(), tenantID, *from, *to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Get returns one payment
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.payments.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByReceipt returns one payment by its receipt number
func (h *PaymentHandler) GetByReceipt(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	resp, err := h.payments.GetByReceipt(c.Request.Context(), tenantID, c.Param("receipt"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Void flags a payment as voided and reverses its obligation effect
func (h *PaymentHandler) Void(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.payments.Void(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
