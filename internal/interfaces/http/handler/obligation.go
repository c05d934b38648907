package handler

import (
	"time"

	ledgerapp "github.com/edufin/backend/internal/application/ledger"
	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ObligationHandler handles financial obligation endpoints
type ObligationHandler struct {
	BaseHandler
	obligations *ledgerapp.ObligationService
	bulk        *ledgerapp.BulkObligationService
}

// NewObligationHandler creates a new ObligationHandler
func NewObligationHandler(obligations *ledgerapp.ObligationService, bulk *ledgerapp.BulkObligationService) *ObligationHandler {
	return &ObligationHandler{obligations: obligations, bulk: bulk}
}

// RegisterRoutes registers obligation routes
func (h *ObligationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/obligations")
	{
		group.POST("", h.Create)
		group.POST("/bulk", h.BulkCreate)
		group.GET("", h.List)
		group.GET("/outstanding", h.Outstanding)
		group.GET("/reference/:reference", h.GetByReference)
		group.GET("/:id", h.Get)
		group.POST("/:id/discount", h.ApplyDiscount)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/sweep-overdue", h.SweepOverdue)
	}
}

// Create instantiates an obligation from a concept for one third party
func (h *ObligationHandler) Create(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.obligations.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// BulkCreate charges a whole grade, group or explicit id list at once
func (h *ObligationHandler) BulkCreate(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req ledgerapp.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.bulk.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List returns obligations matching the filter
func (h *ObligationHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.ObligationFilter{
		Filter: toSharedFilter(listReq),
		Status: ledger.ObligationStatus(c.Query("status")),
	}
	if filter.ThirdPartyID, err = queryUUID(c, "third_party_id"); err != nil {
		h.BadRequest(c, "Invalid third_party_id parameter")
		return
	}
	if filter.ConceptID, err = queryUUID(c, "concept_id"); err != nil {
		h.BadRequest(c, "Invalid concept_id parameter")
		return
	}
	if filter.DueFrom, err = queryDate(c, "due_from"); err != nil {
		h.BadRequest(c, "Invalid due_from parameter")
		return
	}
	if filter.DueTo, err = queryDate(c, "due_to"); err != nil {
		h.BadRequest(c, "Invalid due_to parameter")
		return
	}

	resp, total, err := h.obligations.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp, total, listReq.Page, listReq.PageSize)
}

// Outstanding returns the institution-wide open balance
func (h *ObligationHandler) Outstanding(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	summary, err := h.obligations.Outstanding(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get returns one obligation
func (h *ObligationHandler) Get(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.obligations.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByReference returns one obligation by its document number
func (h *ObligationHandler) GetByReference(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	resp, err := h.obligations.GetByReference(c.Request.Context(), tenantID, c.Param("reference"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApplyDiscount sets the obligation's discount
func (h *ObligationHandler) ApplyDiscount(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.obligations.ApplyDiscount(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel terminally cancels an unpaid obligation
func (h *ObligationHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.CancelObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.obligations.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SweepOverdue flags past-due open obligations as OVERDUE
func (h *ObligationHandler) SweepOverdue(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	flipped, err := h.obligations.MarkOverdueSweep(c.Request.Context(), tenantID, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"flipped": flipped})
}
