package handler

import (
	"strconv"

	ledgerapp "github.com/edufin/backend/internal/application/ledger"
	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ConceptHandler handles charge-concept catalog endpoints
type ConceptHandler struct {
	BaseHandler
	concepts *ledgerapp.ConceptService
}

// NewConceptHandler creates a new ConceptHandler
func NewConceptHandler(concepts *ledgerapp.ConceptService) *ConceptHandler {
	return &ConceptHandler{concepts: concepts}
}

// RegisterRoutes registers concept routes
func (h *ConceptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/concepts")
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Remove)
		group.POST("/:id/reactivate", h.Reactivate)
	}
}

// Create adds a concept to the catalog
func (h *ConceptHandler) Create(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateConceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.concepts.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns the concept catalog
func (h *ConceptHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.ConceptFilter{
		Filter:     toSharedFilter(listReq),
		ActiveOnly: c.Query("active_only") == "true",
	}
	if raw := c.Query("recurring"); raw != "" {
		recurring, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			h.BadRequest(c, "Invalid recurring parameter")
			return
		}
		filter.Recurring = &recurring
	}

	resp, total, err := h.concepts.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp, total, listReq.Page, listReq.PageSize)
}

// Get returns one concept
func (h *ConceptHandler) Get(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.concepts.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update changes template defaults
func (h *ConceptHandler) Update(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.UpdateConceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.concepts.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Remove deletes an unreferenced concept or deactivates a referenced one
func (h *ConceptHandler) Remove(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.concepts.Remove(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reactivate re-enables a deactivated concept
func (h *ConceptHandler) Reactivate(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.concepts.Reactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
