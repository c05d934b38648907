package handler

import (
	partyapp "github.com/edufin/backend/internal/application/party"
	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ThirdPartyHandler handles third-party directory endpoints
type ThirdPartyHandler struct {
	BaseHandler
	parties *partyapp.ThirdPartyService
}

// NewThirdPartyHandler creates a new ThirdPartyHandler
func NewThirdPartyHandler(parties *partyapp.ThirdPartyService) *ThirdPartyHandler {
	return &ThirdPartyHandler{parties: parties}
}

// RegisterRoutes registers third-party routes
func (h *ThirdPartyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/third-parties")
	{
		group.POST("", h.Register)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.PUT("/:id/contact", h.UpdateContact)
		group.DELETE("/:id", h.Remove)
	}
}

// Register explicitly creates a third party
func (h *ThirdPartyHandler) Register(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req partyapp.RegisterThirdPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.parties.Register(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns third parties matching the filter
func (h *ThirdPartyHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := party.ThirdPartyFilter{
		Filter:     toSharedFilter(listReq),
		Type:       party.ThirdPartyType(c.Query("type")),
		ActiveOnly: c.Query("active_only") == "true",
		DocumentID: c.Query("document_id"),
	}

	resp, total, err := h.parties.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp, total, listReq.Page, listReq.PageSize)
}

// Get returns one third party
func (h *ThirdPartyHandler) Get(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.parties.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateContact changes a third party's contact data
func (h *ThirdPartyHandler) UpdateContact(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req partyapp.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.parties.UpdateContact(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Remove hard-deletes a third party without ledger history, deactivates otherwise
func (h *ThirdPartyHandler) Remove(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.parties.Remove(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
