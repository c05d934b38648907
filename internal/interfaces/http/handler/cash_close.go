package handler

import (
	"time"

	ledgerapp "github.com/edufin/backend/internal/application/ledger"
	"github.com/edufin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CashCloseHandler handles cash register close endpoints
type CashCloseHandler struct {
	BaseHandler
	closes *ledgerapp.CashCloseService
}

// NewCashCloseHandler creates a new CashCloseHandler
func NewCashCloseHandler(closes *ledgerapp.CashCloseService) *CashCloseHandler {
	return &CashCloseHandler{closes: closes}
}

// RegisterRoutes registers cash close routes
func (h *CashCloseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/cash-closes")
	{
		group.POST("", h.Close)
		group.GET("", h.List)
		group.GET("/:date", h.Get)
	}
}

// Close computes and stores the close row for one register day
func (h *CashCloseHandler) Close(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req ledgerapp.CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.closes.Close(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns close rows, optionally bounded by date
func (h *CashCloseHandler) List(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	from, err := queryDate(c, "from")
	if err != nil {
		h.BadRequest(c, "Invalid from parameter")
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		h.BadRequest(c, "Invalid to parameter")
		return
	}

	resp, err := h.closes.List(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns the close row for one calendar date (YYYY-MM-DD)
func (h *CashCloseHandler) Get(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		h.BadRequest(c, "Invalid date parameter, expected YYYY-MM-DD")
		return
	}

	resp, err := h.closes.Get(c.Request.Context(), tenantID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
