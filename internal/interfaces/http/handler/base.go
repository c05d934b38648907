package handler

import (
	"errors"
	"net/http"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantIDHeader identifies the institution making the request
const TenantIDHeader = "X-Tenant-ID"

// UserIDHeader identifies the acting user (cashier, administrator)
const UserIDHeader = "X-User-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getTenantID extracts the institution id from the request headers
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(TenantIDHeader)
	if raw == "" {
		return uuid.Nil, errors.New("institution header is required")
	}
	return uuid.Parse(raw)
}

// getActorID extracts the acting user id from the request headers
func getActorID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return uuid.Nil, errors.New("user header is required")
	}
	return uuid.Parse(raw)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// HandleError maps a service error to the appropriate HTTP response.
// Domain errors carry their own code; anything else is an internal error
// with the detail kept out of the response body.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.MapDomainCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Internal server error")
}

// parseUUIDParam parses a UUID path parameter, answering 400 on failure.
// The bool reports whether parsing succeeded.
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

// requireTenant resolves the institution id, answering 401 when absent
func (h *BaseHandler) requireTenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "A valid "+TenantIDHeader+" header is required")
		return uuid.Nil, false
	}
	return tenantID, true
}

// requireActor resolves the acting user id, answering 401 when absent
func (h *BaseHandler) requireActor(c *gin.Context) (uuid.UUID, bool) {
	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "A valid "+UserIDHeader+" header is required")
		return uuid.Nil, false
	}
	return actor, true
}
