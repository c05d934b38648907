package handler

import (
	"time"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bindListRequest binds pagination/search query params with defaults applied
func bindListRequest(c *gin.Context) (dto.ListRequest, error) {
	req := dto.ListRequest{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&req); err != nil {
		return req, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	return req, nil
}

// toSharedFilter converts the transport pagination to the domain filter
func toSharedFilter(req dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
}

// queryUUID parses an optional UUID query parameter
func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryDate parses an optional RFC3339 or YYYY-MM-DD query parameter
func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
