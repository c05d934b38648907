package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping() error
}

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	db Pinger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes registers health routes on the root group
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{"status": "ok"})
}

// Ready is the readiness probe; it fails when the database is unreachable
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.Error(c, http.StatusServiceUnavailable, "ERR_INTERNAL", "Database unreachable")
			return
		}
	}
	h.Success(c, gin.H{"status": "ready"})
}
