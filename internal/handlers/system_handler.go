package handlers

import (
	"net/http"
	"time"

	"neowatch/internal/service"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	service  service.NEOService
	services gin.H
}

// NewSystemHandler takes the infrastructure state reported by the health check.
func NewSystemHandler(service service.NEOService, dbEnabled, redisEnabled bool) *SystemHandler {
	return &SystemHandler{
		service: service,
		services: gin.H{
			"database": enabledString(dbEnabled),
			"redis":    enabledString(redisEnabled),
		},
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "connected"
	}
	return "disabled"
}

// Health handles GET /health.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  h.services,
	})
}

// Stats handles GET /system/stats.
func (h *SystemHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to get stats",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
