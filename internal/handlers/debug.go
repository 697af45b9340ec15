package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"group-service/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, breaker interface{ State() string }, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/push-breaker", func(c *gin.Context) {
		if breaker == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push breaker not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": breaker.State()})
	})
}
