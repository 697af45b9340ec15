package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"group-service/internal/models"
	"group-service/internal/observability"
	"group-service/internal/telemetry"
)

const requestIDContextKey = observability.RequestIDKey

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// currentUser returns the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) string {
	return c.GetString("userID")
}

func userIDFromContext(c *gin.Context) *string {
	if userID := currentUser(c); userID != "" {
		return &userID
	}
	return nil
}

// profileFromContext returns the caller's public details carried by their token.
func profileFromContext(c *gin.Context) models.Profile {
	return models.Profile{
		DisplayName: c.GetString("displayName"),
		PhotoURL:    c.GetString("photoURL"),
	}
}

// auditor is embedded by handlers that report actions to the audit stream.
type auditor struct {
	audit *telemetry.AuditEmitter
}

func (a auditor) emitAudit(c *gin.Context, level, text string) {
	if a.audit == nil {
		return
	}
	a.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// failAudit reports a failed action and writes the error envelope.
func (a auditor) failAudit(c *gin.Context, err error, text string) {
	a.emitAudit(c, "ERROR", text+": "+models.ErrorKind(err))
	fail(c, err)
}
