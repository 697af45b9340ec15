package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
)

// InboxService serves a user's notifications and delivery preferences.
type InboxService interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	Preferences(ctx context.Context, userID string) (models.Preferences, error)
	SavePreferences(ctx context.Context, prefs models.Preferences) error
}

// NotificationHandler manages the caller's inbox.
type NotificationHandler struct {
	inbox InboxService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(inbox InboxService) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// List handles GET /notifications?limit=N.
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	items, err := h.inbox.ListNotifications(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

// MarkRead handles POST /notifications/:notification_id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.inbox.MarkRead(c.Request.Context(), c.Param("notification_id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// GetPreferences handles GET /me/preferences.
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.inbox.Preferences(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, prefs)
}

// SavePreferences handles PUT /me/preferences. The caller can only write their own record.
func (h *NotificationHandler) SavePreferences(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, err)
		return
	}
	prefs.UserID = currentUser(c)

	if err := h.inbox.SavePreferences(c.Request.Context(), prefs); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, prefs)
}
