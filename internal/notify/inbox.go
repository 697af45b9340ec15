package notify

import (
	"context"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// Inbox serves a user's in-app notifications and delivery preferences.
type Inbox struct {
	st    store.Store
	repo  repositories.NotificationRepository
	prefs prefStore
}

type prefStore interface {
	Get(ctx context.Context, userID string) (models.Preferences, error)
	Save(ctx context.Context, prefs models.Preferences) error
}

// NewInbox constructs an Inbox.
func NewInbox(st store.Store, prefs prefStore) *Inbox {
	return &Inbox{st: st, repo: repositories.NewNotificationRepo(st), prefs: prefs}
}

// ListNotifications returns the user's notifications, newest first.
func (i *Inbox) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return i.repo.ListForUser(ctx, userID, limit)
}

// MarkRead flags one of the user's notifications as read.
func (i *Inbox) MarkRead(ctx context.Context, notificationID, userID string) error {
	n, err := i.repo.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("mark notification %s read: %w", notificationID, models.ErrUnauthorized)
	}
	if n.Read {
		return nil
	}
	b := store.NewBatch().Update(repositories.NotificationsCollection, notificationID, map[string]any{"read": true})
	if err := repositories.Commit(ctx, i.st, b); err != nil {
		return repositories.StoreError(err, "mark notification %s read", notificationID)
	}
	return nil
}

// Preferences returns the user's delivery preferences.
func (i *Inbox) Preferences(ctx context.Context, userID string) (models.Preferences, error) {
	return i.prefs.Get(ctx, userID)
}

// SavePreferences replaces the user's push tokens and switches.
func (i *Inbox) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	return i.prefs.Save(ctx, prefs)
}
