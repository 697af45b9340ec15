package repositories

import (
	"context"

	"group-service/internal/models"
	"group-service/internal/store"
)

// NotificationRepository defines reads of in-app notifications and user preferences.
type NotificationRepository interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	GetNotification(ctx context.Context, notificationID string) (models.Notification, error)
	GetPreferences(ctx context.Context, userID string) (models.Preferences, error)
}

// NotificationRepo is a store-backed NotificationRepository.
type NotificationRepo struct {
	st store.Store
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(st store.Store) *NotificationRepo {
	return &NotificationRepo{st: st}
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return queryAll[models.Notification](ctx, r.st, store.Query{
		Collection: NotificationsCollection,
		Filters:    []store.Filter{store.Where("userId", store.OpEqual, userID)},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      limit,
	})
}

// GetNotification fetches a single notification.
func (r *NotificationRepo) GetNotification(ctx context.Context, notificationID string) (models.Notification, error) {
	return getOne[models.Notification](ctx, r.st, NotificationsCollection, notificationID)
}

// GetPreferences reads the user's delivery preferences from their user document.
func (r *NotificationRepo) GetPreferences(ctx context.Context, userID string) (models.Preferences, error) {
	return getOne[models.Preferences](ctx, r.st, UsersCollection, userID)
}
