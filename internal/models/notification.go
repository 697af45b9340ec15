package models

import "time"

// Category groups notification types for per-user push preferences.
type Category string

const (
	CategoryEvents     Category = "events"
	CategoryActivities Category = "activities"
)

// Notification is an in-app notification record.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	GroupID   string            `json:"groupId,omitempty"`
	Type      string            `json:"type"`
	Category  Category          `json:"category"`
	ActorID   string            `json:"actorId,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	EntityID  string            `json:"entityId,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NotificationSettings are the per-user push switches.
type NotificationSettings struct {
	Push       *bool `json:"push,omitempty"`
	Events     *bool `json:"events,omitempty"`
	Activities *bool `json:"activities,omitempty"`
}

// Preferences are a user's delivery preferences.
type Preferences struct {
	UserID     string               `json:"id"`
	PushTokens []string             `json:"pushTokens"`
	Settings   NotificationSettings `json:"notificationSettings"`
}

// AllowsPush reports whether a push for category should be attempted. Unset switches default to on.
func (p Preferences) AllowsPush(category Category) bool {
	if len(p.PushTokens) == 0 || !enabled(p.Settings.Push) {
		return false
	}
	switch category {
	case CategoryEvents:
		return enabled(p.Settings.Events)
	case CategoryActivities:
		return enabled(p.Settings.Activities)
	default:
		return true
	}
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}
