// Package preferences resolves per-user notification delivery preferences.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// Source looks up a user's delivery preferences.
type Source interface {
	Get(ctx context.Context, userID string) (models.Preferences, error)
}

// Repository is a Source that can also persist preferences.
type Repository interface {
	Source
	Save(ctx context.Context, prefs models.Preferences) error
}

// StoreSource reads preferences from users/{id} documents.
type StoreSource struct {
	st    store.Store
	repo  *repositories.NotificationRepo
	clock func() time.Time
}

// NewStoreSource constructs a StoreSource.
func NewStoreSource(st store.Store) *StoreSource {
	return &StoreSource{st: st, repo: repositories.NewNotificationRepo(st), clock: time.Now}
}

// Get returns the stored preferences; users without a document get the defaults.
func (s *StoreSource) Get(ctx context.Context, userID string) (models.Preferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.Preferences{UserID: userID}, nil
	}
	if err != nil {
		return models.Preferences{}, err
	}
	prefs.UserID = userID
	return prefs, nil
}

// Save merges the user's push tokens and switches into their user document.
func (s *StoreSource) Save(ctx context.Context, prefs models.Preferences) error {
	if prefs.UserID == "" {
		return fmt.Errorf("save preferences: %w: missing user id", models.ErrInvalidInput)
	}
	settings, err := store.Encode(prefs.Settings)
	if err != nil {
		return err
	}
	tokens := prefs.PushTokens
	if tokens == nil {
		tokens = []string{}
	}

	fields := map[string]any{
		"pushTokens":           tokens,
		"notificationSettings": map[string]any(settings),
		"updatedAt":            s.clock().UTC(),
	}
	_, err = s.st.Get(ctx, repositories.UsersCollection, prefs.UserID)
	b := store.NewBatch()
	switch {
	case errors.Is(err, store.ErrNotFound):
		doc := store.Document{"id": prefs.UserID}
		for k, v := range fields {
			doc[k] = v
		}
		b.Create(repositories.UsersCollection, prefs.UserID, doc)
	case err != nil:
		return repositories.StoreError(err, "load user %s", prefs.UserID)
	default:
		b.Update(repositories.UsersCollection, prefs.UserID, fields)
	}
	if err := repositories.Commit(ctx, s.st, b); err != nil {
		return repositories.StoreError(err, "save preferences for %s", prefs.UserID)
	}
	return nil
}

// CachedSource is a read-through Redis cache in front of another Source.
type CachedSource struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedSource wraps next with a Redis cache. A nil client disables caching.
func NewCachedSource(next Repository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedSource {
	return &CachedSource{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(userID string) string {
	return "group:prefs:" + userID
}

// Get serves from Redis when possible. Cache errors fall through to the wrapped source.
func (c *CachedSource) Get(ctx context.Context, userID string) (models.Preferences, error) {
	if c.client == nil {
		return c.next.Get(ctx, userID)
	}

	raw, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err == nil {
		var prefs models.Preferences
		if jsonErr := json.Unmarshal(raw, &prefs); jsonErr == nil {
			return prefs, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("preference cache read failed")
	}

	prefs, err := c.next.Get(ctx, userID)
	if err != nil {
		return prefs, err
	}
	if data, err := json.Marshal(prefs); err == nil {
		if err := c.client.Set(ctx, cacheKey(userID), data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("user_id", userID).Msg("preference cache write failed")
		}
	}
	return prefs, nil
}

// Invalidate drops the cached entry for userID.
func (c *CachedSource) Invalidate(ctx context.Context, userID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("preference cache invalidate failed")
	}
}

// Save persists prefs and drops any cached copy.
func (c *CachedSource) Save(ctx context.Context, prefs models.Preferences) error {
	if err := c.next.Save(ctx, prefs); err != nil {
		return err
	}
	c.Invalidate(ctx, prefs.UserID)
	return nil
}
