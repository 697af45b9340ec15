// Package membership owns groups, their members, join requests and invites.
// Every change that touches the group aggregate and an association record is
// committed as one batch; notifications go out only after the commit.
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/observability"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

var tracer = otel.Tracer("group-service/membership")

// Engine runs membership operations against the record store.
type Engine struct {
	st       store.Store
	groups   repositories.GroupRepository
	content  repositories.ContentRepository
	notifier notify.Notifier
	logger   zerolog.Logger
	clock    func() time.Time
	newID    func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithIDGenerator overrides how record ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine constructs an Engine.
func NewEngine(st store.Store, notifier notify.Notifier, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		st:       st,
		groups:   repositories.NewGroupRepo(st),
		content:  repositories.NewContentRepo(st),
		notifier: notifier,
		logger:   logger,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) start(ctx context.Context, op string, errp *error) (context.Context, func()) {
	return observability.StartOperation(ctx, tracer, "membership", op, errp)
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// notify fans ev out after a successful commit. It never fails the caller.
func (e *Engine) notify(ctx context.Context, groupID string, recipients, exclude []string, ev notify.Event) {
	if e.notifier == nil {
		return
	}
	report := e.notifier.Notify(ctx, groupID, recipients, exclude, ev)
	if report.Failed > 0 {
		e.logger.Warn().Str("event_type", ev.Type).Str("group_id", groupID).Int("failed", report.Failed).Msg("notification fan-out incomplete")
	}
}

// Role reports the user's standing within the group.
func (e *Engine) Role(ctx context.Context, groupID, userID string) (models.Role, error) {
	g, err := e.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.RoleNone, err
	}
	return g.RoleOf(userID), nil
}

// requireModerator loads the group and checks that actorID is an organizer or the creator.
func (e *Engine) requireModerator(ctx context.Context, groupID, actorID string) (models.Group, error) {
	g, err := e.groups.GetGroup(ctx, groupID)
	if err != nil {
		return g, err
	}
	if !g.RoleOf(actorID).CanModerate() {
		return g, fmt.Errorf("%s is not an organizer of %s: %w", actorID, groupID, models.ErrUnauthorized)
	}
	return g, nil
}

// addMemberWrites stages the membership-add effects shared by join, approve and accept.
func addMemberWrites(b *store.Batch, groupID, userID string, profile models.Profile, now time.Time) error {
	member, err := store.Encode(models.Member{
		ID:          models.MemberID(userID, groupID),
		GroupID:     groupID,
		UserID:      userID,
		Role:        models.RoleMember,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		JoinedAt:    now,
	})
	if err != nil {
		return err
	}
	b.Update(repositories.GroupsCollection, groupID, map[string]any{
		"members":         store.ArrayUnion(userID),
		"memberCount":     store.Increment(1),
		"pendingRequests": store.ArrayRemove(userID),
		"revision":        store.Increment(1),
		"updatedAt":       now,
	}, store.ArrayLacks("members", userID))
	b.Create(repositories.MembersCollection, models.MemberID(userID, groupID), member)
	return nil
}

// removeMemberWrites stages the membership-remove effects shared by leave and remove.
// The creator guard keeps a concurrent admin transfer from being undone.
func removeMemberWrites(b *store.Batch, g models.Group, userID string, now time.Time) {
	b.Update(repositories.GroupsCollection, g.ID, map[string]any{
		"members":     store.ArrayRemove(userID),
		"organizers":  store.ArrayRemove(userID),
		"memberCount": store.Increment(-1),
		"updatedAt":   now,
	}, store.ArrayHas("members", userID), store.FieldEquals("creatorId", g.CreatorID))
	b.DeleteExisting(repositories.MembersCollection, models.MemberID(userID, g.ID))
}

// joined returns the group as it looks after userID was added.
func joined(g models.Group, userID string) models.Group {
	g.Members = append(append([]string(nil), g.Members...), userID)
	g.MemberCount++
	return g
}
