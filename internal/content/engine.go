// Package content handles posts and the interactions shared by posts and
// proposals: likes, favorites and comments.
package content

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

var tracer = otel.Tracer("group-service/content")

// Groups is the membership capability the engine authorizes against.
type Groups interface {
	Role(ctx context.Context, groupID, userID string) (models.Role, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
}

// Engine runs content operations against the record store.
type Engine struct {
	st       store.Store
	repo     repositories.ContentRepository
	groups   Groups
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

// WithIDGenerator overrides how post and comment ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine constructs an Engine.
func NewEngine(st store.Store, groups Groups, notifier notify.Notifier, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		st:       st,
		repo:     repositories.NewContentRepo(st),
		groups:   groups,
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
	return observability.StartOperation(ctx, tracer, "content", op, errp)
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

func (e *Engine) requireMember(ctx context.Context, groupID, userID string) (models.Role, error) {
	role, err := e.groups.Role(ctx, groupID, userID)
	if err != nil {
		return role, err
	}
	if !role.IsMember() {
		return role, fmt.Errorf("%s is not a member of %s: %w", userID, groupID, models.ErrUnauthorized)
	}
	return role, nil
}

func (e *Engine) notify(ctx context.Context, groupID string, recipients, exclude []string, ev notify.Event) {
	if e.notifier == nil {
		return
	}
	if report := e.notifier.Notify(ctx, groupID, recipients, exclude, ev); report.Failed > 0 {
		e.logger.Warn().Str("event_type", ev.Type).Int("failed", report.Failed).Msg("notification fan-out incomplete")
	}
}

// parent is the part of a post or proposal the interaction operations need.
type parent struct {
	Kind      models.ParentKind
	ID        string
	GroupID   string
	AuthorID  string
	Title     string
	Favorites []string
	YesVoters []string
}

func (e *Engine) loadParent(ctx context.Context, kind models.ParentKind, id string) (parent, error) {
	switch kind {
	case models.ParentPost:
		p, err := e.repo.GetPost(ctx, id)
		if err != nil {
			return parent{}, err
		}
		return parent{Kind: kind, ID: p.ID, GroupID: p.GroupID, AuthorID: p.AuthorID, Title: p.Content, Favorites: p.Favorites}, nil
	case models.ParentProposal:
		p, err := e.repo.GetProposal(ctx, id)
		if err != nil {
			return parent{}, err
		}
		return parent{Kind: kind, ID: p.ID, GroupID: p.GroupID, AuthorID: p.AuthorID, Title: p.Title, Favorites: p.Favorites, YesVoters: p.Votes.Yes}, nil
	default:
		return parent{}, fmt.Errorf("parent kind %q: %w", kind, models.ErrInvalidInput)
	}
}

// toggleWrite stages an add-or-remove of userID in the set at field together with its counter.
// The guard makes the counter move only if the set actually changes.
func toggleWrite(b *store.Batch, collection, id, field, counter, userID string, present bool, now time.Time) {
	fields := map[string]any{"updatedAt": now}
	var cond store.Condition
	if present {
		fields[field] = store.ArrayRemove(userID)
		cond = store.ArrayHas(field, userID)
		if counter != "" {
			fields[counter] = store.Increment(-1)
		}
	} else {
		fields[field] = store.ArrayUnion(userID)
		cond = store.ArrayLacks(field, userID)
		if counter != "" {
			fields[counter] = store.Increment(1)
		}
	}
	b.Update(collection, id, fields, cond)
}
