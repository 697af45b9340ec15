// Package proposals runs event proposals: mutually exclusive yes/no voting and
// the active -> terminal status lifecycle.
package proposals

import (
	"context"
	"errors"
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

var tracer = otel.Tracer("group-service/proposals")

// SystemActor is recorded as statusBy when the clock settles a proposal.
const SystemActor = "system"

// Groups is the membership capability the engine authorizes against.
type Groups interface {
	Role(ctx context.Context, groupID, userID string) (models.Role, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
}

// Engine runs proposal operations against the record store.
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

// WithClock overrides the time source used for timestamps and lifecycle deadlines.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithIDGenerator overrides how proposal ids are minted.
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
	return observability.StartOperation(ctx, tracer, "proposals", op, errp)
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

// Create records a new active proposal carrying the author's own yes vote.
func (e *Engine) Create(ctx context.Context, groupID, authorID string, in models.ProposalInput) (p models.EventProposal, err error) {
	ctx, done := e.start(ctx, "create", &err)
	defer done()

	if err := models.Validate(in); err != nil {
		return p, err
	}
	now := e.now()
	p = models.EventProposal{
		ID:            e.newID(),
		GroupID:       groupID,
		AuthorID:      authorID,
		AuthorName:    in.AuthorName,
		Title:         in.Title,
		Description:   in.Description,
		Location:      in.Location,
		EventDateTime: in.EventDateTime,
		ExpiresAt:     in.ExpiresAt,
		Votes:         models.Votes{Yes: []string{authorID}, No: []string{}},
		YesCount:      1,
		Status:        models.ProposalActive,
		Favorites:     []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	doc, err := store.Encode(p)
	if err != nil {
		return p, err
	}
	err = repositories.Retry(ctx, func() error {
		if _, err := e.requireMember(ctx, groupID, authorID); err != nil {
			return err
		}
		b := store.NewBatch().Create(repositories.ProposalsCollection, p.ID, doc)
		repositories.StageGroupRevision(b, groupID, authorID)
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		return nil
	})
	if err != nil {
		return p, err
	}

	if g, err := e.groups.GetGroup(ctx, groupID); err == nil {
		e.notify(ctx, groupID, g.Members, []string{authorID}, notify.Event{
			Type:     notify.TypeProposalCreated,
			Category: models.CategoryEvents,
			ActorID:  authorID,
			Title:    g.Name,
			Body:     "New event proposal: " + p.Title,
			EntityID: p.ID,
		})
	}
	return p, nil
}

// Get returns the proposal after settling any deadline that has passed.
func (e *Engine) Get(ctx context.Context, proposalID string) (p models.EventProposal, err error) {
	ctx, done := e.start(ctx, "get", &err)
	defer done()

	if p, err = e.repo.GetProposal(ctx, proposalID); err != nil {
		return p, err
	}
	return e.settle(ctx, p)
}

// ListByGroup returns the group's proposals, newest first, each settled against the clock.
func (e *Engine) ListByGroup(ctx context.Context, groupID string) ([]models.EventProposal, error) {
	list, err := e.repo.ListProposals(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i], err = e.settle(ctx, list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// due returns the terminal status the clock has already reached for an active proposal.
// When both deadlines passed, the earlier one wins.
func (e *Engine) due(p models.EventProposal) models.ProposalStatus {
	if p.Status != models.ProposalActive {
		return ""
	}
	now := e.now()
	eventPassed := p.EventDateTime != nil && !now.Before(*p.EventDateTime)
	expiryPassed := p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
	switch {
	case eventPassed && expiryPassed:
		if p.ExpiresAt.Before(*p.EventDateTime) {
			return models.ProposalExpired
		}
		return models.ProposalCompleted
	case eventPassed:
		return models.ProposalCompleted
	case expiryPassed:
		return models.ProposalExpired
	}
	return ""
}

// settle commits a clock-driven transition if one is due and returns the current proposal.
func (e *Engine) settle(ctx context.Context, p models.EventProposal) (models.EventProposal, error) {
	status := e.due(p)
	if status == "" {
		return p, nil
	}
	now := e.now()
	b := store.NewBatch().Update(repositories.ProposalsCollection, p.ID, map[string]any{
		"status":    string(status),
		"statusBy":  SystemActor,
		"updatedAt": now,
	}, store.FieldEquals("status", string(models.ProposalActive)))
	err := repositories.Commit(ctx, e.st, b)
	switch {
	case err == nil:
		e.logger.Debug().Str("proposal_id", p.ID).Str("status", string(status)).Msg("proposal settled by clock")
		p.Status, p.StatusBy, p.UpdatedAt = status, SystemActor, now
		return p, nil
	case errors.Is(err, store.ErrConditionFailed):
		return e.repo.GetProposal(ctx, p.ID)
	default:
		return p, fmt.Errorf("settle proposal %s: %w", p.ID, err)
	}
}

func (e *Engine) notify(ctx context.Context, groupID string, recipients, exclude []string, ev notify.Event) {
	if e.notifier == nil {
		return
	}
	if report := e.notifier.Notify(ctx, groupID, recipients, exclude, ev); report.Failed > 0 {
		e.logger.Warn().Str("event_type", ev.Type).Int("failed", report.Failed).Msg("notification fan-out incomplete")
	}
}
