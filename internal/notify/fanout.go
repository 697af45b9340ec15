// Package notify fans group activity out to in-app notification records and
// best-effort device pushes.
package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"group-service/internal/models"
	"group-service/internal/observability"
	"group-service/internal/preferences"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

var tracer = otel.Tracer("group-service/notify")

// Event types produced by the engines.
const (
	TypeMemberJoined      = "member_joined"
	TypeMemberLeft        = "member_left"
	TypeJoinRequest       = "join_request"
	TypeRequestApproved   = "join_request_approved"
	TypeRequestRejected   = "join_request_rejected"
	TypeMemberRemoved     = "member_removed"
	TypePromoted          = "promoted_organizer"
	TypeDemoted           = "demoted_member"
	TypeAdminTransferred  = "admin_transferred"
	TypeGroupInvite       = "group_invite"
	TypeGroupDeleted      = "group_deleted"
	TypeProposalCreated   = "proposal_created"
	TypeProposalConfirmed = "proposal_confirmed"
	TypeProposalCancelled = "proposal_cancelled"
	TypePostCreated       = "post_created"
	TypePostLiked         = "post_liked"
	TypeCommentAdded      = "comment_added"
)

// Event describes the action being fanned out.
type Event struct {
	Type     string
	Category models.Category
	ActorID  string
	Title    string
	Body     string
	EntityID string
	Data     map[string]string
}

// Report summarizes a fan-out. It is informational only.
type Report struct {
	Targets   []string
	Persisted int
	Pushed    int
	Failed    int
}

// Notifier is the fan-out capability the engines depend on.
type Notifier interface {
	Notify(ctx context.Context, groupID string, recipients, exclude []string, ev Event) Report
}

// Fanout persists one notification per target and attempts a push where allowed.
type Fanout struct {
	st          store.Store
	prefs       preferences.Source
	dispatcher  Dispatcher
	concurrency int
	logger      zerolog.Logger
	clock       func() time.Time
	newID       func() string
}

// Option customizes a Fanout.
type Option func(*Fanout)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(f *Fanout) { f.clock = clock }
}

// WithConcurrency bounds the number of targets processed at once.
func WithConcurrency(n int) Option {
	return func(f *Fanout) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFanout constructs a Fanout.
func NewFanout(st store.Store, prefs preferences.Source, dispatcher Dispatcher, logger zerolog.Logger, opts ...Option) *Fanout {
	f := &Fanout{
		st:          st,
		prefs:       prefs,
		dispatcher:  dispatcher,
		concurrency: 8,
		logger:      logger,
		clock:       time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Targets returns recipients minus exclude, deduplicated, in first-seen order.
func Targets(recipients, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(recipients))
	for _, id := range recipients {
		if id == "" {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		skip[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Notify delivers ev to every target. Failures are logged and counted, never returned.
func (f *Fanout) Notify(ctx context.Context, groupID string, recipients, exclude []string, ev Event) Report {
	targets := Targets(recipients, exclude)
	report := Report{Targets: targets}
	if len(targets) == 0 {
		return report
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "notify.fanout")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.type", ev.Type),
		attribute.String("group.id", groupID),
		attribute.Int("targets", len(targets)),
	)

	var persisted, pushed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for _, userID := range targets {
		userID := userID
		g.Go(func() error {
			ok, didPush := f.deliver(ctx, groupID, userID, ev)
			if ok {
				persisted.Add(1)
			} else {
				failed.Add(1)
			}
			if didPush {
				pushed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Persisted = int(persisted.Load())
	report.Pushed = int(pushed.Load())
	report.Failed = int(failed.Load())
	f.logger.Debug().
		Str("event_type", ev.Type).
		Str("group_id", groupID).
		Int("targets", len(targets)).
		Int("persisted", report.Persisted).
		Int("pushed", report.Pushed).
		Int("failed", report.Failed).
		Msg("fan-out complete")
	return report
}

// deliver handles one target: the in-app record always, the push only when allowed.
func (f *Fanout) deliver(ctx context.Context, groupID, userID string, ev Event) (persisted, pushed bool) {
	log := f.logger.With().Str("event_type", ev.Type).Str("user_id", userID).Logger()

	prefs, err := f.prefs.Get(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("preference lookup failed, skipping push")
		prefs = models.Preferences{UserID: userID}
	}

	n := models.Notification{
		ID:        f.newID(),
		UserID:    userID,
		GroupID:   groupID,
		Type:      ev.Type,
		Category:  ev.Category,
		ActorID:   ev.ActorID,
		Title:     ev.Title,
		Body:      ev.Body,
		EntityID:  ev.EntityID,
		Data:      ev.Data,
		CreatedAt: f.clock().UTC(),
	}
	doc, err := store.Encode(n)
	if err == nil {
		b := store.NewBatch().Create(repositories.NotificationsCollection, n.ID, doc)
		err = repositories.Commit(ctx, f.st, b)
	}
	observability.ObserveNotification(ev.Type, err)
	if err != nil {
		log.Warn().Err(err).Msg("persist notification failed")
	}
	persisted = err == nil

	if !prefs.AllowsPush(ev.Category) {
		return persisted, false
	}
	payload := map[string]string{"type": ev.Type, "groupId": groupID, "notificationId": n.ID}
	if ev.EntityID != "" {
		payload["entityId"] = ev.EntityID
	}
	for k, v := range ev.Data {
		payload[k] = v
	}
	for _, token := range prefs.PushTokens {
		msg := PushMessage{Token: token, Title: ev.Title, Body: ev.Body, Payload: payload}
		if err := f.dispatcher.Send(ctx, msg); err != nil {
			observability.IncPushAttempt("error")
			log.Warn().Err(err).Msg("push dispatch failed")
			continue
		}
		observability.IncPushAttempt("ok")
		pushed = true
	}
	return persisted, pushed
}
