package proposals

import (
	"context"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// authorizeTransition checks whether actorID may move p to status.
// The author and organizers may apply any transition; other members only one whose deadline has passed.
func (e *Engine) authorizeTransition(p models.EventProposal, role models.Role, actorID string, status models.ProposalStatus) error {
	if actorID == p.AuthorID || role.CanModerate() {
		return nil
	}
	now := e.now()
	switch status {
	case models.ProposalCompleted:
		if p.EventDateTime != nil && !now.Before(*p.EventDateTime) {
			return nil
		}
	case models.ProposalExpired:
		if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
			return nil
		}
	}
	return fmt.Errorf("%s may not mark proposal %s %s: %w", actorID, p.ID, status, models.ErrUnauthorized)
}

// SetStatus moves an active proposal to a terminal status. Repeating the transition the
// proposal already went through succeeds without side effects.
func (e *Engine) SetStatus(ctx context.Context, proposalID, actorID string, status models.ProposalStatus) (p models.EventProposal, err error) {
	ctx, done := e.start(ctx, "set_status", &err)
	defer done()

	if !status.Valid() || !status.Terminal() {
		return p, fmt.Errorf("status %q: %w", status, models.ErrInvalidInput)
	}

	changed := false
	err = repositories.Retry(ctx, func() error {
		var err error
		changed = false
		if p, err = e.repo.GetProposal(ctx, proposalID); err != nil {
			return err
		}
		role, err := e.requireMember(ctx, p.GroupID, actorID)
		if err != nil {
			return err
		}
		if p, err = e.settle(ctx, p); err != nil {
			return err
		}
		if p.Status == status {
			return nil
		}
		if p.Status.Terminal() {
			return fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, models.ErrAlreadyInTerminalState)
		}
		if err := e.authorizeTransition(p, role, actorID, status); err != nil {
			return err
		}

		now := e.now()
		b := store.NewBatch().Update(repositories.ProposalsCollection, proposalID, map[string]any{
			"status":    string(status),
			"statusBy":  actorID,
			"updatedAt": now,
		}, store.FieldEquals("status", string(models.ProposalActive)))
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return err
		}
		p.Status, p.StatusBy, p.UpdatedAt = status, actorID, now
		changed = true
		return nil
	})
	if err != nil || !changed {
		return p, err
	}

	e.logger.Info().Str("proposal_id", proposalID).Str("status", string(status)).Str("actor_id", actorID).Msg("proposal status changed")
	switch status {
	case models.ProposalConfirmed:
		g, err := e.groups.GetGroup(ctx, p.GroupID)
		if err != nil {
			e.logger.Warn().Err(err).Str("proposal_id", proposalID).Msg("load group for confirmation fan-out failed")
			break
		}
		e.notify(ctx, p.GroupID, g.Members, nil, notify.Event{
			Type:     notify.TypeProposalConfirmed,
			Category: models.CategoryEvents,
			ActorID:  actorID,
			Title:    g.Name,
			Body:     p.Title + " is confirmed",
			EntityID: p.ID,
		})
	case models.ProposalCancelled:
		e.notify(ctx, p.GroupID, p.Votes.Yes, []string{actorID}, notify.Event{
			Type:     notify.TypeProposalCancelled,
			Category: models.CategoryEvents,
			ActorID:  actorID,
			Title:    p.Title,
			Body:     p.Title + " was cancelled",
			EntityID: p.ID,
		})
	}
	return p, nil
}

// Delete removes the proposal and its comments. Author or organizers only.
func (e *Engine) Delete(ctx context.Context, proposalID, actorID string) (err error) {
	ctx, done := e.start(ctx, "delete", &err)
	defer done()

	return repositories.Retry(ctx, func() error {
		p, err := e.repo.GetProposal(ctx, proposalID)
		if err != nil {
			return err
		}
		role, err := e.groups.Role(ctx, p.GroupID, actorID)
		if err != nil {
			return err
		}
		if actorID != p.AuthorID && !role.CanModerate() {
			return fmt.Errorf("%s may not delete proposal %s: %w", actorID, proposalID, models.ErrUnauthorized)
		}

		comments, err := e.repo.ListComments(ctx, models.ParentProposal, proposalID)
		if err != nil {
			return err
		}
		b := store.NewBatch().DeleteExisting(repositories.ProposalsCollection, proposalID,
			store.FieldEquals("commentCount", p.CommentCount))
		for _, c := range comments {
			b.Delete(repositories.CommentsCollection, c.ID)
		}
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("delete proposal %s: %w", proposalID, err)
		}
		return nil
	})
}
