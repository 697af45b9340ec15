package content

import (
	"context"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// counterFields returns the parent counters a comment moves by delta.
func counterFields(kind models.ParentKind, hasPhoto bool, delta int64) map[string]any {
	fields := map[string]any{"commentCount": store.Increment(delta)}
	if kind == models.ParentProposal && hasPhoto {
		fields["photoCount"] = store.Increment(delta)
	}
	return fields
}

// AddComment attaches a comment to a post or proposal and bumps the parent's counters in the same batch.
func (e *Engine) AddComment(ctx context.Context, kind models.ParentKind, parentID, authorID string, in models.CommentInput) (c models.Comment, err error) {
	ctx, done := e.start(ctx, "add_comment", &err)
	defer done()

	if err := models.Validate(in); err != nil {
		return c, err
	}
	var target parent
	c = models.Comment{
		ID:         e.newID(),
		ParentKind: kind,
		ParentID:   parentID,
		AuthorID:   authorID,
		AuthorName: in.AuthorName,
		Text:       in.Text,
		PhotoURL:   in.PhotoURL,
		CreatedAt:  e.now(),
	}
	err = repositories.Retry(ctx, func() error {
		var err error
		if target, err = e.loadParent(ctx, kind, parentID); err != nil {
			return err
		}
		if _, err := e.requireMember(ctx, target.GroupID, authorID); err != nil {
			return err
		}
		c.GroupID = target.GroupID
		doc, err := store.Encode(c)
		if err != nil {
			return err
		}
		b := store.NewBatch().
			Create(repositories.CommentsCollection, c.ID, doc).
			Update(repositories.ParentCollection(kind), parentID, counterFields(kind, c.PhotoURL != "", 1))
		repositories.StageGroupRevision(b, target.GroupID, authorID)
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("add comment to %s %s: %w", kind, parentID, err)
		}
		return nil
	})
	if err != nil {
		return c, err
	}

	var (
		audience []string
		category = models.CategoryActivities
	)
	if kind == models.ParentProposal {
		audience = append([]string{target.AuthorID}, target.YesVoters...)
		category = models.CategoryEvents
	} else if g, err := e.groups.GetGroup(ctx, target.GroupID); err == nil {
		audience = g.Members
	} else {
		e.logger.Warn().Err(err).Str("post_id", parentID).Msg("load group for comment fan-out failed")
	}
	e.notify(ctx, target.GroupID, audience, []string{authorID}, notify.Event{
		Type:     notify.TypeCommentAdded,
		Category: category,
		ActorID:  authorID,
		Title:    "New comment",
		Body:     authorLabel(in.AuthorName) + " commented",
		EntityID: parentID,
		Data:     map[string]string{"parentKind": string(kind), "commentId": c.ID},
	})
	return c, nil
}

// DeleteComment removes a comment and takes it off the parent's counters. Comment author or organizers only.
func (e *Engine) DeleteComment(ctx context.Context, commentID, actorID string) (err error) {
	ctx, done := e.start(ctx, "delete_comment", &err)
	defer done()

	c, err := e.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	role, err := e.groups.Role(ctx, c.GroupID, actorID)
	if err != nil {
		return err
	}
	if actorID != c.AuthorID && !role.CanModerate() {
		return fmt.Errorf("%s may not delete comment %s: %w", actorID, commentID, models.ErrUnauthorized)
	}

	b := store.NewBatch().
		DeleteExisting(repositories.CommentsCollection, commentID).
		Update(repositories.ParentCollection(c.ParentKind), c.ParentID, counterFields(c.ParentKind, c.PhotoURL != "", -1))
	if err := repositories.Commit(ctx, e.st, b); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	return nil
}

// ListComments returns a post's or proposal's comments in creation order.
func (e *Engine) ListComments(ctx context.Context, kind models.ParentKind, parentID string) ([]models.Comment, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("parent kind %q: %w", kind, models.ErrInvalidInput)
	}
	return e.repo.ListComments(ctx, kind, parentID)
}
