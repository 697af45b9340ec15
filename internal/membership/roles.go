package membership

import (
	"context"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// Leave removes userID from the group. The creator has to transfer admin or delete the group instead.
func (e *Engine) Leave(ctx context.Context, groupID, userID string) (err error) {
	ctx, done := e.start(ctx, "leave", &err)
	defer done()

	var g models.Group
	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if !g.HasMember(userID) {
			return fmt.Errorf("%s is not a member of %s: %w", userID, groupID, models.ErrNotFound)
		}
		if g.CreatorID == userID {
			return fmt.Errorf("leave %s: %w", groupID, models.ErrCannotRemoveCreator)
		}
		b := store.NewBatch()
		removeMemberWrites(b, g, userID, e.now())
		return repositories.Commit(ctx, e.st, b)
	})
	if err != nil {
		return err
	}

	e.notify(ctx, groupID, g.Organizers, []string{userID}, notify.Event{
		Type:     notify.TypeMemberLeft,
		Category: models.CategoryActivities,
		ActorID:  userID,
		Title:    g.Name,
		Body:     "A member left the group",
		EntityID: groupID,
	})
	return nil
}

// Remove takes targetID out of the group. Organizers only; the creator cannot be removed.
func (e *Engine) Remove(ctx context.Context, groupID, targetID, removerID string) (err error) {
	ctx, done := e.start(ctx, "remove", &err)
	defer done()

	var g models.Group
	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.requireModerator(ctx, groupID, removerID); err != nil {
			return err
		}
		if targetID == g.CreatorID {
			return fmt.Errorf("remove %s: %w", targetID, models.ErrCannotRemoveCreator)
		}
		if !g.HasMember(targetID) {
			return fmt.Errorf("%s is not a member of %s: %w", targetID, groupID, models.ErrInvalidTarget)
		}
		b := store.NewBatch()
		removeMemberWrites(b, g, targetID, e.now())
		return repositories.Commit(ctx, e.st, b)
	})
	if err != nil {
		return err
	}

	e.logger.Info().Str("group_id", groupID).Str("target_id", targetID).Str("remover_id", removerID).Msg("member removed")
	e.notify(ctx, groupID, []string{targetID}, nil, notify.Event{
		Type:     notify.TypeMemberRemoved,
		Category: models.CategoryActivities,
		ActorID:  removerID,
		Title:    g.Name,
		Body:     "You were removed from the group",
		EntityID: groupID,
	})
	return nil
}

// Promote makes an existing member an organizer. Organizers only.
func (e *Engine) Promote(ctx context.Context, groupID, userID, actorID string) (g models.Group, err error) {
	ctx, done := e.start(ctx, "promote", &err)
	defer done()

	changed := false
	err = repositories.Retry(ctx, func() error {
		var err error
		changed = false
		if g, err = e.requireModerator(ctx, groupID, actorID); err != nil {
			return err
		}
		if !g.HasMember(userID) {
			return fmt.Errorf("%s is not a member of %s: %w", userID, groupID, models.ErrInvalidTarget)
		}
		if g.HasOrganizer(userID) {
			return nil
		}
		b := store.NewBatch().
			Update(repositories.GroupsCollection, groupID, map[string]any{
				"organizers": store.ArrayUnion(userID),
				"updatedAt":  e.now(),
			}, store.ArrayHas("members", userID), store.ArrayLacks("organizers", userID)).
			Update(repositories.MembersCollection, models.MemberID(userID, groupID), map[string]any{
				"role": string(models.RoleOrganizer),
			})
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return g, err
	}
	if !changed {
		return g, nil
	}

	e.notify(ctx, groupID, []string{userID}, nil, notify.Event{
		Type:     notify.TypePromoted,
		Category: models.CategoryActivities,
		ActorID:  actorID,
		Title:    g.Name,
		Body:     "You are now an organizer",
		EntityID: groupID,
	})
	g.Organizers = append(g.Organizers, userID)
	return g, nil
}

// Demote returns an organizer to plain membership. Creator only.
func (e *Engine) Demote(ctx context.Context, groupID, userID, actorID string) (g models.Group, err error) {
	ctx, done := e.start(ctx, "demote", &err)
	defer done()

	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if g.CreatorID != actorID {
			return fmt.Errorf("only the creator may demote in %s: %w", groupID, models.ErrUnauthorized)
		}
		if userID == g.CreatorID {
			return fmt.Errorf("demote %s: %w", userID, models.ErrCannotRemoveCreator)
		}
		if !g.HasOrganizer(userID) {
			return fmt.Errorf("%s is not an organizer of %s: %w", userID, groupID, models.ErrInvalidTarget)
		}
		b := store.NewBatch().
			Update(repositories.GroupsCollection, groupID, map[string]any{
				"organizers": store.ArrayRemove(userID),
				"updatedAt":  e.now(),
			}, store.ArrayHas("organizers", userID), store.FieldEquals("creatorId", actorID)).
			Update(repositories.MembersCollection, models.MemberID(userID, groupID), map[string]any{
				"role": string(models.RoleMember),
			})
		return repositories.Commit(ctx, e.st, b)
	})
	if err != nil {
		return g, err
	}

	e.notify(ctx, groupID, []string{userID}, nil, notify.Event{
		Type:     notify.TypeDemoted,
		Category: models.CategoryActivities,
		ActorID:  actorID,
		Title:    g.Name,
		Body:     "You are no longer an organizer",
		EntityID: groupID,
	})
	g.Organizers = without(g.Organizers, userID)
	return g, nil
}

// TransferAdmin hands the creator role to another member. The previous creator stays an organizer.
func (e *Engine) TransferAdmin(ctx context.Context, groupID, newAdminID, currentAdminID string) (g models.Group, err error) {
	ctx, done := e.start(ctx, "transfer_admin", &err)
	defer done()

	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if g.CreatorID != currentAdminID {
			return fmt.Errorf("only the creator may transfer %s: %w", groupID, models.ErrUnauthorized)
		}
		if newAdminID == currentAdminID || !g.HasMember(newAdminID) {
			return fmt.Errorf("transfer %s to %s: %w", groupID, newAdminID, models.ErrInvalidTarget)
		}
		b := store.NewBatch().
			Update(repositories.GroupsCollection, groupID, map[string]any{
				"creatorId":  newAdminID,
				"organizers": store.ArrayUnion(newAdminID),
				"updatedAt":  e.now(),
			}, store.FieldEquals("creatorId", currentAdminID), store.ArrayHas("members", newAdminID)).
			Update(repositories.MembersCollection, models.MemberID(newAdminID, groupID), map[string]any{
				"role": string(models.RoleCreator),
			}).
			Update(repositories.MembersCollection, models.MemberID(currentAdminID, groupID), map[string]any{
				"role": string(models.RoleOrganizer),
			})
		return repositories.Commit(ctx, e.st, b)
	})
	if err != nil {
		return g, err
	}

	e.logger.Info().Str("group_id", groupID).Str("from", currentAdminID).Str("to", newAdminID).Msg("admin transferred")
	e.notify(ctx, groupID, []string{newAdminID, currentAdminID}, nil, notify.Event{
		Type:     notify.TypeAdminTransferred,
		Category: models.CategoryActivities,
		ActorID:  currentAdminID,
		Title:    g.Name,
		Body:     "Group admin has been transferred",
		EntityID: groupID,
	})
	g.CreatorID = newAdminID
	if !g.HasOrganizer(newAdminID) {
		g.Organizers = append(g.Organizers, newAdminID)
	}
	return g, nil
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
