package membership

import (
	"context"
	"errors"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// CreateGroup founds a group with creatorID as its only member, organizer and creator.
func (e *Engine) CreateGroup(ctx context.Context, creatorID string, profile models.Profile, in models.GroupInput) (g models.Group, err error) {
	ctx, done := e.start(ctx, "create_group", &err)
	defer done()

	if err := models.Validate(in); err != nil {
		return g, err
	}
	if creatorID == "" {
		return g, fmt.Errorf("create group: %w: missing creator", models.ErrInvalidInput)
	}

	now := e.now()
	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
		if in.IsPrivate {
			visibility = models.VisibilityPrivate
		}
	}
	g = models.Group{
		ID:               e.newID(),
		Name:             in.Name,
		Description:      in.Description,
		Category:         in.Category,
		CreatorID:        creatorID,
		Organizers:       []string{creatorID},
		Members:          []string{creatorID},
		MemberCount:      1,
		IsPrivate:        in.IsPrivate,
		RequiresApproval: in.RequiresApproval,
		Visibility:       visibility,
		Tags:             in.Tags,
		Location:         in.Location,
		Coordinates:      in.Coordinates,
		Radius:           in.Radius,
		PendingRequests:  []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	groupDoc, err := store.Encode(g)
	if err != nil {
		return g, err
	}
	memberDoc, err := store.Encode(models.Member{
		ID:          models.MemberID(creatorID, g.ID),
		GroupID:     g.ID,
		UserID:      creatorID,
		Role:        models.RoleCreator,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		JoinedAt:    now,
	})
	if err != nil {
		return g, err
	}

	b := store.NewBatch().
		Create(repositories.GroupsCollection, g.ID, groupDoc).
		Create(repositories.MembersCollection, models.MemberID(creatorID, g.ID), memberDoc)
	if err := repositories.Commit(ctx, e.st, b); err != nil {
		return g, fmt.Errorf("create group: %w", err)
	}
	e.logger.Info().Str("group_id", g.ID).Str("creator_id", creatorID).Msg("group created")
	return g, nil
}

// UpdateSettings applies a partial settings update. Organizers only.
func (e *Engine) UpdateSettings(ctx context.Context, groupID, actorID string, patch models.GroupSettings) (g models.Group, err error) {
	ctx, done := e.start(ctx, "update_settings", &err)
	defer done()

	if err := models.Validate(patch); err != nil {
		return g, err
	}
	if _, err := e.requireModerator(ctx, groupID, actorID); err != nil {
		return g, err
	}

	fields := map[string]any{"updatedAt": e.now()}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if patch.IsPrivate != nil {
		fields["isPrivate"] = *patch.IsPrivate
	}
	if patch.RequiresApproval != nil {
		fields["requiresApproval"] = *patch.RequiresApproval
	}
	if patch.Visibility != nil {
		fields["visibility"] = string(*patch.Visibility)
	}
	if patch.Tags != nil {
		fields["tags"] = patch.Tags
	}
	if patch.Location != nil {
		fields["location"] = *patch.Location
	}
	if patch.Coordinates != nil {
		fields["coordinates"] = *patch.Coordinates
	}
	if patch.Radius != nil {
		fields["radius"] = *patch.Radius
	}

	b := store.NewBatch().Update(repositories.GroupsCollection, groupID, fields)
	if err := repositories.Commit(ctx, e.st, b); err != nil {
		return g, fmt.Errorf("update settings of %s: %w", groupID, err)
	}
	return e.groups.GetGroup(ctx, groupID)
}

// ChatRoomID returns the deterministic chat room id of a group.
func ChatRoomID(groupID string) string {
	return "group_" + groupID
}

// EnsureChatRoom returns the group's chat room, creating it on first use. Members only.
func (e *Engine) EnsureChatRoom(ctx context.Context, groupID, actorID string) (room models.ChatRoom, err error) {
	ctx, done := e.start(ctx, "ensure_chat_room", &err)
	defer done()

	g, err := e.groups.GetGroup(ctx, groupID)
	if err != nil {
		return room, err
	}
	if !g.HasMember(actorID) {
		return room, fmt.Errorf("%s is not a member of %s: %w", actorID, groupID, models.ErrUnauthorized)
	}

	id := ChatRoomID(groupID)
	if g.ChatRoomID == "" {
		room = models.ChatRoom{ID: id, GroupID: groupID, Name: g.Name, CreatedBy: actorID, CreatedAt: e.now()}
		doc, err := store.Encode(room)
		if err != nil {
			return room, err
		}
		b := store.NewBatch().
			Create(repositories.ChatRoomsCollection, id, doc).
			Update(repositories.GroupsCollection, groupID, map[string]any{
				"chatRoomId": id,
				"revision":   store.Increment(1),
			})
		err = repositories.Commit(ctx, e.st, b)
		switch {
		case err == nil:
			return room, nil
		case !errors.Is(err, store.ErrAlreadyExists):
			return room, fmt.Errorf("create chat room for %s: %w", groupID, err)
		}
	}

	doc, err := e.st.Get(ctx, repositories.ChatRoomsCollection, id)
	if err != nil {
		return room, repositories.StoreError(err, "get chat room %s", id)
	}
	if err := store.Decode(doc, &room); err != nil {
		return room, repositories.StoreError(err, "decode chat room %s", id)
	}
	return room, nil
}

// DeleteGroup removes the group and everything it owns in one batch. Creator only.
func (e *Engine) DeleteGroup(ctx context.Context, groupID, actorID string) (err error) {
	ctx, done := e.start(ctx, "delete_group", &err)
	defer done()

	var (
		g      models.Group
		writes int
	)
	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if g.CreatorID != actorID {
			return fmt.Errorf("only the creator may delete %s: %w", groupID, models.ErrUnauthorized)
		}

		// The cascade is listed before the commit; any record created under the group since then
		// moves memberCount or revision and aborts the batch.
		b := store.NewBatch().DeleteExisting(repositories.GroupsCollection, groupID,
			store.FieldEquals("creatorId", actorID),
			store.FieldEquals("memberCount", g.MemberCount),
			store.FieldEquals("revision", g.Revision))
		if err := e.stageCascade(ctx, b, g); err != nil {
			return err
		}
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("delete group %s: %w", groupID, err)
		}
		writes = b.Len()
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info().Str("group_id", groupID).Int("writes", writes).Msg("group deleted")
	e.notify(ctx, groupID, g.Members, []string{actorID}, notify.Event{
		Type:     notify.TypeGroupDeleted,
		Category: models.CategoryActivities,
		ActorID:  actorID,
		Title:    g.Name,
		Body:     "This group has been deleted",
		EntityID: groupID,
	})
	return nil
}

// stageCascade adds deletes for every record owned by g.
func (e *Engine) stageCascade(ctx context.Context, b *store.Batch, g models.Group) error {
	members, err := e.groups.ListMembers(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		b.Delete(repositories.MembersCollection, m.ID)
	}
	requests, err := e.groups.ListRequests(ctx, g.ID, "")
	if err != nil {
		return err
	}
	for _, r := range requests {
		b.Delete(repositories.JoinRequestsCollection, r.ID)
	}
	invites, err := e.groups.ListInvites(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, inv := range invites {
		b.Delete(repositories.InvitesCollection, inv.ID)
	}
	posts, err := e.content.ListPosts(ctx, g.ID, 0)
	if err != nil {
		return err
	}
	for _, p := range posts {
		b.Delete(repositories.PostsCollection, p.ID)
	}
	proposals, err := e.content.ListProposals(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, p := range proposals {
		b.Delete(repositories.ProposalsCollection, p.ID)
	}
	comments, err := e.content.ListGroupComments(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, c := range comments {
		b.Delete(repositories.CommentsCollection, c.ID)
	}
	b.Delete(repositories.ChatRoomsCollection, ChatRoomID(g.ID))
	return nil
}

// GetGroup returns the group.
func (e *Engine) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	return e.groups.GetGroup(ctx, groupID)
}

// ListMembers returns the group's member records, oldest first.
func (e *Engine) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	if _, err := e.groups.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return e.groups.ListMembers(ctx, groupID)
}

// ListUserGroups returns the groups userID belongs to.
func (e *Engine) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	return e.groups.ListGroupsForUser(ctx, userID)
}

// ListPendingRequests returns the group's open join requests. Organizers only.
func (e *Engine) ListPendingRequests(ctx context.Context, groupID, actorID string) ([]models.JoinRequest, error) {
	if _, err := e.requireModerator(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	return e.groups.ListRequests(ctx, groupID, models.RequestPending)
}

// ListUserInvites returns the user's pending invites.
func (e *Engine) ListUserInvites(ctx context.Context, userID string) ([]models.Invite, error) {
	return e.groups.ListUserInvites(ctx, userID)
}
