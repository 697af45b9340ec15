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

// Join adds userID to the group, or files a join request when the group requires approval.
func (e *Engine) Join(ctx context.Context, groupID, userID string, profile models.Profile) (out models.JoinOutcome, err error) {
	ctx, done := e.start(ctx, "join", &err)
	defer done()

	var (
		g       models.Group
		request *models.JoinRequest
		created bool
	)
	err = repositories.Retry(ctx, func() error {
		var err error
		request, created = nil, false
		if g, err = e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if g.HasMember(userID) {
			return fmt.Errorf("join %s: %w", groupID, models.ErrAlreadyMember)
		}
		now := e.now()

		if g.RequiresApproval {
			if request, err = e.groups.FindPendingRequest(ctx, groupID, userID); err != nil || request != nil {
				return err
			}
			req := models.JoinRequest{
				ID:          e.newID(),
				GroupID:     groupID,
				UserID:      userID,
				DisplayName: profile.DisplayName,
				PhotoURL:    profile.PhotoURL,
				Status:      models.RequestPending,
				CreatedAt:   now,
			}
			doc, err := store.Encode(req)
			if err != nil {
				return err
			}
			b := store.NewBatch().
				Update(repositories.GroupsCollection, groupID, map[string]any{
					"pendingRequests": store.ArrayUnion(userID),
					"revision":        store.Increment(1),
				}, store.ArrayLacks("pendingRequests", userID), store.ArrayLacks("members", userID)).
				Create(repositories.JoinRequestsCollection, req.ID, doc)
			if err := repositories.Commit(ctx, e.st, b); err != nil {
				return err
			}
			request, created = &req, true
			return nil
		}

		// A request filed while approval was still required is settled by the direct join.
		stale, err := e.groups.FindPendingRequest(ctx, groupID, userID)
		if err != nil {
			return err
		}
		b := store.NewBatch()
		if err := addMemberWrites(b, groupID, userID, profile, now); err != nil {
			return err
		}
		if stale != nil {
			resolveRequestWrite(b, stale.ID, models.RequestApproved, userID, map[string]any{"resolvedAt": now})
		}
		return e.commitJoin(ctx, b, groupID)
	})
	if err != nil {
		return out, err
	}

	if request != nil {
		if created {
			e.notify(ctx, groupID, g.Organizers, []string{userID}, notify.Event{
				Type:     notify.TypeJoinRequest,
				Category: models.CategoryActivities,
				ActorID:  userID,
				Title:    g.Name,
				Body:     displayName(profile) + " asked to join",
				EntityID: request.ID,
			})
		}
		return models.JoinOutcome{Status: models.JoinPending, Group: g, Request: request}, nil
	}

	e.notify(ctx, groupID, g.Members, []string{userID}, memberJoinedEvent(g, userID, profile))
	return models.JoinOutcome{Status: models.JoinJoined, Group: joined(g, userID)}, nil
}

// commitJoin commits a membership-add batch, reporting a stale member record as AlreadyMember.
func (e *Engine) commitJoin(ctx context.Context, b *store.Batch, groupID string) error {
	err := repositories.Commit(ctx, e.st, b)
	if errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("join %s: %w", groupID, models.ErrAlreadyMember)
	}
	return err
}

// resolvableRequest loads requestID and checks it is the pending request of userID in groupID.
func (e *Engine) resolvableRequest(ctx context.Context, requestID, groupID, userID string) (models.JoinRequest, error) {
	req, err := e.groups.GetJoinRequest(ctx, requestID)
	if err != nil {
		return req, err
	}
	if req.GroupID != groupID || req.UserID != userID {
		return req, fmt.Errorf("request %s does not belong to %s in %s: %w", requestID, userID, groupID, models.ErrInvalidTarget)
	}
	if req.Status != models.RequestPending {
		return req, fmt.Errorf("request %s is %s: %w", requestID, req.Status, models.ErrNoPendingRequest)
	}
	return req, nil
}

func resolveRequestWrite(b *store.Batch, requestID string, status models.RequestStatus, resolverID string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["status"] = string(status)
	fields["resolvedBy"] = resolverID
	b.Update(repositories.JoinRequestsCollection, requestID, fields, store.FieldEquals("status", string(models.RequestPending)))
}

// Approve accepts a pending join request and adds the requester to the group.
func (e *Engine) Approve(ctx context.Context, requestID, groupID, userID, approverID string) (g models.Group, err error) {
	ctx, done := e.start(ctx, "approve", &err)
	defer done()

	var profile models.Profile
	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.requireModerator(ctx, groupID, approverID); err != nil {
			return err
		}
		req, err := e.resolvableRequest(ctx, requestID, groupID, userID)
		if err != nil {
			return err
		}
		if g.HasMember(userID) {
			return fmt.Errorf("approve %s: %w", requestID, models.ErrAlreadyMember)
		}
		profile = models.Profile{DisplayName: req.DisplayName, PhotoURL: req.PhotoURL}

		now := e.now()
		b := store.NewBatch()
		resolveRequestWrite(b, requestID, models.RequestApproved, approverID, map[string]any{"resolvedAt": now})
		if err := addMemberWrites(b, groupID, userID, profile, now); err != nil {
			return err
		}
		return e.commitJoin(ctx, b, groupID)
	})
	if err != nil {
		return g, err
	}

	e.notify(ctx, groupID, []string{userID}, nil, notify.Event{
		Type:     notify.TypeRequestApproved,
		Category: models.CategoryActivities,
		ActorID:  approverID,
		Title:    g.Name,
		Body:     "Your request to join was approved",
		EntityID: groupID,
	})
	e.notify(ctx, groupID, g.Members, []string{userID, approverID}, memberJoinedEvent(g, userID, profile))
	return joined(g, userID), nil
}

// Reject declines a pending join request.
func (e *Engine) Reject(ctx context.Context, requestID, groupID, userID, resolverID string) (err error) {
	ctx, done := e.start(ctx, "reject", &err)
	defer done()

	var g models.Group
	err = repositories.Retry(ctx, func() error {
		var err error
		if g, err = e.requireModerator(ctx, groupID, resolverID); err != nil {
			return err
		}
		if _, err := e.resolvableRequest(ctx, requestID, groupID, userID); err != nil {
			return err
		}
		now := e.now()
		b := store.NewBatch()
		resolveRequestWrite(b, requestID, models.RequestRejected, resolverID, map[string]any{"resolvedAt": now})
		b.Update(repositories.GroupsCollection, groupID, map[string]any{"pendingRequests": store.ArrayRemove(userID)})
		return repositories.Commit(ctx, e.st, b)
	})
	if err != nil {
		return err
	}

	e.notify(ctx, groupID, []string{userID}, nil, notify.Event{
		Type:     notify.TypeRequestRejected,
		Category: models.CategoryActivities,
		ActorID:  resolverID,
		Title:    g.Name,
		Body:     "Your request to join was declined",
		EntityID: groupID,
	})
	return nil
}

// Cancel withdraws the caller's own pending join request.
func (e *Engine) Cancel(ctx context.Context, groupID, userID string) (err error) {
	ctx, done := e.start(ctx, "cancel", &err)
	defer done()

	return repositories.Retry(ctx, func() error {
		if _, err := e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		req, err := e.groups.FindPendingRequest(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("cancel request for %s: %w", groupID, models.ErrNoPendingRequest)
		}
		b := store.NewBatch().
			DeleteExisting(repositories.JoinRequestsCollection, req.ID, store.FieldEquals("status", string(models.RequestPending))).
			Update(repositories.GroupsCollection, groupID, map[string]any{"pendingRequests": store.ArrayRemove(userID)})
		return repositories.Commit(ctx, e.st, b)
	})
}

// Invite offers membership to invitedUserID. Any member may invite.
func (e *Engine) Invite(ctx context.Context, groupID, invitedUserID, inviterID string) (inv models.Invite, err error) {
	ctx, done := e.start(ctx, "invite", &err)
	defer done()

	var (
		g       models.Group
		created bool
	)
	err = repositories.Retry(ctx, func() error {
		var err error
		created = false
		if g, err = e.groups.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if !g.HasMember(inviterID) {
			return fmt.Errorf("%s is not a member of %s: %w", inviterID, groupID, models.ErrUnauthorized)
		}
		if invitedUserID == "" || invitedUserID == inviterID {
			return fmt.Errorf("invite to %s: %w", groupID, models.ErrInvalidTarget)
		}
		if g.HasMember(invitedUserID) {
			return fmt.Errorf("invite %s: %w", invitedUserID, models.ErrAlreadyMember)
		}
		existing, err := e.groups.FindPendingInvite(ctx, groupID, invitedUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			inv = *existing
			return nil
		}

		inv = models.Invite{
			ID:            e.newID(),
			GroupID:       groupID,
			GroupName:     g.Name,
			InvitedUserID: invitedUserID,
			InvitedBy:     inviterID,
			Status:        models.InvitePending,
			CreatedAt:     e.now(),
		}
		doc, err := store.Encode(inv)
		if err != nil {
			return err
		}
		b := store.NewBatch().Create(repositories.InvitesCollection, inv.ID, doc)
		repositories.StageGroupRevision(b, groupID, inviterID)
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("invite %s: %w", invitedUserID, err)
		}
		created = true
		return nil
	})
	if err != nil || !created {
		return inv, err
	}

	e.notify(ctx, groupID, []string{invitedUserID}, nil, notify.Event{
		Type:     notify.TypeGroupInvite,
		Category: models.CategoryActivities,
		ActorID:  inviterID,
		Title:    g.Name,
		Body:     "You have been invited to join",
		EntityID: inv.ID,
	})
	return inv, nil
}

// pendingInvite loads inviteID and checks it is still open for userID.
func (e *Engine) pendingInvite(ctx context.Context, inviteID, userID string) (models.Invite, error) {
	inv, err := e.groups.GetInvite(ctx, inviteID)
	if err != nil {
		return inv, err
	}
	if inv.InvitedUserID != userID {
		return inv, fmt.Errorf("invite %s is not addressed to %s: %w", inviteID, userID, models.ErrUnauthorized)
	}
	if inv.Status != models.InvitePending {
		return inv, fmt.Errorf("invite %s is %s: %w", inviteID, inv.Status, models.ErrAlreadyInTerminalState)
	}
	return inv, nil
}

// AcceptInvite consumes the invite and adds userID to the group.
func (e *Engine) AcceptInvite(ctx context.Context, inviteID, userID string, profile models.Profile) (g models.Group, err error) {
	ctx, done := e.start(ctx, "accept_invite", &err)
	defer done()

	err = repositories.Retry(ctx, func() error {
		inv, err := e.pendingInvite(ctx, inviteID, userID)
		if err != nil {
			return err
		}
		if g, err = e.groups.GetGroup(ctx, inv.GroupID); err != nil {
			return err
		}
		if g.HasMember(userID) {
			return fmt.Errorf("accept invite %s: %w", inviteID, models.ErrAlreadyMember)
		}
		now := e.now()
		b := store.NewBatch().Update(repositories.InvitesCollection, inviteID, map[string]any{
			"status":      string(models.InviteAccepted),
			"respondedAt": now,
		}, store.FieldEquals("status", string(models.InvitePending)))
		if err := addMemberWrites(b, g.ID, userID, profile, now); err != nil {
			return err
		}
		req, err := e.groups.FindPendingRequest(ctx, g.ID, userID)
		if err != nil {
			return err
		}
		if req != nil {
			resolveRequestWrite(b, req.ID, models.RequestApproved, inv.InvitedBy, map[string]any{"resolvedAt": now})
		}
		return e.commitJoin(ctx, b, g.ID)
	})
	if err != nil {
		return g, err
	}

	e.notify(ctx, g.ID, g.Members, []string{userID}, memberJoinedEvent(g, userID, profile))
	return joined(g, userID), nil
}

// DeclineInvite turns the invite down.
func (e *Engine) DeclineInvite(ctx context.Context, inviteID, userID string) (err error) {
	ctx, done := e.start(ctx, "decline_invite", &err)
	defer done()

	return repositories.Retry(ctx, func() error {
		if _, err := e.pendingInvite(ctx, inviteID, userID); err != nil {
			return err
		}
		b := store.NewBatch().Update(repositories.InvitesCollection, inviteID, map[string]any{
			"status":      string(models.InviteDeclined),
			"respondedAt": e.now(),
		}, store.FieldEquals("status", string(models.InvitePending)))
		return repositories.Commit(ctx, e.st, b)
	})
}

func memberJoinedEvent(g models.Group, userID string, profile models.Profile) notify.Event {
	return notify.Event{
		Type:     notify.TypeMemberJoined,
		Category: models.CategoryActivities,
		ActorID:  userID,
		Title:    g.Name,
		Body:     displayName(profile) + " joined the group",
		EntityID: g.ID,
	}
}

func displayName(profile models.Profile) string {
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	return "A new member"
}
