package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
	"group-service/internal/telemetry"
)

// MembershipService is the group membership engine as seen by the HTTP layer.
type MembershipService interface {
	CreateGroup(ctx context.Context, creatorID string, profile models.Profile, in models.GroupInput) (models.Group, error)
	UpdateSettings(ctx context.Context, groupID, actorID string, patch models.GroupSettings) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID, actorID string) error
	EnsureChatRoom(ctx context.Context, groupID, actorID string) (models.ChatRoom, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	ListUserGroups(ctx context.Context, userID string) ([]models.Group, error)
	ListPendingRequests(ctx context.Context, groupID, actorID string) ([]models.JoinRequest, error)
	ListUserInvites(ctx context.Context, userID string) ([]models.Invite, error)

	Join(ctx context.Context, groupID, userID string, profile models.Profile) (models.JoinOutcome, error)
	Approve(ctx context.Context, requestID, groupID, userID, approverID string) (models.Group, error)
	Reject(ctx context.Context, requestID, groupID, userID, resolverID string) error
	Cancel(ctx context.Context, groupID, userID string) error
	Invite(ctx context.Context, groupID, invitedUserID, inviterID string) (models.Invite, error)
	AcceptInvite(ctx context.Context, inviteID, userID string, profile models.Profile) (models.Group, error)
	DeclineInvite(ctx context.Context, inviteID, userID string) error

	Leave(ctx context.Context, groupID, userID string) error
	Remove(ctx context.Context, groupID, targetID, removerID string) error
	Promote(ctx context.Context, groupID, userID, actorID string) (models.Group, error)
	Demote(ctx context.Context, groupID, userID, actorID string) (models.Group, error)
	TransferAdmin(ctx context.Context, groupID, newAdminID, currentAdminID string) (models.Group, error)
}

// GroupHandler manages group, membership and invite endpoints.
type GroupHandler struct {
	auditor
	groups MembershipService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups MembershipService, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{auditor: auditor{audit: audit}, groups: groups}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var in models.GroupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		badRequest(c, err)
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), currentUser(c), profileFromContext(c), in)
	if err != nil {
		h.failAudit(c, err, "create group failed")
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	respond(c, http.StatusCreated, group)
}

// ListGroups returns groups the caller belongs to.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListUserGroups(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, groups)
}

// GetGroup handles GET /groups/:group_id.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groups.GetGroup(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, group)
}

// UpdateGroup handles PATCH /groups/:group_id.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var patch models.GroupSettings
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		badRequest(c, err)
		return
	}

	group, err := h.groups.UpdateSettings(c.Request.Context(), c.Param("group_id"), currentUser(c), patch)
	if err != nil {
		h.failAudit(c, err, "update group failed")
		return
	}

	h.emitAudit(c, "INFO", "Group settings updated")
	respond(c, http.StatusOK, group)
}

// DeleteGroup handles DELETE /groups/:group_id.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groups.DeleteGroup(c.Request.Context(), c.Param("group_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "delete group failed")
		return
	}
	h.emitAudit(c, "INFO", "Group deleted")
	respond(c, http.StatusOK, nil)
}

// ListMembers handles GET /groups/:group_id/members.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	members, err := h.groups.ListMembers(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, members)
}

// EnsureChatRoom handles POST /groups/:group_id/chat-room.
func (h *GroupHandler) EnsureChatRoom(c *gin.Context) {
	room, err := h.groups.EnsureChatRoom(c.Request.Context(), c.Param("group_id"), currentUser(c))
	if err != nil {
		h.failAudit(c, err, "chat room failed")
		return
	}
	respond(c, http.StatusOK, room)
}

// Join handles POST /groups/:group_id/join. Groups that require approval answer 202.
func (h *GroupHandler) Join(c *gin.Context) {
	out, err := h.groups.Join(c.Request.Context(), c.Param("group_id"), currentUser(c), profileFromContext(c))
	if err != nil {
		h.failAudit(c, err, "join failed")
		return
	}

	if out.Status == models.JoinPending {
		h.emitAudit(c, "INFO", "Join request created")
		respond(c, http.StatusAccepted, out)
		return
	}
	h.emitAudit(c, "INFO", "Group joined")
	respond(c, http.StatusOK, out)
}

// CancelJoin handles DELETE /groups/:group_id/join.
func (h *GroupHandler) CancelJoin(c *gin.Context) {
	if err := h.groups.Cancel(c.Request.Context(), c.Param("group_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "cancel join request failed")
		return
	}
	respond(c, http.StatusOK, nil)
}

// Leave handles POST /groups/:group_id/leave.
func (h *GroupHandler) Leave(c *gin.Context) {
	if err := h.groups.Leave(c.Request.Context(), c.Param("group_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "leave failed")
		return
	}
	h.emitAudit(c, "INFO", "Group left")
	respond(c, http.StatusOK, nil)
}

// ListRequests handles GET /groups/:group_id/requests.
func (h *GroupHandler) ListRequests(c *gin.Context) {
	reqs, err := h.groups.ListPendingRequests(c.Request.Context(), c.Param("group_id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, reqs)
}

// ApproveRequest handles POST /groups/:group_id/requests/:request_id/approve.
func (h *GroupHandler) ApproveRequest(c *gin.Context) {
	var req targetUser
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.Approve(c.Request.Context(), c.Param("request_id"), c.Param("group_id"), req.UserID, currentUser(c))
	if err != nil {
		h.failAudit(c, err, "approve join request failed")
		return
	}
	h.emitAudit(c, "INFO", "Join request approved")
	respond(c, http.StatusOK, group)
}

// RejectRequest handles POST /groups/:group_id/requests/:request_id/reject.
func (h *GroupHandler) RejectRequest(c *gin.Context) {
	var req targetUser
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.groups.Reject(c.Request.Context(), c.Param("request_id"), c.Param("group_id"), req.UserID, currentUser(c)); err != nil {
		h.failAudit(c, err, "reject join request failed")
		return
	}
	h.emitAudit(c, "INFO", "Join request rejected")
	respond(c, http.StatusOK, nil)
}

// RemoveMember handles DELETE /groups/:group_id/members/:user_id.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.groups.Remove(c.Request.Context(), c.Param("group_id"), c.Param("user_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "remove member failed")
		return
	}
	h.emitAudit(c, "INFO", "Member removed")
	respond(c, http.StatusOK, nil)
}

// Promote handles POST /groups/:group_id/organizers.
func (h *GroupHandler) Promote(c *gin.Context) {
	var req targetUser
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.Promote(c.Request.Context(), c.Param("group_id"), req.UserID, currentUser(c))
	if err != nil {
		h.failAudit(c, err, "promote failed")
		return
	}
	h.emitAudit(c, "INFO", "Member promoted")
	respond(c, http.StatusOK, group)
}

// Demote handles DELETE /groups/:group_id/organizers/:user_id.
func (h *GroupHandler) Demote(c *gin.Context) {
	group, err := h.groups.Demote(c.Request.Context(), c.Param("group_id"), c.Param("user_id"), currentUser(c))
	if err != nil {
		h.failAudit(c, err, "demote failed")
		return
	}
	h.emitAudit(c, "INFO", "Organizer demoted")
	respond(c, http.StatusOK, group)
}

// TransferAdmin handles POST /groups/:group_id/transfer.
func (h *GroupHandler) TransferAdmin(c *gin.Context) {
	var req targetUser
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	group, err := h.groups.TransferAdmin(c.Request.Context(), c.Param("group_id"), req.UserID, currentUser(c))
	if err != nil {
		h.failAudit(c, err, "transfer admin failed")
		return
	}
	h.emitAudit(c, "INFO", "Admin transferred")
	respond(c, http.StatusOK, group)
}

// Invite handles POST /groups/:group_id/invites.
func (h *GroupHandler) Invite(c *gin.Context) {
	var req targetUser
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	invite, err := h.groups.Invite(c.Request.Context(), c.Param("group_id"), req.UserID, currentUser(c))
	if err != nil {
		h.failAudit(c, err, "invite failed")
		return
	}
	h.emitAudit(c, "INFO", "User invited")
	respond(c, http.StatusCreated, invite)
}

// ListInvites handles GET /invites.
func (h *GroupHandler) ListInvites(c *gin.Context) {
	invites, err := h.groups.ListUserInvites(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, invites)
}

// AcceptInvite handles POST /invites/:invite_id/accept.
func (h *GroupHandler) AcceptInvite(c *gin.Context) {
	group, err := h.groups.AcceptInvite(c.Request.Context(), c.Param("invite_id"), currentUser(c), profileFromContext(c))
	if err != nil {
		h.failAudit(c, err, "accept invite failed")
		return
	}
	h.emitAudit(c, "INFO", "Invite accepted")
	respond(c, http.StatusOK, group)
}

// DeclineInvite handles POST /invites/:invite_id/decline.
func (h *GroupHandler) DeclineInvite(c *gin.Context) {
	if err := h.groups.DeclineInvite(c.Request.Context(), c.Param("invite_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "decline invite failed")
		return
	}
	respond(c, http.StatusOK, nil)
}
