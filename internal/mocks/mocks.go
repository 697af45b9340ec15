package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"group-service/internal/models"
)

// value returns the i-th return value as T, or T's zero value when unset.
func value[T any](args mock.Arguments, i int) T {
	var out T
	if val := args.Get(i); val != nil {
		out = val.(T)
	}
	return out
}

type MembershipServiceMock struct {
	mock.Mock
}

func (m *MembershipServiceMock) CreateGroup(ctx context.Context, creatorID string, profile models.Profile, in models.GroupInput) (models.Group, error) {
	args := m.Called(ctx, creatorID, profile, in)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) UpdateSettings(ctx context.Context, groupID, actorID string, patch models.GroupSettings) (models.Group, error) {
	args := m.Called(ctx, groupID, actorID, patch)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	return m.Called(ctx, groupID, actorID).Error(0)
}

func (m *MembershipServiceMock) EnsureChatRoom(ctx context.Context, groupID, actorID string) (models.ChatRoom, error) {
	args := m.Called(ctx, groupID, actorID)
	return value[models.ChatRoom](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	args := m.Called(ctx, groupID)
	return value[[]models.Member](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	return value[[]models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) ListPendingRequests(ctx context.Context, groupID, actorID string) ([]models.JoinRequest, error) {
	args := m.Called(ctx, groupID, actorID)
	return value[[]models.JoinRequest](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) ListUserInvites(ctx context.Context, userID string) ([]models.Invite, error) {
	args := m.Called(ctx, userID)
	return value[[]models.Invite](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) Join(ctx context.Context, groupID, userID string, profile models.Profile) (models.JoinOutcome, error) {
	args := m.Called(ctx, groupID, userID, profile)
	return value[models.JoinOutcome](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) Approve(ctx context.Context, requestID, groupID, userID, approverID string) (models.Group, error) {
	args := m.Called(ctx, requestID, groupID, userID, approverID)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) Reject(ctx context.Context, requestID, groupID, userID, resolverID string) error {
	return m.Called(ctx, requestID, groupID, userID, resolverID).Error(0)
}

func (m *MembershipServiceMock) Cancel(ctx context.Context, groupID, userID string) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

func (m *MembershipServiceMock) Invite(ctx context.Context, groupID, invitedUserID, inviterID string) (models.Invite, error) {
	args := m.Called(ctx, groupID, invitedUserID, inviterID)
	return value[models.Invite](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) AcceptInvite(ctx context.Context, inviteID, userID string, profile models.Profile) (models.Group, error) {
	args := m.Called(ctx, inviteID, userID, profile)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) DeclineInvite(ctx context.Context, inviteID, userID string) error {
	return m.Called(ctx, inviteID, userID).Error(0)
}

func (m *MembershipServiceMock) Leave(ctx context.Context, groupID, userID string) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

func (m *MembershipServiceMock) Remove(ctx context.Context, groupID, targetID, removerID string) error {
	return m.Called(ctx, groupID, targetID, removerID).Error(0)
}

func (m *MembershipServiceMock) Promote(ctx context.Context, groupID, userID, actorID string) (models.Group, error) {
	args := m.Called(ctx, groupID, userID, actorID)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) Demote(ctx context.Context, groupID, userID, actorID string) (models.Group, error) {
	args := m.Called(ctx, groupID, userID, actorID)
	return value[models.Group](args, 0), args.Error(1)
}

func (m *MembershipServiceMock) TransferAdmin(ctx context.Context, groupID, newAdminID, currentAdminID string) (models.Group, error) {
	args := m.Called(ctx, groupID, newAdminID, currentAdminID)
	return value[models.Group](args, 0), args.Error(1)
}

type ProposalServiceMock struct {
	mock.Mock
}

func (m *ProposalServiceMock) Create(ctx context.Context, groupID, authorID string, in models.ProposalInput) (models.EventProposal, error) {
	args := m.Called(ctx, groupID, authorID, in)
	return value[models.EventProposal](args, 0), args.Error(1)
}

func (m *ProposalServiceMock) Get(ctx context.Context, proposalID string) (models.EventProposal, error) {
	args := m.Called(ctx, proposalID)
	return value[models.EventProposal](args, 0), args.Error(1)
}

func (m *ProposalServiceMock) ListByGroup(ctx context.Context, groupID string) ([]models.EventProposal, error) {
	args := m.Called(ctx, groupID)
	return value[[]models.EventProposal](args, 0), args.Error(1)
}

func (m *ProposalServiceMock) Vote(ctx context.Context, proposalID, userID string, choice models.VoteChoice) (models.EventProposal, error) {
	args := m.Called(ctx, proposalID, userID, choice)
	return value[models.EventProposal](args, 0), args.Error(1)
}

func (m *ProposalServiceMock) RetractVote(ctx context.Context, proposalID, userID string) (models.EventProposal, error) {
	args := m.Called(ctx, proposalID, userID)
	return value[models.EventProposal](args, 0), args.Error(1)
}

func (m *ProposalServiceMock) SetStatus(ctx context.Context, proposalID, actorID string, status models.ProposalStatus) (models.EventProposal, error) {
	args := m.Called(ctx, proposalID, actorID, status)
	return value[models.EventProposal](args, 0), args.Error(1)
}

func (m *ProposalServiceMock) Delete(ctx context.Context, proposalID, actorID string) error {
	return m.Called(ctx, proposalID, actorID).Error(0)
}

type ContentServiceMock struct {
	mock.Mock
}

func (m *ContentServiceMock) CreatePost(ctx context.Context, groupID, authorID string, in models.PostInput) (models.Post, error) {
	args := m.Called(ctx, groupID, authorID, in)
	return value[models.Post](args, 0), args.Error(1)
}

func (m *ContentServiceMock) GetPost(ctx context.Context, postID string) (models.Post, error) {
	args := m.Called(ctx, postID)
	return value[models.Post](args, 0), args.Error(1)
}

func (m *ContentServiceMock) ListPosts(ctx context.Context, groupID string, limit int) ([]models.Post, error) {
	args := m.Called(ctx, groupID, limit)
	return value[[]models.Post](args, 0), args.Error(1)
}

func (m *ContentServiceMock) DeletePost(ctx context.Context, postID, actorID string) error {
	return m.Called(ctx, postID, actorID).Error(0)
}

func (m *ContentServiceMock) ToggleLike(ctx context.Context, postID, userID string) (models.Post, bool, error) {
	args := m.Called(ctx, postID, userID)
	return value[models.Post](args, 0), args.Bool(1), args.Error(2)
}

func (m *ContentServiceMock) ToggleFavorite(ctx context.Context, kind models.ParentKind, parentID, userID string) (bool, error) {
	args := m.Called(ctx, kind, parentID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ContentServiceMock) AddComment(ctx context.Context, kind models.ParentKind, parentID, authorID string, in models.CommentInput) (models.Comment, error) {
	args := m.Called(ctx, kind, parentID, authorID, in)
	return value[models.Comment](args, 0), args.Error(1)
}

func (m *ContentServiceMock) DeleteComment(ctx context.Context, commentID, actorID string) error {
	return m.Called(ctx, commentID, actorID).Error(0)
}

func (m *ContentServiceMock) ListComments(ctx context.Context, kind models.ParentKind, parentID string) ([]models.Comment, error) {
	args := m.Called(ctx, kind, parentID)
	return value[[]models.Comment](args, 0), args.Error(1)
}

type InboxServiceMock struct {
	mock.Mock
}

func (m *InboxServiceMock) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return value[[]models.Notification](args, 0), args.Error(1)
}

func (m *InboxServiceMock) MarkRead(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *InboxServiceMock) Preferences(ctx context.Context, userID string) (models.Preferences, error) {
	args := m.Called(ctx, userID)
	return value[models.Preferences](args, 0), args.Error(1)
}

func (m *InboxServiceMock) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	return m.Called(ctx, prefs).Error(0)
}
