package repositories

import (
	"context"
	"errors"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/store"
)

const (
	GroupsCollection        = "groups"
	MembersCollection       = "members"
	JoinRequestsCollection  = "joinRequests"
	InvitesCollection       = "invites"
	ChatRoomsCollection     = "chatRooms"
	ProposalsCollection     = "proposals"
	PostsCollection         = "posts"
	CommentsCollection      = "comments"
	NotificationsCollection = "notifications"
	UsersCollection         = "users"
)

// GroupRepository abstracts reads of the group aggregate and its association records.
type GroupRepository interface {
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
	GetMember(ctx context.Context, groupID, userID string) (models.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	GetJoinRequest(ctx context.Context, requestID string) (models.JoinRequest, error)
	FindPendingRequest(ctx context.Context, groupID, userID string) (*models.JoinRequest, error)
	ListRequests(ctx context.Context, groupID string, status models.RequestStatus) ([]models.JoinRequest, error)
	GetInvite(ctx context.Context, inviteID string) (models.Invite, error)
	FindPendingInvite(ctx context.Context, groupID, userID string) (*models.Invite, error)
	ListInvites(ctx context.Context, groupID string) ([]models.Invite, error)
	ListUserInvites(ctx context.Context, userID string) ([]models.Invite, error)
}

// StageGroupRevision bumps the group's revision in b, requiring memberID to still belong to it.
// Writes that create records owned by the group stage it so a concurrent group delete conflicts.
func StageGroupRevision(b *store.Batch, groupID, memberID string) *store.Batch {
	return b.Update(GroupsCollection, groupID, map[string]any{
		"revision": store.Increment(1),
	}, store.ArrayHas("members", memberID))
}

// GroupRepo is a store-backed implementation of GroupRepository.
type GroupRepo struct {
	st store.Store
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(st store.Store) *GroupRepo {
	return &GroupRepo{st: st}
}

// StoreError translates a store failure into the engine's error kinds.
func StoreError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", msg, models.ErrStoreUnavailable, err)
}

func getOne[T any](ctx context.Context, st store.Store, collection, id string) (T, error) {
	var out T
	doc, err := st.Get(ctx, collection, id)
	if err != nil {
		return out, StoreError(err, "get %s/%s", collection, id)
	}
	if err := store.Decode(doc, &out); err != nil {
		return out, StoreError(err, "decode %s/%s", collection, id)
	}
	return out, nil
}

func queryAll[T any](ctx context.Context, st store.Store, q store.Query) ([]T, error) {
	docs, err := st.Query(ctx, q)
	if err != nil {
		return nil, StoreError(err, "query %s", q.Collection)
	}
	out, err := store.DecodeAll[T](docs)
	if err != nil {
		return nil, StoreError(err, "decode %s", q.Collection)
	}
	return out, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	return getOne[models.Group](ctx, r.st, GroupsCollection, groupID)
}

// GetMember fetches the association record for (groupID, userID).
func (r *GroupRepo) GetMember(ctx context.Context, groupID, userID string) (models.Member, error) {
	return getOne[models.Member](ctx, r.st, MembersCollection, models.MemberID(userID, groupID))
}

// ListMembers returns the group's member records, oldest first.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	return queryAll[models.Member](ctx, r.st, store.Query{
		Collection: MembersCollection,
		Filters:    []store.Filter{store.Where("groupId", store.OpEqual, groupID)},
		OrderBy:    "joinedAt",
	})
}

// ListGroupsForUser returns groups that include the user, newest first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return queryAll[models.Group](ctx, r.st, store.Query{
		Collection: GroupsCollection,
		Filters:    []store.Filter{store.Where("members", store.OpArrayContains, userID)},
		OrderBy:    "createdAt",
		Descending: true,
	})
}

// GetJoinRequest fetches a join request by id.
func (r *GroupRepo) GetJoinRequest(ctx context.Context, requestID string) (models.JoinRequest, error) {
	return getOne[models.JoinRequest](ctx, r.st, JoinRequestsCollection, requestID)
}

// FindPendingRequest returns the user's pending request for the group, or nil.
func (r *GroupRepo) FindPendingRequest(ctx context.Context, groupID, userID string) (*models.JoinRequest, error) {
	reqs, err := queryAll[models.JoinRequest](ctx, r.st, store.Query{
		Collection: JoinRequestsCollection,
		Filters: []store.Filter{
			store.Where("groupId", store.OpEqual, groupID),
			store.Where("userId", store.OpEqual, userID),
			store.Where("status", store.OpEqual, string(models.RequestPending)),
		},
		Limit: 1,
	})
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return &reqs[0], nil
}

// ListRequests returns the group's join requests, optionally filtered by status.
func (r *GroupRepo) ListRequests(ctx context.Context, groupID string, status models.RequestStatus) ([]models.JoinRequest, error) {
	filters := []store.Filter{store.Where("groupId", store.OpEqual, groupID)}
	if status != "" {
		filters = append(filters, store.Where("status", store.OpEqual, string(status)))
	}
	return queryAll[models.JoinRequest](ctx, r.st, store.Query{
		Collection: JoinRequestsCollection,
		Filters:    filters,
		OrderBy:    "createdAt",
	})
}

// GetInvite fetches an invite by id.
func (r *GroupRepo) GetInvite(ctx context.Context, inviteID string) (models.Invite, error) {
	return getOne[models.Invite](ctx, r.st, InvitesCollection, inviteID)
}

// FindPendingInvite returns the user's pending invite to the group, or nil.
func (r *GroupRepo) FindPendingInvite(ctx context.Context, groupID, userID string) (*models.Invite, error) {
	invites, err := queryAll[models.Invite](ctx, r.st, store.Query{
		Collection: InvitesCollection,
		Filters: []store.Filter{
			store.Where("groupId", store.OpEqual, groupID),
			store.Where("invitedUserId", store.OpEqual, userID),
			store.Where("status", store.OpEqual, string(models.InvitePending)),
		},
		Limit: 1,
	})
	if err != nil || len(invites) == 0 {
		return nil, err
	}
	return &invites[0], nil
}

// ListInvites returns every invite referencing the group.
func (r *GroupRepo) ListInvites(ctx context.Context, groupID string) ([]models.Invite, error) {
	return queryAll[models.Invite](ctx, r.st, store.Query{
		Collection: InvitesCollection,
		Filters:    []store.Filter{store.Where("groupId", store.OpEqual, groupID)},
	})
}

// ListUserInvites returns the user's pending invites, newest first.
func (r *GroupRepo) ListUserInvites(ctx context.Context, userID string) ([]models.Invite, error) {
	return queryAll[models.Invite](ctx, r.st, store.Query{
		Collection: InvitesCollection,
		Filters: []store.Filter{
			store.Where("invitedUserId", store.OpEqual, userID),
			store.Where("status", store.OpEqual, string(models.InvitePending)),
		},
		OrderBy:    "createdAt",
		Descending: true,
	})
}
