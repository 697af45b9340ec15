package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"group-service/internal/mocks"
	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	st       *store.MemoryStore
	notifier *mocks.RecordingNotifier
	engine   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	rec := &mocks.RecordingNotifier{}
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	var seq atomic.Int64
	ids := func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }
	return &fixture{
		st:       st,
		notifier: rec,
		engine:   NewEngine(st, rec, zerolog.Nop(), WithClock(clock.Now), WithIDGenerator(ids)),
	}
}

func (f *fixture) group(t *testing.T, creator string, requiresApproval bool, members ...string) models.Group {
	t.Helper()
	ctx := context.Background()
	g, err := f.engine.CreateGroup(ctx, creator, models.Profile{DisplayName: creator}, models.GroupInput{Name: "Trail Runners"})
	require.NoError(t, err)
	for _, m := range members {
		_, err := f.engine.Join(ctx, g.ID, m, models.Profile{DisplayName: m})
		require.NoError(t, err)
	}
	if requiresApproval {
		on := true
		_, err := f.engine.UpdateSettings(ctx, g.ID, creator, models.GroupSettings{RequiresApproval: &on})
		require.NoError(t, err)
	}
	f.notifier.Reset()
	return f.load(t, g.ID)
}

func (f *fixture) load(t *testing.T, groupID string) models.Group {
	t.Helper()
	g, err := f.engine.GetGroup(context.Background(), groupID)
	require.NoError(t, err)
	return g
}

func (f *fixture) memberExists(groupID, userID string) bool {
	_, err := f.st.Get(context.Background(), repositories.MembersCollection, models.MemberID(userID, groupID))
	return err == nil
}

// requireConsistent checks the group aggregate against itself and its member records.
func (f *fixture) requireConsistent(t *testing.T, groupID string) {
	t.Helper()
	g := f.load(t, groupID)
	require.Equal(t, len(g.Members), g.MemberCount, "memberCount must match members")
	for _, o := range g.Organizers {
		require.Contains(t, g.Members, o, "organizers must be members")
	}
	require.Contains(t, g.Organizers, g.CreatorID, "creator must be an organizer")

	members, err := f.engine.ListMembers(context.Background(), groupID)
	require.NoError(t, err)
	require.Len(t, members, g.MemberCount)
	creators := 0
	for _, m := range members {
		require.Contains(t, g.Members, m.UserID)
		if m.Role == models.RoleCreator {
			creators++
			require.Equal(t, g.CreatorID, m.UserID)
		}
	}
	require.Equal(t, 1, creators)
}

func TestCreateGroupFoundsCreator(t *testing.T) {
	f := newFixture(t)
	g, err := f.engine.CreateGroup(context.Background(), "c", models.Profile{}, models.GroupInput{Name: "Hikers", IsPrivate: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, g.Members)
	assert.Equal(t, []string{"c"}, g.Organizers)
	assert.Equal(t, models.VisibilityPrivate, g.Visibility)
	f.requireConsistent(t, g.ID)

	_, err = f.engine.CreateGroup(context.Background(), "c", models.Profile{}, models.GroupInput{})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestJoinThenLeaveRestoresState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "a")

	out, err := f.engine.Join(ctx, g.ID, "x", models.Profile{DisplayName: "Xan"})
	require.NoError(t, err)
	assert.Equal(t, models.JoinJoined, out.Status)
	assert.Equal(t, 3, out.Group.MemberCount)
	assert.True(t, f.memberExists(g.ID, "x"))
	f.requireConsistent(t, g.ID)

	joinedCalls := f.notifier.ByType(notify.TypeMemberJoined)
	require.Len(t, joinedCalls, 1)
	assert.ElementsMatch(t, []string{"c", "a"}, joinedCalls[0].Targets)

	require.NoError(t, f.engine.Leave(ctx, g.ID, "x"))
	after := f.load(t, g.ID)
	assert.ElementsMatch(t, g.Members, after.Members)
	assert.Equal(t, g.MemberCount, after.MemberCount)
	assert.False(t, f.memberExists(g.ID, "x"))
	f.requireConsistent(t, g.ID)

	left := f.notifier.ByType(notify.TypeMemberLeft)
	require.Len(t, left, 1)
	assert.Equal(t, []string{"c"}, left[0].Targets)
}

func TestJoinRejectsExistingMember(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "c", false, "a")

	_, err := f.engine.Join(context.Background(), g.ID, "a", models.Profile{})
	require.ErrorIs(t, err, models.ErrAlreadyMember)
	assert.Equal(t, "AlreadyMember", models.ErrorKind(err))
	assert.Equal(t, 2, f.load(t, g.ID).MemberCount)

	_, err = f.engine.Join(context.Background(), "missing", "a", models.Profile{})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestApprovalScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", true)

	out, err := f.engine.Join(ctx, g.ID, "x", models.Profile{DisplayName: "Xan"})
	require.NoError(t, err)
	require.Equal(t, models.JoinPending, out.Status)
	require.NotNil(t, out.Request)
	assert.Equal(t, []string{"c"}, f.load(t, g.ID).Members)

	pending, err := f.engine.ListPendingRequests(ctx, g.ID, "c")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "x", pending[0].UserID)

	requested := f.notifier.ByType(notify.TypeJoinRequest)
	require.Len(t, requested, 1)
	assert.Equal(t, []string{"c"}, requested[0].Targets)

	again, err := f.engine.Join(ctx, g.ID, "x", models.Profile{})
	require.NoError(t, err)
	assert.Equal(t, out.Request.ID, again.Request.ID)
	assert.Len(t, f.notifier.ByType(notify.TypeJoinRequest), 1)

	f.notifier.Reset()
	updated, err := f.engine.Approve(ctx, out.Request.ID, g.ID, "x", "c")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c", "x"}, updated.Members)

	stored := f.load(t, g.ID)
	assert.ElementsMatch(t, []string{"c", "x"}, stored.Members)
	assert.Equal(t, 2, stored.MemberCount)
	assert.Empty(t, stored.PendingRequests)
	f.requireConsistent(t, g.ID)

	req, err := repositories.NewGroupRepo(f.st).GetJoinRequest(ctx, out.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)
	assert.Equal(t, "c", req.ResolvedBy)

	received := 0
	for _, call := range f.notifier.Calls() {
		for _, target := range call.Targets {
			require.Equal(t, "x", target, "no other member should be notified")
			received++
		}
	}
	assert.Equal(t, 1, received)

	_, err = f.engine.Approve(ctx, out.Request.ID, g.ID, "x", "c")
	require.ErrorIs(t, err, models.ErrNoPendingRequest)
}

func TestApproveExcludesNewMemberAndApprover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "o", "m1", "m2")
	_, err := f.engine.Promote(ctx, g.ID, "o", "c")
	require.NoError(t, err)
	on := true
	_, err = f.engine.UpdateSettings(ctx, g.ID, "c", models.GroupSettings{RequiresApproval: &on})
	require.NoError(t, err)

	out, err := f.engine.Join(ctx, g.ID, "u", models.Profile{})
	require.NoError(t, err)
	f.notifier.Reset()

	_, err = f.engine.Approve(ctx, out.Request.ID, g.ID, "u", "o")
	require.NoError(t, err)

	joinedCalls := f.notifier.ByType(notify.TypeMemberJoined)
	require.Len(t, joinedCalls, 1)
	assert.ElementsMatch(t, []string{"c", "m1", "m2"}, joinedCalls[0].Targets)

	approved := f.notifier.ByType(notify.TypeRequestApproved)
	require.Len(t, approved, 1)
	assert.Equal(t, []string{"u"}, approved[0].Targets)
}

func TestApproveRequiresOrganizer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", true, "m")

	out, err := f.engine.Join(ctx, g.ID, "x", models.Profile{})
	require.NoError(t, err)

	_, err = f.engine.Approve(ctx, out.Request.ID, g.ID, "x", "m")
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.engine.Approve(ctx, out.Request.ID, g.ID, "someone-else", "c")
	require.ErrorIs(t, err, models.ErrInvalidTarget)
	assert.NotContains(t, f.load(t, g.ID).Members, "x")
}

func TestRejectAndCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", true)

	out, err := f.engine.Join(ctx, g.ID, "x", models.Profile{})
	require.NoError(t, err)
	f.notifier.Reset()

	require.NoError(t, f.engine.Reject(ctx, out.Request.ID, g.ID, "x", "c"))
	rejected := f.notifier.ByType(notify.TypeRequestRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, []string{"x"}, rejected[0].Targets)
	assert.Equal(t, 1, f.load(t, g.ID).MemberCount)

	require.ErrorIs(t, f.engine.Cancel(ctx, g.ID, "x"), models.ErrNoPendingRequest)

	_, err = f.engine.Join(ctx, g.ID, "x", models.Profile{})
	require.NoError(t, err)
	require.NoError(t, f.engine.Cancel(ctx, g.ID, "x"))
	assert.Empty(t, f.load(t, g.ID).PendingRequests)
	pending, err := f.engine.ListPendingRequests(ctx, g.ID, "c")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRemoveAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "o", "m", "n")
	_, err := f.engine.Promote(ctx, g.ID, "o", "c")
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.Remove(ctx, g.ID, "c", "m"), models.ErrUnauthorized)
	require.ErrorIs(t, f.engine.Remove(ctx, g.ID, "c", "c"), models.ErrCannotRemoveCreator)
	require.ErrorIs(t, f.engine.Remove(ctx, g.ID, "c", "o"), models.ErrCannotRemoveCreator)
	require.ErrorIs(t, f.engine.Remove(ctx, g.ID, "n", "m"), models.ErrUnauthorized)
	require.ErrorIs(t, f.engine.Remove(ctx, g.ID, "ghost", "o"), models.ErrInvalidTarget)
	assert.Equal(t, 4, f.load(t, g.ID).MemberCount)

	f.notifier.Reset()
	require.NoError(t, f.engine.Remove(ctx, g.ID, "n", "o"))
	removed := f.notifier.ByType(notify.TypeMemberRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, []string{"n"}, removed[0].Targets)
	f.requireConsistent(t, g.ID)

	require.NoError(t, f.engine.Remove(ctx, g.ID, "o", "c"))
	after := f.load(t, g.ID)
	assert.NotContains(t, after.Organizers, "o")
	f.requireConsistent(t, g.ID)
}

func TestCreatorCannotLeave(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "c", false, "a")

	err := f.engine.Leave(context.Background(), g.ID, "c")
	require.ErrorIs(t, err, models.ErrCannotRemoveCreator)
	require.ErrorIs(t, f.engine.Leave(context.Background(), g.ID, "stranger"), models.ErrNotFound)
	f.requireConsistent(t, g.ID)
}

func TestPromoteAndDemote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "a", "b")

	_, err := f.engine.Promote(ctx, g.ID, "a", "b")
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.engine.Promote(ctx, g.ID, "ghost", "c")
	require.ErrorIs(t, err, models.ErrInvalidTarget)

	_, err = f.engine.Promote(ctx, g.ID, "a", "c")
	require.NoError(t, err)
	_, err = f.engine.Promote(ctx, g.ID, "a", "c")
	require.NoError(t, err)
	assert.Len(t, f.notifier.ByType(notify.TypePromoted), 1)

	role, err := f.engine.Role(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, role)
	m, err := repositories.NewGroupRepo(f.st).GetMember(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, m.Role)

	_, err = f.engine.Demote(ctx, g.ID, "a", "a")
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.engine.Demote(ctx, g.ID, "c", "c")
	require.ErrorIs(t, err, models.ErrCannotRemoveCreator)
	_, err = f.engine.Demote(ctx, g.ID, "a", "c")
	require.NoError(t, err)
	role, err = f.engine.Role(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)
	f.requireConsistent(t, g.ID)
}

func TestTransferAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "a")

	_, err := f.engine.TransferAdmin(ctx, g.ID, "a", "a")
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.engine.TransferAdmin(ctx, g.ID, "c", "c")
	require.ErrorIs(t, err, models.ErrInvalidTarget)
	_, err = f.engine.TransferAdmin(ctx, g.ID, "ghost", "c")
	require.ErrorIs(t, err, models.ErrInvalidTarget)

	updated, err := f.engine.TransferAdmin(ctx, g.ID, "a", "c")
	require.NoError(t, err)
	assert.Equal(t, "a", updated.CreatorID)
	f.requireConsistent(t, g.ID)

	stored := f.load(t, g.ID)
	assert.Equal(t, "a", stored.CreatorID)
	assert.ElementsMatch(t, []string{"c", "a"}, stored.Organizers)

	transferred := f.notifier.ByType(notify.TypeAdminTransferred)
	require.Len(t, transferred, 1)
	assert.ElementsMatch(t, []string{"a", "c"}, transferred[0].Targets)

	require.NoError(t, f.engine.Leave(ctx, g.ID, "c"))
	f.requireConsistent(t, g.ID)
}

func TestInviteAcceptAndDecline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", true, "m")

	_, err := f.engine.Invite(ctx, g.ID, "x", "stranger")
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.engine.Invite(ctx, g.ID, "m", "c")
	require.ErrorIs(t, err, models.ErrAlreadyMember)

	inv, err := f.engine.Invite(ctx, g.ID, "x", "m")
	require.NoError(t, err)
	dup, err := f.engine.Invite(ctx, g.ID, "x", "c")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, dup.ID)

	invites, err := f.engine.ListUserInvites(ctx, "x")
	require.NoError(t, err)
	require.Len(t, invites, 1)

	_, err = f.engine.AcceptInvite(ctx, inv.ID, "y", models.Profile{})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	f.notifier.Reset()
	updated, err := f.engine.AcceptInvite(ctx, inv.ID, "x", models.Profile{DisplayName: "Xan"})
	require.NoError(t, err)
	assert.Contains(t, updated.Members, "x")
	f.requireConsistent(t, g.ID)

	joinedCalls := f.notifier.ByType(notify.TypeMemberJoined)
	require.Len(t, joinedCalls, 1)
	assert.ElementsMatch(t, []string{"c", "m"}, joinedCalls[0].Targets)

	_, err = f.engine.AcceptInvite(ctx, inv.ID, "x", models.Profile{})
	require.ErrorIs(t, err, models.ErrAlreadyInTerminalState)

	inv2, err := f.engine.Invite(ctx, g.ID, "y", "c")
	require.NoError(t, err)
	require.NoError(t, f.engine.DeclineInvite(ctx, inv2.ID, "y"))
	assert.NotContains(t, f.load(t, g.ID).Members, "y")
}

func TestDeleteGroupIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", true, "a", "b")

	for _, u := range []string{"x", "y"} {
		out, err := f.engine.Join(ctx, g.ID, u, models.Profile{})
		require.NoError(t, err)
		require.Equal(t, models.JoinPending, out.Status)
	}
	_, err := f.engine.Invite(ctx, g.ID, "z", "a")
	require.NoError(t, err)

	counts := func() []int {
		return []int{
			f.st.Count(repositories.GroupsCollection),
			f.st.Count(repositories.MembersCollection),
			f.st.Count(repositories.JoinRequestsCollection),
			f.st.Count(repositories.InvitesCollection),
		}
	}
	require.Equal(t, []int{1, 3, 2, 1}, counts())

	require.ErrorIs(t, f.engine.DeleteGroup(ctx, g.ID, "a"), models.ErrUnauthorized)

	f.st.FailNextCommitAt(4, errors.New("connection reset"))
	err = f.engine.DeleteGroup(ctx, g.ID, "c")
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	require.Equal(t, []int{1, 3, 2, 1}, counts())
	f.requireConsistent(t, g.ID)

	f.notifier.Reset()
	require.NoError(t, f.engine.DeleteGroup(ctx, g.ID, "c"))
	require.Equal(t, []int{0, 0, 0, 0}, counts())

	deleted := f.notifier.ByType(notify.TypeGroupDeleted)
	require.Len(t, deleted, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, deleted[0].Targets)

	_, err = f.engine.GetGroup(ctx, g.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentJoinsKeepCountExact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = f.engine.Join(ctx, g.ID, fmt.Sprintf("u%d", i%10), models.Profile{})
		}(i)
	}
	wg.Wait()

	after := f.load(t, g.ID)
	assert.Equal(t, 11, after.MemberCount)
	f.requireConsistent(t, g.ID)
}

func TestEnsureChatRoomIsCreatedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "a")

	_, err := f.engine.EnsureChatRoom(ctx, g.ID, "stranger")
	require.ErrorIs(t, err, models.ErrUnauthorized)

	room, err := f.engine.EnsureChatRoom(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, ChatRoomID(g.ID), room.ID)
	assert.Equal(t, "a", room.CreatedBy)

	again, err := f.engine.EnsureChatRoom(ctx, g.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
	assert.Equal(t, "a", again.CreatedBy)
	assert.Equal(t, 1, f.st.Count(repositories.ChatRoomsCollection))
	assert.Equal(t, room.ID, f.load(t, g.ID).ChatRoomID)
}

func TestUpdateSettingsRequiresOrganizer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", false, "m")
	name := "Night Owls"

	_, err := f.engine.UpdateSettings(ctx, g.ID, "m", models.GroupSettings{Name: &name})
	require.ErrorIs(t, err, models.ErrUnauthorized)

	updated, err := f.engine.UpdateSettings(ctx, g.ID, "c", models.GroupSettings{Name: &name, Tags: []string{"night"}})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, []string{"night"}, updated.Tags)
	assert.Equal(t, 2, updated.MemberCount)
}

func TestDirectJoinSettlesRequestFiledUnderApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	g := f.group(t, "c", true, "a")

	out, err := f.engine.Join(ctx, g.ID, "x", models.Profile{DisplayName: "Xan"})
	require.NoError(t, err)
	require.Equal(t, models.JoinPending, out.Status)
	requestID := out.Request.ID

	off := false
	_, err = f.engine.UpdateSettings(ctx, g.ID, "c", models.GroupSettings{RequiresApproval: &off})
	require.NoError(t, err)

	out, err = f.engine.Join(ctx, g.ID, "x", models.Profile{DisplayName: "Xan"})
	require.NoError(t, err)
	require.Equal(t, models.JoinJoined, out.Status)

	pending, err := f.engine.ListPendingRequests(ctx, g.ID, "c")
	require.NoError(t, err)
	assert.Empty(t, pending)

	req, err := repositories.NewGroupRepo(f.st).GetJoinRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)
	assert.Empty(t, f.load(t, g.ID).PendingRequests)
	assert.True(t, f.memberExists(g.ID, "x"))
	f.requireConsistent(t, g.ID)
}

func TestDeleteGroupRetriesPastConcurrentWrites(t *testing.T) {
	cases := []struct {
		name             string
		requiresApproval bool
		race             func(e *Engine, groupID string) error
	}{
		{"join", false, func(e *Engine, groupID string) error {
			_, err := e.Join(context.Background(), groupID, "late", models.Profile{})
			return err
		}},
		{"join request", true, func(e *Engine, groupID string) error {
			_, err := e.Join(context.Background(), groupID, "late", models.Profile{})
			return err
		}},
		{"invite", false, func(e *Engine, groupID string) error {
			_, err := e.Invite(context.Background(), groupID, "late", "a")
			return err
		}},
		{"chat room", false, func(e *Engine, groupID string) error {
			_, err := e.EnsureChatRoom(context.Background(), groupID, "c")
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			g := f.group(t, "c", tc.requiresApproval, "a", "b")

			st := &mocks.InterleavingStore{MemoryStore: f.st, Collection: repositories.GroupsCollection}
			st.Before = func() { require.NoError(t, tc.race(f.engine, g.ID)) }
			deleter := NewEngine(st, nil, zerolog.Nop())

			require.NoError(t, deleter.DeleteGroup(ctx, g.ID, "c"))
			require.True(t, st.Fired())

			for _, coll := range []string{
				repositories.GroupsCollection,
				repositories.MembersCollection,
				repositories.JoinRequestsCollection,
				repositories.InvitesCollection,
				repositories.ChatRoomsCollection,
			} {
				assert.Zero(t, f.st.Count(coll), coll)
			}
		})
	}
}
