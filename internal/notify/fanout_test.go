package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-service/internal/models"
	"group-service/internal/preferences"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

type mockDispatcher struct {
	mock.Mock
	mu   sync.Mutex
	sent []PushMessage
}

func (m *mockDispatcher) Send(ctx context.Context, msg PushMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func newTestFanout(t *testing.T, st *store.MemoryStore, d Dispatcher, opts ...Option) *Fanout {
	t.Helper()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewFanout(st, preferences.NewStoreSource(st), d, zerolog.Nop(), opts...)
}

func savePrefs(t *testing.T, st store.Store, p models.Preferences) {
	t.Helper()
	require.NoError(t, preferences.NewStoreSource(st).Save(context.Background(), p))
}

func TestTargetsExcludesAndDeduplicates(t *testing.T) {
	got := Targets([]string{"a", "b", "a", "c", "", "d"}, []string{"c", "x"})
	assert.Equal(t, []string{"a", "b", "d"}, got)
	assert.Empty(t, Targets([]string{"a"}, []string{"a"}))
}

func TestNotifyPersistsForEveryTargetAndPushesWhereAllowed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	off := false
	savePrefs(t, st, models.Preferences{UserID: "a", PushTokens: []string{"tok-a"}})
	savePrefs(t, st, models.Preferences{UserID: "b", PushTokens: []string{"tok-b"}, Settings: models.NotificationSettings{Activities: &off}})

	d := &mockDispatcher{}
	d.On("Send", mock.Anything, mock.Anything).Return(nil)

	f := newTestFanout(t, st, d)
	report := f.Notify(ctx, "g1", []string{"a", "b", "c", "actor"}, []string{"actor"}, Event{
		Type:     TypeMemberJoined,
		Category: models.CategoryActivities,
		ActorID:  "actor",
		Title:    "New member",
	})

	assert.ElementsMatch(t, []string{"a", "b", "c"}, report.Targets)
	assert.Equal(t, 3, report.Persisted)
	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 3, st.Count(repositories.NotificationsCollection))

	require.Len(t, d.sent, 1)
	assert.Equal(t, "tok-a", d.sent[0].Token)
	assert.Equal(t, TypeMemberJoined, d.sent[0].Payload["type"])
	assert.Equal(t, "g1", d.sent[0].Payload["groupId"])

	list, err := repositories.NewNotificationRepo(st).ListForUser(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "actor", list[0].ActorID)
	assert.False(t, list[0].Read)
}

func TestNotifyPushFailureDoesNotAffectOtherTargets(t *testing.T) {
	st := store.NewMemoryStore()
	savePrefs(t, st, models.Preferences{UserID: "a", PushTokens: []string{"bad"}})
	savePrefs(t, st, models.Preferences{UserID: "b", PushTokens: []string{"good"}})

	d := &mockDispatcher{}
	d.On("Send", mock.Anything, mock.MatchedBy(func(m PushMessage) bool { return m.Token == "bad" })).Return(errors.New("gateway down"))
	d.On("Send", mock.Anything, mock.MatchedBy(func(m PushMessage) bool { return m.Token == "good" })).Return(nil)

	report := newTestFanout(t, st, d).Notify(context.Background(), "g1", []string{"a", "b"}, nil, Event{
		Type:     TypeProposalConfirmed,
		Category: models.CategoryEvents,
	})

	assert.Equal(t, 2, report.Persisted)
	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, 0, report.Failed)
}

func TestNotifyPersistFailureIsIsolated(t *testing.T) {
	st := store.NewMemoryStore()
	d := &mockDispatcher{}

	f := newTestFanout(t, st, d, WithConcurrency(1))
	st.FailNextCommitAt(0, errors.New("store offline"))
	report := f.Notify(context.Background(), "g1", []string{"a", "b", "c"}, nil, Event{Type: TypePostCreated, Category: models.CategoryActivities})

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Persisted)
	assert.Equal(t, 2, st.Count(repositories.NotificationsCollection))
	d.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotifySurvivesCancelledCaller(t *testing.T) {
	st := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestFanout(t, st, NewNoopDispatcher(zerolog.Nop())).Notify(ctx, "g1", []string{"a"}, nil, Event{Type: TypePostLiked})
	assert.Equal(t, 1, report.Persisted)
}

func TestBreakerDispatcherOpensAfterFailures(t *testing.T) {
	d := &mockDispatcher{}
	d.On("Send", mock.Anything, mock.Anything).Return(errors.New("refused"))

	b := NewBreakerDispatcher(d, BreakerConfig{Name: "push", FailureThreshold: 2, Cooldown: time.Minute}, zerolog.Nop())
	ctx := context.Background()
	require.Error(t, b.Send(ctx, PushMessage{Token: "t"}))
	require.Error(t, b.Send(ctx, PushMessage{Token: "t"}))
	assert.Equal(t, "open", b.State())

	require.Error(t, b.Send(ctx, PushMessage{Token: "t"}))
	d.AssertNumberOfCalls(t, "Send", 2)
}

func TestInboxMarkRead(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	newTestFanout(t, st, NewNoopDispatcher(zerolog.Nop())).Notify(ctx, "g1", []string{"a"}, nil, Event{Type: TypePostCreated})

	inbox := NewInbox(st, preferences.NewStoreSource(st))
	list, err := inbox.ListNotifications(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, inbox.MarkRead(ctx, list[0].ID, "b"), models.ErrUnauthorized)
	require.NoError(t, inbox.MarkRead(ctx, list[0].ID, "a"))
	require.NoError(t, inbox.MarkRead(ctx, list[0].ID, "a"))
	require.ErrorIs(t, inbox.MarkRead(ctx, "missing", "a"), models.ErrNotFound)

	list, err = inbox.ListNotifications(ctx, "a", 10)
	require.NoError(t, err)
	assert.True(t, list[0].Read)
}
