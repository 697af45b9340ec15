package content

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"group-service/internal/membership"
	"group-service/internal/mocks"
	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/proposals"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

type fixture struct {
	st        *store.MemoryStore
	notifier  *mocks.RecordingNotifier
	engine    *Engine
	proposals *proposals.Engine
	repo      *repositories.ContentRepo
	groupID   string
}

// newFixture builds a group created by "a" with members "b", "c" and organizer "o".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	groups := membership.NewEngine(st, nil, zerolog.Nop())

	g, err := groups.CreateGroup(ctx, "a", models.Profile{}, models.GroupInput{Name: "Cyclists"})
	require.NoError(t, err)
	for _, u := range []string{"b", "c", "o"} {
		_, err := groups.Join(ctx, g.ID, u, models.Profile{})
		require.NoError(t, err)
	}
	_, err = groups.Promote(ctx, g.ID, "o", "a")
	require.NoError(t, err)

	var seq atomic.Int64
	rec := &mocks.RecordingNotifier{}
	return &fixture{
		st:        st,
		notifier:  rec,
		engine:    NewEngine(st, groups, rec, zerolog.Nop(), WithIDGenerator(func() string { return fmt.Sprintf("c-%d", seq.Add(1)) })),
		proposals: proposals.NewEngine(st, groups, nil, zerolog.Nop()),
		repo:      repositories.NewContentRepo(st),
		groupID:   g.ID,
	}
}

func (f *fixture) post(t *testing.T, author string) models.Post {
	t.Helper()
	p, err := f.engine.CreatePost(context.Background(), f.groupID, author, models.PostInput{Content: "Ride on Sunday?"})
	require.NoError(t, err)
	f.notifier.Reset()
	return p
}

func (f *fixture) storedPost(t *testing.T, id string) models.Post {
	t.Helper()
	p, err := f.repo.GetPost(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestCreatePostNotifiesOtherMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.CreatePost(ctx, f.groupID, "b", models.PostInput{Content: "hello", AuthorName: "Bea"})
	require.NoError(t, err)
	created := f.notifier.ByType(notify.TypePostCreated)
	require.Len(t, created, 1)
	assert.ElementsMatch(t, []string{"a", "c", "o"}, created[0].Targets)

	_, err = f.engine.CreatePost(ctx, f.groupID, "stranger", models.PostInput{Content: "hi"})
	require.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.engine.CreatePost(ctx, f.groupID, "b", models.PostInput{})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, "b")

	_, liked, err := f.engine.ToggleLike(ctx, p.ID, "c")
	require.NoError(t, err)
	assert.True(t, liked)
	stored := f.storedPost(t, p.ID)
	assert.Equal(t, []string{"c"}, stored.Likes)
	assert.Equal(t, 1, stored.LikeCount)

	likes := f.notifier.ByType(notify.TypePostLiked)
	require.Len(t, likes, 1)
	assert.Equal(t, []string{"b"}, likes[0].Targets)

	_, liked, err = f.engine.ToggleLike(ctx, p.ID, "c")
	require.NoError(t, err)
	assert.False(t, liked)
	stored = f.storedPost(t, p.ID)
	assert.Empty(t, stored.Likes)
	assert.Equal(t, 0, stored.LikeCount)
	assert.Len(t, f.notifier.ByType(notify.TypePostLiked), 1)

	_, liked, err = f.engine.ToggleLike(ctx, p.ID, "b")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Len(t, f.notifier.ByType(notify.TypePostLiked), 1, "liking your own post notifies nobody")

	_, _, err = f.engine.ToggleLike(ctx, p.ID, "stranger")
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestConcurrentLikesKeepCountExact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, "a")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		for _, u := range []string{"b", "c", "o"} {
			u := u
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, _ = f.engine.ToggleLike(ctx, p.ID, u)
			}()
		}
	}
	wg.Wait()

	stored := f.storedPost(t, p.ID)
	assert.Equal(t, len(stored.Likes), stored.LikeCount)
}

func TestToggleFavoriteOnPostAndProposal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, "b")
	prop, err := f.proposals.Create(ctx, f.groupID, "b", models.ProposalInput{Title: "Gravel loop"})
	require.NoError(t, err)

	on, err := f.engine.ToggleFavorite(ctx, models.ParentPost, p.ID, "c")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"c"}, f.storedPost(t, p.ID).Favorites)

	on, err = f.engine.ToggleFavorite(ctx, models.ParentProposal, prop.ID, "c")
	require.NoError(t, err)
	assert.True(t, on)
	on, err = f.engine.ToggleFavorite(ctx, models.ParentProposal, prop.ID, "c")
	require.NoError(t, err)
	assert.False(t, on)

	stored, err := f.repo.GetProposal(ctx, prop.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Favorites)

	_, err = f.engine.ToggleFavorite(ctx, models.ParentKind("album"), p.ID, "c")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, f.notifier.Calls())
}

func TestCommentOnPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, "b")

	c, err := f.engine.AddComment(ctx, models.ParentPost, p.ID, "c", models.CommentInput{Text: "I'm in"})
	require.NoError(t, err)
	assert.Equal(t, f.groupID, c.GroupID)
	assert.Equal(t, 1, f.storedPost(t, p.ID).CommentCount)

	added := f.notifier.ByType(notify.TypeCommentAdded)
	require.Len(t, added, 1)
	assert.ElementsMatch(t, []string{"a", "b", "o"}, added[0].Targets)

	_, err = f.engine.AddComment(ctx, models.ParentPost, p.ID, "c", models.CommentInput{})
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = f.engine.AddComment(ctx, models.ParentPost, "missing", "c", models.CommentInput{Text: "?"})
	require.ErrorIs(t, err, models.ErrNotFound)

	require.ErrorIs(t, f.engine.DeleteComment(ctx, c.ID, "b"), models.ErrUnauthorized)
	require.NoError(t, f.engine.DeleteComment(ctx, c.ID, "o"))
	assert.Equal(t, 0, f.storedPost(t, p.ID).CommentCount)
	require.ErrorIs(t, f.engine.DeleteComment(ctx, c.ID, "o"), models.ErrNotFound)
}

func TestCommentOnProposalReachesAuthorAndYesVoters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prop, err := f.proposals.Create(ctx, f.groupID, "b", models.ProposalInput{Title: "Night ride"})
	require.NoError(t, err)
	_, err = f.proposals.Vote(ctx, prop.ID, "c", models.VoteYes)
	require.NoError(t, err)
	_, err = f.proposals.Vote(ctx, prop.ID, "o", models.VoteNo)
	require.NoError(t, err)

	c, err := f.engine.AddComment(ctx, models.ParentProposal, prop.ID, "c", models.CommentInput{PhotoURL: "https://img.example.com/route.jpg"})
	require.NoError(t, err)

	added := f.notifier.ByType(notify.TypeCommentAdded)
	require.Len(t, added, 1)
	assert.Equal(t, []string{"b"}, added[0].Targets)
	assert.Equal(t, models.CategoryEvents, added[0].Event.Category)

	stored, err := f.repo.GetProposal(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CommentCount)
	assert.Equal(t, 1, stored.PhotoCount)

	require.NoError(t, f.engine.DeleteComment(ctx, c.ID, "c"))
	stored, err = f.repo.GetProposal(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CommentCount)
	assert.Equal(t, 0, stored.PhotoCount)
}

func TestDeletePostCascadesComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, "b")
	other := f.post(t, "c")
	for _, parent := range []string{p.ID, p.ID, other.ID} {
		_, err := f.engine.AddComment(ctx, models.ParentPost, parent, "a", models.CommentInput{Text: "nice"})
		require.NoError(t, err)
	}

	require.ErrorIs(t, f.engine.DeletePost(ctx, p.ID, "c"), models.ErrUnauthorized)
	require.NoError(t, f.engine.DeletePost(ctx, p.ID, "b"))

	_, err := f.engine.GetPost(ctx, p.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	comments, err := f.engine.ListComments(ctx, models.ParentPost, other.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, 1, f.st.Count(repositories.CommentsCollection))

	posts, err := f.engine.ListPosts(ctx, f.groupID, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, other.ID, posts[0].ID)
}

func TestDeletePostRetriesPastConcurrentComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.post(t, "b")
	_, err := f.engine.AddComment(ctx, models.ParentPost, p.ID, "a", models.CommentInput{Text: "early"})
	require.NoError(t, err)

	st := &mocks.InterleavingStore{MemoryStore: f.st, Collection: repositories.PostsCollection}
	st.Before = func() {
		_, err := f.engine.AddComment(ctx, models.ParentPost, p.ID, "c", models.CommentInput{Text: "late"})
		require.NoError(t, err)
	}
	deleter := NewEngine(st, membership.NewEngine(f.st, nil, zerolog.Nop()), nil, zerolog.Nop())

	require.NoError(t, deleter.DeletePost(ctx, p.ID, "b"))
	require.True(t, st.Fired())

	_, err = f.engine.GetPost(ctx, p.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, f.st.Count(repositories.CommentsCollection))
}
