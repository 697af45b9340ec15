package content

import (
	"context"
	"fmt"
	"slices"

	"group-service/internal/models"
	"group-service/internal/notify"
	"group-service/internal/repositories"
	"group-service/internal/store"
)

// CreatePost shares a post with the group. Members only.
func (e *Engine) CreatePost(ctx context.Context, groupID, authorID string, in models.PostInput) (p models.Post, err error) {
	ctx, done := e.start(ctx, "create_post", &err)
	defer done()

	if err := models.Validate(in); err != nil {
		return p, err
	}
	now := e.now()
	p = models.Post{
		ID:         e.newID(),
		GroupID:    groupID,
		AuthorID:   authorID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
		ImageURLs:  in.ImageURLs,
		Likes:      []string{},
		Favorites:  []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc, err := store.Encode(p)
	if err != nil {
		return p, err
	}
	err = repositories.Retry(ctx, func() error {
		if _, err := e.requireMember(ctx, groupID, authorID); err != nil {
			return err
		}
		b := store.NewBatch().Create(repositories.PostsCollection, p.ID, doc)
		repositories.StageGroupRevision(b, groupID, authorID)
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return nil
	})
	if err != nil {
		return p, err
	}

	if g, err := e.groups.GetGroup(ctx, groupID); err == nil {
		e.notify(ctx, groupID, g.Members, []string{authorID}, notify.Event{
			Type:     notify.TypePostCreated,
			Category: models.CategoryActivities,
			ActorID:  authorID,
			Title:    g.Name,
			Body:     authorLabel(in.AuthorName) + " shared a post",
			EntityID: p.ID,
		})
	}
	return p, nil
}

// ToggleLike likes or unlikes a post. Only a like notifies, and never the author liking their own post.
func (e *Engine) ToggleLike(ctx context.Context, postID, userID string) (p models.Post, liked bool, err error) {
	ctx, done := e.start(ctx, "toggle_like", &err)
	defer done()

	err = repositories.Retry(ctx, func() error {
		var err error
		if p, err = e.repo.GetPost(ctx, postID); err != nil {
			return err
		}
		if _, err := e.requireMember(ctx, p.GroupID, userID); err != nil {
			return err
		}
		present := slices.Contains(p.Likes, userID)
		b := store.NewBatch()
		toggleWrite(b, repositories.PostsCollection, postID, "likes", "likeCount", userID, present, e.now())
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return err
		}
		liked = !present
		if liked {
			p.Likes = append(p.Likes, userID)
			p.LikeCount++
		} else {
			p.Likes = slices.DeleteFunc(p.Likes, func(id string) bool { return id == userID })
			p.LikeCount--
		}
		return nil
	})
	if err != nil {
		return p, false, err
	}

	if liked && p.AuthorID != userID {
		e.notify(ctx, p.GroupID, []string{p.AuthorID}, nil, notify.Event{
			Type:     notify.TypePostLiked,
			Category: models.CategoryActivities,
			ActorID:  userID,
			Title:    "New like",
			Body:     "Someone liked your post",
			EntityID: postID,
		})
	}
	return p, liked, nil
}

// ToggleFavorite adds or removes a post or proposal from the user's favorites.
func (e *Engine) ToggleFavorite(ctx context.Context, kind models.ParentKind, parentID, userID string) (favorited bool, err error) {
	ctx, done := e.start(ctx, "toggle_favorite", &err)
	defer done()

	err = repositories.Retry(ctx, func() error {
		target, err := e.loadParent(ctx, kind, parentID)
		if err != nil {
			return err
		}
		if _, err := e.requireMember(ctx, target.GroupID, userID); err != nil {
			return err
		}
		present := slices.Contains(target.Favorites, userID)
		b := store.NewBatch()
		toggleWrite(b, repositories.ParentCollection(kind), parentID, "favorites", "", userID, present, e.now())
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return err
		}
		favorited = !present
		return nil
	})
	return favorited, err
}

// DeletePost removes the post and its comments. Author or organizers only.
func (e *Engine) DeletePost(ctx context.Context, postID, actorID string) (err error) {
	ctx, done := e.start(ctx, "delete_post", &err)
	defer done()

	return repositories.Retry(ctx, func() error {
		p, err := e.repo.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		role, err := e.groups.Role(ctx, p.GroupID, actorID)
		if err != nil {
			return err
		}
		if actorID != p.AuthorID && !role.CanModerate() {
			return fmt.Errorf("%s may not delete post %s: %w", actorID, postID, models.ErrUnauthorized)
		}

		comments, err := e.repo.ListComments(ctx, models.ParentPost, postID)
		if err != nil {
			return err
		}
		b := store.NewBatch().DeleteExisting(repositories.PostsCollection, postID,
			store.FieldEquals("commentCount", p.CommentCount))
		for _, c := range comments {
			b.Delete(repositories.CommentsCollection, c.ID)
		}
		if err := repositories.Commit(ctx, e.st, b); err != nil {
			return fmt.Errorf("delete post %s: %w", postID, err)
		}
		return nil
	})
}

// GetPost returns a single post.
func (e *Engine) GetPost(ctx context.Context, postID string) (models.Post, error) {
	return e.repo.GetPost(ctx, postID)
}

// ListPosts returns the group's posts, newest first.
func (e *Engine) ListPosts(ctx context.Context, groupID string, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return e.repo.ListPosts(ctx, groupID, limit)
}

func authorLabel(name string) string {
	if name == "" {
		return "A member"
	}
	return name
}
