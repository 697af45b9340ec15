package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
	"group-service/internal/telemetry"
)

// ContentService is the post, like, favorite and comment engine as seen by the HTTP layer.
type ContentService interface {
	CreatePost(ctx context.Context, groupID, authorID string, in models.PostInput) (models.Post, error)
	GetPost(ctx context.Context, postID string) (models.Post, error)
	ListPosts(ctx context.Context, groupID string, limit int) ([]models.Post, error)
	DeletePost(ctx context.Context, postID, actorID string) error
	ToggleLike(ctx context.Context, postID, userID string) (models.Post, bool, error)
	ToggleFavorite(ctx context.Context, kind models.ParentKind, parentID, userID string) (bool, error)
	AddComment(ctx context.Context, kind models.ParentKind, parentID, authorID string, in models.CommentInput) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID, actorID string) error
	ListComments(ctx context.Context, kind models.ParentKind, parentID string) ([]models.Comment, error)
}

// ContentHandler manages posts and the interactions shared by posts and proposals.
type ContentHandler struct {
	auditor
	content ContentService
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(content ContentService, audit *telemetry.AuditEmitter) *ContentHandler {
	return &ContentHandler{auditor: auditor{audit: audit}, content: content}
}

func parentID(c *gin.Context, kind models.ParentKind) string {
	if kind == models.ParentProposal {
		return c.Param("proposal_id")
	}
	return c.Param("post_id")
}

// CreatePost handles POST /groups/:group_id/posts.
func (h *ContentHandler) CreatePost(c *gin.Context) {
	var in models.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		badRequest(c, err)
		return
	}
	if in.AuthorName == "" {
		in.AuthorName = profileFromContext(c).DisplayName
	}

	post, err := h.content.CreatePost(c.Request.Context(), c.Param("group_id"), currentUser(c), in)
	if err != nil {
		h.failAudit(c, err, "create post failed")
		return
	}
	respond(c, http.StatusCreated, post)
}

// ListPosts handles GET /groups/:group_id/posts?limit=N.
func (h *ContentHandler) ListPosts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, models.ErrInvalidInput)
			return
		}
		limit = n
	}

	posts, err := h.content.ListPosts(c.Request.Context(), c.Param("group_id"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, posts)
}

// GetPost handles GET /posts/:post_id.
func (h *ContentHandler) GetPost(c *gin.Context) {
	post, err := h.content.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, post)
}

// DeletePost handles DELETE /posts/:post_id.
func (h *ContentHandler) DeletePost(c *gin.Context) {
	if err := h.content.DeletePost(c.Request.Context(), c.Param("post_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "delete post failed")
		return
	}
	h.emitAudit(c, "INFO", "Post deleted")
	respond(c, http.StatusOK, nil)
}

// ToggleLike handles POST /posts/:post_id/like.
func (h *ContentHandler) ToggleLike(c *gin.Context) {
	post, liked, err := h.content.ToggleLike(c.Request.Context(), c.Param("post_id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"liked": liked, "likeCount": post.LikeCount})
}

// ToggleFavorite handles POST /posts/:post_id/favorite and POST /proposals/:proposal_id/favorite.
func (h *ContentHandler) ToggleFavorite(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		favorited, err := h.content.ToggleFavorite(c.Request.Context(), kind, parentID(c, kind), currentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"favorited": favorited})
	}
}

// AddComment handles POST /posts/:post_id/comments and POST /proposals/:proposal_id/comments.
func (h *ContentHandler) AddComment(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.CommentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err)
			return
		}
		if in.AuthorName == "" {
			in.AuthorName = profileFromContext(c).DisplayName
		}

		comment, err := h.content.AddComment(c.Request.Context(), kind, parentID(c, kind), currentUser(c), in)
		if err != nil {
			h.failAudit(c, err, "add comment failed")
			return
		}
		respond(c, http.StatusCreated, comment)
	}
}

// ListComments handles GET /posts/:post_id/comments and GET /proposals/:proposal_id/comments.
func (h *ContentHandler) ListComments(kind models.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := h.content.ListComments(c.Request.Context(), kind, parentID(c, kind))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, comments)
	}
}

// DeleteComment handles DELETE /comments/:comment_id.
func (h *ContentHandler) DeleteComment(c *gin.Context) {
	if err := h.content.DeleteComment(c.Request.Context(), c.Param("comment_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "delete comment failed")
		return
	}
	h.emitAudit(c, "INFO", "Comment deleted")
	respond(c, http.StatusOK, nil)
}
