package repositories

import (
	"context"

	"group-service/internal/models"
	"group-service/internal/store"
)

// ContentRepository defines reads for posts, proposals and their comments.
type ContentRepository interface {
	GetPost(ctx context.Context, postID string) (models.Post, error)
	ListPosts(ctx context.Context, groupID string, limit int) ([]models.Post, error)
	GetProposal(ctx context.Context, proposalID string) (models.EventProposal, error)
	ListProposals(ctx context.Context, groupID string) ([]models.EventProposal, error)
	GetComment(ctx context.Context, commentID string) (models.Comment, error)
	ListComments(ctx context.Context, kind models.ParentKind, parentID string) ([]models.Comment, error)
	ListGroupComments(ctx context.Context, groupID string) ([]models.Comment, error)
}

// ContentRepo is a store-backed ContentRepository.
type ContentRepo struct {
	st store.Store
}

// NewContentRepo constructs a ContentRepo.
func NewContentRepo(st store.Store) *ContentRepo {
	return &ContentRepo{st: st}
}

// ParentCollection returns the collection holding content of kind.
func ParentCollection(kind models.ParentKind) string {
	if kind == models.ParentProposal {
		return ProposalsCollection
	}
	return PostsCollection
}

// GetPost fetches a single post.
func (r *ContentRepo) GetPost(ctx context.Context, postID string) (models.Post, error) {
	return getOne[models.Post](ctx, r.st, PostsCollection, postID)
}

// ListPosts returns the group's posts, newest first.
func (r *ContentRepo) ListPosts(ctx context.Context, groupID string, limit int) ([]models.Post, error) {
	return queryAll[models.Post](ctx, r.st, store.Query{
		Collection: PostsCollection,
		Filters:    []store.Filter{store.Where("groupId", store.OpEqual, groupID)},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      limit,
	})
}

// GetProposal fetches a single proposal.
func (r *ContentRepo) GetProposal(ctx context.Context, proposalID string) (models.EventProposal, error) {
	return getOne[models.EventProposal](ctx, r.st, ProposalsCollection, proposalID)
}

// ListProposals returns the group's proposals, newest first.
func (r *ContentRepo) ListProposals(ctx context.Context, groupID string) ([]models.EventProposal, error) {
	return queryAll[models.EventProposal](ctx, r.st, store.Query{
		Collection: ProposalsCollection,
		Filters:    []store.Filter{store.Where("groupId", store.OpEqual, groupID)},
		OrderBy:    "createdAt",
		Descending: true,
	})
}

// GetComment fetches a single comment.
func (r *ContentRepo) GetComment(ctx context.Context, commentID string) (models.Comment, error) {
	return getOne[models.Comment](ctx, r.st, CommentsCollection, commentID)
}

// ListComments returns a parent's comments in creation order.
func (r *ContentRepo) ListComments(ctx context.Context, kind models.ParentKind, parentID string) ([]models.Comment, error) {
	return queryAll[models.Comment](ctx, r.st, store.Query{
		Collection: CommentsCollection,
		Filters: []store.Filter{
			store.Where("parentKind", store.OpEqual, string(kind)),
			store.Where("parentId", store.OpEqual, parentID),
		},
		OrderBy: "createdAt",
	})
}

// ListGroupComments returns every comment under any of the group's content.
func (r *ContentRepo) ListGroupComments(ctx context.Context, groupID string) ([]models.Comment, error) {
	return queryAll[models.Comment](ctx, r.st, store.Query{
		Collection: CommentsCollection,
		Filters:    []store.Filter{store.Where("groupId", store.OpEqual, groupID)},
	})
}
