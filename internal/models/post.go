package models

import "time"

// ParentKind names the kind of content a comment or favorite targets.
type ParentKind string

const (
	ParentPost     ParentKind = "post"
	ParentProposal ParentKind = "proposal"
)

// Valid reports whether k is a known parent kind.
func (k ParentKind) Valid() bool {
	return k == ParentPost || k == ParentProposal
}

// Post is a status update shared with a group.
type Post struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"groupId"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName,omitempty"`
	Content      string    `json:"content"`
	ImageURLs    []string  `json:"imageUrls,omitempty"`
	Likes        []string  `json:"likes"`
	LikeCount    int       `json:"likeCount"`
	Favorites    []string  `json:"favorites"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PostInput is the payload for creating a post.
type PostInput struct {
	Content    string   `json:"content" validate:"required,max=5000"`
	ImageURLs  []string `json:"imageUrls" validate:"max=10,dive,url"`
	AuthorName string   `json:"authorName"`
}

// Comment belongs to exactly one post or proposal.
type Comment struct {
	ID         string     `json:"id"`
	GroupID    string     `json:"groupId"`
	ParentKind ParentKind `json:"parentKind"`
	ParentID   string     `json:"parentId"`
	AuthorID   string     `json:"authorId"`
	AuthorName string     `json:"authorName,omitempty"`
	Text       string     `json:"text"`
	PhotoURL   string     `json:"photoUrl,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CommentInput is the payload for adding a comment.
type CommentInput struct {
	Text       string `json:"text" validate:"required_without=PhotoURL,max=2000"`
	PhotoURL   string `json:"photoUrl" validate:"omitempty,url"`
	AuthorName string `json:"authorName"`
}
