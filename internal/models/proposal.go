package models

import (
	"slices"
	"time"
)

// ProposalStatus is a state of the proposal lifecycle.
type ProposalStatus string

const (
	ProposalActive    ProposalStatus = "active"
	ProposalConfirmed ProposalStatus = "confirmed"
	ProposalCancelled ProposalStatus = "cancelled"
	ProposalExpired   ProposalStatus = "expired"
	ProposalCompleted ProposalStatus = "completed"
)

// Terminal reports whether no transition out of s is permitted.
func (s ProposalStatus) Terminal() bool {
	return s != ProposalActive
}

// Valid reports whether s is a known status.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalActive, ProposalConfirmed, ProposalCancelled, ProposalExpired, ProposalCompleted:
		return true
	}
	return false
}

// VoteChoice is a yes/no vote.
type VoteChoice string

const (
	VoteYes VoteChoice = "yes"
	VoteNo  VoteChoice = "no"
)

// Valid reports whether c is yes or no.
func (c VoteChoice) Valid() bool {
	return c == VoteYes || c == VoteNo
}

// Votes holds the two mutually exclusive voter sets.
type Votes struct {
	Yes []string `json:"yes"`
	No  []string `json:"no"`
}

// ChoiceOf returns the user's current vote, or "" when they have not voted.
func (v Votes) ChoiceOf(userID string) VoteChoice {
	switch {
	case slices.Contains(v.Yes, userID):
		return VoteYes
	case slices.Contains(v.No, userID):
		return VoteNo
	default:
		return ""
	}
}

// EventProposal is a suggested meetup members vote on.
type EventProposal struct {
	ID            string         `json:"id"`
	GroupID       string         `json:"groupId"`
	AuthorID      string         `json:"authorId"`
	AuthorName    string         `json:"authorName,omitempty"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Location      string         `json:"location,omitempty"`
	EventDateTime *time.Time     `json:"eventDateTime,omitempty"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
	Votes         Votes          `json:"votes"`
	YesCount      int            `json:"yesCount"`
	NoCount       int            `json:"noCount"`
	Status        ProposalStatus `json:"status"`
	StatusBy      string         `json:"statusBy,omitempty"`
	Favorites     []string       `json:"favorites"`
	CommentCount  int            `json:"commentCount"`
	PhotoCount    int            `json:"photoCount"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ProposalInput is the payload for proposing an event.
type ProposalInput struct {
	Title         string     `json:"title" validate:"required,max=120"`
	Description   string     `json:"description" validate:"max=4000"`
	Location      string     `json:"location" validate:"max=200"`
	EventDateTime *time.Time `json:"eventDateTime"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	AuthorName    string     `json:"authorName"`
}
