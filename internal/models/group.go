package models

import (
	"slices"
	"time"
)

// Visibility controls who can discover a group.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityHidden  Visibility = "hidden"
)

// Role is a user's standing within a group.
type Role string

const (
	RoleNone      Role = ""
	RoleMember    Role = "member"
	RoleOrganizer Role = "organizer"
	RoleCreator   Role = "creator"
)

// IsMember reports whether the role belongs to any member of the group.
func (r Role) IsMember() bool {
	return r == RoleMember || r == RoleOrganizer || r == RoleCreator
}

// CanModerate reports whether the role may approve requests, remove members and delete content.
func (r Role) CanModerate() bool {
	return r == RoleOrganizer || r == RoleCreator
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Group is a community of users.
type Group struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	CreatorID        string     `json:"creatorId"`
	Organizers       []string   `json:"organizers"`
	Members          []string   `json:"members"`
	MemberCount      int        `json:"memberCount"`
	IsPrivate        bool       `json:"isPrivate"`
	RequiresApproval bool       `json:"requiresApproval"`
	Visibility       Visibility `json:"visibility"`
	Tags             []string   `json:"tags"`
	Location         string     `json:"location,omitempty"`
	Coordinates      *GeoPoint  `json:"coordinates,omitempty"`
	Radius           float64    `json:"radius,omitempty"`
	PendingRequests  []string   `json:"pendingRequests"`
	// Revision counts records created under the group. Cascading deletes are guarded on it.
	Revision   int       `json:"revision"`
	ChatRoomID string    `json:"chatRoomId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasMember reports whether userID is in the members set.
func (g Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// HasOrganizer reports whether userID is in the organizers set.
func (g Group) HasOrganizer(userID string) bool {
	return slices.Contains(g.Organizers, userID)
}

// RoleOf derives the role of userID from the group aggregate.
func (g Group) RoleOf(userID string) Role {
	switch {
	case userID == "":
		return RoleNone
	case g.CreatorID == userID:
		return RoleCreator
	case g.HasOrganizer(userID):
		return RoleOrganizer
	case g.HasMember(userID):
		return RoleMember
	default:
		return RoleNone
	}
}

// Member associates one user with one group.
type Member struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	UserID      string    `json:"userId"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// MemberID returns the association id for (userID, groupID).
func MemberID(userID, groupID string) string {
	return userID + "_" + groupID
}

// Profile carries the public details of a user taking a membership action.
type Profile struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// RequestStatus is the state of a join request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// JoinRequest is a pending or resolved request to join an approval-gated group.
type JoinRequest struct {
	ID          string        `json:"id"`
	GroupID     string        `json:"groupId"`
	UserID      string        `json:"userId"`
	DisplayName string        `json:"displayName,omitempty"`
	PhotoURL    string        `json:"photoUrl,omitempty"`
	Status      RequestStatus `json:"status"`
	ResolvedBy  string        `json:"resolvedBy,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	ResolvedAt  *time.Time    `json:"resolvedAt,omitempty"`
}

// InviteStatus is the state of an invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// Invite offers membership to a specific user.
type Invite struct {
	ID            string       `json:"id"`
	GroupID       string       `json:"groupId"`
	GroupName     string       `json:"groupName"`
	InvitedUserID string       `json:"invitedUserId"`
	InvitedBy     string       `json:"invitedBy"`
	Status        InviteStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	RespondedAt   *time.Time   `json:"respondedAt,omitempty"`
}

// JoinStatus is the outcome of a join attempt.
type JoinStatus string

const (
	JoinJoined  JoinStatus = "joined"
	JoinPending JoinStatus = "pending"
)

// JoinOutcome reports what a join attempt did.
type JoinOutcome struct {
	Status  JoinStatus   `json:"status"`
	Group   Group        `json:"group"`
	Request *JoinRequest `json:"request,omitempty"`
}

// GroupInput is the payload for creating a group.
type GroupInput struct {
	Name             string     `json:"name" validate:"required,max=80"`
	Description      string     `json:"description" validate:"max=2000"`
	Category         string     `json:"category" validate:"max=40"`
	IsPrivate        bool       `json:"isPrivate"`
	RequiresApproval bool       `json:"requiresApproval"`
	Visibility       Visibility `json:"visibility" validate:"omitempty,oneof=public private hidden"`
	Tags             []string   `json:"tags" validate:"max=20,dive,max=30"`
	Location         string     `json:"location"`
	Coordinates      *GeoPoint  `json:"coordinates"`
	Radius           float64    `json:"radius" validate:"gte=0"`
}

// GroupSettings is a partial update of a group's settings; nil fields are left unchanged.
type GroupSettings struct {
	Name             *string     `json:"name" validate:"omitempty,min=1,max=80"`
	Description      *string     `json:"description" validate:"omitempty,max=2000"`
	Category         *string     `json:"category" validate:"omitempty,max=40"`
	IsPrivate        *bool       `json:"isPrivate"`
	RequiresApproval *bool       `json:"requiresApproval"`
	Visibility       *Visibility `json:"visibility" validate:"omitempty,oneof=public private hidden"`
	Tags             []string    `json:"tags" validate:"omitempty,max=20,dive,max=30"`
	Location         *string     `json:"location"`
	Coordinates      *GeoPoint   `json:"coordinates"`
	Radius           *float64    `json:"radius" validate:"omitempty,gte=0"`
}

// ChatRoom is the single chat room attached to a group.
type ChatRoom struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
