package handlers

import (
	"github.com/gin-gonic/gin"

	"group-service/internal/models"
)

// RegisterRoutes mounts every API endpoint on r. Callers attach auth before this.
func RegisterRoutes(r gin.IRouter, groups *GroupHandler, proposals *ProposalHandler, content *ContentHandler, inbox *NotificationHandler) {
	r.POST("/groups", groups.CreateGroup)
	r.GET("/groups", groups.ListGroups)
	r.GET("/groups/:group_id", groups.GetGroup)
	r.PATCH("/groups/:group_id", groups.UpdateGroup)
	r.DELETE("/groups/:group_id", groups.DeleteGroup)
	r.GET("/groups/:group_id/members", groups.ListMembers)
	r.DELETE("/groups/:group_id/members/:user_id", groups.RemoveMember)
	r.POST("/groups/:group_id/join", groups.Join)
	r.DELETE("/groups/:group_id/join", groups.CancelJoin)
	r.POST("/groups/:group_id/leave", groups.Leave)
	r.GET("/groups/:group_id/requests", groups.ListRequests)
	r.POST("/groups/:group_id/requests/:request_id/approve", groups.ApproveRequest)
	r.POST("/groups/:group_id/requests/:request_id/reject", groups.RejectRequest)
	r.POST("/groups/:group_id/organizers", groups.Promote)
	r.DELETE("/groups/:group_id/organizers/:user_id", groups.Demote)
	r.POST("/groups/:group_id/transfer", groups.TransferAdmin)
	r.POST("/groups/:group_id/invites", groups.Invite)
	r.POST("/groups/:group_id/chat-room", groups.EnsureChatRoom)
	r.GET("/invites", groups.ListInvites)
	r.POST("/invites/:invite_id/accept", groups.AcceptInvite)
	r.POST("/invites/:invite_id/decline", groups.DeclineInvite)

	r.POST("/groups/:group_id/proposals", proposals.Create)
	r.GET("/groups/:group_id/proposals", proposals.List)
	r.GET("/proposals/:proposal_id", proposals.Get)
	r.DELETE("/proposals/:proposal_id", proposals.Delete)
	r.POST("/proposals/:proposal_id/votes", proposals.Vote)
	r.DELETE("/proposals/:proposal_id/votes", proposals.RetractVote)
	r.POST("/proposals/:proposal_id/status", proposals.SetStatus)
	r.POST("/proposals/:proposal_id/favorite", content.ToggleFavorite(models.ParentProposal))
	r.POST("/proposals/:proposal_id/comments", content.AddComment(models.ParentProposal))
	r.GET("/proposals/:proposal_id/comments", content.ListComments(models.ParentProposal))

	r.POST("/groups/:group_id/posts", content.CreatePost)
	r.GET("/groups/:group_id/posts", content.ListPosts)
	r.GET("/posts/:post_id", content.GetPost)
	r.DELETE("/posts/:post_id", content.DeletePost)
	r.POST("/posts/:post_id/like", content.ToggleLike)
	r.POST("/posts/:post_id/favorite", content.ToggleFavorite(models.ParentPost))
	r.POST("/posts/:post_id/comments", content.AddComment(models.ParentPost))
	r.GET("/posts/:post_id/comments", content.ListComments(models.ParentPost))
	r.DELETE("/comments/:comment_id", content.DeleteComment)

	r.GET("/notifications", inbox.List)
	r.POST("/notifications/:notification_id/read", inbox.MarkRead)
	r.GET("/me/preferences", inbox.GetPreferences)
	r.PUT("/me/preferences", inbox.SavePreferences)
}
