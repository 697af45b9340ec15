package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
	"group-service/internal/telemetry"
)

// ProposalService is the proposal voting engine as seen by the HTTP layer.
type ProposalService interface {
	Create(ctx context.Context, groupID, authorID string, in models.ProposalInput) (models.EventProposal, error)
	Get(ctx context.Context, proposalID string) (models.EventProposal, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.EventProposal, error)
	Vote(ctx context.Context, proposalID, userID string, choice models.VoteChoice) (models.EventProposal, error)
	RetractVote(ctx context.Context, proposalID, userID string) (models.EventProposal, error)
	SetStatus(ctx context.Context, proposalID, actorID string, status models.ProposalStatus) (models.EventProposal, error)
	Delete(ctx context.Context, proposalID, actorID string) error
}

// ProposalHandler manages event proposal endpoints.
type ProposalHandler struct {
	auditor
	proposals ProposalService
}

// NewProposalHandler constructs a ProposalHandler.
func NewProposalHandler(proposals ProposalService, audit *telemetry.AuditEmitter) *ProposalHandler {
	return &ProposalHandler{auditor: auditor{audit: audit}, proposals: proposals}
}

// Create handles POST /groups/:group_id/proposals.
func (h *ProposalHandler) Create(c *gin.Context) {
	var in models.ProposalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		badRequest(c, err)
		return
	}
	if in.AuthorName == "" {
		in.AuthorName = profileFromContext(c).DisplayName
	}

	p, err := h.proposals.Create(c.Request.Context(), c.Param("group_id"), currentUser(c), in)
	if err != nil {
		h.failAudit(c, err, "create proposal failed")
		return
	}
	h.emitAudit(c, "INFO", "Proposal created")
	respond(c, http.StatusCreated, p)
}

// List handles GET /groups/:group_id/proposals.
func (h *ProposalHandler) List(c *gin.Context) {
	ps, err := h.proposals.ListByGroup(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, ps)
}

// Get handles GET /proposals/:proposal_id.
func (h *ProposalHandler) Get(c *gin.Context) {
	p, err := h.proposals.Get(c.Request.Context(), c.Param("proposal_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// Vote handles POST /proposals/:proposal_id/votes.
func (h *ProposalHandler) Vote(c *gin.Context) {
	var req struct {
		Choice models.VoteChoice `json:"choice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.proposals.Vote(c.Request.Context(), c.Param("proposal_id"), currentUser(c), req.Choice)
	if err != nil {
		h.failAudit(c, err, "vote failed")
		return
	}
	respond(c, http.StatusOK, p)
}

// RetractVote handles DELETE /proposals/:proposal_id/votes.
func (h *ProposalHandler) RetractVote(c *gin.Context) {
	p, err := h.proposals.RetractVote(c.Request.Context(), c.Param("proposal_id"), currentUser(c))
	if err != nil {
		h.failAudit(c, err, "retract vote failed")
		return
	}
	respond(c, http.StatusOK, p)
}

// SetStatus handles POST /proposals/:proposal_id/status.
func (h *ProposalHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status models.ProposalStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.proposals.SetStatus(c.Request.Context(), c.Param("proposal_id"), currentUser(c), req.Status)
	if err != nil {
		h.failAudit(c, err, "proposal status change failed")
		return
	}
	h.emitAudit(c, "INFO", "Proposal "+string(p.Status))
	respond(c, http.StatusOK, p)
}

// Delete handles DELETE /proposals/:proposal_id.
func (h *ProposalHandler) Delete(c *gin.Context) {
	if err := h.proposals.Delete(c.Request.Context(), c.Param("proposal_id"), currentUser(c)); err != nil {
		h.failAudit(c, err, "delete proposal failed")
		return
	}
	h.emitAudit(c, "INFO", "Proposal deleted")
	respond(c, http.StatusOK, nil)
}
