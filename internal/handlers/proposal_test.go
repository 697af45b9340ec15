package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"group-service/internal/mocks"
	"group-service/internal/models"
)

func setupProposalRouter(svc *mocks.ProposalServiceMock) http.Handler {
	return setupRouter(NewGroupHandler(new(mocks.MembershipServiceMock), nil), NewProposalHandler(svc, nil),
		NewContentHandler(new(mocks.ContentServiceMock), nil), NewNotificationHandler(new(mocks.InboxServiceMock)))
}

func TestCreateProposalFillsAuthorName(t *testing.T) {
	svc := new(mocks.ProposalServiceMock)
	router := setupProposalRouter(svc)

	svc.On("Create", mock.Anything, "g1", "u1", mock.MatchedBy(func(in models.ProposalInput) bool {
		return in.Title == "Picnic" && in.AuthorName == "Ann"
	})).Return(models.EventProposal{ID: "p1", Title: "Picnic"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/groups/g1/proposals", bytes.NewBufferString(`{"title":"Picnic"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestVoteSuccess(t *testing.T) {
	svc := new(mocks.ProposalServiceMock)
	router := setupProposalRouter(svc)

	svc.On("Vote", mock.Anything, "p1", "u1", models.VoteNo).
		Return(models.EventProposal{ID: "p1", NoCount: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/proposals/p1/votes", bytes.NewBufferString(`{"choice":"no"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestVoteOnClosedProposal(t *testing.T) {
	svc := new(mocks.ProposalServiceMock)
	router := setupProposalRouter(svc)

	svc.On("Vote", mock.Anything, "p1", "u1", models.VoteYes).Return(nil, models.ErrAlreadyInTerminalState).Once()

	req := httptest.NewRequest(http.MethodPost, "/proposals/p1/votes", bytes.NewBufferString(`{"choice":"yes"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "AlreadyInTerminalState", decodeResult(t, rec).ErrorKind)
}

func TestSetStatusMissingBody(t *testing.T) {
	router := setupProposalRouter(new(mocks.ProposalServiceMock))

	req := httptest.NewRequest(http.MethodPost, "/proposals/p1/status", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatusConfirm(t *testing.T) {
	svc := new(mocks.ProposalServiceMock)
	router := setupProposalRouter(svc)

	svc.On("SetStatus", mock.Anything, "p1", "u1", models.ProposalConfirmed).
		Return(models.EventProposal{ID: "p1", Status: models.ProposalConfirmed}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/proposals/p1/status", bytes.NewBufferString(`{"status":"confirmed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
