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

func setupInboxRouter(svc *mocks.InboxServiceMock) http.Handler {
	return setupRouter(NewGroupHandler(new(mocks.MembershipServiceMock), nil), NewProposalHandler(new(mocks.ProposalServiceMock), nil),
		NewContentHandler(new(mocks.ContentServiceMock), nil), NewNotificationHandler(svc))
}

func TestListNotifications(t *testing.T) {
	svc := new(mocks.InboxServiceMock)
	router := setupInboxRouter(svc)

	svc.On("ListNotifications", mock.Anything, "u1", 20).Return([]models.Notification{{ID: "n1", UserID: "u1"}}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?limit=20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestMarkReadForeignNotification(t *testing.T) {
	svc := new(mocks.InboxServiceMock)
	router := setupInboxRouter(svc)

	svc.On("MarkRead", mock.Anything, "n1", "u1").Return(models.ErrUnauthorized).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/n1/read", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSavePreferencesOverridesUserID(t *testing.T) {
	svc := new(mocks.InboxServiceMock)
	router := setupInboxRouter(svc)

	svc.On("SavePreferences", mock.Anything, mock.MatchedBy(func(p models.Preferences) bool {
		return p.UserID == "u1" && len(p.PushTokens) == 1 && p.PushTokens[0] == "tok"
	})).Return(nil).Once()

	body := bytes.NewBufferString(`{"id":"someone-else","pushTokens":["tok"],"notificationSettings":{"events":false}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/me/preferences", body))

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
