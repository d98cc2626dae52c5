package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/models"
)

func newConnectionsMux(conns *mockConnectionService, recs *mockRecommendationService) *http.ServeMux {
	mux := http.NewServeMux()
	NewConnectionsHandler(conns, recs, zap.NewNop()).RegisterRoutes(mux, newTestAuthMiddleware())
	return mux
}

func decodeBodyMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestConnectionsHandler_Send(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		sendErr     error
		wantStatus  int
		wantMessage string
	}{
		{name: "created", path: "/connections/send/2", wantStatus: http.StatusCreated, wantMessage: "Connection request sent successfully"},
		{name: "self", path: "/connections/send/1", sendErr: apperrors.ErrSelfReference, wantStatus: http.StatusBadRequest, wantMessage: "You cannot send a connection request to yourself"},
		{name: "duplicate", path: "/connections/send/2", sendErr: apperrors.ErrAlreadyExists, wantStatus: http.StatusBadRequest, wantMessage: "Connection request already sent"},
		{name: "unknown user", path: "/connections/send/99", sendErr: apperrors.ErrUserNotFound, wantStatus: http.StatusNotFound, wantMessage: "User not found"},
		{name: "internal", path: "/connections/send/2", sendErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantMessage: "Failed to send connection request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conns := &mockConnectionService{conn: &models.Connection{ID: 5}, sendErr: tt.sendErr}
			mux := newConnectionsMux(conns, &mockRecommendationService{})

			req := authedRequest(httptest.NewRequest(http.MethodPost, tt.path, nil), 1)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeBodyMap(t, rec)["message"])
			assert.Equal(t, int64(1), conns.capturedCaller)
		})
	}
}

func TestConnectionsHandler_Send_MalformedID(t *testing.T) {
	conns := &mockConnectionService{}
	mux := newConnectionsMux(conns, &mockRecommendationService{})

	for _, path := range []string{"/connections/send/abc", "/connections/send/0", "/connections/send/-3"} {
		req := authedRequest(httptest.NewRequest(http.MethodPost, path, nil), 1)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "invalid_user_id", decodeBodyMap(t, rec)["error"], path)
	}
	assert.Zero(t, conns.capturedCaller, "service must not be called")
}

func TestConnectionsHandler_RequiresAuth(t *testing.T) {
	mux := newConnectionsMux(&mockConnectionService{}, &mockRecommendationService{})

	routes := []struct{ method, path string }{
		{http.MethodPost, "/connections/send/2"},
		{http.MethodGet, "/connections/incoming"},
		{http.MethodPut, "/connections/accept/1"},
		{http.MethodPut, "/connections/decline/1"},
		{http.MethodGet, "/connections/recommend"},
		{http.MethodGet, "/connections/status/2"},
		{http.MethodGet, "/connections/mutual/2"},
	}

	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
		assert.Equal(t, "unauthorized", decodeBodyMap(t, rec)["error"], route.path)
	}
}

func TestConnectionsHandler_TrailingSlashNotRouted(t *testing.T) {
	conns := &mockConnectionService{}
	mux := newConnectionsMux(conns, &mockRecommendationService{})

	for _, path := range []string{"/connections/send/2/", "/connections/incoming/", "/connections/mutual/2/"} {
		method := http.MethodGet
		if path == "/connections/send/2/" {
			method = http.MethodPost
		}
		req := authedRequest(httptest.NewRequest(method, path, nil), 1)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Zero(t, conns.capturedCaller)
}

func TestConnectionsHandler_ListIncoming(t *testing.T) {
	conns := &mockConnectionService{incoming: []*models.Connection{
		{ID: 7, FromUserID: 3, ToUserID: 1, Status: models.ConnectionStatusPending},
	}}
	mux := newConnectionsMux(conns, &mockRecommendationService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/incoming", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":7,"from_user":3,"to_user":1,"status":"pending"}]`, rec.Body.String())
}

func TestConnectionsHandler_ListIncoming_Empty(t *testing.T) {
	mux := newConnectionsMux(&mockConnectionService{}, &mockRecommendationService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/incoming", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestConnectionsHandler_AcceptDecline(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "accept", path: "/connections/accept/7", wantStatus: http.StatusOK, wantMessage: "Connection request accepted successfully"},
		{name: "decline", path: "/connections/decline/7", wantStatus: http.StatusOK, wantMessage: "Connection request declined successfully"},
		{name: "accept not found", path: "/connections/accept/7", err: apperrors.ErrNotFound, wantStatus: http.StatusNotFound, wantMessage: "Connection request not found"},
		{name: "decline not found", path: "/connections/decline/7", err: apperrors.ErrNotFound, wantStatus: http.StatusNotFound, wantMessage: "Connection request not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conns := &mockConnectionService{
				conn:       &models.Connection{ID: 7},
				acceptErr:  tt.err,
				declineErr: tt.err,
			}
			mux := newConnectionsMux(conns, &mockRecommendationService{})

			req := authedRequest(httptest.NewRequest(http.MethodPut, tt.path, nil), 2)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeBodyMap(t, rec)["message"])
			assert.Equal(t, int64(2), conns.capturedCaller)
			assert.Equal(t, int64(7), conns.capturedTarget)
		})
	}
}

func TestConnectionsHandler_Accept_WrongMethod(t *testing.T) {
	mux := newConnectionsMux(&mockConnectionService{}, &mockRecommendationService{})

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/connections/accept/7", nil), 2)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConnectionsHandler_Recommend(t *testing.T) {
	recs := &mockRecommendationService{users: []*models.User{
		{ID: 4, Username: "dave", Email: "dave@example.com", PasswordHash: "secret"},
	}}
	mux := newConnectionsMux(&mockConnectionService{}, recs)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/recommend?limit=5", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":4,"username":"dave","email":"dave@example.com"}]`, rec.Body.String())
	assert.Equal(t, int64(1), recs.capturedCaller)
	assert.Equal(t, 5, recs.capturedLimit)
}

func TestConnectionsHandler_Recommend_Empty(t *testing.T) {
	mux := newConnectionsMux(&mockConnectionService{}, &mockRecommendationService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/recommend", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestConnectionsHandler_Recommend_BadLimit(t *testing.T) {
	recs := &mockRecommendationService{}
	mux := newConnectionsMux(&mockConnectionService{}, recs)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/recommend?limit=-1", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, recs.capturedCaller)
}

func TestConnectionsHandler_Status(t *testing.T) {
	conns := &mockConnectionService{conn: &models.Connection{ID: 9, FromUserID: 1, ToUserID: 2, Status: models.ConnectionStatusAccepted}}
	mux := newConnectionsMux(conns, &mockRecommendationService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/status/2", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"from_user":1,"to_user":2,"status":"accepted"}`, rec.Body.String())

	conns.getErr = apperrors.ErrNotFound
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(httptest.NewRequest(http.MethodGet, "/connections/status/2", nil), 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConnectionsHandler_Mutual(t *testing.T) {
	conns := &mockConnectionService{mutual: 3}
	mux := newConnectionsMux(conns, &mockRecommendationService{})

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/connections/mutual/4", nil), 1)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":4,"mutual_count":3}`, rec.Body.String())

	conns.mutualErr = apperrors.ErrUserNotFound
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(httptest.NewRequest(http.MethodGet, "/connections/mutual/4", nil), 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
