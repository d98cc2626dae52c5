package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/auth"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/services"
	"github.com/weavenet/weave-api/pkg/testhelpers"
)

// newTestAuthMiddleware validates tokens produced by testhelpers.GenerateTestJWT.
func newTestAuthMiddleware() *auth.Middleware {
	tokens := auth.NewTokenManager(testhelpers.TestJWTSecret, "", time.Hour)
	return auth.NewMiddleware(auth.NewAuthService(tokens, zap.NewNop()), zap.NewNop())
}

// authedRequest sets a bearer token for userID on req.
func authedRequest(req *http.Request, userID int64) *http.Request {
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(testhelpers.TestJWTSecret, userID))
	return req
}

type mockConnectionService struct {
	conn     *models.Connection
	incoming []*models.Connection
	mutual   int

	sendErr    error
	acceptErr  error
	declineErr error
	listErr    error
	getErr     error
	mutualErr  error

	capturedCaller int64
	capturedTarget int64
}

var _ services.ConnectionService = (*mockConnectionService)(nil)

func (m *mockConnectionService) SendRequest(ctx context.Context, callerID, targetID int64) (*models.Connection, error) {
	m.capturedCaller, m.capturedTarget = callerID, targetID
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return m.conn, nil
}

func (m *mockConnectionService) AcceptRequest(ctx context.Context, callerID, connectionID int64) (*models.Connection, error) {
	m.capturedCaller, m.capturedTarget = callerID, connectionID
	if m.acceptErr != nil {
		return nil, m.acceptErr
	}
	return m.conn, nil
}

func (m *mockConnectionService) DeclineRequest(ctx context.Context, callerID, connectionID int64) (*models.Connection, error) {
	m.capturedCaller, m.capturedTarget = callerID, connectionID
	if m.declineErr != nil {
		return nil, m.declineErr
	}
	return m.conn, nil
}

func (m *mockConnectionService) ListIncoming(ctx context.Context, callerID int64) ([]*models.Connection, error) {
	m.capturedCaller = callerID
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.incoming == nil {
		return []*models.Connection{}, nil
	}
	return m.incoming, nil
}

func (m *mockConnectionService) GetConnection(ctx context.Context, callerID, otherID int64) (*models.Connection, error) {
	m.capturedCaller, m.capturedTarget = callerID, otherID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.conn, nil
}

func (m *mockConnectionService) MutualCount(ctx context.Context, callerID, otherID int64) (int, error) {
	m.capturedCaller, m.capturedTarget = callerID, otherID
	return m.mutual, m.mutualErr
}

type mockRecommendationService struct {
	users []*models.User
	err   error

	capturedCaller int64
	capturedLimit  int
}

func (m *mockRecommendationService) Recommend(ctx context.Context, callerID int64, limit int) ([]*models.User, error) {
	m.capturedCaller, m.capturedLimit = callerID, limit
	if m.err != nil {
		return nil, m.err
	}
	if m.users == nil {
		return []*models.User{}, nil
	}
	return m.users, nil
}

type mockAccountService struct {
	user     *models.User
	token    string
	err      error
	captured any
}

func (m *mockAccountService) Register(ctx context.Context, input services.RegisterInput) (*models.User, string, error) {
	m.captured = input
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAccountService) Login(ctx context.Context, input services.LoginInput) (*models.User, string, error) {
	m.captured = input
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

type mockProfileService struct {
	profile        *models.Profile
	err            error
	capturedUserID int64
	capturedInput  services.ProfileInput
}

func (m *mockProfileService) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	m.capturedUserID = userID
	return m.profile, m.err
}

func (m *mockProfileService) Update(ctx context.Context, userID int64, input services.ProfileInput) (*models.Profile, error) {
	m.capturedUserID = userID
	m.capturedInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

type mockPostService struct {
	post  *models.Post
	posts []*models.Post

	createErr error
	listErr   error
	likeErr   error
	unlikeErr error

	capturedUserID int64
	capturedPostID int64
}

func (m *mockPostService) Create(ctx context.Context, userID int64, input services.PostInput) (*models.Post, error) {
	m.capturedUserID = userID
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.post, nil
}

func (m *mockPostService) List(ctx context.Context) ([]*models.Post, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.posts, nil
}

func (m *mockPostService) Like(ctx context.Context, userID, postID int64) error {
	m.capturedUserID, m.capturedPostID = userID, postID
	return m.likeErr
}

func (m *mockPostService) Unlike(ctx context.Context, userID, postID int64) error {
	m.capturedUserID, m.capturedPostID = userID, postID
	return m.unlikeErr
}
