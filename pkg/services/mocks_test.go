package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/models"
)

// fakeUserRepository is an in-memory UserRepository.
type fakeUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64

	existsErr error
	getErr    error
}

func newFakeUserRepository(usernames ...string) *fakeUserRepository {
	r := &fakeUserRepository{users: map[int64]*models.User{}}
	for _, name := range usernames {
		_ = r.Create(context.Background(), &models.User{Username: name, Email: name + "@example.com"})
	}
	return r
}

func (r *fakeUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return apperrors.ErrAlreadyExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			copied := *u
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.users[id]
	return ok, nil
}

// fakeConnectionRepository is an in-memory ConnectionRepository with the same
// uniqueness and transition rules as the SQL implementation.
type fakeConnectionRepository struct {
	mu     sync.Mutex
	conns  []*models.Connection
	nextID int64

	listErr error

	// Capture inputs for verification
	capturedCountTargets []int64
}

func (r *fakeConnectionRepository) Find(ctx context.Context, fromID, toID int64) (*models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.FromUserID == fromID && c.ToUserID == toID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeConnectionRepository) Create(ctx context.Context, fromID, toID int64) (*models.Connection, error) {
	if fromID == toID {
		return nil, apperrors.ErrSelfReference
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.FromUserID == fromID && c.ToUserID == toID {
			return nil, apperrors.ErrAlreadyExists
		}
	}
	r.nextID++
	c := &models.Connection{ID: r.nextID, FromUserID: fromID, ToUserID: toID, Status: models.ConnectionStatusPending}
	r.conns = append(r.conns, c)
	copied := *c
	return &copied, nil
}

func (r *fakeConnectionRepository) SetStatus(ctx context.Context, connectionID, callerID int64, newStatus string) (*models.Connection, error) {
	if !models.IsTerminalStatus(newStatus) {
		return nil, apperrors.ErrInvalidStatus
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.ID == connectionID && c.ToUserID == callerID && c.Status == models.ConnectionStatusPending {
			c.Status = newStatus
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeConnectionRepository) ListIncoming(ctx context.Context, userID int64) ([]*models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Connection
	for _, c := range r.conns {
		if c.ToUserID == userID && c.Status == models.ConnectionStatusPending {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeConnectionRepository) ListAcceptedTargets(ctx context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acceptedTargetsLocked(userID), nil
}

func (r *fakeConnectionRepository) acceptedTargetsLocked(userID int64) []int64 {
	out := []int64{}
	for _, c := range r.conns {
		if c.FromUserID == userID && c.Status == models.ConnectionStatusAccepted {
			out = append(out, c.ToUserID)
		}
	}
	return out
}

func (r *fakeConnectionRepository) CountAcceptedBetween(ctx context.Context, candidateID int64, targetIDs []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capturedCountTargets = targetIDs
	targets := map[int64]bool{}
	for _, id := range targetIDs {
		targets[id] = true
	}
	n := 0
	for _, c := range r.conns {
		if c.FromUserID == candidateID && c.Status == models.ConnectionStatusAccepted && targets[c.ToUserID] {
			n++
		}
	}
	return n, nil
}

// ListMutualCandidates follows the per-candidate definition literally so
// service tests check the batched SQL's contract.
func (r *fakeConnectionRepository) ListMutualCandidates(ctx context.Context, userID int64) ([]models.MutualCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	mine := map[int64]bool{}
	for _, id := range r.acceptedTargetsLocked(userID) {
		mine[id] = true
	}

	counts := map[int64]int{}
	for _, c := range r.conns {
		if c.Status != models.ConnectionStatusAccepted || !mine[c.ToUserID] {
			continue
		}
		if c.FromUserID == userID || mine[c.FromUserID] {
			continue
		}
		counts[c.FromUserID]++
	}

	out := make([]models.MutualCandidate, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.MutualCandidate{UserID: id, MutualCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MutualCount != out[j].MutualCount {
			return out[i].MutualCount > out[j].MutualCount
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// accept inserts an accepted edge directly.
func (r *fakeConnectionRepository) accept(fromID, toID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.conns = append(r.conns, &models.Connection{
		ID: r.nextID, FromUserID: fromID, ToUserID: toID, Status: models.ConnectionStatusAccepted,
	})
}

// mockRecommendationCache records calls and serves canned entries.
type mockRecommendationCache struct {
	mu      sync.Mutex
	entries map[int64][]*models.User
	getErr  error
	setErr  error

	getCalls         int
	setCalls         int
	invalidatedUsers []int64
}

func newMockRecommendationCache() *mockRecommendationCache {
	return &mockRecommendationCache{entries: map[int64][]*models.User{}}
}

func (m *mockRecommendationCache) Get(ctx context.Context, userID int64) ([]*models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	users, ok := m.entries[userID]
	return users, ok, nil
}

func (m *mockRecommendationCache) Set(ctx context.Context, userID int64, users []*models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[userID] = users
	return nil
}

func (m *mockRecommendationCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidatedUsers = append(m.invalidatedUsers, userIDs...)
	for _, id := range userIDs {
		delete(m.entries, id)
	}
	return nil
}

// mockProfileRepository is a configurable mock for testing ProfileService.
type mockProfileRepository struct {
	profile   *models.Profile
	getErr    error
	upsertErr error

	capturedProfile *models.Profile
	capturedUserID  int64
}

func (m *mockProfileRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Profile, error) {
	m.capturedUserID = userID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.profile, nil
}

func (m *mockProfileRepository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	m.capturedProfile = profile
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return profile, nil
}

// mockPostRepository is a configurable mock for testing PostService.
type mockPostRepository struct {
	posts     []*models.Post
	createErr error
	listErr   error

	capturedPost *models.Post
}

func (m *mockPostRepository) Create(ctx context.Context, post *models.Post) error {
	m.capturedPost = post
	if m.createErr != nil {
		return m.createErr
	}
	post.ID = 1
	post.Author = "alice"
	post.CreatedAt = time.Now()
	return nil
}

func (m *mockPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.posts, nil
}

// mockLikeRepository is a configurable mock for testing PostService.
type mockLikeRepository struct {
	createErr error
	deleteErr error

	capturedUserID int64
	capturedPostID int64
}

func (m *mockLikeRepository) Create(ctx context.Context, userID, postID int64) error {
	m.capturedUserID = userID
	m.capturedPostID = postID
	return m.createErr
}

func (m *mockLikeRepository) Delete(ctx context.Context, userID, postID int64) error {
	m.capturedUserID = userID
	m.capturedPostID = postID
	return m.deleteErr
}
