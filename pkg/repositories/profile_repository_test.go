//go:build integration

package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/testhelpers"
)

func TestProfileRepository_GetOrCreate(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	db.Truncate(t)
	repo := NewProfileRepository(db.DB)
	ctx := context.Background()

	alice := db.CreateUser(t, "alice")

	profile, err := repo.GetOrCreate(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, alice, profile.UserID)
	assert.Empty(t, profile.Bio)
	assert.Empty(t, profile.Slug)
	assert.Empty(t, profile.ProfilePicture)

	// Concurrent first reads must all succeed and leave a single row
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	bob := db.CreateUser(t, "bob")
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetOrCreate(ctx, bob); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err, "concurrent GetOrCreate")
	}

	var count int
	require.NoError(t, db.DB.QueryRow(ctx, "SELECT COUNT(*) FROM profiles WHERE user_id = $1", bob).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestProfileRepository_Upsert(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	db.Truncate(t)
	repo := NewProfileRepository(db.DB)
	ctx := context.Background()

	alice := db.CreateUser(t, "alice")
	bob := db.CreateUser(t, "bob")

	updated, err := repo.Upsert(ctx, &models.Profile{UserID: alice, Bio: "hello", Slug: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "alice", updated.Slug)

	// Empty slugs never collide
	_, err = repo.Upsert(ctx, &models.Profile{UserID: bob})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &models.Profile{UserID: alice, Bio: "changed"})
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, &models.Profile{UserID: alice, Slug: "taken"})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &models.Profile{UserID: bob, Slug: "taken"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}
