package repositories

import (
	"context"
	"fmt"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/database"
	"github.com/weavenet/weave-api/pkg/models"
)

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	// GetOrCreate returns the user's profile, creating an empty one first if needed.
	GetOrCreate(ctx context.Context, userID int64) (*models.Profile, error)
	// Upsert replaces all editable fields of the user's profile.
	// Returns apperrors.ErrAlreadyExists if the slug belongs to another profile.
	Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error)
}

type profileRepository struct {
	db database.Querier
}

var _ ProfileRepository = (*profileRepository)(nil)

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db database.Querier) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Profile, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	// Separate statement so a row committed by a concurrent insert is visible.
	var p models.Profile
	err = r.db.QueryRow(ctx, `
		SELECT user_id, profile_picture, bio, slug
		FROM profiles
		WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.ProfilePicture, &p.Bio, &p.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, profile_picture, bio, slug)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET profile_picture = EXCLUDED.profile_picture,
		    bio = EXCLUDED.bio,
		    slug = EXCLUDED.slug,
		    updated_at = NOW()
		RETURNING user_id, profile_picture, bio, slug`

	var p models.Profile
	err := r.db.QueryRow(ctx, query, profile.UserID, profile.ProfilePicture, profile.Bio, profile.Slug).
		Scan(&p.UserID, &p.ProfilePicture, &p.Bio, &p.Slug)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &p, nil
}
