package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/repositories"
	"github.com/weavenet/weave-api/pkg/validation"
)

// ProfileInput replaces every editable profile field. Omitted fields are cleared.
type ProfileInput struct {
	ProfilePicture string `json:"profile_picture" validate:"omitempty,max=2048"`
	Bio            string `json:"bio" validate:"omitempty,max=5000"`
	Slug           string `json:"slug" validate:"omitempty,max=255,slug"`
}

// ProfileService reads and edits the caller's profile.
type ProfileService interface {
	// Get returns the user's profile, creating an empty one on first access.
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	// Update replaces the profile fields. Returns *validation.Error for bad
	// input and apperrors.ErrAlreadyExists for a slug used by another profile.
	Update(ctx context.Context, userID int64, input ProfileInput) (*models.Profile, error)
}

type profileService struct {
	profileRepo repositories.ProfileRepository
	logger      *zap.Logger
}

var _ ProfileService = (*profileService)(nil)

// NewProfileService creates a new profile service.
func NewProfileService(profileRepo repositories.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		logger:      logger.Named("profiles"),
	}
}

func (s *profileService) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	return s.profileRepo.GetOrCreate(ctx, userID)
}

func (s *profileService) Update(ctx context.Context, userID int64, input ProfileInput) (*models.Profile, error) {
	input.Slug = strings.TrimSpace(input.Slug)
	input.ProfilePicture = strings.TrimSpace(input.ProfilePicture)

	if err := validation.ValidateStruct(&input); err != nil {
		return nil, err
	}

	return s.profileRepo.Upsert(ctx, &models.Profile{
		UserID:         userID,
		ProfilePicture: input.ProfilePicture,
		Bio:            input.Bio,
		Slug:           input.Slug,
	})
}
