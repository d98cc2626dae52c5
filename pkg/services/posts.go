package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/repositories"
	"github.com/weavenet/weave-api/pkg/validation"
)

// PostInput is the body of a create-post request.
type PostInput struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// PostService creates and lists posts and toggles likes.
type PostService interface {
	Create(ctx context.Context, userID int64, input PostInput) (*models.Post, error)
	// List returns all posts, newest first. Never nil.
	List(ctx context.Context) ([]*models.Post, error)
	// Like returns apperrors.ErrNotFound for an unknown post and
	// apperrors.ErrAlreadyExists if the user already likes it.
	Like(ctx context.Context, userID, postID int64) error
	// Unlike returns apperrors.ErrNotFound if the user does not like the post.
	Unlike(ctx context.Context, userID, postID int64) error
}

type postService struct {
	postRepo repositories.PostRepository
	likeRepo repositories.LikeRepository
	logger   *zap.Logger
}

var _ PostService = (*postService)(nil)

// NewPostService creates a new post service.
func NewPostService(postRepo repositories.PostRepository, likeRepo repositories.LikeRepository, logger *zap.Logger) PostService {
	return &postService{
		postRepo: postRepo,
		likeRepo: likeRepo,
		logger:   logger.Named("posts"),
	}
}

func (s *postService) Create(ctx context.Context, userID int64, input PostInput) (*models.Post, error) {
	if err := validation.ValidateStruct(&input); err != nil {
		return nil, err
	}

	post := &models.Post{UserID: userID, Content: input.Content}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) List(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *postService) Like(ctx context.Context, userID, postID int64) error {
	return s.likeRepo.Create(ctx, userID, postID)
}

func (s *postService) Unlike(ctx context.Context, userID, postID int64) error {
	return s.likeRepo.Delete(ctx, userID, postID)
}
