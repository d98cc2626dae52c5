package repositories

import (
	"context"
	"fmt"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/database"
)

// LikeRepository defines data access for post likes.
type LikeRepository interface {
	// Create records that userID likes postID. Returns apperrors.ErrNotFound
	// for an unknown post and apperrors.ErrAlreadyExists for a repeat like.
	Create(ctx context.Context, userID, postID int64) error
	// Delete removes the like. Returns apperrors.ErrNotFound if there was none.
	Delete(ctx context.Context, userID, postID int64) error
}

type likeRepository struct {
	db database.Querier
}

var _ LikeRepository = (*likeRepository)(nil)

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db database.Querier) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, userID, postID int64) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO likes (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING`, userID, postID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to like post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyExists
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, postID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
