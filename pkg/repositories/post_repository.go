package repositories

import (
	"context"
	"fmt"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/database"
	"github.com/weavenet/weave-api/pkg/models"
)

// PostRepository defines data access for posts.
type PostRepository interface {
	// Create inserts a post and fills in ID, CreatedAt and Author.
	Create(ctx context.Context, post *models.Post) error
	// List returns all posts, newest first.
	List(ctx context.Context) ([]*models.Post, error)
}

type postRepository struct {
	db database.Querier
}

var _ PostRepository = (*postRepository)(nil)

// NewPostRepository creates a new post repository.
func NewPostRepository(db database.Querier) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		WITH inserted AS (
			INSERT INTO posts (user_id, content)
			VALUES ($1, $2)
			RETURNING id, user_id, created_at
		)
		SELECT i.id, i.created_at, u.username
		FROM inserted i
		JOIN users u ON u.id = i.user_id`

	err := r.db.QueryRow(ctx, query, post.UserID, post.Content).
		Scan(&post.ID, &post.CreatedAt, &post.Author)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.user_id, u.username, p.content, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Author, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}
