package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/database"
	"github.com/weavenet/weave-api/pkg/models"
)

// ConnectionRepository defines data access for directed connection edges.
//
// Uniqueness of the ordered (from, to) pair and the pending -> resolved
// transition are enforced by the database, so concurrent callers never
// observe duplicates or double transitions.
type ConnectionRepository interface {
	// Find returns the edge from fromID to toID, or apperrors.ErrNotFound.
	Find(ctx context.Context, fromID, toID int64) (*models.Connection, error)

	// Create inserts a pending edge. Returns apperrors.ErrSelfReference when
	// fromID == toID and apperrors.ErrAlreadyExists when the ordered pair
	// already has an edge in any status.
	Create(ctx context.Context, fromID, toID int64) (*models.Connection, error)

	// SetStatus moves a pending edge addressed to callerID into newStatus.
	// Returns apperrors.ErrNotFound when the id is unknown, the caller is not
	// the recipient, or the edge is no longer pending.
	SetStatus(ctx context.Context, connectionID, callerID int64, newStatus string) (*models.Connection, error)

	// ListIncoming returns pending edges addressed to userID, oldest first.
	ListIncoming(ctx context.Context, userID int64) ([]*models.Connection, error)

	// ListAcceptedTargets returns the recipients of userID's accepted outgoing edges.
	ListAcceptedTargets(ctx context.Context, userID int64) ([]int64, error)

	// CountAcceptedBetween counts accepted edges from candidateID toward any of targetIDs.
	CountAcceptedBetween(ctx context.Context, candidateID int64, targetIDs []int64) (int, error)

	// ListMutualCandidates returns every user not already accepted by userID
	// (and not userID) that has at least one accepted edge toward a user
	// userID has accepted, with the number of such shared targets. Ordered by
	// mutual count descending, then user id ascending.
	ListMutualCandidates(ctx context.Context, userID int64) ([]models.MutualCandidate, error)
}

type connectionRepository struct {
	db database.Querier
}

var _ ConnectionRepository = (*connectionRepository)(nil)

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db database.Querier) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

func scanConnection(row pgx.Row) (*models.Connection, error) {
	var c models.Connection
	if err := row.Scan(&c.ID, &c.FromUserID, &c.ToUserID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *connectionRepository) Find(ctx context.Context, fromID, toID int64) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE from_user_id = $1 AND to_user_id = $2`

	conn, err := scanConnection(r.db.QueryRow(ctx, query, fromID, toID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	return conn, nil
}

func (r *connectionRepository) Create(ctx context.Context, fromID, toID int64) (*models.Connection, error) {
	if fromID == toID {
		return nil, apperrors.ErrSelfReference
	}

	// ON CONFLICT DO NOTHING returns no row when the pair exists, which makes
	// the check-and-insert a single atomic statement.
	query := `
		INSERT INTO connections (from_user_id, to_user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (from_user_id, to_user_id) DO NOTHING
		RETURNING ` + connectionColumns

	conn, err := scanConnection(r.db.QueryRow(ctx, query, fromID, toID, models.ConnectionStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	return conn, nil
}

func (r *connectionRepository) SetStatus(ctx context.Context, connectionID, callerID int64, newStatus string) (*models.Connection, error) {
	if !models.IsTerminalStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, newStatus)
	}

	query := `
		UPDATE connections
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
		RETURNING ` + connectionColumns

	conn, err := scanConnection(r.db.QueryRow(ctx, query, connectionID, callerID, newStatus))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update connection status: %w", err)
	}
	return conn, nil
}

func (r *connectionRepository) ListIncoming(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE to_user_id = $1 AND status = 'pending'
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming connections: %w", err)
	}
	defer rows.Close()

	conns := make([]*models.Connection, 0)
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return conns, nil
}

func (r *connectionRepository) ListAcceptedTargets(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT to_user_id
		FROM connections
		WHERE from_user_id = $1 AND status = 'accepted'
		ORDER BY to_user_id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted connections: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan connection target: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connection targets: %w", err)
	}

	return ids, nil
}

func (r *connectionRepository) CountAcceptedBetween(ctx context.Context, candidateID int64, targetIDs []int64) (int, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}

	query := `
		SELECT COUNT(*)
		FROM connections
		WHERE from_user_id = $1 AND to_user_id = ANY($2) AND status = 'accepted'`

	var count int
	if err := r.db.QueryRow(ctx, query, candidateID, targetIDs).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accepted connections: %w", err)
	}
	return count, nil
}

func (r *connectionRepository) ListMutualCandidates(ctx context.Context, userID int64) ([]models.MutualCandidate, error) {
	query := `
		WITH mine AS (
			SELECT to_user_id
			FROM connections
			WHERE from_user_id = $1 AND status = 'accepted'
		)
		SELECT c.from_user_id, COUNT(DISTINCT c.to_user_id) AS mutual_count
		FROM connections c
		JOIN mine m ON m.to_user_id = c.to_user_id
		WHERE c.status = 'accepted'
		  AND c.from_user_id <> $1
		  AND c.from_user_id NOT IN (SELECT to_user_id FROM mine)
		GROUP BY c.from_user_id
		ORDER BY mutual_count DESC, c.from_user_id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutual candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.MutualCandidate, 0)
	for rows.Next() {
		var c models.MutualCandidate
		if err := rows.Scan(&c.UserID, &c.MutualCount); err != nil {
			return nil, fmt.Errorf("failed to scan mutual candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutual candidates: %w", err)
	}

	return candidates, nil
}
