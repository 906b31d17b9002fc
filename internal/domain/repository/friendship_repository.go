package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type FriendshipRepository interface {
	FindByID(ctx context.Context, id string) (*model.Friendship, error)
	// FindByPair looks up the single row for an unordered pair, either direction.
	FindByPair(ctx context.Context, userA, userB string) (*model.Friendship, error)
	Create(ctx context.Context, friendship *model.Friendship) error
	UpdateStatus(ctx context.Context, id string, status model.FriendshipStatus) (*model.Friendship, error)
	Delete(ctx context.Context, id string) error

	ListFriends(ctx context.Context, userID string) ([]model.UserFriend, error)
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	ListIncomingPending(ctx context.Context, userID string) ([]model.Friendship, error)
	ListOutgoingPending(ctx context.Context, userID string) ([]model.Friendship, error)
}

type pgFriendshipRepository struct {
	db *sql.DB
}

func NewPgFriendshipRepository(db *sql.DB) FriendshipRepository {
	return &pgFriendshipRepository{db: db}
}

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

func scanFriendship(row interface{ Scan(...interface{}) error }) (*model.Friendship, error) {
	f := &model.Friendship{}
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *pgFriendshipRepository) FindByID(ctx context.Context, id string) (*model.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`
	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgFriendshipRepository.FindByID: %w", err)
	}
	return f, nil
}

func (r *pgFriendshipRepository) FindByPair(ctx context.Context, userA, userB string) (*model.Friendship, error) {
	query := `SELECT ` + friendshipColumns + `
	          FROM friendships
	          WHERE (requester_id = $1 AND addressee_id = $2)
	             OR (requester_id = $2 AND addressee_id = $1)`
	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, userA, userB))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgFriendshipRepository.FindByPair: %w", err)
	}
	return f, nil
}

// Create relies on a unique index over (least(requester_id, addressee_id),
// greatest(requester_id, addressee_id)) to close the duplicate-request race.
func (r *pgFriendshipRepository) Create(ctx context.Context, friendship *model.Friendship) error {
	query := `INSERT INTO friendships (id, requester_id, addressee_id, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		friendship.ID, friendship.RequesterID, friendship.AddresseeID, friendship.Status,
	).Scan(&friendship.CreatedAt, &friendship.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("friendship row already exists for this pair: %w", common.ErrDuplicateRequest)
		}
		return fmt.Errorf("pgFriendshipRepository.Create: %w", err)
	}
	return nil
}

func (r *pgFriendshipRepository) UpdateStatus(ctx context.Context, id string, status model.FriendshipStatus) (*model.Friendship, error) {
	query := `UPDATE friendships
	          SET status = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2
	          RETURNING ` + friendshipColumns
	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgFriendshipRepository.UpdateStatus: %w", err)
	}
	return f, nil
}

func (r *pgFriendshipRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgFriendshipRepository.Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListFriends materializes the accepted-friends view from the caller's side:
// each accepted row yields the other party's profile summary.
func (r *pgFriendshipRepository) ListFriends(ctx context.Context, userID string) ([]model.UserFriend, error) {
	query := `SELECT f.id,
	                 p.id, p.username, p.display_name, p.avatar_url,
	                 p.current_streak, p.total_points, f.created_at
	          FROM friendships f
	          JOIN user_profiles p
	            ON p.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
	          WHERE (f.requester_id = $1 OR f.addressee_id = $1)
	            AND f.status = 'accepted'
	          ORDER BY p.display_name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgFriendshipRepository.ListFriends: %w", err)
	}
	defer rows.Close()

	var friends []model.UserFriend
	for rows.Next() {
		var uf model.UserFriend
		err := rows.Scan(
			&uf.FriendshipID, &uf.FriendID, &uf.FriendUsername, &uf.FriendDisplayName,
			&uf.FriendAvatarURL, &uf.FriendStreak, &uf.FriendPoints, &uf.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgFriendshipRepository.ListFriends: %w", err)
		}
		friends = append(friends, uf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgFriendshipRepository.ListFriends: %w", err)
	}
	return friends, nil
}

func (r *pgFriendshipRepository) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
	          FROM friendships
	          WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'accepted'`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgFriendshipRepository.ListFriendIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgFriendshipRepository.ListFriendIDs: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgFriendshipRepository.ListFriendIDs: %w", err)
	}
	return ids, nil
}

func (r *pgFriendshipRepository) ListIncomingPending(ctx context.Context, userID string) ([]model.Friendship, error) {
	return r.listPending(ctx, userID, "addressee_id", "requester_id")
}

func (r *pgFriendshipRepository) ListOutgoingPending(ctx context.Context, userID string) ([]model.Friendship, error) {
	return r.listPending(ctx, userID, "requester_id", "addressee_id")
}

func (r *pgFriendshipRepository) listPending(ctx context.Context, userID, sideColumn, otherColumn string) ([]model.Friendship, error) {
	query := `SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
	                 p.id, p.username, p.display_name, p.avatar_url, p.level, p.total_points,
	                 p.current_streak, p.longest_streak, p.perfect_scores, p.total_quizzes, p.created_at, p.updated_at
	          FROM friendships f
	          JOIN user_profiles p ON p.id = f.` + otherColumn + `
	          WHERE f.` + sideColumn + ` = $1 AND f.status = 'pending'
	          ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgFriendshipRepository.listPending: %w", err)
	}
	defer rows.Close()

	var requests []model.Friendship
	for rows.Next() {
		var f model.Friendship
		p := &model.UserProfile{}
		err := rows.Scan(
			&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt,
			&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Level, &p.TotalPoints,
			&p.CurrentStreak, &p.LongestStreak, &p.PerfectScores, &p.TotalQuizzes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgFriendshipRepository.listPending: %w", err)
		}
		if otherColumn == "requester_id" {
			f.Requester = p
		} else {
			f.Addressee = p
		}
		requests = append(requests, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgFriendshipRepository.listPending: %w", err)
	}
	return requests, nil
}
