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

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.UserActivity) error
	// ListPublicByUsers returns public activities of the given users, newest
	// first, with like and comment counts.
	ListPublicByUsers(ctx context.Context, userIDs []string, limit int) ([]model.UserActivity, error)
	CreateLike(ctx context.Context, activityID, userID string) error
	DeleteLike(ctx context.Context, activityID, userID string) error
	CreateComment(ctx context.Context, comment *model.ActivityComment) error
	ListComments(ctx context.Context, activityID string) ([]model.ActivityComment, error)
}

type pgActivityRepository struct {
	db *sql.DB
}

func NewPgActivityRepository(db *sql.DB) ActivityRepository {
	return &pgActivityRepository{db: db}
}

func (r *pgActivityRepository) Create(ctx context.Context, activity *model.UserActivity) error {
	query := `INSERT INTO user_activities (id, user_id, activity_type, content, metadata, is_public)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`
	metadata := activity.Metadata
	if metadata == nil {
		metadata = []byte("{}")
	}
	err := r.db.QueryRowContext(ctx, query,
		activity.ID, activity.UserID, activity.ActivityType, activity.Content, metadata, activity.IsPublic,
	).Scan(&activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgActivityRepository.Create: %w", err)
	}
	return nil
}

func (r *pgActivityRepository) ListPublicByUsers(ctx context.Context, userIDs []string, limit int) ([]model.UserActivity, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT a.id, a.user_id, a.activity_type, a.content, a.metadata, a.is_public, a.created_at,
	                 p.id, p.username, p.display_name, p.avatar_url, p.level, p.total_points,
	                 p.current_streak, p.longest_streak, p.perfect_scores, p.total_quizzes, p.created_at, p.updated_at,
	                 (SELECT COUNT(*) FROM activity_likes l WHERE l.activity_id = a.id),
	                 (SELECT COUNT(*) FROM activity_comments c WHERE c.activity_id = a.id)
	          FROM user_activities a
	          JOIN user_profiles p ON p.id = a.user_id
	          WHERE a.is_public = TRUE AND a.user_id = ANY($1)
	          ORDER BY a.created_at DESC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("pgActivityRepository.ListPublicByUsers: %w", err)
	}
	defer rows.Close()

	var activities []model.UserActivity
	for rows.Next() {
		var a model.UserActivity
		p := &model.UserProfile{}
		err := rows.Scan(
			&a.ID, &a.UserID, &a.ActivityType, &a.Content, &a.Metadata, &a.IsPublic, &a.CreatedAt,
			&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Level, &p.TotalPoints,
			&p.CurrentStreak, &p.LongestStreak, &p.PerfectScores, &p.TotalQuizzes, &p.CreatedAt, &p.UpdatedAt,
			&a.LikesCount, &a.CommentsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("pgActivityRepository.ListPublicByUsers: %w", err)
		}
		a.Profile = p
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgActivityRepository.ListPublicByUsers: %w", err)
	}
	return activities, nil
}

func (r *pgActivityRepository) CreateLike(ctx context.Context, activityID, userID string) error {
	query := `INSERT INTO activity_likes (activity_id, user_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, activityID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return fmt.Errorf("activity already liked: %w", common.ErrConflict)
			case "23503": // activity row gone
				return fmt.Errorf("activity not found: %w", common.ErrNotFound)
			}
		}
		return fmt.Errorf("pgActivityRepository.CreateLike: %w", err)
	}
	return nil
}

func (r *pgActivityRepository) DeleteLike(ctx context.Context, activityID, userID string) error {
	query := `DELETE FROM activity_likes WHERE activity_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, activityID, userID); err != nil {
		return fmt.Errorf("pgActivityRepository.DeleteLike: %w", err)
	}
	return nil
}

func (r *pgActivityRepository) CreateComment(ctx context.Context, comment *model.ActivityComment) error {
	query := `INSERT INTO activity_comments (id, activity_id, user_id, content)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, comment.ID, comment.ActivityID, comment.UserID, comment.Content).
		Scan(&comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("activity not found: %w", common.ErrNotFound)
		}
		return fmt.Errorf("pgActivityRepository.CreateComment: %w", err)
	}
	return nil
}

func (r *pgActivityRepository) ListComments(ctx context.Context, activityID string) ([]model.ActivityComment, error) {
	query := `SELECT c.id, c.activity_id, c.user_id, c.content, c.created_at,
	                 p.id, p.username, p.display_name, p.avatar_url, p.level, p.total_points,
	                 p.current_streak, p.longest_streak, p.perfect_scores, p.total_quizzes, p.created_at, p.updated_at
	          FROM activity_comments c
	          JOIN user_profiles p ON p.id = c.user_id
	          WHERE c.activity_id = $1
	          ORDER BY c.created_at`
	rows, err := r.db.QueryContext(ctx, query, activityID)
	if err != nil {
		return nil, fmt.Errorf("pgActivityRepository.ListComments: %w", err)
	}
	defer rows.Close()

	var comments []model.ActivityComment
	for rows.Next() {
		var c model.ActivityComment
		p := &model.UserProfile{}
		err := rows.Scan(
			&c.ID, &c.ActivityID, &c.UserID, &c.Content, &c.CreatedAt,
			&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Level, &p.TotalPoints,
			&p.CurrentStreak, &p.LongestStreak, &p.PerfectScores, &p.TotalQuizzes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgActivityRepository.ListComments: %w", err)
		}
		c.Profile = p
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgActivityRepository.ListComments: %w", err)
	}
	return comments, nil
}
