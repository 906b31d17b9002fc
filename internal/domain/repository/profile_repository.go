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

// ProfileStatsPatch is the full replacement value for the stats counters,
// computed by the scoring flow. Partial patches are deliberately not
// supported: stats are always written as one consistent set.
type ProfileStatsPatch struct {
	TotalPoints   int
	CurrentStreak int
	LongestStreak int
	PerfectScores int
	TotalQuizzes  int
}

type ProfileRepository interface {
	Create(ctx context.Context, tx *sql.Tx, profile *model.UserProfile) error
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.UserProfile, error)
	UpdateDisplay(ctx context.Context, id string, displayName string, avatarURL *string) (*model.UserProfile, error)
	UpdateStats(ctx context.Context, tx *sql.Tx, id string, patch ProfileStatsPatch) error
	Search(ctx context.Context, term string, limit int) ([]model.UserProfile, error)
	ListTopByPoints(ctx context.Context, limit int) ([]model.UserProfile, error)
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

const profileColumns = `id, username, display_name, avatar_url, level, total_points,
	current_streak, longest_streak, perfect_scores, total_quizzes, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := row.Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Level, &p.TotalPoints,
		&p.CurrentStreak, &p.LongestStreak, &p.PerfectScores, &p.TotalQuizzes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProfileRepository) Create(ctx context.Context, tx *sql.Tx, profile *model.UserProfile) error {
	query := `INSERT INTO user_profiles (id, username, display_name, avatar_url, level,
	              total_points, current_streak, longest_streak, perfect_scores, total_quizzes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	var err error
	args := []interface{}{
		profile.ID, profile.Username, profile.DisplayName, profile.AvatarURL, profile.Level,
		profile.TotalPoints, profile.CurrentStreak, profile.LongestStreak, profile.PerfectScores, profile.TotalQuizzes,
	}
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("profile with this username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByID: %w", err)
	}
	return profile, nil
}

// FindByIDForUpdate locks the profile row for the duration of the scoring
// transaction so concurrent stat updates serialize.
func (r *pgProfileRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id string) (*model.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1 FOR UPDATE`
	profile, err := scanProfile(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByIDForUpdate: %w", err)
	}
	return profile, nil
}

func (r *pgProfileRepository) UpdateDisplay(ctx context.Context, id string, displayName string, avatarURL *string) (*model.UserProfile, error) {
	query := `UPDATE user_profiles
	          SET display_name = $1, avatar_url = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3
	          RETURNING ` + profileColumns
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, displayName, avatarURL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.UpdateDisplay: %w", err)
	}
	return profile, nil
}

func (r *pgProfileRepository) UpdateStats(ctx context.Context, tx *sql.Tx, id string, patch ProfileStatsPatch) error {
	query := `UPDATE user_profiles
	          SET total_points = $1, current_streak = $2, longest_streak = $3,
	              perfect_scores = $4, total_quizzes = $5, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	var err error
	args := []interface{}{
		patch.TotalPoints, patch.CurrentStreak, patch.LongestStreak,
		patch.PerfectScores, patch.TotalQuizzes, id,
	}
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("pgProfileRepository.UpdateStats: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) Search(ctx context.Context, term string, limit int) ([]model.UserProfile, error) {
	query := `SELECT ` + profileColumns + `
	          FROM user_profiles
	          WHERE username ILIKE $1 OR display_name ILIKE $1
	          ORDER BY username
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.Search: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

func (r *pgProfileRepository) ListTopByPoints(ctx context.Context, limit int) ([]model.UserProfile, error) {
	query := `SELECT ` + profileColumns + `
	          FROM user_profiles
	          ORDER BY total_points DESC, current_streak DESC
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.ListTopByPoints: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

func collectProfiles(rows *sql.Rows) ([]model.UserProfile, error) {
	var profiles []model.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("collectProfiles: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collectProfiles: %w", err)
	}
	return profiles, nil
}
