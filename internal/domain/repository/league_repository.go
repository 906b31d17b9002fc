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

type LeagueRepository interface {
	Create(ctx context.Context, tx *sql.Tx, league *model.League) error
	FindByID(ctx context.Context, id string) (*model.League, error)
	FindByInviteCode(ctx context.Context, code string) (*model.League, error)
	SearchPublic(ctx context.Context, term string, limit int) ([]model.League, error)
	ListByMember(ctx context.Context, userID string) ([]model.League, error)

	CountActiveMembers(ctx context.Context, leagueID string) (int, error)
	CreateMembership(ctx context.Context, tx *sql.Tx, membership *model.LeagueMembership) error
	FindMembership(ctx context.Context, leagueID, userID string) (*model.LeagueMembership, error)
	ReactivateMembership(ctx context.Context, id string) error
	DeactivateMembership(ctx context.Context, leagueID, userID string) error
	ListMembers(ctx context.Context, leagueID string) ([]model.LeagueMembership, error)
	ListActiveLeagueIDsByUser(ctx context.Context, userID string) ([]string, error)

	ListLeaderboard(ctx context.Context, leagueID string) ([]model.LeagueLeaderboardEntry, error)
	UpsertLeaderboardEntry(ctx context.Context, entry *model.LeagueLeaderboardEntry) error
}

type pgLeagueRepository struct {
	db *sql.DB
}

func NewPgLeagueRepository(db *sql.DB) LeagueRepository {
	return &pgLeagueRepository{db: db}
}

const leagueColumns = `id, name, slug, description, creator_id, icon, is_private,
	invite_code, max_members, is_active, created_at, updated_at`

func scanLeague(row interface{ Scan(...interface{}) error }) (*model.League, error) {
	l := &model.League{}
	err := row.Scan(
		&l.ID, &l.Name, &l.Slug, &l.Description, &l.CreatorID, &l.Icon, &l.IsPrivate,
		&l.InviteCode, &l.MaxMembers, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *pgLeagueRepository) Create(ctx context.Context, tx *sql.Tx, league *model.League) error {
	query := `INSERT INTO leagues (id, name, slug, description, creator_id, icon, is_private, invite_code, max_members, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)`
	args := []interface{}{
		league.ID, league.Name, league.Slug, league.Description, league.CreatorID,
		league.Icon, league.IsPrivate, league.InviteCode, league.MaxMembers,
	}
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // slug or invite code collision
			return fmt.Errorf("league with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgLeagueRepository.Create: %w", err)
	}
	return nil
}

func (r *pgLeagueRepository) FindByID(ctx context.Context, id string) (*model.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE id = $1 AND is_active = TRUE`
	league, err := scanLeague(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLeagueRepository.FindByID: %w", err)
	}
	return league, nil
}

func (r *pgLeagueRepository) FindByInviteCode(ctx context.Context, code string) (*model.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE invite_code = $1 AND is_active = TRUE`
	league, err := scanLeague(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLeagueRepository.FindByInviteCode: %w", err)
	}
	return league, nil
}

func (r *pgLeagueRepository) SearchPublic(ctx context.Context, term string, limit int) ([]model.League, error) {
	query := `SELECT l.id, l.name, l.slug, l.description, l.creator_id, l.icon, l.is_private,
	                 l.invite_code, l.max_members, l.is_active, l.created_at, l.updated_at,
	                 COUNT(m.id) FILTER (WHERE m.is_active)
	          FROM leagues l
	          LEFT JOIN league_memberships m ON m.league_id = l.id
	          WHERE l.is_private = FALSE AND l.is_active = TRUE
	            AND ($1 = '' OR l.name ILIKE '%' || $1 || '%')
	          GROUP BY l.id
	          ORDER BY l.created_at DESC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, term, limit)
	if err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.SearchPublic: %w", err)
	}
	defer rows.Close()

	var leagues []model.League
	for rows.Next() {
		var l model.League
		var count int
		err := rows.Scan(
			&l.ID, &l.Name, &l.Slug, &l.Description, &l.CreatorID, &l.Icon, &l.IsPrivate,
			&l.InviteCode, &l.MaxMembers, &l.IsActive, &l.CreatedAt, &l.UpdatedAt, &count,
		)
		if err != nil {
			return nil, fmt.Errorf("pgLeagueRepository.SearchPublic: %w", err)
		}
		l.MemberCount = &count
		l.InviteCode = "" // not exposed on public listings
		leagues = append(leagues, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.SearchPublic: %w", err)
	}
	return leagues, nil
}

func (r *pgLeagueRepository) ListByMember(ctx context.Context, userID string) ([]model.League, error) {
	query := `SELECT l.id, l.name, l.slug, l.description, l.creator_id, l.icon, l.is_private,
	                 l.invite_code, l.max_members, l.is_active, l.created_at, l.updated_at
	          FROM leagues l
	          JOIN league_memberships m ON m.league_id = l.id
	          WHERE m.user_id = $1 AND m.is_active = TRUE AND l.is_active = TRUE
	          ORDER BY l.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListByMember: %w", err)
	}
	defer rows.Close()

	var leagues []model.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("pgLeagueRepository.ListByMember: %w", err)
		}
		leagues = append(leagues, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListByMember: %w", err)
	}
	return leagues, nil
}

func (r *pgLeagueRepository) CountActiveMembers(ctx context.Context, leagueID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM league_memberships WHERE league_id = $1 AND is_active = TRUE`
	if err := r.db.QueryRowContext(ctx, query, leagueID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgLeagueRepository.CountActiveMembers: %w", err)
	}
	return count, nil
}

func (r *pgLeagueRepository) CreateMembership(ctx context.Context, tx *sql.Tx, membership *model.LeagueMembership) error {
	query := `INSERT INTO league_memberships (id, league_id, user_id, is_active)
	          VALUES ($1, $2, $3, TRUE)
	          RETURNING joined_at`
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, membership.ID, membership.LeagueID, membership.UserID)
	} else {
		row = r.db.QueryRowContext(ctx, query, membership.ID, membership.LeagueID, membership.UserID)
	}
	if err := row.Scan(&membership.JoinedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("already a member of this league: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgLeagueRepository.CreateMembership: %w", err)
	}
	membership.IsActive = true
	return nil
}

func (r *pgLeagueRepository) FindMembership(ctx context.Context, leagueID, userID string) (*model.LeagueMembership, error) {
	query := `SELECT id, league_id, user_id, joined_at, is_active
	          FROM league_memberships
	          WHERE league_id = $1 AND user_id = $2`
	m := &model.LeagueMembership{}
	err := r.db.QueryRowContext(ctx, query, leagueID, userID).Scan(&m.ID, &m.LeagueID, &m.UserID, &m.JoinedAt, &m.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLeagueRepository.FindMembership: %w", err)
	}
	return m, nil
}

func (r *pgLeagueRepository) ReactivateMembership(ctx context.Context, id string) error {
	query := `UPDATE league_memberships SET is_active = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("pgLeagueRepository.ReactivateMembership: %w", err)
	}
	return nil
}

func (r *pgLeagueRepository) DeactivateMembership(ctx context.Context, leagueID, userID string) error {
	query := `UPDATE league_memberships SET is_active = FALSE WHERE league_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, leagueID, userID)
	if err != nil {
		return fmt.Errorf("pgLeagueRepository.DeactivateMembership: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgLeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]model.LeagueMembership, error) {
	query := `SELECT m.id, m.league_id, m.user_id, m.joined_at, m.is_active,
	                 p.id, p.username, p.display_name, p.avatar_url, p.level, p.total_points,
	                 p.current_streak, p.longest_streak, p.perfect_scores, p.total_quizzes, p.created_at, p.updated_at
	          FROM league_memberships m
	          JOIN user_profiles p ON p.id = m.user_id
	          WHERE m.league_id = $1 AND m.is_active = TRUE
	          ORDER BY m.joined_at`
	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListMembers: %w", err)
	}
	defer rows.Close()

	var members []model.LeagueMembership
	for rows.Next() {
		var m model.LeagueMembership
		p := &model.UserProfile{}
		err := rows.Scan(
			&m.ID, &m.LeagueID, &m.UserID, &m.JoinedAt, &m.IsActive,
			&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Level, &p.TotalPoints,
			&p.CurrentStreak, &p.LongestStreak, &p.PerfectScores, &p.TotalQuizzes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgLeagueRepository.ListMembers: %w", err)
		}
		m.Profile = p
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListMembers: %w", err)
	}
	return members, nil
}

func (r *pgLeagueRepository) ListActiveLeagueIDsByUser(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT league_id FROM league_memberships WHERE user_id = $1 AND is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListActiveLeagueIDsByUser: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgLeagueRepository.ListActiveLeagueIDsByUser: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListActiveLeagueIDsByUser: %w", err)
	}
	return ids, nil
}

func (r *pgLeagueRepository) ListLeaderboard(ctx context.Context, leagueID string) ([]model.LeagueLeaderboardEntry, error) {
	query := `SELECT b.id, b.league_id, b.user_id, b.total_points, b.perfect_scores,
	                 b.current_streak, b.quizzes_completed, b.average_score, b.last_updated,
	                 p.id, p.username, p.display_name, p.avatar_url, p.level, p.total_points,
	                 p.current_streak, p.longest_streak, p.perfect_scores, p.total_quizzes, p.created_at, p.updated_at
	          FROM league_leaderboards b
	          JOIN user_profiles p ON p.id = b.user_id
	          WHERE b.league_id = $1
	          ORDER BY b.total_points DESC, b.current_streak DESC`
	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListLeaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeagueLeaderboardEntry
	for rows.Next() {
		var e model.LeagueLeaderboardEntry
		p := &model.UserProfile{}
		err := rows.Scan(
			&e.ID, &e.LeagueID, &e.UserID, &e.TotalPoints, &e.PerfectScores,
			&e.CurrentStreak, &e.QuizzesCompleted, &e.AverageScore, &e.LastUpdated,
			&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Level, &p.TotalPoints,
			&p.CurrentStreak, &p.LongestStreak, &p.PerfectScores, &p.TotalQuizzes, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("pgLeagueRepository.ListLeaderboard: %w", err)
		}
		e.Profile = p
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeagueRepository.ListLeaderboard: %w", err)
	}
	return entries, nil
}

// UpsertLeaderboardEntry writes the full aggregate row; the worker re-derives
// values from profile truth, so a replay converges instead of double-counting.
func (r *pgLeagueRepository) UpsertLeaderboardEntry(ctx context.Context, entry *model.LeagueLeaderboardEntry) error {
	query := `INSERT INTO league_leaderboards
	              (id, league_id, user_id, total_points, perfect_scores, current_streak, quizzes_completed, average_score, last_updated)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
	          ON CONFLICT (league_id, user_id) DO UPDATE SET
	              total_points = EXCLUDED.total_points,
	              perfect_scores = EXCLUDED.perfect_scores,
	              current_streak = EXCLUDED.current_streak,
	              quizzes_completed = EXCLUDED.quizzes_completed,
	              average_score = EXCLUDED.average_score,
	              last_updated = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.LeagueID, entry.UserID, entry.TotalPoints, entry.PerfectScores,
		entry.CurrentStreak, entry.QuizzesCompleted, entry.AverageScore,
	)
	if err != nil {
		return fmt.Errorf("pgLeagueRepository.UpsertLeaderboardEntry: %w", err)
	}
	return nil
}
