package model

import "time"

type League struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatorID   string    `json:"creator_id"`
	Icon        string    `json:"icon"`
	IsPrivate   bool      `json:"is_private"`
	InviteCode  string    `json:"invite_code,omitempty"`
	MaxMembers  int       `json:"max_members"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	MemberCount *int `json:"member_count,omitempty"` // For listings
}

type LeagueMembership struct {
	ID       string    `json:"id"`
	LeagueID string    `json:"league_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	IsActive bool      `json:"is_active"`

	Profile *UserProfile `json:"user_profile,omitempty"` // For member listings
}

// LeagueLeaderboardEntry is a per-league aggregate row, re-derived by the
// leaderboard worker from profile truth rather than incremented in place.
type LeagueLeaderboardEntry struct {
	ID               string    `json:"id"`
	LeagueID         string    `json:"league_id"`
	UserID           string    `json:"user_id"`
	TotalPoints      int       `json:"total_points"`
	PerfectScores    int       `json:"perfect_scores"`
	CurrentStreak    int       `json:"current_streak"`
	QuizzesCompleted int       `json:"quizzes_completed"`
	AverageScore     float64   `json:"average_score"`
	LastUpdated      time.Time `json:"last_updated"`

	Profile *UserProfile `json:"user_profile,omitempty"`
}
