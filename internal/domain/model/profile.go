package model

import "time"

// UserProfile carries identity plus cumulative quiz stats. The stats fields
// are mutated only by the scoring flow; handlers never accept them as input.
type UserProfile struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	Level         int       `json:"level"`
	TotalPoints   int       `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	PerfectScores int       `json:"perfect_scores"`
	TotalQuizzes  int       `json:"total_quizzes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ApplyQuizResult folds one scored attempt into the cumulative stats.
// Not idempotent: applying the same attempt twice double-counts, so callers
// must guarantee at most one attempt per (user, quiz) before writing.
func (p *UserProfile) ApplyQuizResult(score, totalQuestions int) {
	p.TotalQuizzes++
	p.TotalPoints += score
	if score == totalQuestions {
		p.PerfectScores++
	}
	if score > 0 {
		p.CurrentStreak++
		if p.CurrentStreak > p.LongestStreak {
			p.LongestStreak = p.CurrentStreak
		}
	} else {
		p.CurrentStreak = 0
	}
}

// GlobalLeaderboardEntry is one row of the points leaderboard.
type GlobalLeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	TotalPoints   int    `json:"total_points"`
	CurrentStreak int    `json:"current_streak"`
}
