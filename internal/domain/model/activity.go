package model

import (
	"encoding/json"
	"time"
)

type ActivityType string

const (
	ActivityQuizCompleted   ActivityType = "quiz_completed"
	ActivityPerfectScore    ActivityType = "perfect_score"
	ActivityStreakMilestone ActivityType = "streak_milestone"
	ActivityLeagueJoined    ActivityType = "league_joined"
	ActivityFriendAdded     ActivityType = "friend_added"
	ActivityTrashTalk       ActivityType = "trash_talk"
)

type UserActivity struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ActivityType ActivityType    `json:"activity_type"`
	Content      string          `json:"content"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	IsPublic     bool            `json:"is_public"`
	CreatedAt    time.Time       `json:"created_at"`

	Profile       *UserProfile `json:"user_profile,omitempty"`
	LikesCount    int          `json:"likes_count"`
	CommentsCount int          `json:"comments_count"`
}

type ActivityComment struct {
	ID         string    `json:"id"`
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`

	Profile *UserProfile `json:"user_profile,omitempty"`
}
