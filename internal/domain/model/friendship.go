package model

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// Friendship is the single directed row for an unordered user pair. At most
// one row exists per pair regardless of direction; removing a friend deletes
// the row, which is the only way back to "none".
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	AddresseeID string           `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Requester *UserProfile `json:"requester,omitempty"` // For request listings
	Addressee *UserProfile `json:"addressee,omitempty"`
}

// UserFriend is one row of the accepted-friends view, seen from one side.
type UserFriend struct {
	FriendshipID      string    `json:"friendship_id"`
	FriendID          string    `json:"friend_id"`
	FriendUsername    string    `json:"friend_username"`
	FriendDisplayName string    `json:"friend_display_name"`
	FriendAvatarURL   *string   `json:"friend_avatar_url,omitempty"`
	FriendStreak      int       `json:"friend_streak"`
	FriendPoints      int       `json:"friend_points"`
	CreatedAt         time.Time `json:"created_at"`
}
