package service

import (
	"context"

	"quizleague/internal/platform/queue"
)

// StatsRefreshQueue hands user ids to the leaderboard worker.
type StatsRefreshQueue interface {
	EnqueueRefresh(ctx context.Context, userID string) error
}

// EventPublisher fans events out to realtime subscribers. Best-effort:
// services log publish failures and move on.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event queue.Event) error
}
