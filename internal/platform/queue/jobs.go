package queue

import (
	"context"
	"fmt"

	"quizleague/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// StatsQueue carries user ids whose leaderboard entries need a refresh after
// a scored quiz attempt. The worker drains it with a blocking pop.
type StatsQueue struct {
	rdb *redis.Client
}

func NewStatsQueue(rdb *redis.Client) *StatsQueue {
	return &StatsQueue{rdb: rdb}
}

func (q *StatsQueue) EnqueueRefresh(ctx context.Context, userID string) error {
	if err := q.rdb.LPush(ctx, config.AppConfig.StatsQueueName, userID).Err(); err != nil {
		return fmt.Errorf("StatsQueue.EnqueueRefresh: %w", err)
	}
	return nil
}

// DequeueRefresh blocks until a user id is available or ctx is cancelled.
func (q *StatsQueue) DequeueRefresh(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, 0, config.AppConfig.StatsQueueName).Result()
	if err != nil {
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 {
		return "", fmt.Errorf("StatsQueue.DequeueRefresh: malformed BRPop reply")
	}
	return res[1], nil
}
