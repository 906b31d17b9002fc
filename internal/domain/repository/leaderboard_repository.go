package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardPointsKey = "leaderboard:points"
	leaderboardStreakKey = "leaderboard:streak"
)

// RankedUser is a ZSet member with its 1-indexed rank.
type RankedUser struct {
	UserID string
	Value  int
	Rank   int64
}

// LeaderboardRepository keeps the global points and streak boards in Redis
// sorted sets. Entries are overwritten from profile truth on every refresh,
// so the boards self-heal from missed updates.
type LeaderboardRepository interface {
	SetUserScores(ctx context.Context, userID string, totalPoints, currentStreak int) error
	TopByPoints(ctx context.Context, limit int64) ([]RankedUser, error)
	TopByStreak(ctx context.Context, limit int64) ([]RankedUser, error)
	UserRankByPoints(ctx context.Context, userID string) (int64, error)
}

type redisLeaderboardRepository struct {
	client *redis.Client
}

func NewRedisLeaderboardRepository(client *redis.Client) LeaderboardRepository {
	return &redisLeaderboardRepository{client: client}
}

func (r *redisLeaderboardRepository) SetUserScores(ctx context.Context, userID string, totalPoints, currentStreak int) error {
	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, leaderboardPointsKey, redis.Z{Score: float64(totalPoints), Member: userID})
	pipe.ZAdd(ctx, leaderboardStreakKey, redis.Z{Score: float64(currentStreak), Member: userID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisLeaderboardRepository.SetUserScores: %w", err)
	}
	return nil
}

func (r *redisLeaderboardRepository) TopByPoints(ctx context.Context, limit int64) ([]RankedUser, error) {
	return r.top(ctx, leaderboardPointsKey, limit)
}

func (r *redisLeaderboardRepository) TopByStreak(ctx context.Context, limit int64) ([]RankedUser, error) {
	return r.top(ctx, leaderboardStreakKey, limit)
}

func (r *redisLeaderboardRepository) top(ctx context.Context, key string, limit int64) ([]RankedUser, error) {
	results, err := r.client.ZRevRangeWithScores(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisLeaderboardRepository.top(%s): %w", key, err)
	}

	entries := make([]RankedUser, len(results))
	for i, result := range results {
		entries[i] = RankedUser{
			UserID: result.Member.(string),
			Value:  int(result.Score),
			Rank:   int64(i) + 1, // 1-indexed rank
		}
	}
	return entries, nil
}

// UserRankByPoints returns the user's 1-indexed rank, or 0 when unranked.
func (r *redisLeaderboardRepository) UserRankByPoints(ctx context.Context, userID string) (int64, error) {
	rank, err := r.client.ZRevRank(ctx, leaderboardPointsKey, userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redisLeaderboardRepository.UserRankByPoints: %w", err)
	}
	return rank + 1, nil
}
