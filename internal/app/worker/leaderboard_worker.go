package worker

import (
	"context"
	"errors"
	"time"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
	"quizleague/internal/platform/queue"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LeaderboardWorker drains the stats-refresh queue and re-derives leaderboard
// state from profile truth: the global Redis boards and one
// league_leaderboards row per active membership. Because every refresh is a
// full overwrite, a duplicate or lost job converges on the next pass instead
// of double-counting.
type LeaderboardWorker struct {
	statsQueue      *queue.StatsQueue
	profileRepo     repository.ProfileRepository
	leagueRepo      repository.LeagueRepository
	leaderboardRepo repository.LeaderboardRepository
	log             *logger.Logger
}

func NewLeaderboardWorker(
	statsQueue *queue.StatsQueue,
	profileRepo repository.ProfileRepository,
	leagueRepo repository.LeagueRepository,
	leaderboardRepo repository.LeaderboardRepository,
	log *logger.Logger,
) *LeaderboardWorker {
	return &LeaderboardWorker{
		statsQueue:      statsQueue,
		profileRepo:     profileRepo,
		leagueRepo:      leagueRepo,
		leaderboardRepo: leaderboardRepo,
		log:             log,
	}
}

func (w *LeaderboardWorker) Start(ctx context.Context) {
	w.log.Info("Leaderboard worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Leaderboard worker stopping...")
			return
		default:
			userID, err := w.statsQueue.DequeueRefresh(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue // shutdown path, handled by ctx.Done above
				}
				if errors.Is(err, redis.Nil) {
					continue
				}
				w.log.Errorf("failed to dequeue refresh job: %v", err)
				time.Sleep(5 * time.Second) // Wait before retrying on other errors
				continue
			}
			if err := w.refresh(ctx, userID); err != nil {
				w.log.WithUserID(userID).Errorf("leaderboard refresh failed: %v", err)
			}
		}
	}
}

func (w *LeaderboardWorker) refresh(ctx context.Context, userID string) error {
	profile, err := w.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			w.log.WithUserID(userID).Warn("refresh job for unknown profile, dropping")
			return nil
		}
		return err
	}

	if err := w.leaderboardRepo.SetUserScores(ctx, userID, profile.TotalPoints, profile.CurrentStreak); err != nil {
		return err
	}

	leagueIDs, err := w.leagueRepo.ListActiveLeagueIDsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, leagueID := range leagueIDs {
		entry := &model.LeagueLeaderboardEntry{
			ID:               uuid.NewString(), // ignored on conflict with an existing row
			LeagueID:         leagueID,
			UserID:           userID,
			TotalPoints:      profile.TotalPoints,
			PerfectScores:    profile.PerfectScores,
			CurrentStreak:    profile.CurrentStreak,
			QuizzesCompleted: profile.TotalQuizzes,
			AverageScore:     averageScore(profile),
		}
		if err := w.leagueRepo.UpsertLeaderboardEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func averageScore(p *model.UserProfile) float64 {
	if p.TotalQuizzes == 0 {
		return 0
	}
	return float64(p.TotalPoints) / float64(p.TotalQuizzes)
}
