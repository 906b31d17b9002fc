package service

import (
	"context"
	"errors"
	"fmt"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
)

type ProfileService struct {
	profileRepo     repository.ProfileRepository
	leaderboardRepo repository.LeaderboardRepository
	log             *logger.Logger
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	leaderboardRepo repository.LeaderboardRepository,
	log *logger.Logger,
) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, leaderboardRepo: leaderboardRepo, log: log}
}

type UpdateProfileRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=1,max=60"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile not found: %w", err)
	}
	return profile, nil
}

// UpdateProfile changes display fields only. Stats columns are owned by the
// scoring flow and are not reachable from here.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.UserProfile, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.UpdateDisplay(ctx, userID, req.DisplayName, req.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// SearchUsers degrades to an empty result on store failure; callers debounce
// and discard stale responses, so an error here is worth less than an empty
// page.
func (s *ProfileService) SearchUsers(ctx context.Context, term string, limit int) []model.UserProfile {
	if term == "" {
		return nil
	}
	profiles, err := s.profileRepo.Search(ctx, term, limit)
	if err != nil {
		s.log.Warnf("user search failed for %q: %v", term, err)
		return nil
	}
	return profiles
}

// GetGlobalLeaderboard reads the Redis points board and hydrates each entry
// with its profile; when the board is empty or unavailable it falls back to
// ordering profiles directly in the store.
func (s *ProfileService) GetGlobalLeaderboard(ctx context.Context, limit int) ([]model.GlobalLeaderboardEntry, error) {
	ranked, err := s.leaderboardRepo.TopByPoints(ctx, int64(limit))
	if err != nil || len(ranked) == 0 {
		if err != nil {
			s.log.Warnf("redis leaderboard unavailable, falling back to store: %v", err)
		}
		return s.leaderboardFromStore(ctx, limit)
	}

	entries := make([]model.GlobalLeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		profile, err := s.profileRepo.FindByID(ctx, r.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue // stale board member
			}
			return nil, fmt.Errorf("failed to hydrate leaderboard entry: %w", err)
		}
		entries = append(entries, model.GlobalLeaderboardEntry{
			Rank:          int(r.Rank),
			UserID:        profile.ID,
			Username:      profile.Username,
			DisplayName:   profile.DisplayName,
			TotalPoints:   profile.TotalPoints,
			CurrentStreak: profile.CurrentStreak,
		})
	}
	return entries, nil
}

func (s *ProfileService) leaderboardFromStore(ctx context.Context, limit int) ([]model.GlobalLeaderboardEntry, error) {
	profiles, err := s.profileRepo.ListTopByPoints(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	entries := make([]model.GlobalLeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, model.GlobalLeaderboardEntry{
			Rank:          i + 1,
			UserID:        p.ID,
			Username:      p.Username,
			DisplayName:   p.DisplayName,
			TotalPoints:   p.TotalPoints,
			CurrentStreak: p.CurrentStreak,
		})
	}
	return entries, nil
}
