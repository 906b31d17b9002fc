package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/config"
	"quizleague/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type LeagueService struct {
	leagueRepo   repository.LeagueRepository
	activityRepo repository.ActivityRepository
	db           *sql.DB // For transactions
	log          *logger.Logger
}

func NewLeagueService(
	leagueRepo repository.LeagueRepository,
	activityRepo repository.ActivityRepository,
	db *sql.DB,
	log *logger.Logger,
) *LeagueService {
	return &LeagueService{leagueRepo: leagueRepo, activityRepo: activityRepo, db: db, log: log}
}

type CreateLeagueRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=60"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Icon        string  `json:"icon,omitempty"`
	IsPrivate   bool    `json:"is_private"`
	MaxMembers  int     `json:"max_members" validate:"omitempty,min=2,max=500"`
}

// CreateLeague inserts the league and the creator's membership together.
func (s *LeagueService) CreateLeague(ctx context.Context, creatorID string, req CreateLeagueRequest) (*model.League, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Icon == "" {
		req.Icon = "🏆"
	}
	if req.MaxMembers == 0 {
		req.MaxMembers = config.AppConfig.LeagueDefaultMaxSize
	}

	league := &model.League{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		CreatorID:   creatorID,
		Icon:        req.Icon,
		IsPrivate:   req.IsPrivate,
		InviteCode:  newInviteCode(),
		MaxMembers:  req.MaxMembers,
		IsActive:    true,
	}
	membership := &model.LeagueMembership{
		ID:       uuid.NewString(),
		LeagueID: league.ID,
		UserID:   creatorID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.leagueRepo.Create(ctx, tx, league); err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	if err := s.leagueRepo.CreateMembership(ctx, tx, membership); err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return league, nil
}

func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:config.AppConfig.LeagueInviteCodeLen])
}

// JoinLeague enforces the capacity check and rejoins a previously-left
// league by reactivating the old membership row.
func (s *LeagueService) JoinLeague(ctx context.Context, userID, leagueID string) (*model.LeagueMembership, error) {
	league, err := s.leagueRepo.FindByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}

	existing, err := s.leagueRepo.FindMembership(ctx, leagueID, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing != nil && existing.IsActive {
		return nil, common.Errorf("already a member of this league: %w", common.ErrConflict)
	}

	count, err := s.leagueRepo.CountActiveMembers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if count >= league.MaxMembers {
		return nil, common.Errorf("league %s is at capacity: %w", league.Name, common.ErrLeagueFull)
	}

	if existing != nil {
		if err := s.leagueRepo.ReactivateMembership(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to rejoin league: %w", err)
		}
		existing.IsActive = true
		s.recordJoin(ctx, userID, league)
		return existing, nil
	}

	membership := &model.LeagueMembership{
		ID:       uuid.NewString(),
		LeagueID: leagueID,
		UserID:   userID,
	}
	if err := s.leagueRepo.CreateMembership(ctx, nil, membership); err != nil {
		return nil, fmt.Errorf("failed to join league: %w", err)
	}
	s.recordJoin(ctx, userID, league)
	return membership, nil
}

func (s *LeagueService) JoinLeagueByCode(ctx context.Context, userID, inviteCode string) (*model.LeagueMembership, error) {
	league, err := s.leagueRepo.FindByInviteCode(ctx, strings.ToUpper(inviteCode))
	if err != nil {
		return nil, fmt.Errorf("invalid invite code: %w", err)
	}
	return s.JoinLeague(ctx, userID, league.ID)
}

func (s *LeagueService) LeaveLeague(ctx context.Context, userID, leagueID string) error {
	if err := s.leagueRepo.DeactivateMembership(ctx, leagueID, userID); err != nil {
		return fmt.Errorf("failed to leave league: %w", err)
	}
	return nil
}

func (s *LeagueService) GetLeagueLeaderboard(ctx context.Context, leagueID string) ([]model.LeagueLeaderboardEntry, error) {
	if _, err := s.leagueRepo.FindByID(ctx, leagueID); err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}
	entries, err := s.leagueRepo.ListLeaderboard(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load league leaderboard: %w", err)
	}
	return entries, nil
}

func (s *LeagueService) ListMembers(ctx context.Context, leagueID string) ([]model.LeagueMembership, error) {
	members, err := s.leagueRepo.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *LeagueService) ListMyLeagues(ctx context.Context, userID string) ([]model.League, error) {
	leagues, err := s.leagueRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	return leagues, nil
}

// SearchPublicLeagues degrades to an empty result on store failure, like
// user search.
func (s *LeagueService) SearchPublicLeagues(ctx context.Context, term string, limit int) []model.League {
	leagues, err := s.leagueRepo.SearchPublic(ctx, term, limit)
	if err != nil {
		s.log.Warnf("league search failed for %q: %v", term, err)
		return nil
	}
	return leagues
}

func (s *LeagueService) recordJoin(ctx context.Context, userID string, league *model.League) {
	activity := &model.UserActivity{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActivityType: model.ActivityLeagueJoined,
		Content:      fmt.Sprintf("joined the league %s", league.Name),
		IsPublic:     !league.IsPrivate,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.WithUserID(userID).Warnf("failed to record league join activity: %v", err)
	}
}
