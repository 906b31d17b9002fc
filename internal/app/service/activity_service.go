package service

import (
	"context"
	"encoding/json"
	"fmt"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
	"quizleague/internal/platform/queue"

	"github.com/google/uuid"
)

type ActivityService struct {
	activityRepo   repository.ActivityRepository
	friendshipRepo repository.FriendshipRepository
	events         EventPublisher
	log            *logger.Logger
}

func NewActivityService(
	activityRepo repository.ActivityRepository,
	friendshipRepo repository.FriendshipRepository,
	events EventPublisher,
	log *logger.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo:   activityRepo,
		friendshipRepo: friendshipRepo,
		events:         events,
		log:            log,
	}
}

type CreateActivityRequest struct {
	ActivityType model.ActivityType `json:"activity_type" validate:"required"`
	Content      string             `json:"content" validate:"required,max=500"`
	Metadata     json.RawMessage    `json:"metadata,omitempty"`
	IsPublic     *bool              `json:"is_public,omitempty"`
}

// GetFriendFeed returns the public activities of the caller's accepted
// friends, newest first. No friends means an empty feed, not an error.
func (s *ActivityService) GetFriendFeed(ctx context.Context, userID string, limit int) ([]model.UserActivity, error) {
	friendIDs, err := s.friendshipRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve friends: %w", err)
	}
	if len(friendIDs) == 0 {
		return nil, nil
	}
	activities, err := s.activityRepo.ListPublicByUsers(ctx, friendIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity feed: %w", err)
	}
	return activities, nil
}

func (s *ActivityService) CreateActivity(ctx context.Context, userID string, req CreateActivityRequest) (*model.UserActivity, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	activity := &model.UserActivity{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActivityType: req.ActivityType,
		Content:      req.Content,
		Metadata:     req.Metadata,
		IsPublic:     isPublic,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	if isPublic {
		if err := s.events.Publish(ctx, "activities:"+userID, queue.Event{
			Type:   string(activity.ActivityType),
			UserID: userID,
		}); err != nil {
			s.log.WithUserID(userID).Warnf("failed to publish activity event: %v", err)
		}
	}
	return activity, nil
}

func (s *ActivityService) LikeActivity(ctx context.Context, activityID, userID string) error {
	if err := s.activityRepo.CreateLike(ctx, activityID, userID); err != nil {
		return fmt.Errorf("failed to like activity: %w", err)
	}
	return nil
}

func (s *ActivityService) UnlikeActivity(ctx context.Context, activityID, userID string) error {
	if err := s.activityRepo.DeleteLike(ctx, activityID, userID); err != nil {
		return fmt.Errorf("failed to unlike activity: %w", err)
	}
	return nil
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

func (s *ActivityService) CommentOnActivity(ctx context.Context, activityID, userID string, req CommentRequest) (*model.ActivityComment, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	comment := &model.ActivityComment{
		ID:         uuid.NewString(),
		ActivityID: activityID,
		UserID:     userID,
		Content:    req.Content,
	}
	if err := s.activityRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (s *ActivityService) ListComments(ctx context.Context, activityID string) ([]model.ActivityComment, error) {
	comments, err := s.activityRepo.ListComments(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
