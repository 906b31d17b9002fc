package service

import (
	"context"
	"errors"
	"fmt"

	"quizleague/internal/common"
	"quizleague/internal/domain/model"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/logger"
	"quizleague/internal/platform/queue"

	"github.com/google/uuid"
)

// FriendService runs the friendship lifecycle. A pair of users has at most
// one row in any direction; accepted, declined and blocked are terminal for
// the row, and only deleting it (remove friend) returns the pair to "none".
type FriendService struct {
	friendshipRepo   repository.FriendshipRepository
	profileRepo      repository.ProfileRepository
	notificationRepo repository.NotificationRepository
	events           EventPublisher
	log              *logger.Logger
}

func NewFriendService(
	friendshipRepo repository.FriendshipRepository,
	profileRepo repository.ProfileRepository,
	notificationRepo repository.NotificationRepository,
	events EventPublisher,
	log *logger.Logger,
) *FriendService {
	return &FriendService{
		friendshipRepo:   friendshipRepo,
		profileRepo:      profileRepo,
		notificationRepo: notificationRepo,
		events:           events,
		log:              log,
	}
}

// SendRequest creates a pending row requester -> addressee. Any existing row
// for the pair, in either direction and in any status, blocks a new request.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, addresseeID string) (*model.Friendship, error) {
	if requesterID == addresseeID {
		return nil, common.ErrSelfRequest
	}

	addressee, err := s.profileRepo.FindByID(ctx, addresseeID)
	if err != nil {
		return nil, fmt.Errorf("addressee not found: %w", err)
	}

	// Fast-path duplicate check; the canonical-pair unique index backstops
	// the race where both directions are requested concurrently.
	if _, err := s.friendshipRepo.FindByPair(ctx, requesterID, addresseeID); err == nil {
		return nil, common.Errorf("friendship request already exists: %w", common.ErrDuplicateRequest)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing friendship: %w", err)
	}

	friendship := &model.Friendship{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      model.FriendshipPending,
	}
	if err := s.friendshipRepo.Create(ctx, friendship); err != nil {
		return nil, fmt.Errorf("failed to create friendship: %w", err)
	}

	s.notify(ctx, addressee.ID, model.NotificationFriendRequest,
		"New friend request", "You have a new friend request")
	return friendship, nil
}

// AcceptRequest transitions pending -> accepted. Only the addressee may
// accept. Accepting an already-accepted row is a no-op; declined and blocked
// rows stay put.
func (s *FriendService) AcceptRequest(ctx context.Context, friendshipID, callerID string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByID(ctx, friendshipID)
	if err != nil {
		return nil, fmt.Errorf("friendship not found: %w", err)
	}
	if friendship.AddresseeID != callerID {
		return nil, common.Errorf("only the addressee can accept a request: %w", common.ErrForbidden)
	}

	switch friendship.Status {
	case model.FriendshipAccepted:
		return friendship, nil // idempotent
	case model.FriendshipPending:
		// fall through to the transition
	default:
		return nil, common.Errorf("cannot accept a %s friendship: %w", friendship.Status, common.ErrConflict)
	}

	updated, err := s.friendshipRepo.UpdateStatus(ctx, friendshipID, model.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to accept request: %w", err)
	}

	s.notify(ctx, updated.RequesterID, model.NotificationFriendAccepted,
		"Friend request accepted", "Your friend request was accepted")
	return updated, nil
}

// DeclineRequest transitions pending -> declined (addressee only, idempotent
// on an already-declined row).
func (s *FriendService) DeclineRequest(ctx context.Context, friendshipID, callerID string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByID(ctx, friendshipID)
	if err != nil {
		return nil, fmt.Errorf("friendship not found: %w", err)
	}
	if friendship.AddresseeID != callerID {
		return nil, common.Errorf("only the addressee can decline a request: %w", common.ErrForbidden)
	}

	switch friendship.Status {
	case model.FriendshipDeclined:
		return friendship, nil
	case model.FriendshipPending:
		// fall through
	default:
		return nil, common.Errorf("cannot decline a %s friendship: %w", friendship.Status, common.ErrConflict)
	}

	updated, err := s.friendshipRepo.UpdateStatus(ctx, friendshipID, model.FriendshipDeclined)
	if err != nil {
		return nil, fmt.Errorf("failed to decline request: %w", err)
	}
	return updated, nil
}

// BlockUser marks the row blocked. Either participant may block, from any
// status.
func (s *FriendService) BlockUser(ctx context.Context, friendshipID, callerID string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByID(ctx, friendshipID)
	if err != nil {
		return nil, fmt.Errorf("friendship not found: %w", err)
	}
	if friendship.RequesterID != callerID && friendship.AddresseeID != callerID {
		return nil, common.ErrForbidden
	}
	if friendship.Status == model.FriendshipBlocked {
		return friendship, nil
	}

	updated, err := s.friendshipRepo.UpdateStatus(ctx, friendshipID, model.FriendshipBlocked)
	if err != nil {
		return nil, fmt.Errorf("failed to block user: %w", err)
	}
	return updated, nil
}

// RemoveFriend deletes the row, returning the pair to "none" and permitting
// a future re-request.
func (s *FriendService) RemoveFriend(ctx context.Context, friendshipID, callerID string) error {
	friendship, err := s.friendshipRepo.FindByID(ctx, friendshipID)
	if err != nil {
		return fmt.Errorf("friendship not found: %w", err)
	}
	if friendship.RequesterID != callerID && friendship.AddresseeID != callerID {
		return common.ErrForbidden
	}
	if err := s.friendshipRepo.Delete(ctx, friendshipID); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return nil
}

// GetFriendshipStatus is the symmetric pair lookup: the same row is returned
// regardless of argument order, and nil means "none".
func (s *FriendService) GetFriendshipStatus(ctx context.Context, userA, userB string) (*model.Friendship, error) {
	friendship, err := s.friendshipRepo.FindByPair(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up friendship: %w", err)
	}
	return friendship, nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]model.UserFriend, error) {
	friends, err := s.friendshipRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

func (s *FriendService) ListIncomingRequests(ctx context.Context, userID string) ([]model.Friendship, error) {
	requests, err := s.friendshipRepo.ListIncomingPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}
	return requests, nil
}

func (s *FriendService) ListSentRequests(ctx context.Context, userID string) ([]model.Friendship, error) {
	requests, err := s.friendshipRepo.ListOutgoingPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	return requests, nil
}

// notify inserts a notification row and publishes it to the user's realtime
// topic. Both are best-effort; the friendship transition has already landed.
func (s *FriendService) notify(ctx context.Context, userID string, kind model.NotificationType, title, message string) {
	notification := &model.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.log.WithUserID(userID).Warnf("failed to create %s notification: %v", kind, err)
		return
	}
	if err := s.events.Publish(ctx, "notifications:"+userID, queue.Event{
		Type:   string(kind),
		UserID: userID,
	}); err != nil {
		s.log.WithUserID(userID).Warnf("failed to publish %s notification: %v", kind, err)
	}
}
