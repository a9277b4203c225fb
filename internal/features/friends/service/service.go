package service

import (
	"context"

	"xforce-terminal-backend/internal/common/errors"
	authmodels "xforce-terminal-backend/internal/features/auth/models"
	"xforce-terminal-backend/internal/features/friends/models"
	"xforce-terminal-backend/internal/features/friends/repository/sqlite"
)

// UserLookup resolves target users for requests and search.
type UserLookup interface {
	ByID(ctx context.Context, id int64) (*authmodels.User, error)
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]authmodels.User, error)
}

// FriendsService manages friendship edges.
type FriendsService struct {
	friendships *sqlite.FriendshipRepository
	users       UserLookup
}

func NewFriendsService(friendships *sqlite.FriendshipRepository, users UserLookup) *FriendsService {
	return &FriendsService{friendships: friendships, users: users}
}

// Request sends a friend request to target.
func (s *FriendsService) Request(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return errors.NewValidationError("user_id", "cannot friend yourself")
	}

	target, err := s.users.ByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil || !target.IsActive {
		return errors.NewUserNotFoundError(targetID)
	}

	existing, err := s.friendships.Get(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if existing != nil {
		switch existing.Status {
		case models.StatusBlocked:
			return errors.NewForbiddenError("This user cannot be added")
		case models.StatusAccepted:
			return errors.NewValidationError("user_id", "already friends")
		case models.StatusPending:
			return errors.NewValidationError("user_id", "request already pending")
		}
	}

	return s.friendships.Upsert(ctx, userID, targetID, models.StatusPending)
}

// Accept approves a pending request from requester to the caller.
func (s *FriendsService) Accept(ctx context.Context, userID, requesterID int64) error {
	ok, err := s.friendships.UpdateStatus(ctx, requesterID, userID, models.StatusAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("friend request", requesterID)
	}
	return nil
}

// Reject declines a pending request from requester to the caller.
func (s *FriendsService) Reject(ctx context.Context, userID, requesterID int64) error {
	ok, err := s.friendships.UpdateStatus(ctx, requesterID, userID, models.StatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("friend request", requesterID)
	}
	return nil
}

// Block marks the edge blocked regardless of its previous state.
func (s *FriendsService) Block(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return errors.NewValidationError("user_id", "cannot block yourself")
	}
	return s.friendships.Upsert(ctx, userID, targetID, models.StatusBlocked)
}

// List returns the caller's friends plus pending traffic both ways.
func (s *FriendsService) List(ctx context.Context, userID int64) (*models.FriendsResponse, error) {
	friends, err := s.friendships.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.friendships.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.friendships.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.FriendsResponse{
		Friends:  friends,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

// AreFriends reports whether two users have an accepted edge.
func (s *FriendsService) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	edge, err := s.friendships.Get(ctx, a, b)
	if err != nil {
		return false, err
	}
	return edge != nil && edge.Status == models.StatusAccepted, nil
}

// SearchUsers finds users by username prefix.
func (s *FriendsService) SearchUsers(ctx context.Context, userID int64, query string) ([]models.FriendEntry, error) {
	if query == "" {
		return []models.FriendEntry{}, nil
	}
	users, err := s.users.Search(ctx, query, userID, 20)
	if err != nil {
		return nil, err
	}
	entries := make([]models.FriendEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, models.FriendEntry{
			UserID:   u.ID,
			Username: u.Username,
			Wallet:   u.WalletAddress,
		})
	}
	return entries, nil
}
