package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// FollowService maintains the directed follow graph.
//
// Follows feed the membership trust gate: only a user who already follows a
// group's author can be added to that group. The graph itself has just two
// rules — no self-loops, and one edge per pair.
type FollowService struct {
	users  repository.UserRepository
	rels   repository.RelationshipRepository
	logger *slog.Logger
}

func NewFollowService(
	users repository.UserRepository,
	rels repository.RelationshipRepository,
	logger *slog.Logger,
) *FollowService {
	return &FollowService{users: users, rels: rels, logger: logger}
}

// Follow adds principal→followee. Following someone who doesn't exist is
// NotFound; following yourself is InvalidRelationship; following someone you
// already follow is a no-op.
func (s *FollowService) Follow(ctx context.Context, principal *model.User, followeeID string) error {
	if _, err := s.users.GetByID(ctx, followeeID); err != nil {
		return err
	}

	if err := s.rels.AddFollow(ctx, principal.ID, followeeID); err != nil {
		return fmt.Errorf("following %s: %w", followeeID, err)
	}

	s.logger.Info("follow added",
		slog.String("follower", principal.ID),
		slog.String("followee", followeeID),
	)
	return nil
}

// Unfollow removes principal→followee. Unfollowing someone you don't follow
// (or who no longer exists) is a no-op — the end state is the same either way.
func (s *FollowService) Unfollow(ctx context.Context, principal *model.User, followeeID string) error {
	if err := s.rels.RemoveFollow(ctx, principal.ID, followeeID); err != nil {
		return fmt.Errorf("unfollowing %s: %w", followeeID, err)
	}

	s.logger.Info("follow removed",
		slog.String("follower", principal.ID),
		slog.String("followee", followeeID),
	)
	return nil
}

// Followers returns a snapshot of the users following the principal.
func (s *FollowService) Followers(ctx context.Context, principal *model.User) ([]model.User, error) {
	followers, err := s.rels.ListFollowers(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("listing followers of %s: %w", principal.ID, err)
	}
	return followers, nil
}

// Following returns a snapshot of the users the principal follows.
func (s *FollowService) Following(ctx context.Context, principal *model.User) ([]model.User, error) {
	following, err := s.rels.ListFollowing(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("listing following of %s: %w", principal.ID, err)
	}
	return following, nil
}
