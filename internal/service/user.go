package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// UserService handles profile mutations for the authenticated user.
// The principal can only ever operate on itself — there is no admin concept.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// UpdateProfile updates the principal's handle and display name.
//
// Empty fields mean "keep the current value" — the PATCH semantics of the
// API. A taken username surfaces as the repository's Conflict error.
func (s *UserService) UpdateProfile(ctx context.Context, principal *model.User, username, displayName string) (*model.User, error) {
	if username = strings.TrimSpace(username); username != "" {
		principal.Username = username
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		principal.DisplayName = displayName
	}

	if err := s.users.Update(ctx, principal); err != nil {
		return nil, fmt.Errorf("updating profile of %s: %w", principal.ID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", principal.ID))
	return principal, nil
}

// UpdateProfileImage sets the principal's avatar reference.
//
// The backend stores only the reference — upload and hosting happen
// elsewhere, so all we validate is that a reference was actually supplied.
func (s *UserService) UpdateProfileImage(ctx context.Context, principal *model.User, imageURL string) (*model.User, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, apperror.ValidationFailed("profile_image_url", "an image reference is required")
	}

	principal.ProfileImageURL = imageURL
	if err := s.users.Update(ctx, principal); err != nil {
		return nil, fmt.Errorf("updating profile image of %s: %w", principal.ID, err)
	}

	s.logger.Info("profile image updated", slog.String("userID", principal.ID))
	return principal, nil
}
