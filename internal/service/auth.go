// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → authorization rules, validation, orchestration
//	Repository (Data layer)  → reads/writes to the database
//
// The services are where every authorization decision lives: who may read or
// mutate a group, who may access an event, who is eligible for membership.
// Handlers never decide, repositories never decide — they only carry data.
//
// Each service takes repository INTERFACES, not the concrete sqlite types,
// so tests substitute mocks and the services never import the sqlite package.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/auth"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// AuthService handles sign-up, the access-token flow, and principal
// resolution.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// SignUp creates a user account with a bcrypt-hashed credential.
//
// Email verification is deliberately bypassed — sign-up immediately yields an
// account that can hit /access-token. A duplicate email surfaces as the
// repository's Conflict error.
func (s *AuthService) SignUp(ctx context.Context, email, password, confirmPassword string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if password != confirmPassword {
		return nil, apperror.ValidationFailed("confirm_password", "passwords do not match")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("signing up %s: %w", email, err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, nil
}

// IssueAccessToken verifies the credentials and returns a signed JWT.
//
// Unknown email and wrong password collapse into the same Unauthorized
// outcome — the response must not reveal whether the email is registered.
func (s *AuthService) IssueAccessToken(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", apperror.Unauthorized()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", apperror.Unauthorized()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("access token issued", slog.String("userID", user.ID))
	return token, nil
}

// ResolvePrincipal maps a bearer credential to the authenticated user.
//
// FAIL-CLOSED: a malformed, expired, or tampered token, a token without a
// subject user id, and a valid token whose user no longer exists all return
// the identical Unauthorized error. This is a pure function of the token
// string and the current users table — no side effects.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		// A valid signature over a missing user must look exactly like a bad
		// token to the caller.
		return nil, apperror.Unauthorized()
	}

	return user, nil
}

// compile-time check: AuthService satisfies the middleware's resolver contract
var _ auth.PrincipalResolver = (*AuthService)(nil)
