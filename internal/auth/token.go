// Package auth provides JWT token issuance/validation, bcrypt password
// hashing, and the HTTP middleware that resolves a bearer token into the
// authenticated user (the "principal").
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. POST /api/v1/auth/sign-up → user record created with a bcrypt hash
// 2. POST /api/v1/auth/access-token → credentials verified, JWT issued
// 3. On subsequent API calls, the client sends "Authorization: Bearer <jwt>";
//    middleware validates it, looks up the user, and puts the principal in
//    the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (the user id and expiry) is inside the
// signed token. The signature ensures nobody can tamper with it without the
// secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer identifies tokens minted by this server. Validation rejects tokens
// issued by anything else, even when signed with the same secret.
const issuer = "mypeople-api"

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens and the access
// token lifetime. The same secret must be used for both operations — keep it
// safe and rotate it periodically in production.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and access
// token lifetime. The secret should be at least 32 bytes of random data in
// production. Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// tokenSubject is the nested subject object inside the token payload.
//
// PAYLOAD CONTRACT:
// The payload embeds {"subject": {"user_id": "..."}} rather than using the
// registered "sub" claim. This is the wire contract existing clients depend
// on, so it is kept even though "sub" would be the more conventional spot.
type tokenSubject struct {
	UserID string `json:"user_id"`
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims for the standard
// expiry/issued-at/issuer fields and adds our nested subject object.
// The outer Subject field shadows RegisteredClaims.Subject, which we leave
// empty on purpose.
type claims struct {
	Subject tokenSubject `json:"subject"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new JWT access token for the given userID
// using the service's configured lifetime.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key for signing
// and verifying. Fine for a single-server deployment; switch to RS256 if
// tokens ever need to be verified by other services.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Subject: tokenSubject{UserID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the userID (stored in the payload's subject.user_id) if the token
// is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches ours (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// A structurally valid token whose subject.user_id is empty is rejected too —
// callers must always get a non-empty user id back.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject.UserID == "" {
		return "", fmt.Errorf("auth: token has no subject user id")
	}

	return c.Subject.UserID, nil
}
