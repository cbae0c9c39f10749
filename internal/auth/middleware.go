package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/mypeople/backend/internal/model"
)

// PrincipalResolver maps an opaque bearer credential to the authenticated
// user. The auth service implements it; the middleware depends only on this
// interface so it can be tested with a stub.
//
// FAIL-CLOSED CONTRACT:
// Any failure — malformed token, expired token, missing subject claim, or no
// user record behind the embedded id — must come back as the same
// apperror.Unauthorized outcome. The middleware never distinguishes between
// them, so a caller can't probe which step rejected the credential.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*model.User, error)
}

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package can
// create a key of type contextKey, so only this package can read or write
// principal values in the context.
type contextKey string

const principalKey contextKey = "principal"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, resolves
// it to a full user record via the PrincipalResolver, and stores the principal
// in the request context. If resolution fails for any reason, it returns 401
// Unauthorized and stops the request chain.
func RequireAuth(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			// Store the principal in context so handlers can read it
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext retrieves the authenticated user from the request
// context.
//
// Returns (nil, false) if no principal is present — which only happens when a
// handler is reached without going through RequireAuth. Handlers on protected
// routes can treat that as a programming error.
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	principal, ok := ctx.Value(principalKey).(*model.User)
	return principal, ok && principal != nil
}

// bearerToken extracts the credential from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeUnauthorized sends the uniform 401 body. The WWW-Authenticate header
// tells clients which scheme to retry with.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"could not validate credentials"}`))
}
