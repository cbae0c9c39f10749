package handler

import (
	"net/http"

	"github.com/mypeople/backend/internal/service"
)

// AuthHandler serves the two unauthenticated endpoints: account creation and
// the access-token exchange.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignUp handles POST /api/v1/auth/sign-up.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusCreated, "user created successfully", user)
}

type accessTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AccessToken handles POST /api/v1/auth/access-token. The grant is a plain
// email/password exchange; the response carries a bearer JWT.
func (h *AuthHandler) AccessToken(w http.ResponseWriter, r *http.Request) {
	var req accessTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.auth.IssueAccessToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "access token issued", accessTokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
