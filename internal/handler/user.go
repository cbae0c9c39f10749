package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/auth"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/service"
)

// principal pulls the authenticated user out of the request context. Every
// route below is mounted behind auth.RequireAuth, so a miss here means a
// wiring bug — it still fails closed with the uniform 401.
func principal(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return nil, false
	}
	return user, true
}

// UserHandler serves the current user's profile and the follow graph.
type UserHandler struct {
	users   *service.UserService
	follows *service.FollowService
}

func NewUserHandler(users *service.UserService, follows *service.FollowService) *UserHandler {
	return &UserHandler{users: users, follows: follows}
}

// Me handles GET /api/v1/user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, http.StatusOK, "user fetched successfully", user)
}

type updateProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// UpdateProfile handles PATCH /api/v1/user. Absent fields keep their current
// values.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user, req.Username, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "user updated successfully", updated)
}

type updateImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// UpdateProfileImage handles POST /api/v1/user/update-profile-image. The body
// carries a reference to an already-hosted image; no bytes move through here.
func (h *UserHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateImageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateProfileImage(r.Context(), user, req.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "profile image updated successfully", updated)
}

// Followers handles GET /api/v1/user/followers.
func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	followers, err := h.follows.Followers(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "followers fetched successfully", followers)
}

// Following handles GET /api/v1/user/following.
func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	following, err := h.follows.Following(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "following fetched successfully", following)
}

// Follow handles POST /api/v1/users/{userID}/follow.
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.follows.Follow(r.Context(), user, chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /api/v1/users/{userID}/follow.
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.follows.Unfollow(r.Context(), user, chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
