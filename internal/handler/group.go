package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
	"github.com/mypeople/backend/internal/service"
)

// GroupHandler serves the group CRUD and membership routes.
type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// parseFilter reads the filter_by query parameter shared by the group and
// event list routes.
func parseFilter(w http.ResponseWriter, r *http.Request) (repository.GroupFilter, bool) {
	filter, err := repository.ParseGroupFilter(r.URL.Query().Get("filter_by"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("filter_by", err.Error()))
		return 0, false
	}
	return filter, true
}

type createGroupRequest struct {
	Name          string `json:"name"`
	CoverImageURL string `json:"coverImageUrl"`
}

// Create handles POST /api/v1/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req createGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	group, err := h.groups.Create(r.Context(), user, req.Name, req.CoverImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusCreated, "group created successfully", group)
}

// List handles GET /api/v1/groups?filter_by=authored|membership.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	groups, err := h.groups.List(r.Context(), user, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "groups fetched successfully", groups)
}

// Get handles GET /api/v1/groups/{groupID}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	group, err := h.groups.Get(r.Context(), chi.URLParam(r, "groupID"), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "group fetched successfully", group)
}

type updateGroupRequest struct {
	Name string `json:"name"`
}

// Update handles PATCH /api/v1/groups/{groupID}.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	group, err := h.groups.Update(r.Context(), chi.URLParam(r, "groupID"), user, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "group updated successfully", group)
}

// UpdateCoverImage handles PATCH /api/v1/groups/{groupID}/update-cover-image.
func (h *GroupHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req updateImageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	group, err := h.groups.UpdateCoverImage(r.Context(), chi.URLParam(r, "groupID"), user, req.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "group cover image updated successfully", group)
}

type addMembersRequest struct {
	UserIDs []string `json:"userIds"`
}

// addMembersResponse carries the group with its refreshed member list plus
// the per-candidate outcome report.
type addMembersResponse struct {
	Group  *model.Group        `json:"group"`
	Report *model.MemberReport `json:"report"`
}

// AddMembers handles PATCH /api/v1/groups/{groupID}/add-group-members.
// Ineligible candidates are reported, never erred — the response says exactly
// who got in and why the rest didn't.
func (h *GroupHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req addMembersRequest
	if !decodeBody(w, r, &req) {
		return
	}

	group, report, err := h.groups.AddMembers(r.Context(), chi.URLParam(r, "groupID"), user, req.UserIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "group members processed", addMembersResponse{
		Group:  group,
		Report: report,
	})
}

// Delete handles DELETE /api/v1/groups/{groupID}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.groups.Delete(r.Context(), chi.URLParam(r, "groupID"), user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
