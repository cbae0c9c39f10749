package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mypeople/backend/internal/service"
)

// EventHandler serves the event routes. Timestamps travel as RFC 3339
// strings; a zero value in a PATCH means "keep the current value".
type EventHandler struct {
	events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type eventRequest struct {
	Title         string    `json:"title"`
	Location      string    `json:"location"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	GroupID       string    `json:"groupId"`
	CoverImageURL string    `json:"coverImageUrl"`
}

// Create handles POST /api/v1/events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := h.events.Create(r.Context(), user, req.GroupID,
		req.Title, req.Location, req.Start, req.End, req.CoverImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusCreated, "event created successfully", event)
}

// List handles GET /api/v1/events?filter_by=authored|membership.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	events, err := h.events.List(r.Context(), user, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "events fetched successfully", events)
}

// Get handles GET /api/v1/events/{eventID}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "eventID"), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "event fetched successfully", event)
}

// Update handles PATCH /api/v1/events/{eventID}. The group reference is not
// part of the request shape: an event can never move between groups.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := h.events.Update(r.Context(), chi.URLParam(r, "eventID"), user,
		req.Title, req.Location, req.Start, req.End, req.CoverImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "event updated successfully", event)
}
