package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samhotchkiss/raid-ledger/internal/middleware"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
	"github.com/samhotchkiss/raid-ledger/internal/team"
)

// TeamHandler serves the derived team views.
type TeamHandler struct {
	Registry *Registry
}

// viewFor derives the requesting viewer's filtered view. Without a member
// header the unfiltered team view is returned.
func (h *TeamHandler) viewFor(r *http.Request) *team.View {
	teamID := middleware.TeamFromContext(r.Context())
	viewerID := middleware.MemberFromContext(r.Context())
	tracker := h.Registry.Tracker(r.Context(), teamID)
	overlay := h.Registry.Overlay(r.Context(), teamID, viewerID)
	return tracker.ViewFor(viewerID, overlay)
}

// TasksResponse is the payload for GET /api/team/tasks.
type TasksResponse struct {
	Generation   uint64                   `json:"generation"`
	Completion   progress.CompletionMap   `json:"completion"`
	Availability progress.AvailabilityMap `json:"availability"`
	Objectives   progress.ObjectiveMap    `json:"objectives"`
}

// ListTasks handles GET /api/team/tasks.
func (h *TeamHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	view := h.viewFor(r)
	sendJSON(w, http.StatusOK, TasksResponse{
		Generation:   view.Generation,
		Completion:   view.Completion,
		Availability: view.Availability,
		Objectives:   view.Objectives,
	})
}

// TaskResponse is the payload for GET /api/team/tasks/{id}.
type TaskResponse struct {
	TaskID       string                              `json:"task_id"`
	Completion   map[string]progress.CompletionFlags `json:"completion"`
	Availability map[string]bool                     `json:"availability"`
}

// GetTask handles GET /api/team/tasks/{id}.
func (h *TeamHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing task id"})
		return
	}

	teamID := middleware.TeamFromContext(r.Context())
	tracker := h.Registry.Tracker(r.Context(), teamID)
	if _, ok := tracker.Catalog().Task(taskID); !ok {
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "unknown task"})
		return
	}

	view := h.viewFor(r)
	completion := view.Completion[taskID]
	if completion == nil {
		completion = map[string]progress.CompletionFlags{}
	}
	availability := view.Availability[taskID]
	if availability == nil {
		availability = map[string]bool{}
	}

	sendJSON(w, http.StatusOK, TaskResponse{
		TaskID:       taskID,
		Completion:   completion,
		Availability: availability,
	})
}

// HideoutResponse is the payload for GET /api/team/hideout.
type HideoutResponse struct {
	Generation uint64               `json:"generation"`
	Stations   team.HideoutLevelMap `json:"stations"`
}

// GetHideout handles GET /api/team/hideout.
func (h *TeamHandler) GetHideout(w http.ResponseWriter, r *http.Request) {
	view := h.viewFor(r)
	sendJSON(w, http.StatusOK, HideoutResponse{
		Generation: view.Generation,
		Stations:   view.Hideout,
	})
}

// ItemsResponse is the payload for GET /api/team/items.
type ItemsResponse struct {
	Generation uint64                      `json:"generation"`
	Items      map[string]*team.ItemDemand `json:"items"`
}

// GetNeededItems handles GET /api/team/items.
func (h *TeamHandler) GetNeededItems(w http.ResponseWriter, r *http.Request) {
	view := h.viewFor(r)
	sendJSON(w, http.StatusOK, ItemsResponse{
		Generation: view.Generation,
		Items:      view.NeededItems,
	})
}

// MembersResponse is the payload for GET /api/team/members.
type MembersResponse struct {
	Generation uint64               `json:"generation"`
	Members    []team.MemberSummary `json:"members"`
}

// ListMembers handles GET /api/team/members.
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	view := h.viewFor(r)
	sendJSON(w, http.StatusOK, MembersResponse{
		Generation: view.Generation,
		Members:    view.Members,
	})
}
