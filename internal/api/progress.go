package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/samhotchkiss/raid-ledger/internal/middleware"
	"github.com/samhotchkiss/raid-ledger/internal/team"
	"github.com/samhotchkiss/raid-ledger/internal/ws"
)

// ProgressHandler accepts self progress writes over REST. The websocket
// feed is the primary transport; these endpoints serve clients without a
// live socket.
type ProgressHandler struct {
	Registry *Registry
}

func (h *ProgressHandler) ids(r *http.Request) (teamID, memberID string, ok bool) {
	teamID = middleware.TeamFromContext(r.Context())
	memberID = middleware.MemberFromContext(r.Context())
	return teamID, memberID, teamID != "" && memberID != ""
}

type taskUpdateRequest struct {
	TaskID   string `json:"task_id"`
	Complete bool   `json:"complete"`
	Failed   bool   `json:"failed"`
}

// UpdateTask handles POST /api/progress/task.
func (h *ProgressHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, ok := h.ids(r)
	if !ok {
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing member"})
		return
	}

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TaskID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid task update"})
		return
	}

	err := h.Registry.ApplyProgress(r.Context(), teamID, memberID, ws.ProgressUpdate{
		Task: &ws.TaskUpdate{TaskID: req.TaskID, Complete: req.Complete, Failed: req.Failed},
	})
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to apply update"})
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type objectiveUpdateRequest struct {
	ObjectiveID string `json:"objective_id"`
	Complete    bool   `json:"complete"`
	Count       int    `json:"count"`
}

// UpdateObjective handles POST /api/progress/objective.
func (h *ProgressHandler) UpdateObjective(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, ok := h.ids(r)
	if !ok {
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing member"})
		return
	}

	var req objectiveUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ObjectiveID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid objective update"})
		return
	}
	if req.Count < 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "count must not be negative"})
		return
	}

	err := h.Registry.ApplyProgress(r.Context(), teamID, memberID, ws.ProgressUpdate{
		Objective: &ws.ObjectiveUpdate{ObjectiveID: req.ObjectiveID, Complete: req.Complete, Count: req.Count},
	})
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to apply update"})
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type moduleUpdateRequest struct {
	LevelID  string `json:"level_id"`
	Complete bool   `json:"complete"`
}

// UpdateModule handles POST /api/progress/hideout.
func (h *ProgressHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, ok := h.ids(r)
	if !ok {
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing member"})
		return
	}

	var req moduleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.LevelID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid hideout update"})
		return
	}

	err := h.Registry.ApplyProgress(r.Context(), teamID, memberID, ws.ProgressUpdate{
		Module: &ws.ModuleUpdate{LevelID: req.LevelID, Complete: req.Complete},
	})
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to apply update"})
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UpdateProfile handles POST /api/progress/profile.
func (h *ProgressHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, ok := h.ids(r)
	if !ok {
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing member"})
		return
	}

	var req team.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid profile update"})
		return
	}
	if req.Level != nil && *req.Level < 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "level must not be negative"})
		return
	}

	err := h.Registry.ApplyProgress(r.Context(), teamID, memberID, ws.ProgressUpdate{Profile: &req})
	if err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to apply update"})
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type visibilityRequest struct {
	HiddenIDs []string `json:"hidden_ids"`
	HideAll   bool     `json:"hide_all"`
}

// UpdateVisibility handles PUT /api/visibility.
func (h *ProgressHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	teamID, viewerID, ok := h.ids(r)
	if !ok {
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing member"})
		return
	}

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid visibility update"})
		return
	}

	overlay := team.Overlay{HideAll: req.HideAll}
	if len(req.HiddenIDs) > 0 {
		overlay.HiddenIDs = make(map[string]struct{}, len(req.HiddenIDs))
		for _, id := range req.HiddenIDs {
			overlay.HiddenIDs[id] = struct{}{}
		}
	}

	if err := h.Registry.SaveOverlay(r.Context(), teamID, viewerID, overlay); err != nil {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save visibility"})
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
