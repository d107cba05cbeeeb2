package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/middleware"
)

// CatalogHandler serves catalog metadata and integrity diagnostics.
type CatalogHandler struct {
	Registry *Registry
}

// CatalogSummaryResponse is the payload for GET /api/catalog/summary.
type CatalogSummaryResponse struct {
	Tasks        int                  `json:"tasks"`
	Stations     int                  `json:"stations"`
	Traders      int                  `json:"traders"`
	GraphLevels  int                  `json:"graph_levels"`
	CyclicLevels []string             `json:"cyclic_levels,omitempty"`
	Diagnostics  []catalog.Diagnostic `json:"diagnostics,omitempty"`
}

// GetSummary handles GET /api/catalog/summary.
func (h *CatalogHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.TeamFromContext(r.Context())
	tracker := h.Registry.Tracker(r.Context(), teamID)
	snap := tracker.Catalog()
	graph := tracker.Graph()

	diagnostics := append([]catalog.Diagnostic(nil), snap.Diagnostics()...)
	diagnostics = append(diagnostics, graph.Diagnostics()...)

	sendJSON(w, http.StatusOK, CatalogSummaryResponse{
		Tasks:        len(snap.Tasks()),
		Stations:     len(snap.Stations()),
		Traders:      len(snap.Traders()),
		GraphLevels:  graph.Len(),
		CyclicLevels: graph.Cyclic(),
		Diagnostics:  diagnostics,
	})
}

// LevelRollupResponse is the payload for GET /api/catalog/hideout/{id}.
type LevelRollupResponse struct {
	LevelID              string   `json:"level_id"`
	Parents              []string `json:"parents,omitempty"`
	Children             []string `json:"children,omitempty"`
	Predecessors         []string `json:"predecessors,omitempty"`
	TotalConstructionSec int64    `json:"total_construction_seconds"`
}

// GetLevelRollup handles GET /api/catalog/hideout/{id}: the level's direct
// and transitive prerequisites plus total construction time including them.
func (h *CatalogHandler) GetLevelRollup(w http.ResponseWriter, r *http.Request) {
	levelID := chi.URLParam(r, "id")
	teamID := middleware.TeamFromContext(r.Context())
	tracker := h.Registry.Tracker(r.Context(), teamID)

	if _, ok := tracker.Catalog().Level(levelID); !ok {
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "unknown hideout level"})
		return
	}

	graph := tracker.Graph()
	sendJSON(w, http.StatusOK, LevelRollupResponse{
		LevelID:              levelID,
		Parents:              graph.Parents(levelID),
		Children:             graph.Children(levelID),
		Predecessors:         graph.Predecessors(levelID),
		TotalConstructionSec: int64(graph.TotalConstructionTime(levelID).Seconds()),
	})
}
