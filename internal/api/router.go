package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samhotchkiss/raid-ledger/internal/middleware"
	"github.com/samhotchkiss/raid-ledger/internal/ws"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// NewRouter wires the HTTP surface: health, websocket feed, catalog
// metadata, derived team views, and self progress writes.
func NewRouter(registry *Registry, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Team-ID", "X-Member-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handleHealth)
	r.Get("/", handleRoot)
	r.Handle("/ws", &ws.Handler{Hub: hub, Applier: registry})

	teamHandler := &TeamHandler{Registry: registry}
	progressHandler := &ProgressHandler{Registry: registry}
	catalogHandler := &CatalogHandler{Registry: registry}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTeam)
		r.Use(chimiddleware.SetHeader("Content-Type", "application/json"))

		r.Get("/api/catalog/summary", catalogHandler.GetSummary)
		r.Get("/api/catalog/hideout/{id}", catalogHandler.GetLevelRollup)

		r.Get("/api/team/tasks", teamHandler.ListTasks)
		r.Get("/api/team/tasks/{id}", teamHandler.GetTask)
		r.Get("/api/team/hideout", teamHandler.GetHideout)
		r.Get("/api/team/items", teamHandler.GetNeededItems)
		r.Get("/api/team/members", teamHandler.ListMembers)

		r.Post("/api/progress/task", progressHandler.UpdateTask)
		r.Post("/api/progress/objective", progressHandler.UpdateObjective)
		r.Post("/api/progress/hideout", progressHandler.UpdateModule)
		r.Post("/api/progress/profile", progressHandler.UpdateProfile)
		r.Put("/api/visibility", progressHandler.UpdateVisibility)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    "Raid Ledger",
		"tagline": "Team progress tracking for extraction raids",
		"health":  "/health",
	})
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
