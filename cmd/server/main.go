package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/samhotchkiss/raid-ledger/internal/api"
	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/config"
	"github.com/samhotchkiss/raid-ledger/internal/store"
	"github.com/samhotchkiss/raid-ledger/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	snap := loadCatalog(cfg.Catalog.Path)

	var memberStore *store.MemberStore
	var overlayStore *store.OverlayStore
	if cfg.DatabaseURL != "" {
		db, err := store.DB()
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		memberStore = store.NewMemberStore(db)
		overlayStore = store.NewOverlayStore(db)
	} else {
		log.Printf("DATABASE_URL not set, running without persistence")
	}

	hub := ws.NewHub()
	go hub.Run()

	registry := api.NewRegistry(snap, memberStore, overlayStore, hub)
	go refreshCatalog(registry, cfg.Catalog)

	handler := api.NewRouter(registry, hub)

	log.Printf("Raid Ledger starting on port %s (%s)", cfg.Port, cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadCatalog reads the catalog snapshot, falling back to an empty snapshot
// so the service starts with empty derived views instead of failing.
func loadCatalog(path string) *catalog.Snapshot {
	snap, err := catalog.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Catalog file %s not found, starting with empty catalog", path)
		} else {
			log.Printf("warning: catalog load failed, starting with empty catalog: %v", err)
		}
		return catalog.Empty()
	}

	for _, diag := range snap.Diagnostics() {
		log.Printf("warning: catalog integrity: %s %s: %s", diag.Kind, diag.Subject, diag.Detail)
	}
	log.Printf("Catalog loaded: %d tasks, %d stations, %d traders", len(snap.Tasks()), len(snap.Stations()), len(snap.Traders()))
	return snap
}

// refreshCatalog periodically reloads the snapshot so content updates land
// without a restart.
func refreshCatalog(registry *api.Registry, cfg config.CatalogConfig) {
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	for range ticker.C {
		snap, err := catalog.Load(cfg.Path)
		if err != nil {
			log.Printf("warning: catalog refresh failed, keeping current snapshot: %v", err)
			continue
		}
		registry.SetCatalog(snap)
		log.Printf("Catalog refreshed: %d tasks, %d stations, %d traders", len(snap.Tasks()), len(snap.Stations()), len(snap.Traders()))
	}
}
