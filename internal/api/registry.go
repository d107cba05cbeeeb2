package api

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/middleware"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
	"github.com/samhotchkiss/raid-ledger/internal/store"
	"github.com/samhotchkiss/raid-ledger/internal/team"
	"github.com/samhotchkiss/raid-ledger/internal/ws"
)

var errNoUpdate = errors.New("progress frame carries no update")

// Registry owns one tracker per team, hydrates them from the member store
// on first access, and fans tracker events out through the websocket hub.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*team.Tracker

	snapshot *catalog.Snapshot
	members  *store.MemberStore
	overlays *store.OverlayStore
	hub      *ws.Hub
}

// NewRegistry builds a registry over a catalog snapshot. The stores may be
// nil when the service runs without persistence; trackers then start empty.
func NewRegistry(snap *catalog.Snapshot, members *store.MemberStore, overlays *store.OverlayStore, hub *ws.Hub) *Registry {
	if snap == nil {
		snap = catalog.Empty()
	}
	return &Registry{
		trackers: make(map[string]*team.Tracker),
		snapshot: snap,
		members:  members,
		overlays: overlays,
		hub:      hub,
	}
}

// SetCatalog swaps the catalog snapshot into every live tracker.
func (r *Registry) SetCatalog(snap *catalog.Snapshot) {
	if snap == nil {
		snap = catalog.Empty()
	}
	r.mu.Lock()
	r.snapshot = snap
	trackers := make([]*team.Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		trackers = append(trackers, t)
	}
	r.mu.Unlock()

	for _, t := range trackers {
		t.SetCatalog(snap)
	}
}

// Tracker returns the team's tracker, creating and hydrating it on first
// access.
func (r *Registry) Tracker(ctx context.Context, teamID string) *team.Tracker {
	r.mu.Lock()
	if t, ok := r.trackers[teamID]; ok {
		r.mu.Unlock()
		return t
	}
	t := team.NewTracker("", r.snapshot)
	r.trackers[teamID] = t
	r.mu.Unlock()

	t.OnEvent(func(event team.Event) {
		broadcastTrackerEvent(r.hub, teamID, event)
	})
	r.hydrate(ctx, teamID, t)
	return t
}

// hydrate replays persisted member rows into a fresh tracker. A missing or
// failing store degrades to an empty team rather than erroring.
func (r *Registry) hydrate(ctx context.Context, teamID string, t *team.Tracker) {
	if r.members == nil {
		return
	}
	ctx = withTeam(ctx, teamID)
	rows, err := r.members.List(ctx)
	if err != nil {
		log.Printf("warning: failed to hydrate team %s: %v", teamID, err)
		return
	}
	for _, row := range rows {
		state, err := row.State()
		if err != nil {
			// Malformed rows contribute zero, same as an absent feed.
			log.Printf("warning: skipping malformed progress row: team_id=%s member_id=%s err=%v", teamID, row.MemberID, err)
			continue
		}
		t.UpsertMember(state)
	}
}

// ApplyProgress implements ws.ProgressApplier: it applies one progress
// frame to the team's tracker and persists the member's resulting state.
func (r *Registry) ApplyProgress(ctx context.Context, teamID, memberID string, update ws.ProgressUpdate) error {
	t := r.Tracker(ctx, teamID)

	switch {
	case update.FullState != nil:
		state := update.FullState
		state.ID = memberID
		t.UpsertMember(state)
	case update.Task != nil:
		t.ApplyTaskUpdate(memberID, update.Task.TaskID, progress.CompletionFlags{
			Complete: update.Task.Complete,
			Failed:   update.Task.Failed,
		})
	case update.Objective != nil:
		t.ApplyObjectiveUpdate(memberID, update.Objective.ObjectiveID, progress.ObjectiveProgress{
			Complete: update.Objective.Complete,
			Count:    update.Objective.Count,
		})
	case update.Module != nil:
		t.ApplyModuleUpdate(memberID, update.Module.LevelID, progress.ModuleProgress{
			Complete: update.Module.Complete,
		})
	case update.Profile != nil:
		t.ApplyProfileUpdate(memberID, *update.Profile)
	default:
		return errNoUpdate
	}

	r.persist(ctx, teamID, memberID, t)
	return nil
}

// RemoveMember implements ws.ProgressApplier.
func (r *Registry) RemoveMember(ctx context.Context, teamID, memberID string) error {
	t := r.Tracker(ctx, teamID)
	t.RemoveMember(memberID)

	if r.members == nil {
		return nil
	}
	err := r.members.Delete(withTeam(ctx, teamID), memberID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Overlay loads the viewer's visibility overlay, empty when persistence is
// unavailable.
func (r *Registry) Overlay(ctx context.Context, teamID, viewerID string) team.Overlay {
	if r.overlays == nil || viewerID == "" {
		return team.Overlay{}
	}
	overlay, err := r.overlays.Get(withTeam(ctx, teamID), viewerID)
	if err != nil {
		log.Printf("warning: failed to load overlay: team_id=%s viewer_id=%s err=%v", teamID, viewerID, err)
		return team.Overlay{}
	}
	return overlay
}

// SaveOverlay persists the viewer's visibility overlay.
func (r *Registry) SaveOverlay(ctx context.Context, teamID, viewerID string, overlay team.Overlay) error {
	if r.overlays == nil {
		return nil
	}
	return r.overlays.Put(withTeam(ctx, teamID), viewerID, overlay)
}

func (r *Registry) persist(ctx context.Context, teamID, memberID string, t *team.Tracker) {
	if r.members == nil {
		return
	}
	state := t.MemberState(memberID)
	if state == nil {
		return
	}
	if err := r.members.Upsert(withTeam(ctx, teamID), state); err != nil {
		log.Printf("warning: failed to persist progress: team_id=%s member_id=%s err=%v", teamID, memberID, err)
	}
}

func withTeam(ctx context.Context, teamID string) context.Context {
	if middleware.TeamFromContext(ctx) == teamID {
		return ctx
	}
	return context.WithValue(ctx, middleware.TeamIDKey, teamID)
}
