package team

import (
	"sync"
	"time"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/hideout"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
)

// Event describes a change the tracker publishes after recomputation.
type Event struct {
	Type     string `json:"type"`
	MemberID string `json:"member_id,omitempty"`
}

// Event types.
const (
	EventProgressUpdated = "ProgressUpdated"
	EventMemberJoined    = "MemberJoined"
	EventMemberLeft      = "MemberLeft"
	EventCatalogReloaded = "CatalogReloaded"
)

// View is one published snapshot of every derived map. Views are immutable
// once published; a new recomputation produces a new View.
type View struct {
	Generation   uint64                   `json:"generation"`
	ComputedAt   time.Time                `json:"computed_at"`
	Completion   progress.CompletionMap   `json:"completion"`
	Objectives   progress.ObjectiveMap    `json:"objectives"`
	TraderLevels progress.TraderLevelMap  `json:"trader_levels"`
	Availability progress.AvailabilityMap `json:"availability"`
	Hideout      HideoutLevelMap          `json:"hideout"`
	NeededItems  map[string]*ItemDemand   `json:"needed_items"`
	Members      []MemberSummary          `json:"members"`
}

// Tracker owns the member progress feeds for one team and keeps the derived
// View current. Member states stream in independently; each arrival
// triggers a recomputation that supersedes any older in-flight pass via the
// generation counter, so stale results are never published.
type Tracker struct {
	mu sync.RWMutex

	selfID    string
	snapshot  *catalog.Snapshot
	graph     *hideout.Graph
	members   map[string]*progress.MemberState
	overlay   Overlay
	nameCache map[string]string

	generation uint64
	view       *View

	onEvent func(Event)
	now     func() time.Time
}

// NewTracker builds a tracker over a catalog snapshot. When selfID is
// non-empty the tracker is viewer-scoped: the self member always exists,
// even before its feed arrives, and the overlay applies to everyone else.
// With an empty selfID the tracker is team-scoped and per-viewer filtering
// happens through ViewFor.
func NewTracker(selfID string, snap *catalog.Snapshot) *Tracker {
	if snap == nil {
		snap = catalog.Empty()
	}
	t := &Tracker{
		selfID:    selfID,
		snapshot:  snap,
		graph:     hideout.Build(snap.Stations()),
		members:   make(map[string]*progress.MemberState),
		nameCache: make(map[string]string),
		now:       time.Now,
	}
	if selfID != "" {
		t.members[selfID] = progress.NewMemberState(selfID)
	}
	t.recompute()
	return t
}

// OnEvent registers a callback invoked after each published recomputation.
// The callback runs outside the tracker lock.
func (t *Tracker) OnEvent(fn func(Event)) {
	t.mu.Lock()
	t.onEvent = fn
	t.mu.Unlock()
}

// SelfID returns the viewing member's id.
func (t *Tracker) SelfID() string {
	return t.selfID
}

// Graph returns the hideout dependency graph for the current catalog.
func (t *Tracker) Graph() *hideout.Graph {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.graph
}

// Catalog returns the current catalog snapshot.
func (t *Tracker) Catalog() *catalog.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// View returns the latest published derived view.
func (t *Tracker) View() *View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view
}

// SetCatalog swaps in a freshly loaded catalog snapshot and rebuilds the
// hideout graph. Expected rare, once per session or refresh tick.
func (t *Tracker) SetCatalog(snap *catalog.Snapshot) {
	if snap == nil {
		snap = catalog.Empty()
	}
	t.mu.Lock()
	t.snapshot = snap
	t.graph = hideout.Build(snap.Stations())
	t.mu.Unlock()
	t.recomputeAndNotify(Event{Type: EventCatalogReloaded})
}

// UpsertMember installs or replaces a member's full progress record, as
// delivered by that member's update stream.
func (t *Tracker) UpsertMember(state *progress.MemberState) {
	if state == nil || state.ID == "" {
		return
	}
	t.mu.Lock()
	_, existed := t.members[state.ID]
	t.members[state.ID] = state.Clone()
	if state.DisplayName != "" {
		t.nameCache[state.ID] = state.DisplayName
	}
	t.mu.Unlock()

	eventType := EventProgressUpdated
	if !existed {
		eventType = EventMemberJoined
	}
	t.recomputeAndNotify(Event{Type: eventType, MemberID: state.ID})
}

// RemoveMember drops a member from the visible set. Self cannot be removed.
func (t *Tracker) RemoveMember(memberID string) {
	if memberID == t.selfID {
		return
	}
	t.mu.Lock()
	_, existed := t.members[memberID]
	delete(t.members, memberID)
	t.mu.Unlock()
	if existed {
		t.recomputeAndNotify(Event{Type: EventMemberLeft, MemberID: memberID})
	}
}

// SetOverlay replaces the viewer's visibility overlay.
func (t *Tracker) SetOverlay(overlay Overlay) {
	t.mu.Lock()
	t.overlay = overlay
	t.mu.Unlock()
	t.recomputeAndNotify(Event{Type: EventProgressUpdated})
}

// ApplyTaskUpdate records a task completion change for a member.
func (t *Tracker) ApplyTaskUpdate(memberID, taskID string, flags progress.CompletionFlags) {
	t.applyMemberMutation(memberID, func(state *progress.MemberState) {
		state.TaskCompletions[taskID] = flags
	})
}

// ApplyObjectiveUpdate records objective progress for a member.
func (t *Tracker) ApplyObjectiveUpdate(memberID, objectiveID string, objProgress progress.ObjectiveProgress) {
	t.applyMemberMutation(memberID, func(state *progress.MemberState) {
		state.TaskObjectives[objectiveID] = objProgress
	})
}

// ApplyModuleUpdate records a hideout level build state for a member.
func (t *Tracker) ApplyModuleUpdate(memberID, levelID string, moduleProgress progress.ModuleProgress) {
	t.applyMemberMutation(memberID, func(state *progress.MemberState) {
		state.HideoutModules[levelID] = moduleProgress
	})
}

// ProfileUpdate carries optional profile field changes.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Level       *int    `json:"level,omitempty"`
	GameEdition *int    `json:"game_edition,omitempty"`
	PMCFaction  *string `json:"pmc_faction,omitempty"`
}

// ApplyProfileUpdate records profile changes for a member.
func (t *Tracker) ApplyProfileUpdate(memberID string, update ProfileUpdate) {
	t.applyMemberMutation(memberID, func(state *progress.MemberState) {
		if update.DisplayName != nil {
			state.DisplayName = *update.DisplayName
			t.nameCache[memberID] = *update.DisplayName
		}
		if update.Level != nil {
			state.Level = *update.Level
		}
		if update.GameEdition != nil {
			state.GameEdition = *update.GameEdition
		}
		if update.PMCFaction != nil {
			state.PMCFaction = *update.PMCFaction
		}
	})
}

// MemberState returns a copy of a member's current state, or nil when the
// feed has not arrived.
func (t *Tracker) MemberState(memberID string) *progress.MemberState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.members[memberID].Clone()
}

func (t *Tracker) applyMemberMutation(memberID string, mutate func(*progress.MemberState)) {
	if memberID == "" {
		return
	}
	t.mu.Lock()
	state, ok := t.members[memberID]
	if !ok {
		state = progress.NewMemberState(memberID)
		t.members[memberID] = state
	}
	mutate(state)
	t.mu.Unlock()
	t.recomputeAndNotify(Event{Type: EventProgressUpdated, MemberID: memberID})
}

// ViewFor derives a view filtered through the given viewer's overlay,
// without publishing it. Used server-side where each viewer carries their
// own overlay; self is always visible to itself.
func (t *Tracker) ViewFor(viewerID string, overlay Overlay) *View {
	gen, snap, members, nameCache := t.snapshotInputs(false)
	return buildView(gen, t.now(), snap, viewerID, overlay, members, nameCache)
}

// recompute takes a snapshot of the inputs, derives all views outside the
// write lock, and publishes only if no newer pass started meanwhile
// (last-write-wins at full-recomputation granularity).
func (t *Tracker) recompute() {
	gen, snap, members, nameCache := t.snapshotInputs(true)

	t.mu.RLock()
	selfID := t.selfID
	overlay := t.overlay
	t.mu.RUnlock()

	view := buildView(gen, t.now(), snap, selfID, overlay, members, nameCache)

	t.mu.Lock()
	if gen == t.generation {
		t.view = view
	}
	t.mu.Unlock()
}

// snapshotInputs copies everything a computation pass reads. When advance
// is set the generation counter is bumped so the pass can claim publication.
func (t *Tracker) snapshotInputs(advance bool) (uint64, *catalog.Snapshot, map[string]*progress.MemberState, map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if advance {
		t.generation++
	}
	gen := t.generation
	snap := t.snapshot
	members := make(map[string]*progress.MemberState, len(t.members))
	for id, state := range t.members {
		members[id] = state.Clone()
	}
	nameCache := make(map[string]string, len(t.nameCache))
	for id, name := range t.nameCache {
		nameCache[id] = name
	}
	return gen, snap, members, nameCache
}

func buildView(gen uint64, now time.Time, snap *catalog.Snapshot, selfID string, overlay Overlay, members map[string]*progress.MemberState, nameCache map[string]string) *View {
	visible := Visible(selfID, members, overlay)
	evaluator := progress.NewEvaluator(snap)
	result := evaluator.Evaluate(visible)

	return &View{
		Generation:   gen,
		ComputedAt:   now,
		Completion:   result.Completion,
		Objectives:   result.Objectives,
		TraderLevels: result.TraderLevels,
		Availability: result.Availability,
		Hideout:      HideoutLevels(snap, visible),
		NeededItems:  NeededItems(snap, visible, result.Completion),
		Members:      Summaries(selfID, visible, nameCache),
	}
}

func (t *Tracker) recomputeAndNotify(event Event) {
	t.recompute()
	t.mu.RLock()
	fn := t.onEvent
	t.mu.RUnlock()
	if fn != nil {
		fn(event)
	}
}
