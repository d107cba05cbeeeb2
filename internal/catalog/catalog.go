package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned when a catalog entity does not exist.
var ErrNotFound = errors.New("catalog entity not found")

// Diagnostic records a catalog integrity problem that was skipped during
// snapshot construction. Diagnostics are surfaced to operators, never thrown
// at consumers.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// Diagnostic kinds.
const (
	DiagnosticDanglingTaskRequirement   = "dangling_task_requirement"
	DiagnosticDanglingFailRequirement   = "dangling_fail_requirement"
	DiagnosticDanglingAlternative       = "dangling_alternative"
	DiagnosticDanglingStationLevel      = "dangling_station_level"
	DiagnosticHideoutRequirementCycle   = "hideout_requirement_cycle"
	DiagnosticDanglingTraderRequirement = "dangling_trader_requirement"
)

// Snapshot is an immutable view of the loaded catalog with id indexes built
// once at construction. The zero-value-equivalent Empty snapshot is safe to
// evaluate against and yields empty derived views.
type Snapshot struct {
	tasks    []Task
	stations []HideoutStation
	traders  []Trader

	taskByID    map[string]int
	stationByID map[string]int
	traderByID  map[string]int
	levelByID   map[string]HideoutLevel

	nonTrackable map[string]struct{}
	diagnostics  []Diagnostic
}

// snapshotFile is the on-disk JSON shape of a catalog export.
type snapshotFile struct {
	Tasks           []Task           `json:"tasks"`
	HideoutStations []HideoutStation `json:"hideout_stations"`
	Traders         []Trader         `json:"traders"`
	ExcludedItems   []string         `json:"excluded_items,omitempty"`
}

// Empty returns a snapshot with no content, used before the first catalog
// load completes.
func Empty() *Snapshot {
	return New(nil, nil, nil, nil)
}

// Load reads a catalog snapshot from a JSON file.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse builds a snapshot from raw catalog JSON.
func Parse(raw []byte) (*Snapshot, error) {
	var file snapshotFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(file.Tasks, file.HideoutStations, file.Traders, file.ExcludedItems), nil
}

// New builds a snapshot from already-decoded catalog entities. Requirements
// referencing unknown entities are dropped and recorded as diagnostics; the
// rest of the catalog is kept.
func New(tasks []Task, stations []HideoutStation, traders []Trader, excludedItems []string) *Snapshot {
	s := &Snapshot{
		tasks:        tasks,
		stations:     stations,
		traders:      traders,
		taskByID:     make(map[string]int, len(tasks)),
		stationByID:  make(map[string]int, len(stations)),
		traderByID:   make(map[string]int, len(traders)),
		levelByID:    make(map[string]HideoutLevel),
		nonTrackable: make(map[string]struct{}, len(excludedItems)),
	}

	for i, task := range tasks {
		s.taskByID[task.ID] = i
	}
	for i, station := range stations {
		s.stationByID[station.ID] = i
		for _, lvl := range station.Levels {
			s.levelByID[lvl.ID] = lvl
		}
	}
	for i, trader := range traders {
		s.traderByID[trader.ID] = i
	}
	for _, id := range excludedItems {
		s.nonTrackable[id] = struct{}{}
	}

	s.validate()
	return s
}

// validate drops requirements that point at entities missing from the
// snapshot, recording a diagnostic for each.
func (s *Snapshot) validate() {
	for i := range s.tasks {
		task := &s.tasks[i]

		kept := task.TaskRequirements[:0]
		for _, req := range task.TaskRequirements {
			if _, ok := s.taskByID[req.TaskID]; !ok {
				s.addDiagnostic(DiagnosticDanglingTaskRequirement, task.ID,
					fmt.Sprintf("requirement references unknown task %s", req.TaskID))
				continue
			}
			kept = append(kept, req)
		}
		task.TaskRequirements = kept

		keptFails := task.FailedRequirements[:0]
		for _, id := range task.FailedRequirements {
			if _, ok := s.taskByID[id]; !ok {
				s.addDiagnostic(DiagnosticDanglingFailRequirement, task.ID,
					fmt.Sprintf("fail requirement references unknown task %s", id))
				continue
			}
			keptFails = append(keptFails, id)
		}
		task.FailedRequirements = keptFails

		keptAlts := task.Alternatives[:0]
		for _, id := range task.Alternatives {
			if _, ok := s.taskByID[id]; !ok {
				s.addDiagnostic(DiagnosticDanglingAlternative, task.ID,
					fmt.Sprintf("alternative references unknown task %s", id))
				continue
			}
			keptAlts = append(keptAlts, id)
		}
		task.Alternatives = keptAlts

		keptTraders := task.TraderLevelRequirements[:0]
		for _, req := range task.TraderLevelRequirements {
			if _, ok := s.traderByID[req.TraderID]; !ok {
				s.addDiagnostic(DiagnosticDanglingTraderRequirement, task.ID,
					fmt.Sprintf("trader requirement references unknown trader %s", req.TraderID))
				continue
			}
			keptTraders = append(keptTraders, req)
		}
		task.TraderLevelRequirements = keptTraders
	}
}

func (s *Snapshot) addDiagnostic(kind, subject, detail string) {
	s.diagnostics = append(s.diagnostics, Diagnostic{Kind: kind, Subject: subject, Detail: detail})
}

// Tasks returns all catalog tasks.
func (s *Snapshot) Tasks() []Task {
	return s.tasks
}

// Stations returns all hideout stations.
func (s *Snapshot) Stations() []HideoutStation {
	return s.stations
}

// Traders returns all traders.
func (s *Snapshot) Traders() []Trader {
	return s.traders
}

// Task looks up a task by id.
func (s *Snapshot) Task(id string) (Task, bool) {
	i, ok := s.taskByID[id]
	if !ok {
		return Task{}, false
	}
	return s.tasks[i], true
}

// Station looks up a station by id.
func (s *Snapshot) Station(id string) (HideoutStation, bool) {
	i, ok := s.stationByID[id]
	if !ok {
		return HideoutStation{}, false
	}
	return s.stations[i], true
}

// Trader looks up a trader by id.
func (s *Snapshot) Trader(id string) (Trader, bool) {
	i, ok := s.traderByID[id]
	if !ok {
		return Trader{}, false
	}
	return s.traders[i], true
}

// Level looks up a hideout level by id across all stations.
func (s *Snapshot) Level(id string) (HideoutLevel, bool) {
	lvl, ok := s.levelByID[id]
	return lvl, ok
}

// IsNonTrackable reports whether the item is a catalog-declared container
// excluded from needed-item aggregation.
func (s *Snapshot) IsNonTrackable(itemID string) bool {
	_, ok := s.nonTrackable[itemID]
	return ok
}

// Diagnostics returns integrity problems found at construction.
func (s *Snapshot) Diagnostics() []Diagnostic {
	return s.diagnostics
}
