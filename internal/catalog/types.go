// Package catalog holds the static task, hideout, and trader reference data
// the tracker evaluates against. A Snapshot is immutable once built; a fresh
// catalog load produces a fresh Snapshot.
package catalog

// PMC faction constants.
const (
	FactionAny  = "Any"
	FactionUSEC = "USEC"
	FactionBear = "BEAR"
)

// Task requirement status constants. A requirement lists the statuses that
// satisfy it; an empty list means the prerequisite must be complete.
const (
	StatusComplete = "complete"
	StatusActive   = "active"
	StatusFailed   = "failed"
)

// Objective type constants. Types listed in itemConsumingTypes contribute to
// the team needed-item aggregation.
const (
	ObjectiveGiveItem       = "giveItem"
	ObjectiveFindItem       = "findItem"
	ObjectiveFindQuestItem  = "findQuestItem"
	ObjectiveGiveQuestItem  = "giveQuestItem"
	ObjectivePlantItem      = "plantItem"
	ObjectivePlantQuestItem = "plantQuestItem"
	ObjectiveMark           = "mark"
	ObjectiveBuildWeapon    = "buildWeapon"
	ObjectiveShoot          = "shoot"
	ObjectiveSkill          = "skill"
	ObjectiveVisit          = "visit"
	ObjectiveExtract        = "extract"
	ObjectiveTraderLevel    = "traderLevel"
	ObjectiveTraderStanding = "traderStanding"
	ObjectivePlayerLevel    = "playerLevel"
	ObjectiveExperience     = "experience"
	ObjectiveTaskStatus     = "taskStatus"
	ObjectivePlace          = "place"
	ObjectiveWarning        = "warning"
	ObjectiveKey            = "key"
)

var itemConsumingTypes = map[string]struct{}{
	ObjectiveGiveItem:    {},
	ObjectiveFindItem:    {},
	ObjectivePlantItem:   {},
	ObjectiveMark:        {},
	ObjectiveBuildWeapon: {},
}

// ConsumesItems reports whether objectives of the given type pull items out
// of the team's pool and therefore count toward needed-item totals.
func ConsumesItems(objectiveType string) bool {
	_, ok := itemConsumingTypes[objectiveType]
	return ok
}

// TaskRequirement gates a task on another task reaching one of the listed
// statuses.
type TaskRequirement struct {
	TaskID string   `json:"task_id"`
	Status []string `json:"status,omitempty"`
}

// TraderLevelRequirement gates a task on trader loyalty.
type TraderLevelRequirement struct {
	TraderID string `json:"trader_id"`
	Level    int    `json:"level"`
}

// Objective is a sub-goal within a task.
type Objective struct {
	ID          string   `json:"id"`
	TaskID      string   `json:"task_id"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	ItemID      string   `json:"item_id,omitempty"`
	Count       int      `json:"count,omitempty"`
	FoundInRaid bool     `json:"found_in_raid,omitempty"`
	MapIDs      []string `json:"map_ids,omitempty"`
	Optional    bool     `json:"optional,omitempty"`
}

// Task is a quest-like unit of progress with unlock conditions.
type Task struct {
	ID                      string                   `json:"id"`
	Name                    string                   `json:"name"`
	TraderID                string                   `json:"trader_id,omitempty"`
	MinPlayerLevel          int                      `json:"min_player_level,omitempty"`
	Faction                 string                   `json:"faction,omitempty"`
	TaskRequirements        []TaskRequirement        `json:"task_requirements,omitempty"`
	FailedRequirements      []string                 `json:"failed_requirements,omitempty"`
	TraderLevelRequirements []TraderLevelRequirement `json:"trader_level_requirements,omitempty"`
	Objectives              []Objective              `json:"objectives,omitempty"`
	Alternatives            []string                 `json:"alternatives,omitempty"`
	KappaRequired           bool                     `json:"kappa_required,omitempty"`
	Experience              int                      `json:"experience,omitempty"`
	WikiLink                string                   `json:"wiki_link,omitempty"`
}

// FactionName returns the task's faction gate, defaulting to Any.
func (t Task) FactionName() string {
	if t.Faction == "" {
		return FactionAny
	}
	return t.Faction
}

// Trader is a quest giver with tiered loyalty levels.
type Trader struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	MaxLevel       int    `json:"max_level,omitempty"`
}

// DefaultTraderMaxLevel applies when a trader entry omits its loyalty cap.
const DefaultTraderMaxLevel = 4

// LoyaltyCap returns the trader's maximum loyalty level.
func (t Trader) LoyaltyCap() int {
	if t.MaxLevel <= 0 {
		return DefaultTraderMaxLevel
	}
	return t.MaxLevel
}

// ItemRequirement is an item cost on a hideout level.
type ItemRequirement struct {
	ItemID string `json:"item_id"`
	Count  int    `json:"count"`
}

// StationLevelRequirement is an edge to another station's level that must be
// built first.
type StationLevelRequirement struct {
	StationID string `json:"station_id"`
	Level     int    `json:"level"`
}

// HideoutLevel is one buildable tier of a hideout station.
type HideoutLevel struct {
	ID                       string                    `json:"id"`
	StationID                string                    `json:"station_id"`
	Level                    int                       `json:"level"`
	ConstructionTimeSeconds  int64                     `json:"construction_time_seconds,omitempty"`
	ItemRequirements         []ItemRequirement         `json:"item_requirements,omitempty"`
	StationLevelRequirements []StationLevelRequirement `json:"station_level_requirements,omitempty"`
}

// HideoutStation is a base-upgrade unit with tiered levels.
type HideoutStation struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	NormalizedName string         `json:"normalized_name"`
	Levels         []HideoutLevel `json:"levels,omitempty"`
}

// MaxLevel returns the highest declared level for the station, 0 when the
// station has no levels.
func (s HideoutStation) MaxLevel() int {
	max := 0
	for _, lvl := range s.Levels {
		if lvl.Level > max {
			max = lvl.Level
		}
	}
	return max
}

// Station normalized names with edition-specific display behavior.
const (
	StationStash         = "stash"
	StationCultistCircle = "cultist-circle"
)

// Game edition constants. Editions affect the default stash level and
// whether the cultist circle comes pre-built.
const (
	EditionStandard         = 1
	EditionLeftBehind       = 2
	EditionPrepareForEscape = 3
	EditionEdgeOfDarkness   = 4
	EditionUnheard          = 5
	EditionUnheardEOD       = 6
)

var editionStashLevels = map[int]int{
	EditionStandard:         1,
	EditionLeftBehind:       2,
	EditionPrepareForEscape: 3,
	EditionEdgeOfDarkness:   4,
	EditionUnheard:          4,
	EditionUnheardEOD:       4,
}

// DefaultStashLevel returns the stash level a game edition starts with.
func DefaultStashLevel(edition int) int {
	if lvl, ok := editionStashLevels[edition]; ok {
		return lvl
	}
	return 1
}

// IsUnheardEdition reports whether the edition auto-maxes the cultist
// circle.
func IsUnheardEdition(edition int) bool {
	return edition == EditionUnheard || edition == EditionUnheardEOD
}
