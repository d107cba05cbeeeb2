// Package progress models per-member completion state and evaluates task
// availability over it.
//
// Each MemberState is owned by its member's update stream; the evaluator
// only reads member states, which keeps every computation here lock-free and
// purely functional.
package progress

import (
	"encoding/json"
	"fmt"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
)

// CompletionFlags is a member's completion state for one task.
type CompletionFlags struct {
	Complete bool `json:"complete"`
	Failed   bool `json:"failed"`
}

// ObjectiveProgress is a member's state for one objective.
type ObjectiveProgress struct {
	Complete bool `json:"complete"`
	Count    int  `json:"count"`
}

// ModuleProgress is a member's state for one hideout level.
type ModuleProgress struct {
	Complete bool `json:"complete"`
}

// MemberState is the full progress record for one team member, including
// self. Only the member's own update stream mutates it.
type MemberState struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Level       int    `json:"level"`
	GameEdition int    `json:"game_edition"`
	PMCFaction  string `json:"pmc_faction,omitempty"`

	TaskCompletions map[string]CompletionFlags   `json:"task_completions,omitempty"`
	TaskObjectives  map[string]ObjectiveProgress `json:"task_objectives,omitempty"`
	HideoutModules  map[string]ModuleProgress    `json:"hideout_modules,omitempty"`
}

// NewMemberState returns an empty progress record for a member.
func NewMemberState(id string) *MemberState {
	return &MemberState{
		ID:              id,
		Level:           1,
		GameEdition:     catalog.EditionStandard,
		TaskCompletions: make(map[string]CompletionFlags),
		TaskObjectives:  make(map[string]ObjectiveProgress),
		HideoutModules:  make(map[string]ModuleProgress),
	}
}

// DecodeMemberState parses a persisted progress blob. Missing maps are
// initialized so callers never touch nil maps.
func DecodeMemberState(raw []byte) (*MemberState, error) {
	var state MemberState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode member state: %w", err)
	}
	state.ensureMaps()
	return &state, nil
}

// Encode serializes the state for persistence.
func (s *MemberState) Encode() ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode member state: %w", err)
	}
	return raw, nil
}

func (s *MemberState) ensureMaps() {
	if s.TaskCompletions == nil {
		s.TaskCompletions = make(map[string]CompletionFlags)
	}
	if s.TaskObjectives == nil {
		s.TaskObjectives = make(map[string]ObjectiveProgress)
	}
	if s.HideoutModules == nil {
		s.HideoutModules = make(map[string]ModuleProgress)
	}
}

// TaskFlags returns the member's completion flags for a task, defaulting to
// untouched. Nil-safe so absent members contribute zero.
func (s *MemberState) TaskFlags(taskID string) CompletionFlags {
	if s == nil {
		return CompletionFlags{}
	}
	return s.TaskCompletions[taskID]
}

// TaskComplete reports whether the member has completed the task.
func (s *MemberState) TaskComplete(taskID string) bool {
	return s.TaskFlags(taskID).Complete
}

// TaskFailed reports whether the member has failed the task.
func (s *MemberState) TaskFailed(taskID string) bool {
	return s.TaskFlags(taskID).Failed
}

// Objective returns the member's progress for an objective.
func (s *MemberState) Objective(objectiveID string) ObjectiveProgress {
	if s == nil {
		return ObjectiveProgress{}
	}
	return s.TaskObjectives[objectiveID]
}

// ModuleComplete reports whether the member has built the hideout level.
func (s *MemberState) ModuleComplete(levelID string) bool {
	if s == nil {
		return false
	}
	return s.HideoutModules[levelID].Complete
}

// PlayerLevel returns the member's level, defaulting to 0 for absent
// members.
func (s *MemberState) PlayerLevel() int {
	if s == nil {
		return 0
	}
	return s.Level
}

// Faction returns the member's PMC faction, "Unknown" when unset.
func (s *MemberState) Faction() string {
	if s == nil || s.PMCFaction == "" {
		return "Unknown"
	}
	return s.PMCFaction
}

// Clone returns a deep copy. The tracker hands copies to readers so a
// member's update stream can keep mutating its own record.
func (s *MemberState) Clone() *MemberState {
	if s == nil {
		return nil
	}
	clone := &MemberState{
		ID:              s.ID,
		DisplayName:     s.DisplayName,
		Level:           s.Level,
		GameEdition:     s.GameEdition,
		PMCFaction:      s.PMCFaction,
		TaskCompletions: make(map[string]CompletionFlags, len(s.TaskCompletions)),
		TaskObjectives:  make(map[string]ObjectiveProgress, len(s.TaskObjectives)),
		HideoutModules:  make(map[string]ModuleProgress, len(s.HideoutModules)),
	}
	for k, v := range s.TaskCompletions {
		clone.TaskCompletions[k] = v
	}
	for k, v := range s.TaskObjectives {
		clone.TaskObjectives[k] = v
	}
	for k, v := range s.HideoutModules {
		clone.HideoutModules[k] = v
	}
	return clone
}
