package progress

import (
	"github.com/samhotchkiss/raid-ledger/internal/catalog"
)

// CompletionMap is task id -> member id -> completion flags.
type CompletionMap map[string]map[string]CompletionFlags

// ObjectiveMap is objective id -> member id -> objective progress.
type ObjectiveMap map[string]map[string]ObjectiveProgress

// TraderLevelMap is member id -> trader id -> achieved loyalty level.
type TraderLevelMap map[string]map[string]int

// AvailabilityMap is task id -> member id -> whether the task can be
// started.
type AvailabilityMap map[string]map[string]bool

// Complete reports a member's completion for a task, false when absent.
func (m CompletionMap) Complete(taskID, memberID string) bool {
	return m[taskID][memberID].Complete
}

// Failed reports a member's failure for a task, false when absent.
func (m CompletionMap) Failed(taskID, memberID string) bool {
	return m[taskID][memberID].Failed
}

// Available reports availability for a (task, member) pair, false when
// absent.
func (m AvailabilityMap) Available(taskID, memberID string) bool {
	return m[taskID][memberID]
}

// Result bundles one evaluation pass. Stages are ordered: completion and
// trader levels are inputs to availability, so they are computed first.
type Result struct {
	Completion   CompletionMap
	Objectives   ObjectiveMap
	TraderLevels TraderLevelMap
	Availability AvailabilityMap
}

// Evaluator decides task availability per (task, member) pair against a
// catalog snapshot. It holds no mutable state; every method is a pure
// function of its inputs.
type Evaluator struct {
	Catalog *catalog.Snapshot
}

// NewEvaluator returns an evaluator over the given catalog snapshot.
func NewEvaluator(snap *catalog.Snapshot) *Evaluator {
	if snap == nil {
		snap = catalog.Empty()
	}
	return &Evaluator{Catalog: snap}
}

// Evaluate runs the full pipeline for the given members. Members map values
// may be nil (feed not yet arrived); they contribute zero everywhere.
func (e *Evaluator) Evaluate(members map[string]*MemberState) Result {
	completion := e.CompletionMap(members)
	objectives := e.ObjectiveMap(members)
	traders := e.TraderLevels(members)
	availability := e.Availability(members, completion, traders)
	return Result{
		Completion:   completion,
		Objectives:   objectives,
		TraderLevels: traders,
		Availability: availability,
	}
}

// CompletionMap computes task completion flags for every (task, member)
// pair.
func (e *Evaluator) CompletionMap(members map[string]*MemberState) CompletionMap {
	result := make(CompletionMap)
	for _, task := range e.Catalog.Tasks() {
		row := make(map[string]CompletionFlags, len(members))
		for id, state := range members {
			row[id] = state.TaskFlags(task.ID)
		}
		result[task.ID] = row
	}
	return result
}

// ObjectiveMap computes objective progress for every (objective, member)
// pair.
func (e *Evaluator) ObjectiveMap(members map[string]*MemberState) ObjectiveMap {
	result := make(ObjectiveMap)
	for _, task := range e.Catalog.Tasks() {
		for _, obj := range task.Objectives {
			row := make(map[string]ObjectiveProgress, len(members))
			for id, state := range members {
				row[id] = state.Objective(obj.ID)
			}
			result[obj.ID] = row
		}
	}
	return result
}

// TraderLevels computes each member's achieved loyalty level per trader.
//
// Placeholder: member state carries no trader standing signal, so the
// player level stands in for loyalty, clamped to each trader's cap. The
// pipeline keeps this as its own stage so a real reputation source can
// replace it without touching availability logic.
func (e *Evaluator) TraderLevels(members map[string]*MemberState) TraderLevelMap {
	result := make(TraderLevelMap, len(members))
	for id, state := range members {
		levels := make(map[string]int)
		for _, trader := range e.Catalog.Traders() {
			achieved := state.PlayerLevel()
			if limit := trader.LoyaltyCap(); achieved > limit {
				achieved = limit
			}
			levels[trader.ID] = achieved
		}
		result[id] = levels
	}
	return result
}

// Availability decides, per (task, member), whether the task can currently
// be started. Requires the completion and trader-level stages from the same
// pass.
func (e *Evaluator) Availability(members map[string]*MemberState, completion CompletionMap, traders TraderLevelMap) AvailabilityMap {
	result := make(AvailabilityMap)

	// Per member, the set of tasks permanently locked out because a
	// completed sibling declared them as alternatives. The declaration can
	// sit on either side of the relationship, so completed tasks project
	// their alternative sets outward here and each candidate's own set is
	// checked against completions below.
	excluded := make(map[string]map[string]struct{}, len(members))
	for memberID := range members {
		locked := make(map[string]struct{})
		for _, task := range e.Catalog.Tasks() {
			if !completion.Complete(task.ID, memberID) {
				continue
			}
			for _, altID := range task.Alternatives {
				locked[altID] = struct{}{}
			}
		}
		excluded[memberID] = locked
	}

	for _, task := range e.Catalog.Tasks() {
		row := make(map[string]bool, len(members))
		for memberID, state := range members {
			row[memberID] = e.available(task, memberID, state, completion, traders, excluded[memberID])
		}
		result[task.ID] = row
	}
	return result
}

// available applies the unlock checks in cheap-first short-circuit order.
// The checks are independent AND conditions; ordering affects cost only.
func (e *Evaluator) available(task catalog.Task, memberID string, state *MemberState, completion CompletionMap, traders TraderLevelMap, excluded map[string]struct{}) bool {
	// Completed tasks are never available.
	if completion.Complete(task.ID, memberID) {
		return false
	}

	// Alternatives are mutually exclusive: completing one permanently
	// disqualifies its siblings.
	if _, locked := excluded[task.ID]; locked {
		return false
	}
	for _, altID := range task.Alternatives {
		if completion.Complete(altID, memberID) {
			return false
		}
	}

	for _, failID := range task.FailedRequirements {
		if completion.Failed(failID, memberID) {
			return false
		}
	}

	if state.PlayerLevel() < task.MinPlayerLevel {
		return false
	}

	for _, req := range task.TraderLevelRequirements {
		if traders[memberID][req.TraderID] < req.Level {
			return false
		}
	}

	for _, req := range task.TaskRequirements {
		if !requirementMet(req, completion[req.TaskID][memberID]) {
			return false
		}
	}

	if faction := task.FactionName(); faction != catalog.FactionAny && faction != state.Faction() {
		return false
	}

	return true
}

// requirementMet checks a prerequisite against its declared satisfying
// statuses. Completion satisfies an "active" requirement; only an empty
// status list or an explicit "complete"/"active" demands completion.
func requirementMet(req catalog.TaskRequirement, flags CompletionFlags) bool {
	if len(req.Status) == 0 {
		return flags.Complete
	}
	for _, status := range req.Status {
		switch status {
		case catalog.StatusComplete, catalog.StatusActive:
			if flags.Complete {
				return true
			}
		case catalog.StatusFailed:
			if flags.Failed {
				return true
			}
		}
	}
	return false
}
