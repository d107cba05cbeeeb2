package team

import (
	"sort"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
)

// HideoutLevelMap is station id -> member id -> effective displayed level.
type HideoutLevelMap map[string]map[string]int

// DisplayLevel computes the effective displayed level of a station for a
// member. This is not simply the max completed level: the stash has an
// edition-based floor and Unheard editions come with the cultist circle
// fully built.
func DisplayLevel(station catalog.HideoutStation, member *progress.MemberState) int {
	maxLevel := station.MaxLevel()
	completed := 0
	for _, lvl := range station.Levels {
		if member.ModuleComplete(lvl.ID) && lvl.Level > completed {
			completed = lvl.Level
		}
	}

	edition := catalog.EditionStandard
	if member != nil {
		edition = member.GameEdition
	}

	switch station.NormalizedName {
	case catalog.StationStash:
		floor := catalog.DefaultStashLevel(edition)
		if floor >= maxLevel {
			return maxLevel
		}
		if completed > floor {
			floor = completed
		}
		if floor > maxLevel {
			return maxLevel
		}
		return floor
	case catalog.StationCultistCircle:
		if catalog.IsUnheardEdition(edition) {
			return maxLevel
		}
		return completed
	default:
		return completed
	}
}

// HideoutLevels computes display levels for every (station, member) pair in
// the visible set. Not memoized across passes: member state can change
// between passes.
func HideoutLevels(snap *catalog.Snapshot, members map[string]*progress.MemberState) HideoutLevelMap {
	result := make(HideoutLevelMap)
	for _, station := range snap.Stations() {
		row := make(map[string]int, len(members))
		for id, state := range members {
			row[id] = DisplayLevel(station, state)
		}
		result[station.ID] = row
	}
	return result
}

// ItemDemand is the team-wide tally for one item still required across
// visible members' incomplete objectives.
type ItemDemand struct {
	ItemID       string         `json:"item_id"`
	Total        int            `json:"total"`
	ByMember     map[string]int `json:"by_member"`
	ObjectiveIDs []string       `json:"objective_ids"`
}

// NeededItems aggregates remaining item demand across visible members. A
// member contributes nothing for an objective when they have completed the
// owning task or the objective itself; countable objectives contribute
// required minus collected, floored per member. Catalog-declared container
// items are excluded. The reduction is commutative: iteration order of
// members cannot change totals.
func NeededItems(snap *catalog.Snapshot, members map[string]*progress.MemberState, completion progress.CompletionMap) map[string]*ItemDemand {
	demand := make(map[string]*ItemDemand)

	for _, task := range snap.Tasks() {
		for _, obj := range task.Objectives {
			if !catalog.ConsumesItems(obj.Type) || obj.ItemID == "" {
				continue
			}
			if snap.IsNonTrackable(obj.ItemID) {
				continue
			}

			required := obj.Count
			if required <= 0 {
				required = 1
			}

			for memberID, state := range members {
				if completion.Complete(task.ID, memberID) {
					continue
				}
				objProgress := state.Objective(obj.ID)
				if objProgress.Complete {
					continue
				}
				remaining := required - objProgress.Count
				if remaining <= 0 {
					// Past the requirement without the completion flag;
					// nothing left to collect.
					continue
				}

				entry := demand[obj.ItemID]
				if entry == nil {
					entry = &ItemDemand{
						ItemID:   obj.ItemID,
						ByMember: make(map[string]int),
					}
					demand[obj.ItemID] = entry
				}
				entry.Total += remaining
				entry.ByMember[memberID] += remaining
				entry.ObjectiveIDs = appendUnique(entry.ObjectiveIDs, obj.ID)
			}
		}
	}

	for _, entry := range demand {
		sort.Strings(entry.ObjectiveIDs)
	}
	return demand
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// MemberSummary is the resolved identity of a member for presentation.
type MemberSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
	Faction     string `json:"faction"`
	GameEdition int    `json:"game_edition"`
	Self        bool   `json:"self"`
}

// truncatedIDLength bounds the identifier fallback shown when no display
// name is known.
const truncatedIDLength = 8

// ResolveDisplayName resolves a member's display name. Self resolves
// against its own state first; every member then falls back to the cached
// display name and finally a truncated identifier. It never falls back to
// an unrelated global name.
func ResolveDisplayName(memberID, selfID string, members map[string]*progress.MemberState, nameCache map[string]string) string {
	if state := members[memberID]; state != nil && state.DisplayName != "" {
		return state.DisplayName
	}
	if cached := nameCache[memberID]; cached != "" {
		return cached
	}
	if memberID == "" {
		return "Unknown"
	}
	if len(memberID) > truncatedIDLength {
		return memberID[:truncatedIDLength]
	}
	return memberID
}

// Summaries resolves identity for every visible member, sorted by id for
// deterministic output.
func Summaries(selfID string, members map[string]*progress.MemberState, nameCache map[string]string) []MemberSummary {
	summaries := make([]MemberSummary, 0, len(members))
	for id, state := range members {
		summaries = append(summaries, MemberSummary{
			ID:          id,
			DisplayName: ResolveDisplayName(id, selfID, members, nameCache),
			Level:       state.PlayerLevel(),
			Faction:     state.Faction(),
			GameEdition: editionOf(state),
			Self:        id == selfID,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

func editionOf(state *progress.MemberState) int {
	if state == nil {
		return 0
	}
	return state.GameEdition
}
