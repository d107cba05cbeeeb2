package team

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
)

func stashStation() catalog.HideoutStation {
	return catalog.HideoutStation{
		ID: "stash", Name: "Stash", NormalizedName: catalog.StationStash,
		Levels: []catalog.HideoutLevel{
			{ID: "stash-1", StationID: "stash", Level: 1},
			{ID: "stash-2", StationID: "stash", Level: 2},
			{ID: "stash-3", StationID: "stash", Level: 3},
			{ID: "stash-4", StationID: "stash", Level: 4},
		},
	}
}

func circleStation() catalog.HideoutStation {
	return catalog.HideoutStation{
		ID: "circle", Name: "Cultist Circle", NormalizedName: catalog.StationCultistCircle,
		Levels: []catalog.HideoutLevel{
			{ID: "circle-1", StationID: "circle", Level: 1},
		},
	}
}

func TestDisplayLevelStashEditionFloor(t *testing.T) {
	station := stashStation()

	standard := progress.NewMemberState("a")
	require.Equal(t, 1, DisplayLevel(station, standard))

	prepared := progress.NewMemberState("b")
	prepared.GameEdition = catalog.EditionPrepareForEscape
	require.Equal(t, 3, DisplayLevel(station, prepared))

	// Manual progress past the floor wins.
	prepared.HideoutModules["stash-4"] = progress.ModuleProgress{Complete: true}
	require.Equal(t, 4, DisplayLevel(station, prepared))

	// Manual progress below the floor does not lower the display.
	lagging := progress.NewMemberState("c")
	lagging.GameEdition = catalog.EditionPrepareForEscape
	lagging.HideoutModules["stash-2"] = progress.ModuleProgress{Complete: true}
	require.Equal(t, 3, DisplayLevel(station, lagging))
}

func TestDisplayLevelCultistCircle(t *testing.T) {
	station := circleStation()

	unheard := progress.NewMemberState("a")
	unheard.GameEdition = catalog.EditionUnheard
	require.Equal(t, 1, DisplayLevel(station, unheard))

	standard := progress.NewMemberState("b")
	require.Equal(t, 0, DisplayLevel(station, standard))

	standard.HideoutModules["circle-1"] = progress.ModuleProgress{Complete: true}
	require.Equal(t, 1, DisplayLevel(station, standard))
}

func TestDisplayLevelDefaultStation(t *testing.T) {
	station := catalog.HideoutStation{
		ID: "generator", NormalizedName: "generator",
		Levels: []catalog.HideoutLevel{
			{ID: "gen-1", StationID: "generator", Level: 1},
			{ID: "gen-2", StationID: "generator", Level: 2},
		},
	}

	member := progress.NewMemberState("a")
	member.GameEdition = catalog.EditionEdgeOfDarkness
	require.Equal(t, 0, DisplayLevel(station, member))

	member.HideoutModules["gen-2"] = progress.ModuleProgress{Complete: true}
	require.Equal(t, 2, DisplayLevel(station, member))

	require.Equal(t, 0, DisplayLevel(station, nil))
}

func TestHideoutLevels(t *testing.T) {
	snap := catalog.New(nil, []catalog.HideoutStation{stashStation(), circleStation()}, nil, nil)

	a := progress.NewMemberState("a")
	a.GameEdition = catalog.EditionUnheard
	b := progress.NewMemberState("b")

	levels := HideoutLevels(snap, map[string]*progress.MemberState{"a": a, "b": b})

	require.Equal(t, 4, levels["stash"]["a"])
	require.Equal(t, 1, levels["stash"]["b"])
	require.Equal(t, 1, levels["circle"]["a"])
	require.Equal(t, 0, levels["circle"]["b"])
}

func neededItemsFixture() *catalog.Snapshot {
	tasks := []catalog.Task{
		{
			ID: "supply-run", Name: "Supply Run",
			Objectives: []catalog.Objective{
				{ID: "obj-salewa", TaskID: "supply-run", Type: catalog.ObjectiveGiveItem, ItemID: "salewa", Count: 5},
				{ID: "obj-visit", TaskID: "supply-run", Type: catalog.ObjectiveVisit},
			},
		},
		{
			ID: "stockpile", Name: "Stockpile",
			Objectives: []catalog.Objective{
				{ID: "obj-salewa-2", TaskID: "stockpile", Type: catalog.ObjectiveFindItem, ItemID: "salewa", Count: 2},
				{ID: "obj-case", TaskID: "stockpile", Type: catalog.ObjectiveGiveItem, ItemID: "thicc-case", Count: 1},
			},
		},
	}
	return catalog.New(tasks, nil, nil, []string{"thicc-case"})
}

func TestNeededItemsFloorsPerMember(t *testing.T) {
	snap := neededItemsFixture()

	a := progress.NewMemberState("a")
	a.TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 1}
	b := progress.NewMemberState("b")
	b.TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 2}
	// Past the requirement without the completion flag.
	b.TaskObjectives["obj-salewa-2"] = progress.ObjectiveProgress{Count: 7}

	members := map[string]*progress.MemberState{"a": a, "b": b}
	completion := progress.NewEvaluator(snap).CompletionMap(members)

	demand := NeededItems(snap, members, completion)

	salewa := demand["salewa"]
	require.NotNil(t, salewa)
	// a: (5-1) + (2-0), b: (5-2) + floored 0.
	require.Equal(t, 9, salewa.Total)
	require.Equal(t, 6, salewa.ByMember["a"])
	require.Equal(t, 3, salewa.ByMember["b"])
	require.Equal(t, []string{"obj-salewa", "obj-salewa-2"}, salewa.ObjectiveIDs)

	// Container items never show up in demand.
	require.NotContains(t, demand, "thicc-case")
}

func TestNeededItemsSkipsCompletedWork(t *testing.T) {
	snap := neededItemsFixture()

	a := progress.NewMemberState("a")
	a.TaskCompletions["supply-run"] = progress.CompletionFlags{Complete: true}
	a.TaskObjectives["obj-salewa-2"] = progress.ObjectiveProgress{Complete: true}

	members := map[string]*progress.MemberState{"a": a}
	completion := progress.NewEvaluator(snap).CompletionMap(members)

	demand := NeededItems(snap, members, completion)
	require.NotContains(t, demand, "salewa")
}

func TestNeededItemsHiddenMemberExcluded(t *testing.T) {
	snap := neededItemsFixture()

	a := progress.NewMemberState("a")
	a.TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 3}
	a.TaskObjectives["obj-salewa-2"] = progress.ObjectiveProgress{Complete: true}
	b := progress.NewMemberState("b")
	b.TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 2}
	b.TaskObjectives["obj-salewa-2"] = progress.ObjectiveProgress{Complete: true}

	all := map[string]*progress.MemberState{"a": a, "b": b}
	overlay := Overlay{HiddenIDs: map[string]struct{}{"b": {}}}
	visible := Visible("a", all, overlay)

	completion := progress.NewEvaluator(snap).CompletionMap(visible)
	demand := NeededItems(snap, visible, completion)

	// With b hidden only a's remaining 2 count; unhidden it would be 5.
	require.Equal(t, 2, demand["salewa"].Total)
	require.NotContains(t, demand["salewa"].ByMember, "b")
}

func TestNeededItemsOrderIndependent(t *testing.T) {
	snap := neededItemsFixture()

	build := func(ids ...string) map[string]*progress.MemberState {
		members := make(map[string]*progress.MemberState)
		for i, id := range ids {
			state := progress.NewMemberState(id)
			state.TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: i}
			members[id] = state
		}
		return members
	}

	forward := build("a", "b", "c")
	reversed := build("c", "b", "a")
	reversed["a"].TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 0}
	reversed["b"].TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 1}
	reversed["c"].TaskObjectives["obj-salewa"] = progress.ObjectiveProgress{Count: 2}

	eval := progress.NewEvaluator(snap)
	first := NeededItems(snap, forward, eval.CompletionMap(forward))
	second := NeededItems(snap, reversed, eval.CompletionMap(reversed))

	require.Equal(t, first["salewa"].Total, second["salewa"].Total)
	require.Equal(t, first["salewa"].ByMember, second["salewa"].ByMember)
}

func TestResolveDisplayName(t *testing.T) {
	withName := progress.NewMemberState("member-with-a-long-id")
	withName.DisplayName = "Ripley"

	members := map[string]*progress.MemberState{
		"member-with-a-long-id": withName,
		"cached-member-id":      progress.NewMemberState("cached-member-id"),
		"short":                 progress.NewMemberState("short"),
	}
	nameCache := map[string]string{"cached-member-id": "Hicks"}

	require.Equal(t, "Ripley", ResolveDisplayName("member-with-a-long-id", "self", members, nameCache))
	require.Equal(t, "Hicks", ResolveDisplayName("cached-member-id", "self", members, nameCache))
	require.Equal(t, "short", ResolveDisplayName("short", "self", members, nameCache))
	require.Equal(t, "member-w", ResolveDisplayName("member-with-a-long-id", "self", nil, nil))
	require.Equal(t, "Unknown", ResolveDisplayName("", "self", nil, nil))
}

func TestSummariesSortedWithSelfFlag(t *testing.T) {
	b := progress.NewMemberState("b")
	b.DisplayName = "Vasquez"
	b.Level = 22
	b.PMCFaction = catalog.FactionBear

	members := map[string]*progress.MemberState{
		"b": b,
		"a": nil,
	}

	summaries := Summaries("b", members, nil)
	require.Len(t, summaries, 2)

	require.Equal(t, "a", summaries[0].ID)
	require.Equal(t, "a", summaries[0].DisplayName)
	require.Equal(t, 0, summaries[0].Level)
	require.Equal(t, "Unknown", summaries[0].Faction)
	require.False(t, summaries[0].Self)

	require.Equal(t, "b", summaries[1].ID)
	require.Equal(t, "Vasquez", summaries[1].DisplayName)
	require.Equal(t, 22, summaries[1].Level)
	require.True(t, summaries[1].Self)
}
