package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBuildsIndexes(t *testing.T) {
	raw := []byte(`{
		"tasks": [
			{"id": "t1", "name": "Debut", "min_player_level": 5},
			{"id": "t2", "name": "Shortage", "task_requirements": [{"task_id": "t1"}]}
		],
		"hideout_stations": [
			{"id": "s1", "name": "Stash", "normalized_name": "stash", "levels": [
				{"id": "s1-1", "station_id": "s1", "level": 1}
			]}
		],
		"traders": [
			{"id": "prapor", "name": "Prapor", "normalized_name": "prapor"}
		],
		"excluded_items": ["container-1"]
	}`)

	snap, err := Parse(raw)
	require.NoError(t, err)

	task, ok := snap.Task("t2")
	require.True(t, ok)
	require.Len(t, task.TaskRequirements, 1)

	_, ok = snap.Task("missing")
	require.False(t, ok)

	station, ok := snap.Station("s1")
	require.True(t, ok)
	require.Equal(t, "stash", station.NormalizedName)

	level, ok := snap.Level("s1-1")
	require.True(t, ok)
	require.Equal(t, 1, level.Level)

	trader, ok := snap.Trader("prapor")
	require.True(t, ok)
	require.Equal(t, DefaultTraderMaxLevel, trader.LoyaltyCap())

	require.True(t, snap.IsNonTrackable("container-1"))
	require.False(t, snap.IsNonTrackable("item-x"))
	require.Empty(t, snap.Diagnostics())
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"tasks": [`))
	require.Error(t, err)
}

func TestNewDropsDanglingReferences(t *testing.T) {
	tasks := []Task{
		{ID: "t1"},
		{
			ID:                 "t2",
			TaskRequirements:   []TaskRequirement{{TaskID: "t1"}, {TaskID: "ghost"}},
			FailedRequirements: []string{"ghost"},
			Alternatives:       []string{"t1", "ghost"},
			TraderLevelRequirements: []TraderLevelRequirement{
				{TraderID: "ghost-trader", Level: 2},
			},
		},
	}

	snap := New(tasks, nil, nil, nil)

	task, ok := snap.Task("t2")
	require.True(t, ok)
	require.Len(t, task.TaskRequirements, 1)
	require.Equal(t, "t1", task.TaskRequirements[0].TaskID)
	require.Empty(t, task.FailedRequirements)
	require.Equal(t, []string{"t1"}, task.Alternatives)
	require.Empty(t, task.TraderLevelRequirements)

	kinds := make(map[string]int)
	for _, diag := range snap.Diagnostics() {
		kinds[diag.Kind]++
	}
	require.Equal(t, 1, kinds[DiagnosticDanglingTaskRequirement])
	require.Equal(t, 1, kinds[DiagnosticDanglingFailRequirement])
	require.Equal(t, 1, kinds[DiagnosticDanglingAlternative])
	require.Equal(t, 1, kinds[DiagnosticDanglingTraderRequirement])
}

func TestEmptySnapshotIsUsable(t *testing.T) {
	snap := Empty()
	require.Empty(t, snap.Tasks())
	require.Empty(t, snap.Stations())
	require.Empty(t, snap.Traders())
	require.Empty(t, snap.Diagnostics())
}

func TestEditionDefaults(t *testing.T) {
	require.Equal(t, 1, DefaultStashLevel(EditionStandard))
	require.Equal(t, 3, DefaultStashLevel(EditionPrepareForEscape))
	require.Equal(t, 4, DefaultStashLevel(EditionEdgeOfDarkness))
	require.Equal(t, 4, DefaultStashLevel(EditionUnheard))
	// Unknown editions fall back to the standard stash.
	require.Equal(t, 1, DefaultStashLevel(99))

	require.True(t, IsUnheardEdition(EditionUnheard))
	require.True(t, IsUnheardEdition(EditionUnheardEOD))
	require.False(t, IsUnheardEdition(EditionEdgeOfDarkness))
}

func TestConsumesItems(t *testing.T) {
	require.True(t, ConsumesItems(ObjectiveGiveItem))
	require.True(t, ConsumesItems(ObjectiveBuildWeapon))
	require.False(t, ConsumesItems(ObjectiveVisit))
	require.False(t, ConsumesItems(ObjectiveShoot))
}

func TestStationMaxLevel(t *testing.T) {
	station := HideoutStation{Levels: []HideoutLevel{
		{ID: "a", Level: 1},
		{ID: "b", Level: 3},
		{ID: "c", Level: 2},
	}}
	require.Equal(t, 3, station.MaxLevel())
	require.Equal(t, 0, HideoutStation{}.MaxLevel())
}
