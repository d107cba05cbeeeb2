package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
	"github.com/samhotchkiss/raid-ledger/internal/ws"
)

func decodeFullState(t *testing.T, raw string) *progress.MemberState {
	t.Helper()
	state, err := progress.DecodeMemberState([]byte(raw))
	require.NoError(t, err)
	return state
}

func TestApplyProgressRejectsEmptyFrame(t *testing.T) {
	registry := NewRegistry(testSnapshot(), nil, nil, nil)

	err := registry.ApplyProgress(context.Background(), "squad-alpha", "member-a", ws.ProgressUpdate{})
	require.ErrorIs(t, err, errNoUpdate)
}

func TestApplyProgressFullState(t *testing.T) {
	registry := NewRegistry(testSnapshot(), nil, nil, nil)

	state := decodeFullState(t, `{"id": "ignored", "level": 18, "task_completions": {"t1": {"complete": true}}}`)
	err := registry.ApplyProgress(context.Background(), "squad-alpha", "member-a", ws.ProgressUpdate{FullState: state})
	require.NoError(t, err)

	tracker := registry.Tracker(context.Background(), "squad-alpha")
	member := tracker.MemberState("member-a")
	require.NotNil(t, member)
	// The frame's member id is overridden by the subscription identity.
	require.Equal(t, "member-a", member.ID)
	require.Equal(t, 18, member.Level)
	require.True(t, member.TaskComplete("t1"))
}

func TestRemoveMemberWithoutStore(t *testing.T) {
	registry := NewRegistry(testSnapshot(), nil, nil, nil)

	err := registry.ApplyProgress(context.Background(), "squad-alpha", "member-a", ws.ProgressUpdate{
		Task: &ws.TaskUpdate{TaskID: "t1", Complete: true},
	})
	require.NoError(t, err)

	require.NoError(t, registry.RemoveMember(context.Background(), "squad-alpha", "member-a"))
	tracker := registry.Tracker(context.Background(), "squad-alpha")
	require.Nil(t, tracker.MemberState("member-a"))
}

func TestTrackersAreTeamScoped(t *testing.T) {
	registry := NewRegistry(testSnapshot(), nil, nil, nil)

	alpha := registry.Tracker(context.Background(), "squad-alpha")
	bravo := registry.Tracker(context.Background(), "squad-bravo")
	require.NotSame(t, alpha, bravo)
	require.Same(t, alpha, registry.Tracker(context.Background(), "squad-alpha"))
}

func TestSetCatalogReachesLiveTrackers(t *testing.T) {
	registry := NewRegistry(testSnapshot(), nil, nil, nil)
	tracker := registry.Tracker(context.Background(), "squad-alpha")
	require.Equal(t, 2, tracker.Graph().Len())

	registry.SetCatalog(catalog.Empty())
	require.Zero(t, tracker.Graph().Len())

	// Teams created after the swap see the new snapshot too.
	fresh := registry.Tracker(context.Background(), "squad-bravo")
	require.Empty(t, fresh.Catalog().Tasks())
}
