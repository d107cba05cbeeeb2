package team

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/raid-ledger/internal/progress"
)

func TestOverlayHidden(t *testing.T) {
	overlay := Overlay{HiddenIDs: map[string]struct{}{"b": {}}}
	require.True(t, overlay.Hidden("b"))
	require.False(t, overlay.Hidden("a"))

	require.True(t, Overlay{HideAll: true}.Hidden("anyone"))
	require.False(t, Overlay{}.Hidden("anyone"))
}

func TestVisibleFiltersHiddenMembers(t *testing.T) {
	members := map[string]*progress.MemberState{
		"self":  progress.NewMemberState("self"),
		"other": progress.NewMemberState("other"),
		"third": progress.NewMemberState("third"),
	}

	visible := Visible("self", members, Overlay{HiddenIDs: map[string]struct{}{"other": {}}})
	require.Len(t, visible, 2)
	require.Contains(t, visible, "self")
	require.Contains(t, visible, "third")
	require.NotContains(t, visible, "other")

	// Input untouched.
	require.Len(t, members, 3)
}

func TestVisibleHideAllKeepsSelf(t *testing.T) {
	members := map[string]*progress.MemberState{
		"self":  progress.NewMemberState("self"),
		"other": progress.NewMemberState("other"),
	}

	visible := Visible("self", members, Overlay{HideAll: true})
	require.Len(t, visible, 1)
	require.Contains(t, visible, "self")

	// Even an explicit hidden entry for self is ignored.
	visible = Visible("self", members, Overlay{
		HideAll:   true,
		HiddenIDs: map[string]struct{}{"self": {}},
	})
	require.Contains(t, visible, "self")
}
