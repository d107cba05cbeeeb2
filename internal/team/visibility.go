// Package team aggregates per-member progress into team-scoped views:
// visibility filtering, hideout display levels, needed-item tallies, and
// member identity resolution. The Tracker owns the live member feeds and
// republishes a derived View whenever any input changes.
package team

import (
	"github.com/samhotchkiss/raid-ledger/internal/progress"
)

// Overlay is a per-viewer suppression of members from aggregated views. It
// never affects the underlying member feeds and never hides self.
type Overlay struct {
	HiddenIDs map[string]struct{} `json:"hidden_ids,omitempty"`
	HideAll   bool                `json:"hide_all,omitempty"`
}

// Hidden reports whether the overlay suppresses the member.
func (o Overlay) Hidden(memberID string) bool {
	if o.HideAll {
		return true
	}
	_, ok := o.HiddenIDs[memberID]
	return ok
}

// Visible filters the member set through the overlay. Self is always
// included regardless of overlay state. The input map is not mutated; the
// result is recomputed on every aggregation pass since hide-state can
// change between passes.
func Visible(selfID string, members map[string]*progress.MemberState, overlay Overlay) map[string]*progress.MemberState {
	visible := make(map[string]*progress.MemberState, len(members))
	for id, state := range members {
		if id != selfID && overlay.Hidden(id) {
			continue
		}
		visible[id] = state
	}
	return visible
}
