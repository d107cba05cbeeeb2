package api

import (
	"encoding/json"

	"github.com/samhotchkiss/raid-ledger/internal/team"
	"github.com/samhotchkiss/raid-ledger/internal/ws"
)

type trackerEvent struct {
	Type     ws.MessageType `json:"type"`
	MemberID string         `json:"member_id,omitempty"`
}

func broadcastTrackerEvent(hub *ws.Hub, teamID string, event team.Event) {
	if hub == nil {
		return
	}

	payload, err := json.Marshal(trackerEvent{
		Type:     ws.MessageType(event.Type),
		MemberID: event.MemberID,
	})
	if err != nil {
		return
	}

	hub.Broadcast(teamID, payload)
}
