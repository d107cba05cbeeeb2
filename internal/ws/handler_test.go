package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type stubApplier struct {
	applied []appliedFrame
	removed []string
	err     error
}

type appliedFrame struct {
	teamID   string
	memberID string
	update   ProgressUpdate
}

func (s *stubApplier) ApplyProgress(ctx context.Context, teamID, memberID string, update ProgressUpdate) error {
	s.applied = append(s.applied, appliedFrame{teamID: teamID, memberID: memberID, update: update})
	return s.err
}

func (s *stubApplier) RemoveMember(ctx context.Context, teamID, memberID string) error {
	s.removed = append(s.removed, teamID+":"+memberID)
	return s.err
}

func TestProcessClientMessageSubscribe(t *testing.T) {
	client := NewClient(nil, nil)

	processClientMessage(context.Background(), client, clientMessage{
		Type:     "subscribe",
		TeamID:   "squad-alpha",
		MemberID: "member-a",
	}, nil)

	if client.TeamID() != "squad-alpha" {
		t.Fatalf("expected team binding, got %q", client.TeamID())
	}
	if client.MemberID() != "member-a" {
		t.Fatalf("expected member binding, got %q", client.MemberID())
	}
}

func TestProcessClientMessageSubscribeRejectsInvalidIDs(t *testing.T) {
	client := NewClient(nil, nil)

	processClientMessage(context.Background(), client, clientMessage{
		Type:     "subscribe",
		TeamID:   "bad team!",
		MemberID: "member-a",
	}, nil)
	if client.TeamID() != "" {
		t.Fatalf("expected invalid team id to be rejected, got %q", client.TeamID())
	}

	processClientMessage(context.Background(), client, clientMessage{
		Type:   "subscribe",
		TeamID: "squad-alpha",
	}, nil)
	if client.TeamID() != "" {
		t.Fatalf("expected subscribe without member id to be rejected")
	}
}

func TestProcessClientMessageProgress(t *testing.T) {
	client := NewClient(nil, nil)
	client.Subscribe("squad-alpha", "member-a")
	applier := &stubApplier{}

	processClientMessage(context.Background(), client, clientMessage{
		Type: "progress",
		Task: &TaskUpdate{TaskID: "t1", Complete: true},
	}, applier)

	require.Len(t, applier.applied, 1)
	require.Equal(t, "squad-alpha", applier.applied[0].teamID)
	require.Equal(t, "member-a", applier.applied[0].memberID)
	require.NotNil(t, applier.applied[0].update.Task)
	require.Equal(t, "t1", applier.applied[0].update.Task.TaskID)
}

func TestProcessClientMessageProgressExplicitMemberOverrides(t *testing.T) {
	client := NewClient(nil, nil)
	client.Subscribe("squad-alpha", "member-a")
	applier := &stubApplier{}

	processClientMessage(context.Background(), client, clientMessage{
		Type:      "progress",
		MemberID:  "member-b",
		Objective: &ObjectiveUpdate{ObjectiveID: "o1", Count: 3},
	}, applier)

	require.Len(t, applier.applied, 1)
	require.Equal(t, "member-b", applier.applied[0].memberID)
}

func TestProcessClientMessageProgressRequiresSubscription(t *testing.T) {
	client := NewClient(nil, nil)
	applier := &stubApplier{}

	processClientMessage(context.Background(), client, clientMessage{
		Type: "progress",
		Task: &TaskUpdate{TaskID: "t1"},
	}, applier)

	require.Empty(t, applier.applied)
}

func TestProcessClientMessageLeave(t *testing.T) {
	client := NewClient(nil, nil)
	client.Subscribe("squad-alpha", "member-a")
	applier := &stubApplier{}

	processClientMessage(context.Background(), client, clientMessage{
		Type:     "leave",
		MemberID: "member-b",
	}, applier)

	require.Equal(t, []string{"squad-alpha:member-b"}, applier.removed)
}

func TestIsWebSocketOriginAllowed_NoOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.raidledger.dev/ws", nil)
	req.Host = "api.raidledger.dev"

	if !isWebSocketOriginAllowed(req) {
		t.Fatalf("expected empty origin to be allowed")
	}
}

func TestIsWebSocketOriginAllowed_SameOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.raidledger.dev/ws", nil)
	req.Host = "api.raidledger.dev"
	req.Header.Set("Origin", "http://api.raidledger.dev")

	if !isWebSocketOriginAllowed(req) {
		t.Fatalf("expected same-origin websocket to be allowed")
	}
}

func TestIsWebSocketOriginAllowed_CrossOriginDeniedByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.raidledger.dev/ws", nil)
	req.Host = "api.raidledger.dev"
	req.Header.Set("Origin", "https://evil.example")

	if isWebSocketOriginAllowed(req) {
		t.Fatalf("expected cross-origin websocket to be denied by default")
	}
}

func TestIsWebSocketOriginAllowed_AllowListOverride(t *testing.T) {
	t.Setenv("WS_ALLOWED_ORIGINS", "https://app.raidledger.dev")

	req := httptest.NewRequest(http.MethodGet, "http://api.raidledger.dev/ws", nil)
	req.Host = "api.raidledger.dev"
	req.Header.Set("Origin", "https://app.raidledger.dev")

	if !isWebSocketOriginAllowed(req) {
		t.Fatalf("expected allow-listed origin to be allowed")
	}
}

func TestIsWebSocketOriginAllowed_LoopbackAliasAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8080/ws", nil)
	req.Host = "127.0.0.1:8080"
	req.Header.Set("Origin", "http://localhost:8080")

	if !isWebSocketOriginAllowed(req) {
		t.Fatalf("expected loopback alias origin to be allowed")
	}
}

func TestClientReadPumpSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	handler := &Handler{Hub: hub}
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":      "subscribe",
		"team_id":   "squad-alpha",
		"member_id": "member-a",
	}))
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("squad-alpha", []byte(`{"type":"ProgressUpdated"}`))

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"ProgressUpdated"}`, string(message))
}

func TestClientReadPumpOtherTeamNotDelivered(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	handler := &Handler{Hub: hub}
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":      "subscribe",
		"team_id":   "squad-alpha",
		"member_id": "member-a",
	}))
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("squad-bravo", []byte(`{"type":"ProgressUpdated"}`))

	_ = conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}
