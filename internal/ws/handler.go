package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samhotchkiss/raid-ledger/internal/progress"
	"github.com/samhotchkiss/raid-ledger/internal/team"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Full member-state sync frames carry the whole progress record.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     isWebSocketOriginAllowed,
}

var subscriptionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ProgressApplier receives member progress frames from the feed. The api
// package implements it on top of the team tracker registry.
type ProgressApplier interface {
	ApplyProgress(ctx context.Context, teamID, memberID string, update ProgressUpdate) error
	RemoveMember(ctx context.Context, teamID, memberID string) error
}

// ProgressUpdate is one decoded progress frame. Exactly one field is set.
type ProgressUpdate struct {
	Task      *TaskUpdate           `json:"task,omitempty"`
	Objective *ObjectiveUpdate      `json:"objective,omitempty"`
	Module    *ModuleUpdate         `json:"module,omitempty"`
	Profile   *team.ProfileUpdate   `json:"profile,omitempty"`
	FullState *progress.MemberState `json:"full_state,omitempty"`
}

// TaskUpdate changes a member's completion flags for one task.
type TaskUpdate struct {
	TaskID   string `json:"task_id"`
	Complete bool   `json:"complete"`
	Failed   bool   `json:"failed"`
}

// ObjectiveUpdate changes a member's progress for one objective.
type ObjectiveUpdate struct {
	ObjectiveID string `json:"objective_id"`
	Complete    bool   `json:"complete"`
	Count       int    `json:"count"`
}

// ModuleUpdate changes a member's build state for one hideout level.
type ModuleUpdate struct {
	LevelID  string `json:"level_id"`
	Complete bool   `json:"complete"`
}

// Handler upgrades HTTP connections to websocket clients.
type Handler struct {
	Hub     *Hub
	Applier ProgressApplier
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(h.Hub, conn)
	h.Hub.register <- client

	go client.WritePump()
	client.ReadPump(r.Context(), h.Applier)
}

type clientMessage struct {
	Type     string `json:"type"`
	TeamID   string `json:"team_id,omitempty"`
	MemberID string `json:"member_id,omitempty"`

	Task      *TaskUpdate           `json:"task,omitempty"`
	Objective *ObjectiveUpdate      `json:"objective,omitempty"`
	Module    *ModuleUpdate         `json:"module,omitempty"`
	Profile   *team.ProfileUpdate   `json:"profile,omitempty"`
	State     *progress.MemberState `json:"state,omitempty"`
}

// ReadPump pumps messages from the websocket connection.
func (c *Client) ReadPump(clientCtx context.Context, applier ProgressApplier) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var payload clientMessage
		if err := json.Unmarshal(message, &payload); err != nil {
			continue
		}
		processClientMessage(clientCtx, c, payload, applier)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func processClientMessage(ctx context.Context, client *Client, payload clientMessage, applier ProgressApplier) {
	if client == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch strings.ToLower(strings.TrimSpace(payload.Type)) {
	case "subscribe":
		teamID := strings.TrimSpace(payload.TeamID)
		memberID := strings.TrimSpace(payload.MemberID)
		if !subscriptionIDPattern.MatchString(teamID) || !subscriptionIDPattern.MatchString(memberID) {
			return
		}
		client.Subscribe(teamID, memberID)
	case "progress":
		teamID := strings.TrimSpace(client.TeamID())
		if teamID == "" || applier == nil {
			return
		}
		memberID := strings.TrimSpace(payload.MemberID)
		if memberID == "" {
			memberID = client.MemberID()
		}
		if memberID == "" {
			return
		}
		update := ProgressUpdate{
			Task:      payload.Task,
			Objective: payload.Objective,
			Module:    payload.Module,
			Profile:   payload.Profile,
			FullState: payload.State,
		}
		if err := applier.ApplyProgress(ctx, teamID, memberID, update); err != nil {
			log.Printf("warning: progress frame rejected: team_id=%s member_id=%s err=%v", teamID, memberID, err)
		}
	case "leave":
		teamID := strings.TrimSpace(client.TeamID())
		memberID := strings.TrimSpace(payload.MemberID)
		if teamID == "" || memberID == "" || applier == nil {
			return
		}
		if err := applier.RemoveMember(ctx, teamID, memberID); err != nil {
			log.Printf("warning: member removal failed: team_id=%s member_id=%s err=%v", teamID, memberID, err)
		}
	}
}

func isWebSocketOriginAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	originHost := normalizeOriginHost(originURL.Host)
	if originHost == "" {
		return false
	}

	reqHost := normalizeOriginHost(r.Host)
	if reqHost == originHost || isLoopbackAliasPair(reqHost, originHost) {
		return true
	}

	allowList := strings.Split(strings.TrimSpace(os.Getenv("WS_ALLOWED_ORIGINS")), ",")
	for _, candidate := range allowList {
		if isAllowedOriginCandidate(originURL, candidate) {
			return true
		}
	}
	return false
}

func normalizeOriginHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "[") && strings.Contains(host, "]") {
		if parsedHost, _, err := net.SplitHostPort(host); err == nil {
			return strings.Trim(parsedHost, "[]")
		}
		return strings.Trim(host, "[]")
	}
	if parsedHost, _, err := net.SplitHostPort(host); err == nil {
		return parsedHost
	}
	return host
}

func isLoopbackAliasPair(a, b string) bool {
	loopback := map[string]bool{
		"localhost": true,
		"127.0.0.1": true,
		"::1":       true,
	}
	return loopback[a] && loopback[b]
}

func isAllowedOriginCandidate(originURL *url.URL, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	if candidate == "*" {
		return true
	}

	parsedCandidate, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	if parsedCandidate.Scheme != "" && parsedCandidate.Scheme != originURL.Scheme {
		return false
	}
	patternHost := normalizeOriginHost(parsedCandidate.Host)
	if patternHost == "" {
		return false
	}

	actualHost := normalizeOriginHost(originURL.Host)
	if strings.HasPrefix(patternHost, "*.") {
		suffix := strings.TrimPrefix(patternHost, "*.")
		if actualHost == suffix {
			return false
		}
		return strings.HasSuffix(actualHost, "."+suffix)
	}
	return actualHost == patternHost
}
