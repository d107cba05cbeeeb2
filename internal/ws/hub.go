package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// MessageType represents the type of a hub payload.
type MessageType string

const (
	MessageProgressUpdated MessageType = "ProgressUpdated"
	MessageMemberJoined    MessageType = "MemberJoined"
	MessageMemberLeft      MessageType = "MemberLeft"
	MessageCatalogReloaded MessageType = "CatalogReloaded"
)

// BroadcastMessage packages a payload for a team-scoped broadcast.
type BroadcastMessage struct {
	TeamID  string
	Payload []byte
}

// Hub manages active clients and team-scoped broadcasts.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
}

// NewHub builds a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage),
	}
}

// Run starts the hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if client.TeamID() != message.TeamID {
					continue
				}
				select {
				case client.Send <- message.Payload:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Broadcast sends a payload to all clients in a team.
func (h *Hub) Broadcast(teamID string, payload []byte) {
	h.broadcast <- BroadcastMessage{TeamID: teamID, Payload: payload}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Client represents a websocket connection.
type Client struct {
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte

	mu       sync.RWMutex
	teamID   string
	memberID string
}

// NewClient returns a client ready for registration.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}

// TeamID returns the team the client is subscribed to.
func (c *Client) TeamID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.teamID
}

// MemberID returns the member the client streams progress for.
func (c *Client) MemberID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memberID
}

// Subscribe binds the client to a team and member.
func (c *Client) Subscribe(teamID, memberID string) {
	c.mu.Lock()
	c.teamID = teamID
	c.memberID = memberID
	c.mu.Unlock()
}
