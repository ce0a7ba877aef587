package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

const (
	// Per-user simultaneous websocket connection limit (multi-device support).
	maxConnsPerUser = 12
	// Global connection ceiling for the hub.
	maxTotalConns = 10000
)

// RoomHub manages WebSocket connections for hackathon chat rooms.
// A room is keyed by hackathon ID; every registered participant of the
// hackathon shares the same room.
type RoomHub struct {
	mu sync.RWMutex

	// Map: hackathonID -> userID -> presence marker
	rooms map[uint]map[uint]struct{}

	// Map: userID -> set of hackathonIDs they are actively viewing
	userActiveRooms map[uint]map[uint]struct{}

	// Map: userID -> set of active Clients (multi-device support)
	userConns map[uint]map[*Client]bool

	totalConns int
}

// Name returns a human-readable identifier for this hub.
func (h *RoomHub) Name() string { return "room hub" }

// RoomEvent represents a message broadcast to a hackathon room.
type RoomEvent struct {
	Type        string      `json:"type"` // "message", "announcement", "user_status"
	HackathonID uint        `json:"hackathon_id"`
	UserID      uint        `json:"user_id,omitempty"`
	Username    string      `json:"username,omitempty"`
	Payload     interface{} `json:"payload"`
}

// NewRoomHub creates a new RoomHub instance
func NewRoomHub() *RoomHub {
	return &RoomHub{
		rooms:           make(map[uint]map[uint]struct{}),
		userActiveRooms: make(map[uint]map[uint]struct{}),
		userConns:       make(map[uint]map[*Client]bool),
	}
}

// Register registers a user's websocket connection. Returns Client or error if limits exceeded.
func (h *RoomHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, fmt.Errorf("server connection limit reached")
	}

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}

	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	h.totalConns++
	h.mu.Unlock()

	log.Printf("RoomHub: Registered user %d (Active clients: %d)", userID, len(h.userConns[userID]))
	return client, nil
}

// UnregisterClient removes a user's websocket connection and cleans up
// their room subscriptions once the last connection is gone.
func (h *RoomHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, present := clients[client]; !present {
		h.mu.Unlock()
		return
	}

	delete(clients, client)
	h.totalConns--

	if len(clients) > 0 {
		h.mu.Unlock()
		log.Printf("RoomHub: Unregistered client for user %d (Remaining clients: %d)", client.UserID, len(clients))
		return
	}

	// Last connection for this user: drop all room subscriptions.
	delete(h.userConns, client.UserID)
	if rooms, ok := h.userActiveRooms[client.UserID]; ok {
		for hackathonID := range rooms {
			if users, ok := h.rooms[hackathonID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.rooms, hackathonID)
				}
			}
		}
		delete(h.userActiveRooms, client.UserID)
	}

	h.mu.Unlock()
	log.Printf("RoomHub: Unregistered user %d (All connections closed)", client.UserID)
}

// JoinRoom subscribes a connected user to a hackathon's room events.
func (h *RoomHub) JoinRoom(userID, hackathonID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		log.Printf("RoomHub: User %d not connected, cannot join room %d", userID, hackathonID)
		return
	}

	if h.rooms[hackathonID] == nil {
		h.rooms[hackathonID] = make(map[uint]struct{})
	}
	h.rooms[hackathonID][userID] = struct{}{}

	if h.userActiveRooms[userID] == nil {
		h.userActiveRooms[userID] = make(map[uint]struct{})
	}
	h.userActiveRooms[userID][hackathonID] = struct{}{}

	log.Printf("RoomHub: User %d joined room %d", userID, hackathonID)
}

// LeaveRoom unsubscribes a user from a hackathon's room events.
func (h *RoomHub) LeaveRoom(userID, hackathonID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.rooms[hackathonID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.rooms, hackathonID)
		}
	}
	if rooms, ok := h.userActiveRooms[userID]; ok {
		delete(rooms, hackathonID)
	}

	log.Printf("RoomHub: User %d left room %d", userID, hackathonID)
}

// BroadcastToRoom sends an event to every connection of every user in a room.
func (h *RoomHub) BroadcastToRoom(hackathonID uint, event RoomEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.rooms[hackathonID]
	if !ok {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("RoomHub: Failed to marshal event: %v", err)
		return
	}

	for userID := range users {
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(eventJSON)
			}
		}
	}
}

// SendToUser delivers an event to all of a user's connections, regardless of room.
func (h *RoomHub) SendToUser(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userConns[userID]; ok {
		for client := range clients {
			client.TrySend(payload)
		}
	}
}

// IsUserOnline returns true when the user has at least one active websocket client.
func (h *RoomHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// ActiveUsers returns the list of userIDs currently in a room.
func (h *RoomHub) ActiveUsers(hackathonID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.rooms[hackathonID]
	if !ok {
		return []uint{}
	}

	result := make([]uint, 0, len(users))
	for userID := range users {
		result = append(result, userID)
	}
	return result
}

// StartWiring connects the RoomHub to Redis pub/sub for room events.
func (h *RoomHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		// channel format: chat:hack:<id> or announce:hack:<id>
		var hackathonID uint
		var eventType string

		if _, err := fmt.Sscanf(channel, "chat:hack:%d", &hackathonID); err == nil {
			eventType = "message"
		} else if _, err := fmt.Sscanf(channel, "announce:hack:%d", &hackathonID); err == nil {
			eventType = "announcement"
		} else {
			log.Printf("RoomHub: Invalid channel format: %s", channel)
			return
		}

		var event RoomEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Printf("RoomHub: Failed to parse event from channel %s: %v", channel, err)
			return
		}

		if event.Type == "" {
			event.Type = eventType
		}
		event.HackathonID = hackathonID

		h.BroadcastToRoom(hackathonID, event)
	})
}

// Shutdown gracefully closes all websocket connections
func (h *RoomHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown","message":"Server is shutting down"}`)); err != nil {
				log.Printf("failed to write shutdown message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}

	h.rooms = make(map[uint]map[uint]struct{})
	h.userActiveRooms = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)
	h.totalConns = 0

	return nil
}
