// Package rpc provides WebSocket-based RPC functionality.
package rpc

import (
	"sync"

	"castlane.dev/signcast/backend/internal/utils"
)

// Room name prefixes. Rooms are created on first join and removed when the
// last member leaves.
const (
	PlaylistRoomPrefix = "playlist:"
	UserRoomPrefix     = "user:"
	RoleRoomPrefix     = "role:"
	ScreenRoomPrefix   = "screen:"
)

// RoomRegistry maintains the set of active clients and their room
// memberships, and relays committed-state notifications to room members.
// It never validates or stores payloads; delivery is at-most-once and a
// slow client's failed send disconnects that client only.
type RoomRegistry struct {
	// clients is a map of all connected clients.
	clients map[*Client]bool

	// rooms is a map of room names to a map of clients in that room.
	rooms map[string]map[*Client]bool

	// userClients is a map of user IDs to a map of their clients.
	userClients map[string]map[*Client]bool

	// broadcast is a channel of messages to broadcast to all clients.
	broadcast chan []byte

	// roomBroadcast is a channel of messages to broadcast to a room.
	roomBroadcast chan *roomMessage

	// userBroadcast is a channel of messages to broadcast to a user.
	userBroadcast chan *userMessage

	// register is a channel for registering clients.
	register chan *Client

	// unregister is a channel for unregistering clients.
	unregister chan *Client

	// join is a channel for adding clients to rooms.
	join chan *roomOperation

	// leave is a channel for removing clients from rooms.
	leave chan *roomOperation

	// mutex is used to synchronize access to the maps.
	mutex sync.RWMutex

	// logger is the registry's logger.
	logger *utils.Logger
}

// roomMessage represents a message to be broadcast to a room. A non-nil
// exclude skips that client, so an editor never receives an echo of its
// own mutation.
type roomMessage struct {
	room    string
	message []byte
	exclude *Client
}

// userMessage represents a message to be broadcast to a user.
type userMessage struct {
	userID  string
	message []byte
}

// roomOperation represents an operation to add or remove a client from a room.
type roomOperation struct {
	client *Client
	room   string
}

// NewRoomRegistry creates a new room registry.
func NewRoomRegistry(logger *utils.Logger) *RoomRegistry {
	return &RoomRegistry{
		clients:       make(map[*Client]bool),
		rooms:         make(map[string]map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		broadcast:     make(chan []byte),
		roomBroadcast: make(chan *roomMessage),
		userBroadcast: make(chan *userMessage),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		join:          make(chan *roomOperation),
		leave:         make(chan *roomOperation),
		logger:        logger.Named("room_registry"),
	}
}

// Run starts the registry's event loop.
func (h *RoomRegistry) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm.room, rm.message, rm.exclude)

		case um := <-h.userBroadcast:
			h.broadcastToUser(um.userID, um.message)

		case op := <-h.join:
			h.addClientToRoom(op.client, op.room)

		case op := <-h.leave:
			h.removeClientFromRoom(op.client, op.room)
		}
	}
}

// registerClient registers a client with the registry.
func (h *RoomRegistry) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true

	if client.UserID != "" {
		if _, ok := h.userClients[client.UserID]; !ok {
			h.userClients[client.UserID] = make(map[*Client]bool)
		}
		h.userClients[client.UserID][client] = true
	}

	h.logger.Debug("Client registered", "id", client.ID, "userID", client.UserID)
}

// unregisterClient unregisters a client from the registry.
func (h *RoomRegistry) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.unregisterClientLocked(client)
}

func (h *RoomRegistry) unregisterClientLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if client.UserID != "" {
		if clients, ok := h.userClients[client.UserID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.userClients, client.UserID)
			}
		}
	}

	// Remove client from all rooms
	for room := range client.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	h.logger.Debug("Client unregistered", "id", client.ID, "userID", client.UserID)
}

// broadcastMessage broadcasts a message to all clients.
func (h *RoomRegistry) broadcastMessage(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if !client.safelySendMessage(message) {
			h.unregisterClientLocked(client)
		}
	}
}

// broadcastToRoom broadcasts a message to all clients in a room, skipping
// the excluded client.
func (h *RoomRegistry) broadcastToRoom(room string, message []byte, exclude *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if clients, ok := h.rooms[room]; ok {
		for client := range clients {
			if client == exclude {
				continue
			}
			if !client.safelySendMessage(message) {
				h.unregisterClientLocked(client)
			}
		}
	}
}

// broadcastToUser broadcasts a message to all clients of a user.
func (h *RoomRegistry) broadcastToUser(userID string, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if clients, ok := h.userClients[userID]; ok {
		for client := range clients {
			if !client.safelySendMessage(message) {
				h.unregisterClientLocked(client)
			}
		}
	}
}

// addClientToRoom adds a client to a room, creating the room on first join.
func (h *RoomRegistry) addClientToRoom(client *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}

	h.rooms[room][client] = true
	client.rooms[room] = true

	h.logger.Debug("Client added to room", "id", client.ID, "userID", client.UserID, "room", room)
}

// removeClientFromRoom removes a client from a room, removing the room when
// its member set empties.
func (h *RoomRegistry) removeClientFromRoom(client *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}

	delete(client.rooms, room)

	h.logger.Debug("Client removed from room", "id", client.ID, "userID", client.UserID, "room", room)
}

// Broadcast sends a message to all connected clients.
func (h *RoomRegistry) Broadcast(message []byte) {
	h.broadcast <- message
}

// BroadcastToRoom sends a message to all clients in a room.
func (h *RoomRegistry) BroadcastToRoom(room string, message []byte) {
	h.roomBroadcast <- &roomMessage{room: room, message: message}
}

// BroadcastToRoomExcept sends a message to all clients in a room except the
// originating client.
func (h *RoomRegistry) BroadcastToRoomExcept(room string, exclude *Client, message []byte) {
	h.roomBroadcast <- &roomMessage{room: room, message: message, exclude: exclude}
}

// BroadcastToUser sends a message to all clients of a user.
func (h *RoomRegistry) BroadcastToUser(userID string, message []byte) {
	h.userBroadcast <- &userMessage{userID: userID, message: message}
}

// AddClientToRoom adds a client to a room.
func (h *RoomRegistry) AddClientToRoom(client *Client, room string) {
	h.join <- &roomOperation{client: client, room: room}
}

// RemoveClientFromRoom removes a client from a room.
func (h *RoomRegistry) RemoveClientFromRoom(client *Client, room string) {
	h.leave <- &roomOperation{client: client, room: room}
}

// GetClientsInRoom gets all clients in a room.
func (h *RoomRegistry) GetClientsInRoom(room string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0)
	if roomClients, ok := h.rooms[room]; ok {
		for client := range roomClients {
			clients = append(clients, client)
		}
	}
	return clients
}

// GetClientCount gets the number of connected clients.
func (h *RoomRegistry) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GetRoomCount gets the number of active rooms.
func (h *RoomRegistry) GetRoomCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms)
}

// GetUserCount gets the number of connected users.
func (h *RoomRegistry) GetUserCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.userClients)
}
