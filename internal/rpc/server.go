// Package rpc provides WebSocket-based RPC functionality.
package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/auth"
	"castlane.dev/signcast/backend/internal/db/redis/managers"
	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/utils"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB

	// Maximum inbound messages a single connection may send per window.
	messageRateWindow = time.Minute
	messageRateLimit  = 240
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// ConnectionMetrics records WebSocket connection and message metrics.
type ConnectionMetrics interface {
	ObserveWSConnection(duration time.Duration)
	IncWSConnectionsActive()
	DecWSConnectionsActive()
	ObserveWSMessage(direction, method string)
	SetRoomsActive(count int)
}

// Server handles WebSocket connections and RPC requests.
type Server struct {
	registry     *RoomRegistry
	router       *Router
	authProvider auth.Provider
	sessionMgr   *managers.SessionManager
	presenceMgr  *managers.PresenceManager
	relay        *Relay
	msgLimiter   *utils.RateLimiter
	metrics      ConnectionMetrics
	logger       *utils.Logger
	clients      map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	mutex        sync.Mutex
}

// NewServer creates a new WebSocket server.
func NewServer(
	router *Router,
	authProvider auth.Provider,
	sessionMgr *managers.SessionManager,
	presenceMgr *managers.PresenceManager,
	logger *utils.Logger,
) *Server {
	registry := NewRoomRegistry(logger)
	go registry.Run()

	server := &Server{
		registry:     registry,
		router:       router,
		authProvider: authProvider,
		sessionMgr:   sessionMgr,
		presenceMgr:  presenceMgr,
		msgLimiter:   utils.NewRateLimiter(messageRateWindow, messageRateLimit),
		logger:       logger.Named("rpc_server"),
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
	}

	go server.run()
	go server.msgLimiter.CleanupLoop(context.Background(), 5*time.Minute)

	logger.Debug("RPC server started")

	return server
}

// EnableRelay attaches a cross-node relay so room broadcasts reach clients
// connected to other nodes.
func (s *Server) EnableRelay(pubSub *managers.PubSubManager) error {
	relay, err := NewRelay(pubSub, s.registry, s.logger)
	if err != nil {
		return err
	}

	if err := relay.Start(); err != nil {
		return err
	}

	s.relay = relay
	return nil
}

// SetMetrics attaches a metrics recorder for connection and message counts.
func (s *Server) SetMetrics(metrics ConnectionMetrics) {
	s.metrics = metrics
}

// observeWSMessage records an inbound or outbound message when metrics are
// enabled.
func (s *Server) observeWSMessage(direction, method string) {
	if s.metrics != nil {
		s.metrics.ObserveWSMessage(direction, method)
	}
}

// allowInbound reports whether a connection is within its message budget.
func (s *Server) allowInbound(clientID string) bool {
	return s.msgLimiter.Allow(clientID)
}

// run processes client registration and unregistration.
func (s *Server) run() {
	for {
		select {
		case client := <-s.register:
			s.mutex.Lock()
			s.clients[client] = true
			s.mutex.Unlock()
			s.registry.register <- client
			if s.metrics != nil {
				s.metrics.IncWSConnectionsActive()
			}
			s.logger.Debug("Client registered", "id", client.ID, "userID", client.UserID)

		case client := <-s.unregister:
			s.mutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.markAsClosed()
				close(client.send)
				if s.metrics != nil {
					s.metrics.DecWSConnectionsActive()
					s.metrics.ObserveWSConnection(time.Since(client.connectedAt))
				}
				s.logger.Debug("Client unregistered", "id", client.ID, "userID", client.UserID)
			}
			s.mutex.Unlock()
			s.msgLimiter.Forget(client.ID)
			s.registry.unregister <- client
			if s.metrics != nil {
				s.metrics.SetRoomsActive(s.registry.GetRoomCount())
			}
		}
	}
}

// HandleWebSocket upgrades an HTTP connection to WebSocket and handles the connection.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade connection to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", err)
		return
	}

	// Get token from query parameters
	token := r.URL.Query().Get("token")
	if token == "" {
		s.logger.Warn("No token provided")

		err := conn.WriteMessage(websocket.TextMessage, []byte(`{"error": "No token provided"}`))
		if err != nil {
			s.logger.Error("Failed to send error message", err)
		}

		conn.Close()
		return
	}

	// Validate token
	claims, err := s.authProvider.ValidateToken(token)
	if err != nil {
		s.logger.Warn("Invalid token", "error", err)

		err := conn.WriteMessage(websocket.TextMessage, []byte(`{"error": "Invalid token"}`))
		if err != nil {
			s.logger.Error("Failed to send error message", err)
		}

		conn.Close()
		return
	}

	// Verify session
	session, err := s.sessionMgr.GetSession(r.Context(), token)
	if err != nil || session == nil {
		s.logger.Warn("Invalid session", "error", err)

		err := conn.WriteMessage(websocket.TextMessage, []byte(`{"error": "Invalid session"}`))
		if err != nil {
			s.logger.Error("Failed to send error message", err)
		}

		conn.Close()
		return
	}

	// Create client
	clientID, err := utils.GenerateID("client")
	if err != nil {
		s.logger.Error("Failed to generate client ID", err)

		err := conn.WriteMessage(websocket.TextMessage, []byte(`{"error": "Failed to generate client ID"}`))
		if err != nil {
			s.logger.Error("Failed to send error message", err)
		}

		conn.Close()
		return
	}

	client := NewClient(clientID, claims.UserID, claims.Username, models.PrimaryRoleOf(claims.Roles), s, conn, s.logger.Named("client"))

	// Register client
	s.register <- client

	// Every connection joins its user room and role room so targeted
	// notifications reach all of the user's devices.
	s.registry.AddClientToRoom(client, UserRoomPrefix+client.UserID)
	s.registry.AddClientToRoom(client, RoleRoomPrefix+client.Role)

	if userID, err := bson.ObjectIDFromHex(client.UserID); err == nil {
		if err := s.presenceMgr.UpdateUserPresence(r.Context(), userID, client.Username, client.GetRooms()); err != nil {
			s.logger.Warn("Failed to update user presence", "userID", client.UserID, "error", err)
		}
	}

	// Start client goroutines
	go client.readPump()
	go client.writePump()

	s.logger.Info("WebSocket connection established", "clientID", client.ID, "userID", client.UserID)
}

// cleanupClientState removes a disconnecting client from its rooms and
// clears presence when this was the user's last connection.
func (s *Server) cleanupClientState(client *Client) {
	for _, room := range client.GetRooms() {
		if strings.HasPrefix(room, PlaylistRoomPrefix) {
			client.SendRoomNotification(room, "presence:left", map[string]any{
				"userId":   client.UserID,
				"username": client.Username,
				"room":     room,
			})
		}
	}

	s.mutex.Lock()
	remaining := 0
	for other := range s.clients {
		if other != client && other.UserID == client.UserID {
			remaining++
		}
	}
	s.mutex.Unlock()

	if remaining == 0 {
		if userID, err := bson.ObjectIDFromHex(client.UserID); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.presenceMgr.RemoveUserPresence(ctx, userID); err != nil {
				s.logger.Warn("Failed to remove user presence", "userID", client.UserID, "error", err)
			}
		}
	}
}

// Broadcast sends a message to all connected clients.
func (s *Server) Broadcast(message []byte) {
	s.registry.Broadcast(message)
}

// NotifyRoom broadcasts a JSON-RPC notification to every client in a room.
func (s *Server) NotifyRoom(roomID, method string, params any) {
	notification := &Notification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(notification)
	if err != nil {
		s.logger.Error("Failed to marshal room notification", err, "method", method)
		return
	}

	s.observeWSMessage("out", method)
	s.BroadcastToRoom(roomID, data)
}

// BroadcastToRoom sends a message to all clients in a room.
func (s *Server) BroadcastToRoom(roomID string, message []byte) {
	s.registry.BroadcastToRoom(roomID, message)
	if s.relay != nil {
		s.relay.Publish(roomID, message)
	}
}

// BroadcastToRoomExcept sends a message to all clients in a room except the
// originating client. The exclusion only applies locally since the excluded
// client is connected to this node.
func (s *Server) BroadcastToRoomExcept(roomID string, exclude *Client, message []byte) {
	s.registry.BroadcastToRoomExcept(roomID, exclude, message)
	if s.relay != nil {
		s.relay.Publish(roomID, message)
	}
}

// BroadcastToUser sends a message to a specific user.
func (s *Server) BroadcastToUser(userID string, message []byte) {
	s.registry.BroadcastToUser(userID, message)
}

// AddClientToRoom adds a client to a room.
func (s *Server) AddClientToRoom(client *Client, roomID string) {
	s.registry.AddClientToRoom(client, roomID)
}

// RemoveClientFromRoom removes a client from a room.
func (s *Server) RemoveClientFromRoom(client *Client, roomID string) {
	s.registry.RemoveClientFromRoom(client, roomID)
}

// GetClientsInRoom gets all clients in a room.
func (s *Server) GetClientsInRoom(roomID string) []*Client {
	return s.registry.GetClientsInRoom(roomID)
}

// GetClientCount gets the number of connected clients.
func (s *Server) GetClientCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.clients)
}

// GetRoomCount gets the number of active rooms.
func (s *Server) GetRoomCount() int {
	return s.registry.GetRoomCount()
}

// GetUserCount gets the number of connected users.
func (s *Server) GetUserCount() int {
	return s.registry.GetUserCount()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down RPC server")

	if s.relay != nil {
		if err := s.relay.Close(); err != nil {
			s.logger.Warn("Failed to close room relay", "error", err)
		}
	}

	// Close all client connections
	s.mutex.Lock()
	for client := range s.clients {
		client.conn.Close()
		delete(s.clients, client)
	}
	s.mutex.Unlock()

	return nil
}
