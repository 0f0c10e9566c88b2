// Package rpc provides WebSocket-based RPC functionality.
package rpc

import (
	"context"
	"encoding/json"
	"time"

	"castlane.dev/signcast/backend/internal/db/redis/managers"
	"castlane.dev/signcast/backend/internal/utils"
)

// relayChannel is the Redis channel room broadcasts are relayed on.
const relayChannel = "room_relay"

// relayEnvelope wraps a room broadcast for cross-node delivery.
type relayEnvelope struct {
	NodeID  string          `json:"nodeId"`
	Room    string          `json:"room"`
	Message json.RawMessage `json:"message"`
}

// Relay fans room broadcasts out to other nodes through Redis pub/sub so
// clients connected to different nodes receive the same notifications.
// Messages originating from this node are skipped on receipt.
type Relay struct {
	nodeID   string
	pubSub   *managers.PubSubManager
	registry *RoomRegistry
	logger   *utils.Logger
}

// NewRelay creates a relay for the given registry.
func NewRelay(pubSub *managers.PubSubManager, registry *RoomRegistry, logger *utils.Logger) (*Relay, error) {
	nodeID, err := utils.GenerateID("node")
	if err != nil {
		return nil, err
	}

	return &Relay{
		nodeID:   nodeID,
		pubSub:   pubSub,
		registry: registry,
		logger:   logger.Named("room_relay"),
	}, nil
}

// Start subscribes to the relay channel and begins delivering remote
// broadcasts to local room members.
func (r *Relay) Start() error {
	channel := managers.FormatGlobalChannel(relayChannel)
	r.pubSub.AddHandler(channel, r.handleMessage)

	if err := r.pubSub.Subscribe(channel); err != nil {
		return err
	}

	r.logger.Info("Room relay started", "nodeID", r.nodeID)
	return nil
}

// Publish sends a room broadcast to the relay channel for other nodes.
func (r *Relay) Publish(room string, message []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	envelope := relayEnvelope{
		NodeID:  r.nodeID,
		Room:    room,
		Message: message,
	}

	channel := managers.FormatGlobalChannel(relayChannel)
	if err := r.pubSub.Publish(ctx, channel, envelope); err != nil {
		r.logger.Warn("Failed to relay room broadcast", "room", room, "error", err)
	}
}

// handleMessage delivers a remote broadcast to local room members.
func (r *Relay) handleMessage(channel string, payload []byte) {
	var envelope relayEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		r.logger.Warn("Failed to decode relayed broadcast", "error", err)
		return
	}

	if envelope.NodeID == r.nodeID {
		return
	}

	r.registry.BroadcastToRoom(envelope.Room, envelope.Message)
}

// Close unsubscribes from the relay channel.
func (r *Relay) Close() error {
	channel := managers.FormatGlobalChannel(relayChannel)
	r.pubSub.RemoveAllHandlers(channel)
	return r.pubSub.Unsubscribe(channel)
}
