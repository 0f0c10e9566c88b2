package rpc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"castlane.dev/signcast/backend/internal/utils"
)

// newRegistryFixture builds a registry whose internal handlers the tests
// call directly, keeping every assertion synchronous.
func newRegistryFixture() *RoomRegistry {
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	return NewRoomRegistry(logger)
}

func newRegistryClient(id, userID string) *Client {
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	return NewClient(id, userID, "user-"+id, "member", nil, nil, logger)
}

// received drains one pending message from the client, or returns nil.
func received(c *Client) []byte {
	select {
	case msg := <-c.send:
		return msg
	default:
		return nil
	}
}

func TestRoomLifecycle(t *testing.T) {
	registry := newRegistryFixture()
	c1 := newRegistryClient("c1", "u1")
	c2 := newRegistryClient("c2", "u2")
	registry.registerClient(c1)
	registry.registerClient(c2)

	room := PlaylistRoomPrefix + "p1"
	assert.Equal(t, 0, registry.GetRoomCount())

	registry.addClientToRoom(c1, room)
	assert.Equal(t, 1, registry.GetRoomCount())
	registry.addClientToRoom(c2, room)
	assert.Equal(t, 1, registry.GetRoomCount())
	assert.Len(t, registry.GetClientsInRoom(room), 2)

	registry.removeClientFromRoom(c1, room)
	assert.Equal(t, 1, registry.GetRoomCount(), "room survives while members remain")
	assert.False(t, c1.IsInRoom(room))

	registry.removeClientFromRoom(c2, room)
	assert.Equal(t, 0, registry.GetRoomCount(), "empty room is removed")
}

func TestRoomBroadcastExcludesOriginator(t *testing.T) {
	registry := newRegistryFixture()
	originator := newRegistryClient("c1", "u1")
	member := newRegistryClient("c2", "u2")
	outsider := newRegistryClient("c3", "u3")
	for _, c := range []*Client{originator, member, outsider} {
		registry.registerClient(c)
	}

	room := PlaylistRoomPrefix + "p1"
	registry.addClientToRoom(originator, room)
	registry.addClientToRoom(member, room)

	payload := []byte(`{"method":"playlist.itemAdded"}`)
	registry.broadcastToRoom(room, payload, originator)

	assert.Equal(t, payload, received(member))
	assert.Nil(t, received(originator), "originator must not receive an echo")
	assert.Nil(t, received(outsider), "non-members receive nothing")
}

func TestRoomBroadcastWithoutExclusion(t *testing.T) {
	registry := newRegistryFixture()
	c1 := newRegistryClient("c1", "u1")
	c2 := newRegistryClient("c2", "u2")
	registry.registerClient(c1)
	registry.registerClient(c2)

	room := ScreenRoomPrefix + "s1"
	registry.addClientToRoom(c1, room)
	registry.addClientToRoom(c2, room)

	payload := []byte(`{"method":"screen.status"}`)
	registry.broadcastToRoom(room, payload, nil)

	assert.Equal(t, payload, received(c1))
	assert.Equal(t, payload, received(c2))
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	registry := newRegistryFixture()
	c1 := newRegistryClient("c1", "u1")
	c2 := newRegistryClient("c2", "u1")
	registry.registerClient(c1)
	registry.registerClient(c2)

	shared := PlaylistRoomPrefix + "p1"
	solo := PlaylistRoomPrefix + "p2"
	registry.addClientToRoom(c1, shared)
	registry.addClientToRoom(c2, shared)
	registry.addClientToRoom(c1, solo)

	registry.unregisterClient(c1)

	assert.Equal(t, 1, registry.GetClientCount())
	assert.Equal(t, 1, registry.GetRoomCount(), "solo room is gone, shared room remains")
	assert.Len(t, registry.GetClientsInRoom(shared), 1)
	assert.Empty(t, registry.GetClientsInRoom(solo))
}

func TestUserBroadcastReachesAllConnections(t *testing.T) {
	registry := newRegistryFixture()
	first := newRegistryClient("c1", "u1")
	second := newRegistryClient("c2", "u1")
	other := newRegistryClient("c3", "u2")
	for _, c := range []*Client{first, second, other} {
		registry.registerClient(c)
	}
	assert.Equal(t, 2, registry.GetUserCount())

	payload := []byte(`{"method":"user.updated"}`)
	registry.broadcastToUser("u1", payload)

	assert.Equal(t, payload, received(first))
	assert.Equal(t, payload, received(second))
	assert.Nil(t, received(other))
}

func TestSlowClientIsDisconnectedOnBroadcast(t *testing.T) {
	registry := newRegistryFixture()
	slow := newRegistryClient("c1", "u1")
	healthy := newRegistryClient("c2", "u2")
	registry.registerClient(slow)
	registry.registerClient(healthy)

	room := PlaylistRoomPrefix + "p1"
	registry.addClientToRoom(slow, room)
	registry.addClientToRoom(healthy, room)

	// Fill the slow client's send buffer so the next send fails.
	for i := 0; cap(slow.send) > len(slow.send); i++ {
		slow.send <- []byte(fmt.Sprintf("backlog %d", i))
	}

	payload := []byte(`{"method":"playlist.updated"}`)
	registry.broadcastToRoom(room, payload, nil)

	require.Equal(t, 1, registry.GetClientCount(), "slow client is dropped")
	assert.Len(t, registry.GetClientsInRoom(room), 1)
	assert.Equal(t, payload, received(healthy))
}
