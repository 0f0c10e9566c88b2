// Package managers provides Redis-backed state managers.
package managers

import (
	"context"
	"time"

	r "github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/db/redis"
)

const (
	// PresenceKeyPrefix is the prefix for presence keys
	PresenceKeyPrefix = "presence"

	// OnlineUsersKey is the key for the set of online users
	OnlineUsersKey = "online:users"

	// OnlineScreensKey is the key for the set of online screens
	OnlineScreensKey = "online:screens"

	// UserPresenceTTL is the expiration time for user presence keys
	UserPresenceTTL = 2 * time.Minute

	// ScreenPresenceTTL is the expiration time for screen presence keys.
	// Displays heartbeat more slowly than interactive clients.
	ScreenPresenceTTL = 5 * time.Minute
)

// UserPresence represents an editor's presence information.
type UserPresence struct {
	// UserID is the ID of the user
	UserID string `json:"userId"`

	// Username is the username of the user
	Username string `json:"username"`

	// Rooms are the rooms the user has joined on this node
	Rooms []string `json:"rooms,omitempty"`

	// LastSeen is the last time the presence was updated
	LastSeen time.Time `json:"lastSeen"`
}

// ScreenPresence represents a display client's liveness information.
type ScreenPresence struct {
	// ScreenID is the ID of the screen
	ScreenID string `json:"screenId"`

	// Status is the screen's reported status
	Status string `json:"status"`

	// CurrentPlaylist is the playlist the screen is showing, if any
	CurrentPlaylist string `json:"currentPlaylist,omitempty"`

	// CurrentItem is the item currently on screen, if any
	CurrentItem string `json:"currentItem,omitempty"`

	// LastHeartbeat is the time of the last heartbeat
	LastHeartbeat time.Time `json:"lastHeartbeat"`
}

// PresenceManager handles Redis operations for user and screen presence.
type PresenceManager struct {
	client *redis.Client
}

// NewPresenceManager creates a new presence manager
func NewPresenceManager(client *redis.Client) *PresenceManager {
	return &PresenceManager{
		client: client,
	}
}

// UpdateUserPresence refreshes a user's presence entry and TTL.
func (m *PresenceManager) UpdateUserPresence(ctx context.Context, userID bson.ObjectID, username string, rooms []string) error {
	logger := m.client.Logger()
	userIDStr := userID.Hex()

	presence := UserPresence{
		UserID:   userIDStr,
		Username: username,
		Rooms:    rooms,
		LastSeen: time.Now(),
	}

	if err := m.client.SetObject(ctx, userPresenceKey(userIDStr), &presence, UserPresenceTTL); err != nil {
		logger.Error("Failed to store user presence", err, "userId", userIDStr)
		return err
	}
	if err := m.client.SAdd(ctx, OnlineUsersKey, userIDStr); err != nil {
		logger.Error("Failed to add user to online set", err, "userId", userIDStr)
		return err
	}

	logger.Debug("Updated user presence", "userId", userIDStr)
	return nil
}

// GetUserPresence gets a user's presence, or nil when offline.
func (m *PresenceManager) GetUserPresence(ctx context.Context, userID bson.ObjectID) (*UserPresence, error) {
	var presence UserPresence
	err := m.client.GetObject(ctx, userPresenceKey(userID.Hex()), &presence)
	if err != nil {
		if err == r.Nil {
			return nil, nil
		}
		m.client.Logger().Error("Failed to get user presence", err, "userId", userID.Hex())
		return nil, err
	}
	return &presence, nil
}

// RemoveUserPresence removes a user's presence information.
func (m *PresenceManager) RemoveUserPresence(ctx context.Context, userID bson.ObjectID) error {
	logger := m.client.Logger()
	userIDStr := userID.Hex()

	if err := m.client.Del(ctx, userPresenceKey(userIDStr)); err != nil {
		logger.Error("Failed to remove user presence", err, "userId", userIDStr)
		return err
	}
	if err := m.client.SRem(ctx, OnlineUsersKey, userIDStr); err != nil {
		logger.Error("Failed to remove user from online set", err, "userId", userIDStr)
		return err
	}

	logger.Debug("Removed user presence", "userId", userIDStr)
	return nil
}

// IsUserOnline checks if a user is currently online.
func (m *PresenceManager) IsUserOnline(ctx context.Context, userID bson.ObjectID) (bool, error) {
	presence, err := m.GetUserPresence(ctx, userID)
	if err != nil {
		return false, err
	}
	return presence != nil, nil
}

// GetOnlineUsersCount gets the count of online users.
func (m *PresenceManager) GetOnlineUsersCount(ctx context.Context) (int64, error) {
	count, err := m.client.SCard(ctx, OnlineUsersKey)
	if err != nil {
		m.client.Logger().Error("Failed to get online users count", err)
		return 0, err
	}
	return count, nil
}

// RecordScreenHeartbeat refreshes a screen's presence entry and TTL. The
// entry expiring means the screen went silent.
func (m *PresenceManager) RecordScreenHeartbeat(ctx context.Context, screenID bson.ObjectID, presence ScreenPresence) error {
	logger := m.client.Logger()
	screenIDStr := screenID.Hex()

	presence.ScreenID = screenIDStr
	if presence.LastHeartbeat.IsZero() {
		presence.LastHeartbeat = time.Now()
	}

	if err := m.client.SetObject(ctx, screenPresenceKey(screenIDStr), &presence, ScreenPresenceTTL); err != nil {
		logger.Error("Failed to store screen presence", err, "screenId", screenIDStr)
		return err
	}
	if err := m.client.SAdd(ctx, OnlineScreensKey, screenIDStr); err != nil {
		logger.Error("Failed to add screen to online set", err, "screenId", screenIDStr)
		return err
	}

	logger.Debug("Recorded screen heartbeat", "screenId", screenIDStr)
	return nil
}

// GetScreenPresence gets a screen's presence, or nil when it has gone
// silent past its TTL.
func (m *PresenceManager) GetScreenPresence(ctx context.Context, screenID bson.ObjectID) (*ScreenPresence, error) {
	var presence ScreenPresence
	err := m.client.GetObject(ctx, screenPresenceKey(screenID.Hex()), &presence)
	if err != nil {
		if err == r.Nil {
			return nil, nil
		}
		m.client.Logger().Error("Failed to get screen presence", err, "screenId", screenID.Hex())
		return nil, err
	}
	return &presence, nil
}

// RemoveScreenPresence removes a screen's presence information.
func (m *PresenceManager) RemoveScreenPresence(ctx context.Context, screenID bson.ObjectID) error {
	logger := m.client.Logger()
	screenIDStr := screenID.Hex()

	if err := m.client.Del(ctx, screenPresenceKey(screenIDStr)); err != nil {
		logger.Error("Failed to remove screen presence", err, "screenId", screenIDStr)
		return err
	}
	if err := m.client.SRem(ctx, OnlineScreensKey, screenIDStr); err != nil {
		logger.Error("Failed to remove screen from online set", err, "screenId", screenIDStr)
		return err
	}

	logger.Debug("Removed screen presence", "screenId", screenIDStr)
	return nil
}

// CleanupExpiredScreens removes screens from the online set whose presence
// entries have expired, returning the IDs that were removed.
func (m *PresenceManager) CleanupExpiredScreens(ctx context.Context) ([]string, error) {
	logger := m.client.Logger()

	screenIDs, err := m.client.SMembers(ctx, OnlineScreensKey)
	if err != nil {
		logger.Error("Failed to get online screens", err)
		return nil, err
	}

	var expired []string
	for _, screenID := range screenIDs {
		var presence ScreenPresence
		err := m.client.GetObject(ctx, screenPresenceKey(screenID), &presence)
		if err == r.Nil {
			if err := m.client.SRem(ctx, OnlineScreensKey, screenID); err != nil {
				logger.Error("Failed to remove expired screen", err, "screenId", screenID)
				continue
			}
			expired = append(expired, screenID)
		} else if err != nil {
			logger.Error("Failed to get screen presence during cleanup", err, "screenId", screenID)
		}
	}

	if len(expired) > 0 {
		logger.Info("Cleaned up expired screen presence", "count", len(expired))
	}
	return expired, nil
}

func userPresenceKey(userID string) string {
	return redis.FormatKey(PresenceKeyPrefix, "user", userID)
}

func screenPresenceKey(screenID string) string {
	return redis.FormatKey(PresenceKeyPrefix, "screen", screenID)
}
