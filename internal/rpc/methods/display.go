// Package methods contains RPC method handlers for the application.
package methods

import (
	"context"
	"time"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/services/screen"
	"castlane.dev/signcast/backend/internal/utils"
)

// recordPlaybackTimeout bounds the detached analytics write behind
// reportPlayback.
const recordPlaybackTimeout = 10 * time.Second

// DisplayHandler handles display-client RPC methods.
type DisplayHandler struct {
	screenRegistry  *screen.Registry
	playlistManager *playlist.Manager
	logger          *utils.Logger
}

// NewDisplayHandler creates a new DisplayHandler.
func NewDisplayHandler(screenRegistry *screen.Registry, playlistManager *playlist.Manager, logger *utils.Logger) *DisplayHandler {
	return &DisplayHandler{
		screenRegistry:  screenRegistry,
		playlistManager: playlistManager,
		logger:          logger,
	}
}

// RegisterMethods registers display-related RPC methods with the router.
func (h *DisplayHandler) RegisterMethods(hr rpc.HandlerRegistry) {
	auth := hr.Wrap(rpc.AuthMiddleware)
	rpc.Register(auth, rpc.MethodDisplayRegister, h.Register)
	rpc.Register(auth, rpc.MethodDisplayHeartbeat, h.Heartbeat)
	rpc.Register(auth, rpc.MethodDisplayReportPlayback, h.ReportPlayback)
}

// joinScreenRoom places a display connection into its screen's room and
// announces the status to the other members.
func joinScreenRoom(client *rpc.Client, screenID, status string) {
	client.JoinRoom(rpc.ScreenRoomPrefix+screenID, rpc.EventScreenStatus, map[string]any{
		"screenId": screenID,
		"status":   status,
	})
}

// RegisterScreenParams represents the parameters for the register method.
type RegisterScreenParams struct {
	Name        string            `json:"name" validate:"required,min=1,max=100"`
	Location    string            `json:"location" validate:"max=200"`
	Resolution  string            `json:"resolution" validate:"required,resolution"`
	Orientation string            `json:"orientation" validate:"omitempty,oneof=landscape portrait"`
	Tags        []string          `json:"tags" validate:"dive,max=30"`
	DeviceInfo  map[string]string `json:"deviceInfo,omitempty"`
}

// RegisterScreenResult represents the result of the register method.
type RegisterScreenResult struct {
	Screen models.ScreenInfo `json:"screen"`
}

// Register handles registering a new display screen.
func (h *DisplayHandler) Register(ctx context.Context, client *rpc.Client, p *RegisterScreenParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	actorID, rpcErr := parseID("user ID", client.UserID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	registered, err := h.screenRegistry.Register(ctx, actorID, models.ScreenRegisterRequest{
		Name:        p.Name,
		Location:    p.Location,
		Resolution:  p.Resolution,
		Orientation: p.Orientation,
		Tags:        p.Tags,
		DeviceInfo:  p.DeviceInfo,
	})
	if err != nil {
		h.logger.Error("Failed to register screen", err, "name", p.Name)
		return nil, domainError(err)
	}

	// The connection becomes the screen's presence in its own room, so
	// assignment and status notifications reach the device.
	joinScreenRoom(client, registered.ID.Hex(), registered.Status)

	client.NotifyRoom(rpc.RoleRoomPrefix+models.RoleAdmin, rpc.EventScreenRegistered, map[string]any{
		"screenId":     registered.ID.Hex(),
		"name":         registered.Name,
		"registeredBy": client.UserID,
	})

	return RegisterScreenResult{Screen: registered.ToScreenInfo()}, nil
}

// HeartbeatParams represents the parameters for the heartbeat method.
type HeartbeatParams struct {
	ScreenID        string `json:"screenId" validate:"required"`
	CurrentPlaylist string `json:"currentPlaylist,omitempty"`
	CurrentItem     string `json:"currentItem,omitempty"`
	Status          string `json:"status,omitempty" validate:"omitempty,oneof=online error"`
}

// HeartbeatResult represents the result of the heartbeat method.
type HeartbeatResult struct {
	Screen          models.ScreenInfo     `json:"screen"`
	ActivePlaylists []models.PlaylistInfo `json:"activePlaylists"`
}

// Heartbeat records a screen's liveness and returns the playlists currently
// eligible to play on it.
func (h *DisplayHandler) Heartbeat(ctx context.Context, client *rpc.Client, p *HeartbeatParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	screenID, rpcErr := parseID("screen ID", p.ScreenID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	hb := models.ScreenHeartbeat{ScreenID: screenID, Status: p.Status}
	if p.CurrentPlaylist != "" {
		id, rpcErr := parseID("playlist ID", p.CurrentPlaylist)
		if rpcErr != nil {
			return nil, rpcErr
		}
		hb.CurrentPlaylist = id
	}
	if p.CurrentItem != "" {
		id, rpcErr := parseID("item ID", p.CurrentItem)
		if rpcErr != nil {
			return nil, rpcErr
		}
		hb.CurrentItem = id
	}

	refreshed, err := h.screenRegistry.Heartbeat(ctx, hb)
	if err != nil {
		h.logger.Error("Failed to record heartbeat", err, "screenId", p.ScreenID)
		return nil, domainError(err)
	}

	// A reconnected display starts in no rooms; rejoin before notifying so
	// the device keeps receiving its room's events.
	if !client.IsInRoom(rpc.ScreenRoomPrefix + p.ScreenID) {
		joinScreenRoom(client, p.ScreenID, refreshed.Status)
	} else {
		client.NotifyRoom(rpc.ScreenRoomPrefix+p.ScreenID, rpc.EventScreenStatus, map[string]any{
			"screenId": p.ScreenID,
			"status":   refreshed.Status,
		})
	}

	active, err := h.playlistManager.ActivePlaylistsForScreen(ctx, screenID, time.Now())
	if err != nil {
		h.logger.Error("Failed to resolve active playlists", err, "screenId", p.ScreenID)
		return nil, domainError(err)
	}

	infos := make([]models.PlaylistInfo, 0, len(active))
	for _, pl := range active {
		infos = append(infos, pl.ToPlaylistInfo())
	}

	return HeartbeatResult{Screen: refreshed.ToScreenInfo(), ActivePlaylists: infos}, nil
}

// ReportPlaybackParams represents the parameters for the reportPlayback method.
type ReportPlaybackParams struct {
	PlaylistID     string  `json:"playlistId" validate:"required"`
	ItemID         string  `json:"itemId" validate:"required"`
	ScreenID       string  `json:"screenId" validate:"required"`
	Duration       int     `json:"duration" validate:"min=0"`
	CompletionRate float64 `json:"completionRate" validate:"min=0,max=1"`
}

// ReportPlaybackResult represents the result of the reportPlayback method.
type ReportPlaybackResult struct {
	Recorded bool `json:"recorded"`
}

// ReportPlayback records a completed item playback into the playlist's
// analytics.
func (h *DisplayHandler) ReportPlayback(ctx context.Context, client *rpc.Client, p *ReportPlaybackParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, rpcErr := parseID("playlist ID", p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	itemID, rpcErr := parseID("item ID", p.ItemID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	screenID, rpcErr := parseID("screen ID", p.ScreenID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	report := models.PlaybackReport{
		PlaylistID:     playlistID,
		ItemID:         itemID,
		ScreenID:       screenID,
		Duration:       p.Duration,
		CompletionRate: p.CompletionRate,
	}

	// Recording is fire-and-forget so a slow write never stalls the
	// display's playback loop. The store call gets its own deadline
	// detached from the request context.
	go func() {
		recordCtx, cancel := context.WithTimeout(context.Background(), recordPlaybackTimeout)
		defer cancel()

		if err := h.playlistManager.RecordPlayback(recordCtx, report); err != nil {
			h.logger.Error("Failed to record playback", err, "playlistId", p.PlaylistID, "screenId", p.ScreenID)
		}
	}()

	return ReportPlaybackResult{Recorded: true}, nil
}
