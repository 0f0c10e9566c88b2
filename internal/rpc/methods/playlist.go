// Package methods contains RPC method handlers for the application.
package methods

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/utils"
)

// PlaylistHandler handles playlist-related RPC methods.
type PlaylistHandler struct {
	playlistManager *playlist.Manager
	logger          *utils.Logger
}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler(playlistManager *playlist.Manager, logger *utils.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		playlistManager: playlistManager,
		logger:          logger,
	}
}

// RegisterMethods registers playlist-related RPC methods with the router.
func (h *PlaylistHandler) RegisterMethods(hr rpc.HandlerRegistry) {
	auth := hr.Wrap(rpc.AuthMiddleware)
	rpc.Register(auth, rpc.MethodPlaylistJoinRoom, h.JoinRoom)
	rpc.Register(auth, rpc.MethodPlaylistLeaveRoom, h.LeaveRoom)
	rpc.Register(auth, rpc.MethodPlaylistUpdateMetadata, h.UpdateMetadata)
	rpc.Register(auth, rpc.MethodPlaylistAddItem, h.AddItem)
	rpc.Register(auth, rpc.MethodPlaylistRemoveItem, h.RemoveItem)
	rpc.Register(auth, rpc.MethodPlaylistReorderItems, h.ReorderItems)
	rpc.Register(auth, rpc.MethodPlaylistReorderPartial, h.ReorderPartial)
	rpc.Register(auth, rpc.MethodPlaylistAssignScreens, h.AssignScreens)
	rpc.Register(auth, rpc.MethodPlaylistUnassign, h.UnassignScreens)
}

// JoinRoomParams represents the parameters for the joinRoom method.
type JoinRoomParams struct {
	PlaylistID string `json:"playlistId" validate:"required"`
}

// JoinRoomResult represents the result of the joinRoom method.
type JoinRoomResult struct {
	Room     string              `json:"room"`
	Members  []string            `json:"members"`
	Playlist models.PlaylistInfo `json:"playlist"`
}

// JoinRoom places the client in a playlist's collaboration room. The other
// members receive a presence notification; the caller gets the membership
// list in the response.
func (h *PlaylistHandler) JoinRoom(ctx context.Context, client *rpc.Client, p *JoinRoomParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, rpcErr := parseID("playlist ID", p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	actorID, rpcErr := parseID("user ID", client.UserID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	pl, err := h.playlistManager.GetPlaylist(ctx, actorID, playlistID)
	if err != nil {
		h.logger.Error("Failed to get playlist for room join", err, "playlistId", p.PlaylistID)
		return nil, domainError(err)
	}

	room := rpc.PlaylistRoomPrefix + p.PlaylistID
	client.JoinRoom(room, rpc.EventPresenceJoined, map[string]any{
		"userId":   client.UserID,
		"username": client.Username,
		"room":     room,
	})

	return JoinRoomResult{
		Room:     room,
		Members:  client.RoomMembers(room),
		Playlist: pl.ToPlaylistInfo(),
	}, nil
}

// LeaveRoomParams represents the parameters for the leaveRoom method.
type LeaveRoomParams struct {
	PlaylistID string `json:"playlistId" validate:"required"`
}

// LeaveRoomResult represents the result of the leaveRoom method.
type LeaveRoomResult struct {
	Room string `json:"room"`
}

// LeaveRoom removes the client from a playlist's collaboration room.
func (h *PlaylistHandler) LeaveRoom(ctx context.Context, client *rpc.Client, p *LeaveRoomParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	room := rpc.PlaylistRoomPrefix + p.PlaylistID
	if !client.IsInRoom(room) {
		return nil, rpc.ErrUserNotInRoom.Error()
	}

	client.LeaveRoom(room, rpc.EventPresenceLeft, map[string]any{
		"userId":   client.UserID,
		"username": client.Username,
		"room":     room,
	})

	return LeaveRoomResult{Room: room}, nil
}

// UpdateMetadataParams represents the parameters for the updateMetadata method.
type UpdateMetadataParams struct {
	PlaylistID    string                   `json:"playlistId" validate:"required"`
	Name          *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description   *string                  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Tags          []string                 `json:"tags,omitempty" validate:"omitempty,dive,max=30"`
	Settings      *models.PlaylistSettings `json:"settings,omitempty"`
	Schedule      *models.Schedule         `json:"schedule,omitempty"`
	ClearSchedule bool                     `json:"clearSchedule,omitempty"`
}

// MutationResult represents the result of a playlist mutation.
type MutationResult struct {
	Playlist models.PlaylistInfo `json:"playlist"`
	Version  int64               `json:"version"`
}

// UpdateMetadata handles updating a playlist's metadata, settings and
// schedule.
func (h *PlaylistHandler) UpdateMetadata(ctx context.Context, client *rpc.Client, p *UpdateMetadataParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, actorID, rpcErr := h.mutationIDs(client, p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	updated, err := h.playlistManager.UpdateMetadata(ctx, actorID, playlistID, models.PlaylistUpdateRequest{
		Name:          p.Name,
		Description:   p.Description,
		Tags:          p.Tags,
		Settings:      p.Settings,
		Schedule:      p.Schedule,
		ClearSchedule: p.ClearSchedule,
	})
	if err != nil {
		h.logger.Error("Failed to update playlist metadata", err, "playlistId", p.PlaylistID)
		return nil, domainError(err)
	}

	client.NotifyRoom(rpc.PlaylistRoomPrefix+p.PlaylistID, rpc.EventPlaylistMetadataUpdated, map[string]any{
		"playlistId": p.PlaylistID,
		"version":    updated.Version,
		"name":       updated.Name,
		"updatedBy":  client.UserID,
	})

	return MutationResult{Playlist: updated.ToPlaylistInfo(), Version: updated.Version}, nil
}

// AddItemParams represents the parameters for the addItem method.
type AddItemParams struct {
	PlaylistID string                    `json:"playlistId" validate:"required"`
	MediaID    string                    `json:"mediaId" validate:"required"`
	Position   *int                      `json:"position,omitempty" validate:"omitempty,min=0"`
	Duration   *int                      `json:"duration,omitempty" validate:"omitempty,min=1"`
	Transition *models.Transition        `json:"transition,omitempty"`
	Conditions []models.DisplayCondition `json:"conditions,omitempty" validate:"omitempty,dive"`
	Notes      string                    `json:"notes,omitempty" validate:"max=500"`
}

// AddItemResult represents the result of the addItem method.
type AddItemResult struct {
	Playlist models.PlaylistInfo `json:"playlist"`
	Item     models.PlaylistItem `json:"item"`
	Version  int64               `json:"version"`
}

// AddItem handles inserting a media item into a playlist.
func (h *PlaylistHandler) AddItem(ctx context.Context, client *rpc.Client, p *AddItemParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, actorID, rpcErr := h.mutationIDs(client, p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	mediaID, rpcErr := parseID("media ID", p.MediaID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	updated, item, err := h.playlistManager.AddItem(ctx, actorID, playlistID, models.PlaylistAddItemRequest{
		MediaID:    mediaID,
		Position:   p.Position,
		Duration:   p.Duration,
		Transition: p.Transition,
		Conditions: p.Conditions,
		Notes:      p.Notes,
	})
	if err != nil {
		h.logger.Error("Failed to add playlist item", err, "playlistId", p.PlaylistID, "mediaId", p.MediaID)
		return nil, domainError(err)
	}

	client.NotifyRoom(rpc.PlaylistRoomPrefix+p.PlaylistID, rpc.EventPlaylistItemAdded, map[string]any{
		"playlistId": p.PlaylistID,
		"version":    updated.Version,
		"item":       item,
		"addedBy":    client.UserID,
	})

	return AddItemResult{Playlist: updated.ToPlaylistInfo(), Item: *item, Version: updated.Version}, nil
}

// RemoveItemParams represents the parameters for the removeItem method.
type RemoveItemParams struct {
	PlaylistID string `json:"playlistId" validate:"required"`
	ItemID     string `json:"itemId" validate:"required"`
}

// RemoveItem handles removing an item from a playlist.
func (h *PlaylistHandler) RemoveItem(ctx context.Context, client *rpc.Client, p *RemoveItemParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, actorID, rpcErr := h.mutationIDs(client, p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	itemID, rpcErr := parseID("item ID", p.ItemID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	updated, err := h.playlistManager.RemoveItem(ctx, actorID, playlistID, itemID)
	if err != nil {
		h.logger.Error("Failed to remove playlist item", err, "playlistId", p.PlaylistID, "itemId", p.ItemID)
		return nil, domainError(err)
	}

	client.NotifyRoom(rpc.PlaylistRoomPrefix+p.PlaylistID, rpc.EventPlaylistItemRemoved, map[string]any{
		"playlistId": p.PlaylistID,
		"version":    updated.Version,
		"itemId":     p.ItemID,
		"removedBy":  client.UserID,
	})

	return MutationResult{Playlist: updated.ToPlaylistInfo(), Version: updated.Version}, nil
}

// ReorderItemsParams represents the parameters for the reorderItems method.
type ReorderItemsParams struct {
	PlaylistID string   `json:"playlistId" validate:"required"`
	ItemIDs    []string `json:"itemIds" validate:"required,min=1"`
}

// ReorderResult represents the result of a reorder method.
type ReorderResult struct {
	Playlist models.PlaylistInfo `json:"playlist"`
	ItemIDs  []string            `json:"itemIds"`
	Version  int64               `json:"version"`
}

// ReorderItems replaces the full ordering of a playlist. The item list must
// be an exact permutation of the playlist's current items.
func (h *PlaylistHandler) ReorderItems(ctx context.Context, client *rpc.Client, p *ReorderItemsParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, actorID, rpcErr := h.mutationIDs(client, p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	itemIDs := make([]bson.ObjectID, 0, len(p.ItemIDs))
	for _, raw := range p.ItemIDs {
		id, rpcErr := parseID("item ID", raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		itemIDs = append(itemIDs, id)
	}

	updated, err := h.playlistManager.ReorderItems(ctx, actorID, playlistID, itemIDs)
	if err != nil {
		h.logger.Error("Failed to reorder playlist", err, "playlistId", p.PlaylistID)
		return nil, domainError(err)
	}

	return h.reorderResult(client, p.PlaylistID, updated), nil
}

// ReorderPartialParams represents the parameters for the reorderPartial method.
type ReorderPartialParams struct {
	PlaylistID string             `json:"playlistId" validate:"required"`
	Updates    []OrderUpdateParam `json:"updates" validate:"required,min=1,dive"`
}

// OrderUpdateParam assigns a new order value to an existing item.
type OrderUpdateParam struct {
	ItemID string `json:"itemId" validate:"required"`
	Order  int    `json:"order" validate:"min=0"`
}

// ReorderPartial moves a subset of playlist items to new positions. An
// update that collides with an item not being moved is rejected.
func (h *PlaylistHandler) ReorderPartial(ctx context.Context, client *rpc.Client, p *ReorderPartialParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, actorID, rpcErr := h.mutationIDs(client, p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	updates := make([]models.OrderUpdate, 0, len(p.Updates))
	for _, u := range p.Updates {
		itemID, rpcErr := parseID("item ID", u.ItemID)
		if rpcErr != nil {
			return nil, rpcErr
		}
		updates = append(updates, models.OrderUpdate{ItemID: itemID, Order: u.Order})
	}

	updated, err := h.playlistManager.ReorderPartialItems(ctx, actorID, playlistID, updates)
	if err != nil {
		h.logger.Error("Failed to reorder playlist items", err, "playlistId", p.PlaylistID)
		return nil, domainError(err)
	}

	return h.reorderResult(client, p.PlaylistID, updated), nil
}

// ScreenAssignmentParams represents the parameters for screen assignment
// methods.
type ScreenAssignmentParams struct {
	PlaylistID string   `json:"playlistId" validate:"required"`
	ScreenIDs  []string `json:"screenIds" validate:"required,min=1"`
}

// AssignScreens assigns a playlist to display screens.
func (h *PlaylistHandler) AssignScreens(ctx context.Context, client *rpc.Client, p *ScreenAssignmentParams) (any, error) {
	return h.changeScreens(ctx, client, p, true)
}

// UnassignScreens removes a playlist from display screens.
func (h *PlaylistHandler) UnassignScreens(ctx context.Context, client *rpc.Client, p *ScreenAssignmentParams) (any, error) {
	return h.changeScreens(ctx, client, p, false)
}

func (h *PlaylistHandler) changeScreens(ctx context.Context, client *rpc.Client, p *ScreenAssignmentParams, assign bool) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	playlistID, actorID, rpcErr := h.mutationIDs(client, p.PlaylistID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	screenIDs := make([]bson.ObjectID, 0, len(p.ScreenIDs))
	for _, raw := range p.ScreenIDs {
		id, rpcErr := parseID("screen ID", raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		screenIDs = append(screenIDs, id)
	}

	var updated *models.Playlist
	var err error
	event := rpc.EventPlaylistScreensAssigned
	if assign {
		updated, err = h.playlistManager.AssignScreens(ctx, actorID, playlistID, screenIDs)
	} else {
		updated, err = h.playlistManager.UnassignScreens(ctx, actorID, playlistID, screenIDs)
		event = rpc.EventPlaylistScreensUnassign
	}
	if err != nil {
		h.logger.Error("Failed to change screen assignment", err, "playlistId", p.PlaylistID)
		return nil, domainError(err)
	}

	payload := map[string]any{
		"playlistId": p.PlaylistID,
		"version":    updated.Version,
		"screenIds":  p.ScreenIDs,
		"changedBy":  client.UserID,
	}
	client.NotifyRoom(rpc.PlaylistRoomPrefix+p.PlaylistID, event, payload)

	// Screens learn about their assignment through their own rooms.
	for _, screenID := range p.ScreenIDs {
		client.NotifyRoom(rpc.ScreenRoomPrefix+screenID, event, payload)
	}

	return MutationResult{Playlist: updated.ToPlaylistInfo(), Version: updated.Version}, nil
}

// mutationIDs parses the playlist and acting user IDs for a mutation.
func (h *PlaylistHandler) mutationIDs(client *rpc.Client, playlistID string) (bson.ObjectID, bson.ObjectID, *rpc.Error) {
	plID, rpcErr := parseID("playlist ID", playlistID)
	if rpcErr != nil {
		return bson.ObjectID{}, bson.ObjectID{}, rpcErr
	}

	actorID, rpcErr := parseID("user ID", client.UserID)
	if rpcErr != nil {
		return bson.ObjectID{}, bson.ObjectID{}, rpcErr
	}

	return plID, actorID, nil
}

// reorderResult notifies the playlist room of the new ordering and builds
// the caller's response.
func (h *PlaylistHandler) reorderResult(client *rpc.Client, playlistID string, updated *models.Playlist) ReorderResult {
	ordered := make([]string, 0, len(updated.Items))
	for _, item := range updated.Items {
		ordered = append(ordered, item.ID.Hex())
	}

	client.NotifyRoom(rpc.PlaylistRoomPrefix+playlistID, rpc.EventPlaylistItemsReordered, map[string]any{
		"playlistId":  playlistID,
		"version":     updated.Version,
		"itemIds":     ordered,
		"reorderedBy": client.UserID,
	})

	return ReorderResult{Playlist: updated.ToPlaylistInfo(), ItemIDs: ordered, Version: updated.Version}
}
