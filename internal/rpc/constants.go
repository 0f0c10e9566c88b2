// Package rpc provides WebSocket-based RPC functionality.
package rpc

// RPC method constants
const (
	// Playlist methods
	MethodPlaylistJoinRoom       = "playlist.joinRoom"
	MethodPlaylistLeaveRoom      = "playlist.leaveRoom"
	MethodPlaylistUpdateMetadata = "playlist.updateMetadata"
	MethodPlaylistAddItem        = "playlist.addItem"
	MethodPlaylistRemoveItem     = "playlist.removeItem"
	MethodPlaylistReorderItems   = "playlist.reorderItems"
	MethodPlaylistReorderPartial = "playlist.reorderPartial"
	MethodPlaylistAssignScreens  = "playlist.assignScreens"
	MethodPlaylistUnassign       = "playlist.unassignScreens"

	// Display methods
	MethodDisplayRegister       = "display.register"
	MethodDisplayHeartbeat      = "display.heartbeat"
	MethodDisplayReportPlayback = "display.reportPlayback"

	// System methods
	MethodSystemEmergencyControl = "system.emergencyControl"
)

// RPC event constants
const (
	// Playlist events
	EventPlaylistMetadataUpdated = "playlist:metadata_updated"
	EventPlaylistItemAdded       = "playlist:item_added"
	EventPlaylistItemRemoved     = "playlist:item_removed"
	EventPlaylistItemsReordered  = "playlist:items_reordered"
	EventPlaylistScreensAssigned = "playlist:screens_assigned"
	EventPlaylistScreensUnassign = "playlist:screens_unassigned"

	// Presence events
	EventPresenceJoined = "presence:joined"
	EventPresenceLeft   = "presence:left"

	// Screen events
	EventScreenStatus     = "screen:status"
	EventScreenRegistered = "screen:registered"

	// System events
	EventSystemEmergency = "system:emergency"
)
