// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/utils"
)

// PlaylistHandler handles HTTP requests related to playlist operations.
type PlaylistHandler struct {
	playlistManager *playlist.Manager
	exportService   *playlist.ExportService
	logger          *utils.Logger
}

// NewPlaylistHandler creates a new playlist handler.
func NewPlaylistHandler(playlistManager *playlist.Manager, exportService *playlist.ExportService, logger *utils.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		playlistManager: playlistManager,
		exportService:   exportService,
		logger:          logger.Named("playlist_handler"),
	}
}

// ListPlaylists handles requests to list playlists visible to the caller.
func (h *PlaylistHandler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	criteria := models.PlaylistSearchCriteria{
		Query:           r.URL.Query().Get("q"),
		Tags:            r.URL.Query()["tag"],
		IncludeArchived: r.URL.Query().Get("includeArchived") == "true",
		SortBy:          r.URL.Query().Get("sortBy"),
		SortDirection:   r.URL.Query().Get("sortDirection"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		criteria.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		criteria.Limit = limit
	}
	if ownerStr := r.URL.Query().Get("owner"); ownerStr != "" {
		ownerID, err := bson.ObjectIDFromHex(ownerStr)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid owner ID")
			return
		}
		criteria.OwnerID = ownerID
	}
	if screenStr := r.URL.Query().Get("screen"); screenStr != "" {
		screenID, err := bson.ObjectIDFromHex(screenStr)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid screen ID")
			return
		}
		criteria.ScreenID = screenID
	}

	playlists, total, err := h.playlistManager.SearchPlaylists(r.Context(), userID, criteria)
	if err != nil {
		h.logger.Error("Failed to list playlists", err, "userID", userID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	infos := make([]models.PlaylistInfo, 0, len(playlists))
	for _, pl := range playlists {
		infos = append(infos, pl.ToPlaylistInfo())
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"playlists": infos,
		"total":     total,
	})
}

// CreatePlaylist handles requests to create a new playlist.
func (h *PlaylistHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	var req models.PlaylistCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	created, err := h.playlistManager.CreatePlaylist(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("Failed to create playlist", err, "userID", userID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// GetPlaylist handles requests to get a playlist by ID.
func (h *PlaylistHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	pl, err := h.playlistManager.GetPlaylist(r.Context(), userID, playlistID)
	if err != nil {
		h.logger.Error("Failed to get playlist", err, "id", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pl)
}

// UpdatePlaylist handles requests to update a playlist's metadata.
func (h *PlaylistHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req models.PlaylistUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.UpdateMetadata(r.Context(), userID, playlistID, req)
	if err != nil {
		h.logger.Error("Failed to update playlist", err, "id", playlistID.Hex(), "userID", userID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ArchivePlaylist handles requests to archive a playlist.
func (h *PlaylistHandler) ArchivePlaylist(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.playlistManager.ArchivePlaylist)
}

// RestorePlaylist handles requests to restore an archived playlist.
func (h *PlaylistHandler) RestorePlaylist(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.playlistManager.RestorePlaylist)
}

// DuplicatePlaylist handles requests to duplicate a playlist.
func (h *PlaylistHandler) DuplicatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" validate:"omitempty,min=1,max=100"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := utils.Validate(req); err != nil {
			utils.RespondWithValidationError(w, err)
			return
		}
	}

	duplicate, err := h.playlistManager.DuplicatePlaylist(r.Context(), userID, playlistID, req.Name)
	if err != nil {
		h.logger.Error("Failed to duplicate playlist", err, "id", playlistID.Hex(), "userID", userID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, duplicate)
}

// AddPlaylistItem handles requests to add an item to a playlist.
func (h *PlaylistHandler) AddPlaylistItem(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req models.PlaylistAddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, item, err := h.playlistManager.AddItem(r.Context(), userID, playlistID, req)
	if err != nil {
		h.logger.Error("Failed to add item to playlist", err, "playlistID", playlistID.Hex(), "userID", userID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"playlist": updated,
		"item":     item,
	})
}

// RemovePlaylistItem handles requests to remove an item from a playlist.
func (h *PlaylistHandler) RemovePlaylistItem(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	itemID, ok := URLObjectID(w, chi.URLParam(r, "itemId"), "item ID")
	if !ok {
		return
	}

	updated, err := h.playlistManager.RemoveItem(r.Context(), userID, playlistID, itemID)
	if err != nil {
		h.logger.Error("Failed to remove item from playlist", err, "playlistID", playlistID.Hex(), "itemID", itemID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ReorderItems handles requests to replace a playlist's complete ordering.
func (h *PlaylistHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req models.PlaylistReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.ReorderItems(r.Context(), userID, playlistID, req.ItemIDs)
	if err != nil {
		h.logger.Error("Failed to reorder playlist", err, "playlistID", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ReorderPartial handles requests to move a subset of playlist items.
func (h *PlaylistHandler) ReorderPartial(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req models.PlaylistReorderPartialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.ReorderPartialItems(r.Context(), userID, playlistID, req.Updates)
	if err != nil {
		h.logger.Error("Failed to reorder playlist items", err, "playlistID", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// screenAssignmentRequest is the body for screen assignment endpoints.
type screenAssignmentRequest struct {
	ScreenIDs []bson.ObjectID `json:"screenIds" validate:"required,min=1"`
}

// AssignScreens handles requests to assign a playlist to screens.
func (h *PlaylistHandler) AssignScreens(w http.ResponseWriter, r *http.Request) {
	h.changeScreens(w, r, h.playlistManager.AssignScreens)
}

// UnassignScreens handles requests to remove a playlist from screens.
func (h *PlaylistHandler) UnassignScreens(w http.ResponseWriter, r *http.Request) {
	h.changeScreens(w, r, h.playlistManager.UnassignScreens)
}

// collaboratorRequest is the body for adding a collaborator.
type collaboratorRequest struct {
	UserID     bson.ObjectID `json:"userId" validate:"required"`
	Permission string        `json:"permission" validate:"required,oneof=view edit admin"`
}

// AddCollaborator handles requests to grant a user access to a playlist.
func (h *PlaylistHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req collaboratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := h.playlistManager.AddCollaborator(r.Context(), userID, playlistID, req.UserID, req.Permission)
	if err != nil {
		h.logger.Error("Failed to add collaborator", err, "playlistID", playlistID.Hex(), "collaborator", req.UserID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// RemoveCollaborator handles requests to revoke a user's access to a playlist.
func (h *PlaylistHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	collaboratorID, ok := URLObjectID(w, chi.URLParam(r, "userId"), "user ID")
	if !ok {
		return
	}

	updated, err := h.playlistManager.RemoveCollaborator(r.Context(), userID, playlistID, collaboratorID)
	if err != nil {
		h.logger.Error("Failed to remove collaborator", err, "playlistID", playlistID.Hex(), "collaborator", collaboratorID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// ExportPlaylist handles requests to export a playlist as a portable
// document.
func (h *PlaylistHandler) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	doc, err := h.exportService.Export(r.Context(), userID, playlistID)
	if err != nil {
		h.logger.Error("Failed to export playlist", err, "id", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, doc)
}

// ImportPlaylist handles requests to create a playlist from a portable
// document. An optional name query parameter overrides the document name.
func (h *PlaylistHandler) ImportPlaylist(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	var doc playlist.PlaylistDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(doc); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	created, err := h.exportService.Import(r.Context(), userID, &doc, r.URL.Query().Get("name"))
	if err != nil {
		h.logger.Error("Failed to import playlist", err, "userID", userID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// GetScheduleStatus handles requests to evaluate a playlist's schedule.
func (h *PlaylistHandler) GetScheduleStatus(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	at := time.Now()
	if atStr := r.URL.Query().Get("at"); atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid at timestamp")
			return
		}
		at = parsed
	}

	status, err := h.playlistManager.GetScheduleStatus(r.Context(), userID, playlistID, at)
	if err != nil {
		h.logger.Error("Failed to evaluate schedule", err, "playlistID", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, status)
}

// GetAnalytics handles requests to read a playlist's playback analytics.
func (h *PlaylistHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	analytics, err := h.playlistManager.GetAnalytics(r.Context(), userID, playlistID)
	if err != nil {
		h.logger.Error("Failed to get analytics", err, "playlistID", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, analytics)
}

// lifecycle runs an archive-style transition keyed only by playlist ID.
func (h *PlaylistHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor, id bson.ObjectID) (*models.Playlist, error)) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	updated, err := op(r.Context(), userID, playlistID)
	if err != nil {
		h.logger.Error("Failed to change playlist lifecycle", err, "playlistID", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *PlaylistHandler) changeScreens(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor, id bson.ObjectID, screenIDs []bson.ObjectID) (*models.Playlist, error)) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	playlistID, ok := URLObjectID(w, chi.URLParam(r, "id"), "playlist ID")
	if !ok {
		return
	}

	var req screenAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	updated, err := op(r.Context(), userID, playlistID, req.ScreenIDs)
	if err != nil {
		h.logger.Error("Failed to change screen assignment", err, "playlistID", playlistID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updated)
}
