// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/services/media"
	"castlane.dev/signcast/backend/internal/utils"
)

// MediaHandler handles HTTP requests related to the media catalog.
type MediaHandler struct {
	catalog *media.Catalog
	logger  *utils.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(catalog *media.Catalog, logger *utils.Logger) *MediaHandler {
	return &MediaHandler{
		catalog: catalog,
		logger:  logger.Named("media_handler"),
	}
}

// Search handles requests to search the media catalog.
func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	mediaType := r.URL.Query().Get("type")

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
	}

	skip := 0
	if skipStr := r.URL.Query().Get("skip"); skipStr != "" {
		var err error
		skip, err = strconv.Atoi(skipStr)
		if err != nil || skip < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid skip parameter")
			return
		}
	}

	results, total, err := h.catalog.Search(r.Context(), query, mediaType, skip, limit)
	if err != nil {
		h.logger.Error("Failed to search media", err, "query", query, "type", mediaType)
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"media": results,
		"total": total,
	})
}

// GetMedia handles requests to get a media item by ID.
func (h *MediaHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := URLObjectID(w, chi.URLParam(r, "id"), "media ID")
	if !ok {
		return
	}

	m, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get media", err, "id", id.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, m)
}

// AddMedia handles requests to register a new media item in the catalog.
func (h *MediaHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	var req models.MediaCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.Validate(req); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	m, err := h.catalog.Register(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("Failed to add media", err, "title", req.Title)
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, m)
}

// DeleteMedia handles requests to remove a media item from the catalog.
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := URLObjectID(w, chi.URLParam(r, "id"), "media ID")
	if !ok {
		return
	}

	if err := h.catalog.Remove(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete media", err, "id", id.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
