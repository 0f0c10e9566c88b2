// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/services/screen"
	"castlane.dev/signcast/backend/internal/utils"
)

// ScreenHandler handles HTTP requests related to display screens.
type ScreenHandler struct {
	screenRegistry *screen.Registry
	logger         *utils.Logger
}

// NewScreenHandler creates a new screen handler.
func NewScreenHandler(screenRegistry *screen.Registry, logger *utils.Logger) *ScreenHandler {
	return &ScreenHandler{
		screenRegistry: screenRegistry,
		logger:         logger.Named("screen_handler"),
	}
}

// List handles requests to list all registered screens.
func (h *ScreenHandler) List(w http.ResponseWriter, r *http.Request) {
	screens, err := h.screenRegistry.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list screens", err)
		RespondWithDomainError(w, err)
		return
	}

	infos := make([]models.ScreenInfo, 0, len(screens))
	for _, s := range screens {
		infos = append(infos, s.ToScreenInfo())
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"screens": infos})
}

// Get handles requests to get a screen by ID.
func (h *ScreenHandler) Get(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	s, err := h.screenRegistry.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get screen", err, "id", id.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, s)
}

// Create handles requests to register a new screen.
func (h *ScreenHandler) Create(w http.ResponseWriter, r *http.Request, data *models.ScreenRegisterRequest) {
	userID := GetUserIDFromContext(w, r)
	if userID.IsZero() {
		return
	}

	if err := utils.Validate(data); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	registered, err := h.screenRegistry.Register(r.Context(), userID, *data)
	if err != nil {
		h.logger.Error("Failed to register screen", err, "name", data.Name)
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, registered)
}

// Update handles requests to update a screen's metadata.
func (h *ScreenHandler) Update(w http.ResponseWriter, r *http.Request, id bson.ObjectID, data *models.ScreenUpdateRequest) {
	if err := utils.Validate(data); err != nil {
		utils.RespondWithValidationError(w, err)
		return
	}

	s, err := h.screenRegistry.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get screen for update", err, "id", id.Hex())
		RespondWithDomainError(w, err)
		return
	}

	if data.Name != "" {
		s.Name = data.Name
	}
	if data.Location != "" {
		s.Location = data.Location
	}
	if data.Resolution != "" {
		s.Resolution = data.Resolution
	}
	if data.Orientation != "" {
		s.Orientation = data.Orientation
	}
	if data.DeviceInfo != nil {
		s.DeviceInfo = data.DeviceInfo
	}
	if data.Tags != nil {
		s.Tags = data.Tags
	}

	if err := h.screenRegistry.Update(r.Context(), s); err != nil {
		h.logger.Error("Failed to update screen", err, "id", id.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, s)
}

// Delete handles requests to remove a screen.
func (h *ScreenHandler) Delete(w http.ResponseWriter, r *http.Request, id bson.ObjectID) {
	if err := h.screenRegistry.Remove(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete screen", err, "id", id.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Heartbeat handles requests recording a screen's liveness.
func (h *ScreenHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	screenID, ok := URLObjectID(w, chi.URLParam(r, "id"), "screen ID")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status,omitempty" validate:"omitempty,oneof=online error"`
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

	refreshed, err := h.screenRegistry.Heartbeat(r.Context(), models.ScreenHeartbeat{
		ScreenID: screenID,
		Status:   req.Status,
	})
	if err != nil {
		h.logger.Error("Failed to record heartbeat", err, "id", screenID.Hex())
		RespondWithDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, refreshed.ToScreenInfo())
}
