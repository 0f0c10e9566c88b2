// Package methods contains RPC method handlers for the application.
package methods

import (
	"context"
	"time"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/utils"
)

// SystemHandler handles operator-level system RPC methods.
type SystemHandler struct {
	logger *utils.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(logger *utils.Logger) *SystemHandler {
	return &SystemHandler{logger: logger}
}

// RegisterMethods registers system RPC methods with the router.
func (h *SystemHandler) RegisterMethods(hr rpc.HandlerRegistry) {
	admin := hr.Wrap(rpc.AuthMiddleware).Wrap(rpc.RoleMiddleware(models.RoleAdmin))
	rpc.Register(admin, rpc.MethodSystemEmergencyControl, h.EmergencyControl)
}

// EmergencyControlParams represents the parameters for the emergencyControl
// method.
type EmergencyControlParams struct {
	Action   string `json:"action" validate:"required,oneof=blackout resume message"`
	Message  string `json:"message,omitempty" validate:"max=500"`
	ScreenID string `json:"screenId,omitempty"`
}

// EmergencyControlResult represents the result of the emergencyControl method.
type EmergencyControlResult struct {
	Action    string    `json:"action"`
	IssuedAt  time.Time `json:"issuedAt"`
	Delivered bool      `json:"delivered"`
}

// emergencyRoom returns the room an emergency directive targets, or ""
// for a global broadcast.
func emergencyRoom(p *EmergencyControlParams) string {
	if p.ScreenID == "" {
		return ""
	}
	return rpc.ScreenRoomPrefix + p.ScreenID
}

// EmergencyControl broadcasts an emergency directive. Displays blank on
// blackout, resume normal playback on resume, and overlay the given text on
// message. When screenId is set the directive goes to that screen's room
// only, otherwise to every connected client.
func (h *SystemHandler) EmergencyControl(ctx context.Context, client *rpc.Client, p *EmergencyControlParams) (any, error) {
	if err := utils.Validate(p); err != nil {
		return nil, invalidParams(err)
	}

	issuedAt := time.Now()
	payload := map[string]any{
		"action":   p.Action,
		"message":  p.Message,
		"issuedBy": client.UserID,
		"issuedAt": issuedAt,
	}

	if room := emergencyRoom(p); room != "" {
		payload["screenId"] = p.ScreenID
		client.NotifyRoom(room, rpc.EventSystemEmergency, payload)
	} else {
		client.NotifyAll(rpc.EventSystemEmergency, payload)
	}

	h.logger.Warn("Emergency control issued", "action", p.Action, "screenID", p.ScreenID, "issuedBy", client.UserID)

	return EmergencyControlResult{Action: p.Action, IssuedAt: issuedAt, Delivered: true}, nil
}
