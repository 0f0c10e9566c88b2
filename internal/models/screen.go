// Package models contains the data structures used throughout the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Screen status values.
const (
	ScreenStatusOnline  = "online"
	ScreenStatusOffline = "offline"
	ScreenStatusError   = "error"
)

// Screen represents a registered display device.
type Screen struct {
	// ID is the unique identifier for the screen.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Name is the operator-facing display name.
	Name string `json:"name" bson:"name" validate:"required,min=1,max=100"`

	// Location describes where the screen is installed.
	Location string `json:"location" bson:"location" validate:"max=200"`

	// Resolution is the native resolution, e.g. "1920x1080".
	Resolution string `json:"resolution" bson:"resolution" validate:"omitempty,resolution"`

	// Orientation is landscape or portrait.
	Orientation string `json:"orientation" bson:"orientation" validate:"omitempty,oneof=landscape portrait"`

	// Status is the last known connectivity status.
	Status string `json:"status" bson:"status"`

	// LastHeartbeat is the time of the last heartbeat received.
	LastHeartbeat time.Time `json:"lastHeartbeat" bson:"lastHeartbeat"`

	// RegisteredBy is the user who registered the screen.
	RegisteredBy bson.ObjectID `json:"registeredBy" bson:"registeredBy"`

	// DeviceInfo is free-form device metadata reported at registration.
	DeviceInfo map[string]string `json:"deviceInfo,omitempty" bson:"deviceInfo,omitempty"`

	// Tags are keywords for grouping screens.
	Tags []string `json:"tags" bson:"tags" validate:"dive,max=30"`

	// ObjectTimes contains timestamps for this screen.
	ObjectTimes
}

// ScreenRegisterRequest represents the data needed to register a screen.
type ScreenRegisterRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=100"`
	Location    string            `json:"location" validate:"max=200"`
	Resolution  string            `json:"resolution" validate:"omitempty,resolution"`
	Orientation string            `json:"orientation" validate:"omitempty,oneof=landscape portrait"`
	DeviceInfo  map[string]string `json:"deviceInfo,omitempty"`
	Tags        []string          `json:"tags" validate:"dive,max=30"`
}

// ScreenUpdateRequest represents the data that can be updated on a screen.
type ScreenUpdateRequest struct {
	Name        string            `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Location    string            `json:"location,omitempty" validate:"omitempty,max=200"`
	Resolution  string            `json:"resolution,omitempty" validate:"omitempty,resolution"`
	Orientation string            `json:"orientation,omitempty" validate:"omitempty,oneof=landscape portrait"`
	DeviceInfo  map[string]string `json:"deviceInfo,omitempty"`
	Tags        []string          `json:"tags,omitempty" validate:"omitempty,dive,max=30"`
}

// ScreenHeartbeat is a display client's periodic liveness report.
type ScreenHeartbeat struct {
	// ScreenID is the reporting screen.
	ScreenID bson.ObjectID `json:"screenId" validate:"required"`

	// CurrentPlaylist is the playlist the screen is currently showing,
	// if any.
	CurrentPlaylist bson.ObjectID `json:"currentPlaylist,omitempty"`

	// CurrentItem is the item currently on screen, if any.
	CurrentItem bson.ObjectID `json:"currentItem,omitempty"`

	// Status lets the device report a degraded state.
	Status string `json:"status,omitempty" validate:"omitempty,oneof=online error"`
}

// ScreenInfo is a summary of a screen for listings and broadcasts.
type ScreenInfo struct {
	ID            bson.ObjectID `json:"id"`
	Name          string        `json:"name"`
	Location      string        `json:"location"`
	Resolution    string        `json:"resolution"`
	Status        string        `json:"status"`
	LastHeartbeat time.Time     `json:"lastHeartbeat"`
}

// ToScreenInfo converts a Screen to its summary form.
func (s *Screen) ToScreenInfo() ScreenInfo {
	return ScreenInfo{
		ID:            s.ID,
		Name:          s.Name,
		Location:      s.Location,
		Resolution:    s.Resolution,
		Status:        s.Status,
		LastHeartbeat: s.LastHeartbeat,
	}
}
