// Package models contains the data structures used throughout the application.
package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Media types accepted by the catalog.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeWeb   = "web"
)

// Media represents an entry in the media catalog. The catalog stores
// descriptive metadata only, never binary content.
type Media struct {
	// ID is the unique identifier for the media.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Type is the kind of media (image, video, web).
	Type string `json:"type" bson:"type" validate:"required,oneof=image video web"`

	// Title is the operator-facing title of the media.
	Title string `json:"title" bson:"title" validate:"required,max=200"`

	// URL points at the media content.
	URL string `json:"url" bson:"url" validate:"required,url"`

	// Duration is the natural display duration in seconds. For images and
	// web pages this is the configured dwell time.
	Duration int `json:"duration" bson:"duration" validate:"min=1,max=86400"`

	// Resolution is the native resolution where known, e.g. "1920x1080".
	Resolution string `json:"resolution,omitempty" bson:"resolution,omitempty" validate:"omitempty,resolution"`

	// ContentType is the MIME type where known.
	ContentType string `json:"contentType,omitempty" bson:"contentType,omitempty"`

	// Tags are keywords that describe the media.
	Tags []string `json:"tags" bson:"tags" validate:"dive,max=30"`

	// AddedBy is the ID of the user who added the media.
	AddedBy bson.ObjectID `json:"addedBy" bson:"addedBy"`

	// ObjectTimes contains timestamps for this media.
	ObjectTimes
}

// MediaInfo is the subset of catalog data that playlist consumers need.
type MediaInfo struct {
	// ID is the unique identifier for the media.
	ID bson.ObjectID `json:"id"`

	// Type is the kind of media.
	Type string `json:"type"`

	// Title is the title of the media.
	Title string `json:"title"`

	// URL points at the media content.
	URL string `json:"url"`

	// Duration is the natural display duration in seconds.
	Duration int `json:"duration"`
}

// ToMediaInfo converts a Media to its lookup form.
func (m *Media) ToMediaInfo() MediaInfo {
	return MediaInfo{
		ID:       m.ID,
		Type:     m.Type,
		Title:    m.Title,
		URL:      m.URL,
		Duration: m.Duration,
	}
}

// MediaCreateRequest represents the data needed to register catalog media.
type MediaCreateRequest struct {
	Type        string   `json:"type" validate:"required,oneof=image video web"`
	Title       string   `json:"title" validate:"required,max=200"`
	URL         string   `json:"url" validate:"required,url"`
	Duration    int      `json:"duration" validate:"min=1,max=86400"`
	Resolution  string   `json:"resolution,omitempty" validate:"omitempty,resolution"`
	ContentType string   `json:"contentType,omitempty"`
	Tags        []string `json:"tags" validate:"dive,max=30"`
}
