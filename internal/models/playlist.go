// Package models contains the data structures used throughout the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Collaborator permission levels.
const (
	PermissionView  = "view"
	PermissionEdit  = "edit"
	PermissionAdmin = "admin"
)

// PlayHistoryCapacity is the maximum number of playback events kept per playlist.
const PlayHistoryCapacity = 100

// Playlist represents a schedule-driven collection of media items shown on
// display screens and edited collaboratively.
type Playlist struct {
	// ID is the unique identifier for the playlist.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Name is the display name of the playlist. Unique per owner.
	Name string `json:"name" bson:"name" validate:"required,min=1,max=100"`

	// Description provides information about the playlist.
	Description string `json:"description" bson:"description" validate:"max=1000"`

	// Owner is the ID of the user who owns the playlist.
	Owner bson.ObjectID `json:"owner" bson:"owner"`

	// Collaborators are users granted access to the playlist. The owner is
	// never listed here and each user appears at most once.
	Collaborators []Collaborator `json:"collaborators" bson:"collaborators"`

	// Items are the media items in the playlist. After any successful
	// mutation their Order values form a dense 0..N-1 sequence.
	Items []PlaylistItem `json:"items" bson:"items"`

	// TotalDuration is the total duration of all items in seconds, using
	// per-item overrides where present.
	TotalDuration int `json:"totalDuration" bson:"totalDuration"`

	// TotalItems is the number of items in the playlist.
	TotalItems int `json:"totalItems" bson:"totalItems"`

	// AssignedScreens are the screens this playlist is assigned to.
	AssignedScreens []bson.ObjectID `json:"assignedScreens" bson:"assignedScreens"`

	// Schedule controls when the playlist is active. Nil means always
	// eligible subject to assignment.
	Schedule *Schedule `json:"schedule,omitempty" bson:"schedule,omitempty"`

	// Analytics holds aggregated playback statistics.
	Analytics PlaylistAnalytics `json:"analytics" bson:"analytics"`

	// Settings contains playback behavior options.
	Settings PlaylistSettings `json:"settings" bson:"settings"`

	// Version is incremented on every successful save and is used for
	// optimistic concurrency control. Starts at 1.
	Version int64 `json:"version" bson:"version"`

	// LastModified is the time of the last successful mutation.
	LastModified time.Time `json:"lastModified" bson:"lastModified"`

	// Tags are keywords that describe the playlist.
	Tags []string `json:"tags" bson:"tags" validate:"dive,max=30"`

	// IsArchived marks a soft-deleted playlist. Archived playlists are
	// excluded from listings by default and reject mutations.
	IsArchived bool `json:"isArchived" bson:"isArchived"`

	// ObjectTimes contains timestamps for this playlist.
	ObjectTimes
}

// Collaborator grants a user a permission level on a playlist.
type Collaborator struct {
	// UserID is the collaborating user.
	UserID bson.ObjectID `json:"userId" bson:"userId"`

	// Permission is one of view, edit or admin.
	Permission string `json:"permission" bson:"permission" validate:"required,oneof=view edit admin"`

	// AddedBy is the user who granted the access.
	AddedBy bson.ObjectID `json:"addedBy" bson:"addedBy"`

	// AddedAt is when access was granted.
	AddedAt time.Time `json:"addedAt" bson:"addedAt"`
}

// PlaylistItem represents a media item at a position in a playlist.
type PlaylistItem struct {
	// ID is a unique identifier for this item within the playlist.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// MediaID is the ID of the media item in the catalog.
	MediaID bson.ObjectID `json:"mediaId" bson:"mediaId"`

	// Order is the position of the item in the playlist.
	Order int `json:"order" bson:"order"`

	// Duration overrides the media item's natural duration in seconds
	// when set.
	Duration *int `json:"duration,omitempty" bson:"duration,omitempty" validate:"omitempty,min=1"`

	// Transition describes how the display moves to the next item.
	Transition Transition `json:"transition" bson:"transition"`

	// Conditions restrict when the item is shown.
	Conditions []DisplayCondition `json:"conditions,omitempty" bson:"conditions,omitempty"`

	// AddedBy is the user who added the item.
	AddedBy bson.ObjectID `json:"addedBy" bson:"addedBy"`

	// AddedAt is the time the item was added.
	AddedAt time.Time `json:"addedAt" bson:"addedAt"`

	// Notes are free-form collaborator notes on the item.
	Notes string `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=500"`
}

// EffectiveDuration returns the item's duration override, or the given
// catalog duration when no override is set.
func (i *PlaylistItem) EffectiveDuration(catalogDuration int) int {
	if i.Duration != nil {
		return *i.Duration
	}
	return catalogDuration
}

// Transition describes the visual transition into an item.
type Transition struct {
	// Type is the transition effect (e.g. "cut", "fade", "slide").
	Type string `json:"type" bson:"type" validate:"omitempty,oneof=cut fade slide zoom"`

	// Duration is the transition duration in milliseconds.
	Duration int `json:"duration" bson:"duration" validate:"min=0,max=10000"`
}

// DisplayCondition restricts when an item is shown on a screen.
type DisplayCondition struct {
	// Type is the condition subject (e.g. "resolution", "orientation",
	// "location").
	Type string `json:"type" bson:"type" validate:"required"`

	// Operator compares the screen attribute to Value.
	Operator string `json:"operator" bson:"operator" validate:"required,oneof=eq neq gt lt contains"`

	// Value is the comparison operand.
	Value string `json:"value" bson:"value" validate:"required"`
}

// Schedule controls when a playlist is active.
type Schedule struct {
	// StartDate is the first instant the playlist may be active. Nil means
	// no lower bound.
	StartDate *time.Time `json:"startDate,omitempty" bson:"startDate,omitempty"`

	// EndDate is the last instant the playlist may be active. Nil means no
	// upper bound.
	EndDate *time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"`

	// TimeSlots are daily windows during which the playlist is active.
	// Empty means the whole day.
	TimeSlots []TimeSlot `json:"timeSlots" bson:"timeSlots" validate:"dive"`

	// DaysOfWeek restricts activation to given weekdays (0=Sunday).
	// Empty means every day.
	DaysOfWeek []int `json:"daysOfWeek" bson:"daysOfWeek" validate:"dive,min=0,max=6"`

	// Recurring indicates the schedule repeats weekly.
	Recurring bool `json:"recurring" bson:"recurring"`

	// Timezone is the IANA timezone name used for weekday and time-of-day
	// evaluation.
	Timezone string `json:"timezone" bson:"timezone" validate:"required,timezone"`
}

// TimeSlot is a daily window in local wall-clock time. Both bounds are
// inclusive.
type TimeSlot struct {
	// StartTime is the window start in HH:MM.
	StartTime string `json:"startTime" bson:"startTime" validate:"required,clocktime"`

	// EndTime is the window end in HH:MM. Must be after StartTime.
	EndTime string `json:"endTime" bson:"endTime" validate:"required,clocktime"`
}

// PlaylistSettings contains playback behavior options.
type PlaylistSettings struct {
	// Shuffle randomizes item order on playback.
	Shuffle bool `json:"shuffle" bson:"shuffle"`

	// Loop restarts the playlist when it completes.
	Loop bool `json:"loop" bson:"loop"`

	// AutoAdvance moves to the next item automatically.
	AutoAdvance bool `json:"autoAdvance" bson:"autoAdvance"`

	// PauseBetween is the pause between items in seconds.
	PauseBetween int `json:"pauseBetween" bson:"pauseBetween" validate:"min=0,max=300"`
}

// PlaylistAnalytics holds aggregated playback statistics for a playlist.
type PlaylistAnalytics struct {
	// TotalPlays is the number of playback events recorded.
	TotalPlays int64 `json:"totalPlays" bson:"totalPlays"`

	// AvgPlayDuration is the running mean playback duration in seconds.
	AvgPlayDuration float64 `json:"avgPlayDuration" bson:"avgPlayDuration"`

	// PlayHistory is a bounded window of recent playback events, oldest
	// first. Capacity is PlayHistoryCapacity.
	PlayHistory []PlaybackEvent `json:"playHistory" bson:"playHistory"`

	// PopularItems ranks items by play count within the history window.
	PopularItems []ItemPopularity `json:"popularItems" bson:"popularItems"`

	// LastPlayed is the time of the most recent playback event.
	LastPlayed time.Time `json:"lastPlayed" bson:"lastPlayed"`
}

// PlaybackEvent records a single item playback on a screen.
type PlaybackEvent struct {
	// ItemID is the playlist item that was played.
	ItemID bson.ObjectID `json:"itemId" bson:"itemId"`

	// ScreenID is the screen that played it.
	ScreenID bson.ObjectID `json:"screenId" bson:"screenId"`

	// Duration is how long the item played in seconds.
	Duration int `json:"duration" bson:"duration"`

	// CompletionRate is the fraction of the item that played, 0 to 1.
	CompletionRate float64 `json:"completionRate" bson:"completionRate"`

	// PlayedAt is when playback was reported.
	PlayedAt time.Time `json:"playedAt" bson:"playedAt"`
}

// ItemPopularity is a play-count ranking entry.
type ItemPopularity struct {
	// ItemID is the ranked playlist item.
	ItemID bson.ObjectID `json:"itemId" bson:"itemId"`

	// PlayCount is the number of plays within the history window.
	PlayCount int `json:"playCount" bson:"playCount"`

	// LastPlayed is the most recent play, used to break count ties.
	LastPlayed time.Time `json:"lastPlayed" bson:"lastPlayed"`
}

// PlaylistInfo is a summary of a playlist for listings.
type PlaylistInfo struct {
	ID              bson.ObjectID `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Owner           bson.ObjectID `json:"owner"`
	TotalItems      int           `json:"totalItems"`
	TotalDuration   int           `json:"totalDuration"`
	AssignedScreens int           `json:"assignedScreens"`
	Tags            []string      `json:"tags"`
	HasSchedule     bool          `json:"hasSchedule"`
	Version         int64         `json:"version"`
	IsArchived      bool          `json:"isArchived"`
	LastModified    time.Time     `json:"lastModified"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ToPlaylistInfo converts a Playlist to its listing summary.
func (p *Playlist) ToPlaylistInfo() PlaylistInfo {
	return PlaylistInfo{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Owner:           p.Owner,
		TotalItems:      p.TotalItems,
		TotalDuration:   p.TotalDuration,
		AssignedScreens: len(p.AssignedScreens),
		Tags:            p.Tags,
		HasSchedule:     p.Schedule != nil,
		Version:         p.Version,
		IsArchived:      p.IsArchived,
		LastModified:    p.LastModified,
		CreatedAt:       p.CreatedAt,
	}
}

// ItemByID returns the item with the given ID, or nil if absent.
func (p *Playlist) ItemByID(itemID bson.ObjectID) *PlaylistItem {
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			return &p.Items[i]
		}
	}
	return nil
}

// PermissionFor returns the effective permission of a user on the playlist,
// or an empty string when the user has no access. The owner always has
// admin permission.
func (p *Playlist) PermissionFor(userID bson.ObjectID) string {
	if p.Owner == userID {
		return PermissionAdmin
	}
	for _, c := range p.Collaborators {
		if c.UserID == userID {
			return c.Permission
		}
	}
	return ""
}

// CanEdit reports whether the user may mutate playlist content.
func (p *Playlist) CanEdit(userID bson.ObjectID) bool {
	perm := p.PermissionFor(userID)
	return perm == PermissionEdit || perm == PermissionAdmin
}

// CanAdminister reports whether the user may archive, duplicate or manage
// collaborators and screens.
func (p *Playlist) CanAdminister(userID bson.ObjectID) bool {
	return p.PermissionFor(userID) == PermissionAdmin
}

// CanView reports whether the user may read the playlist.
func (p *Playlist) CanView(userID bson.ObjectID) bool {
	return p.PermissionFor(userID) != ""
}

// ScheduleState describes the activation status of a playlist schedule.
type ScheduleState string

// Schedule activation states.
const (
	ScheduleNoSchedule ScheduleState = "no_schedule"
	SchedulePending    ScheduleState = "pending"
	ScheduleActive     ScheduleState = "active"
	ScheduleInactive   ScheduleState = "inactive"
	ScheduleExpired    ScheduleState = "expired"
)

// ScheduleStatus pairs a schedule state with a human-readable message.
type ScheduleStatus struct {
	// State is the activation state.
	State ScheduleState `json:"state"`

	// Message explains the state to an operator.
	Message string `json:"message"`

	// EvaluatedAt is the instant the evaluation was performed.
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// PlaylistCreateRequest represents the data needed to create a new playlist.
type PlaylistCreateRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=100"`
	Description string            `json:"description" validate:"max=1000"`
	Tags        []string          `json:"tags" validate:"dive,max=30"`
	Settings    *PlaylistSettings `json:"settings,omitempty"`
	Schedule    *Schedule         `json:"schedule,omitempty"`
}

// PlaylistUpdateRequest represents a metadata update. Nil fields are left
// unchanged.
type PlaylistUpdateRequest struct {
	Name          *string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description   *string           `json:"description,omitempty" validate:"omitempty,max=1000"`
	Tags          []string          `json:"tags,omitempty" validate:"omitempty,dive,max=30"`
	Settings      *PlaylistSettings `json:"settings,omitempty"`
	Schedule      *Schedule         `json:"schedule,omitempty"`
	ClearSchedule bool              `json:"clearSchedule,omitempty"`
}

// PlaylistAddItemRequest represents the data needed to add an item.
type PlaylistAddItemRequest struct {
	MediaID    bson.ObjectID      `json:"mediaId" validate:"required"`
	Position   *int               `json:"position,omitempty"`
	Duration   *int               `json:"duration,omitempty" validate:"omitempty,min=1"`
	Transition *Transition        `json:"transition,omitempty"`
	Conditions []DisplayCondition `json:"conditions,omitempty" validate:"omitempty,dive"`
	Notes      string             `json:"notes,omitempty" validate:"max=500"`
}

// OrderUpdate assigns a new order value to an existing item.
type OrderUpdate struct {
	// ItemID is the item to move.
	ItemID bson.ObjectID `json:"itemId" validate:"required"`

	// Order is the requested position.
	Order int `json:"order" validate:"min=0"`
}

// PlaylistReorderRequest replaces the complete ordering of a playlist.
// ItemIDs must be an exact permutation of the playlist's current items.
type PlaylistReorderRequest struct {
	ItemIDs []bson.ObjectID `json:"itemIds" validate:"required,min=1"`
}

// PlaylistReorderPartialRequest moves a subset of items to new positions.
type PlaylistReorderPartialRequest struct {
	Updates []OrderUpdate `json:"updates" validate:"required,min=1,dive"`
}

// PlaylistSearchCriteria represents the criteria for listing playlists.
type PlaylistSearchCriteria struct {
	// Query matches against name and description.
	Query string `json:"query"`

	// Tags filters to playlists carrying all given tags.
	Tags []string `json:"tags"`

	// ScreenID filters to playlists assigned to the screen.
	ScreenID bson.ObjectID `json:"screenId,omitempty"`

	// OwnerID filters by owner.
	OwnerID bson.ObjectID `json:"ownerId,omitempty"`

	// IncludeArchived includes archived playlists when true.
	IncludeArchived bool `json:"includeArchived"`

	// SortBy is the field to sort by (name, createdAt, lastModified).
	SortBy string `json:"sortBy"`

	// SortDirection is asc or desc.
	SortDirection string `json:"sortDirection"`

	// Page is the page number for pagination.
	Page int `json:"page"`

	// Limit is the number of results per page.
	Limit int `json:"limit"`
}

// PlaybackReport is a display client's report of a completed item playback.
type PlaybackReport struct {
	PlaylistID     bson.ObjectID `json:"playlistId" validate:"required"`
	ItemID         bson.ObjectID `json:"itemId" validate:"required"`
	ScreenID       bson.ObjectID `json:"screenId" validate:"required"`
	Duration       int           `json:"duration" validate:"min=0"`
	CompletionRate float64       `json:"completionRate" validate:"min=0,max=1"`
}
