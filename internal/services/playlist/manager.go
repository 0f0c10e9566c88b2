// Package playlist provides playlist management services.
package playlist

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/db/mongo/repositories"
	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/utils"
)

// staleRetryAttempts bounds the reload-and-retry loop used when recording
// playback events against a concurrently edited playlist.
const staleRetryAttempts = 3

// MediaCatalog resolves catalog metadata for media referenced by playlist
// items.
type MediaCatalog interface {
	// GetMediaInfo returns catalog entries for the given IDs. Missing IDs
	// are absent from the result rather than an error.
	GetMediaInfo(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.MediaInfo, error)
}

// Manager handles playlist operations. All mutations follow the same path:
// load the aggregate, check permissions, validate and apply the change in
// memory, then save with the version that was read. A concurrent edit makes
// the save fail with models.ErrStaleVersion and nothing is merged.
type Manager struct {
	playlistRepo repositories.PlaylistRepository
	screenRepo   repositories.ScreenRepository
	catalog      MediaCatalog
	logger       *utils.Logger
}

// NewManager creates a new playlist manager.
func NewManager(
	playlistRepo repositories.PlaylistRepository,
	screenRepo repositories.ScreenRepository,
	catalog MediaCatalog,
	logger *utils.Logger,
) *Manager {
	return &Manager{
		playlistRepo: playlistRepo,
		screenRepo:   screenRepo,
		catalog:      catalog,
		logger:       logger.Named("playlist_manager"),
	}
}

// CreatePlaylist creates a new playlist owned by the given user. The name
// must be unique among the owner's non-archived playlists.
func (m *Manager) CreatePlaylist(ctx context.Context, owner bson.ObjectID, req models.PlaylistCreateRequest) (*models.Playlist, error) {
	m.logger.Debug("Creating playlist", "name", req.Name, "owner", owner.Hex())

	if err := ValidateSchedule(req.Schedule); err != nil {
		return nil, err
	}

	taken, err := m.playlistRepo.NameExists(ctx, owner, req.Name, bson.ObjectID{})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(models.ErrNameCollision, "", map[string]any{
			"name": req.Name,
		})
	}

	now := time.Now()
	playlist := &models.Playlist{
		Name:            req.Name,
		Description:     req.Description,
		Owner:           owner,
		Collaborators:   []models.Collaborator{},
		Items:           []models.PlaylistItem{},
		AssignedScreens: []bson.ObjectID{},
		Schedule:        req.Schedule,
		Tags:            req.Tags,
		Version:         1,
		LastModified:    now,
		ObjectTimes:     models.NewObjectTimes(now),
	}
	if req.Settings != nil {
		playlist.Settings = *req.Settings
	} else {
		playlist.Settings = models.PlaylistSettings{AutoAdvance: true, Loop: true}
	}

	if err := m.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, err
	}

	return playlist, nil
}

// GetPlaylist gets a playlist by ID, enforcing view permission.
func (m *Manager) GetPlaylist(ctx context.Context, actor, id bson.ObjectID) (*models.Playlist, error) {
	playlist, err := m.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !playlist.CanView(actor) {
		return nil, models.ErrAccessDenied
	}
	return playlist, nil
}

// SearchPlaylists lists playlists matching the criteria, limited to ones
// the actor can view.
func (m *Manager) SearchPlaylists(ctx context.Context, actor bson.ObjectID, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	return m.playlistRepo.Search(ctx, actor, criteria)
}

// UpdateMetadata applies a metadata update to a playlist.
func (m *Manager) UpdateMetadata(ctx context.Context, actor, id bson.ObjectID, req models.PlaylistUpdateRequest) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, editPermission, func(p *models.Playlist) error {
		if req.Name != nil && *req.Name != p.Name {
			taken, err := m.playlistRepo.NameExists(ctx, p.Owner, *req.Name, p.ID)
			if err != nil {
				return err
			}
			if taken {
				return models.NewConflictError(models.ErrNameCollision, "", map[string]any{
					"name": *req.Name,
				})
			}
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Tags != nil {
			p.Tags = req.Tags
		}
		if req.Settings != nil {
			p.Settings = *req.Settings
		}
		if req.ClearSchedule {
			p.Schedule = nil
		} else if req.Schedule != nil {
			if err := ValidateSchedule(req.Schedule); err != nil {
				return err
			}
			p.Schedule = req.Schedule
		}
		return nil
	})
}

// ArchivePlaylist soft-deletes a playlist. Only the owner or an admin
// collaborator may archive.
func (m *Manager) ArchivePlaylist(ctx context.Context, actor, id bson.ObjectID) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, adminPermission, func(p *models.Playlist) error {
		p.IsArchived = true
		return nil
	})
}

// RestorePlaylist clears the archived flag.
func (m *Manager) RestorePlaylist(ctx context.Context, actor, id bson.ObjectID) (*models.Playlist, error) {
	playlist, err := m.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !playlist.CanAdminister(actor) {
		return nil, models.ErrAccessDenied
	}

	playlist.IsArchived = false
	playlist.LastModified = time.Now()
	playlist.UpdateNow()
	if err := m.playlistRepo.Save(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// DuplicatePlaylist creates a copy of a playlist under a new name for the
// actor. Items and settings carry over; analytics, screen assignments and
// collaborators do not.
func (m *Manager) DuplicatePlaylist(ctx context.Context, actor, id bson.ObjectID, name string) (*models.Playlist, error) {
	source, err := m.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !source.CanView(actor) {
		return nil, models.ErrAccessDenied
	}

	if name == "" {
		name = source.Name + " (copy)"
	}
	taken, err := m.playlistRepo.NameExists(ctx, actor, name, bson.ObjectID{})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(models.ErrNameCollision, "", map[string]any{
			"name": name,
		})
	}

	now := time.Now()
	copied := &models.Playlist{
		Name:            name,
		Description:     source.Description,
		Owner:           actor,
		Collaborators:   []models.Collaborator{},
		Items:           make([]models.PlaylistItem, len(source.Items)),
		TotalDuration:   source.TotalDuration,
		TotalItems:      source.TotalItems,
		AssignedScreens: []bson.ObjectID{},
		Schedule:        source.Schedule,
		Settings:        source.Settings,
		Tags:            source.Tags,
		Version:         1,
		LastModified:    now,
		ObjectTimes:     models.NewObjectTimes(now),
	}
	for i, item := range source.Items {
		item.ID = bson.NewObjectID()
		item.AddedBy = actor
		item.AddedAt = now
		copied.Items[i] = item
	}

	if err := m.playlistRepo.Create(ctx, copied); err != nil {
		return nil, err
	}
	return copied, nil
}

// AddItem adds a media item to a playlist at an optional position.
func (m *Manager) AddItem(ctx context.Context, actor, id bson.ObjectID, req models.PlaylistAddItemRequest) (*models.Playlist, *models.PlaylistItem, error) {
	var added *models.PlaylistItem

	playlist, err := m.mutate(ctx, actor, id, editPermission, func(p *models.Playlist) error {
		infos, err := m.catalog.GetMediaInfo(ctx, []bson.ObjectID{req.MediaID})
		if err != nil {
			return err
		}
		if _, ok := infos[req.MediaID]; !ok {
			return models.ErrMediaNotFound
		}

		item := models.PlaylistItem{
			ID:         bson.NewObjectID(),
			MediaID:    req.MediaID,
			Duration:   req.Duration,
			Conditions: req.Conditions,
			Notes:      req.Notes,
			AddedBy:    actor,
			AddedAt:    time.Now(),
		}
		if req.Transition != nil {
			item.Transition = *req.Transition
		} else {
			item.Transition = models.Transition{Type: "cut"}
		}

		AddItem(p, item, req.Position)
		added = p.ItemByID(item.ID)
		return m.refreshTotals(ctx, p)
	})
	if err != nil {
		return nil, nil, err
	}

	return playlist, added, nil
}

// RemoveItem removes an item from a playlist.
func (m *Manager) RemoveItem(ctx context.Context, actor, playlistID, itemID bson.ObjectID) (*models.Playlist, error) {
	return m.mutate(ctx, actor, playlistID, editPermission, func(p *models.Playlist) error {
		if err := RemoveItem(p, itemID); err != nil {
			return err
		}
		return m.refreshTotals(ctx, p)
	})
}

// ReorderItems replaces the complete ordering of a playlist.
func (m *Manager) ReorderItems(ctx context.Context, actor, id bson.ObjectID, itemIDs []bson.ObjectID) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, editPermission, func(p *models.Playlist) error {
		return ReorderAll(p, itemIDs)
	})
}

// ReorderPartialItems moves a subset of items to new positions.
func (m *Manager) ReorderPartialItems(ctx context.Context, actor, id bson.ObjectID, updates []models.OrderUpdate) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, editPermission, func(p *models.Playlist) error {
		return ReorderPartial(p, updates)
	})
}

// AssignScreens adds screens to a playlist's assignment set. Every screen
// must exist; unknown screens fail the whole request.
func (m *Manager) AssignScreens(ctx context.Context, actor, id bson.ObjectID, screenIDs []bson.ObjectID) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, adminPermission, func(p *models.Playlist) error {
		for _, screenID := range screenIDs {
			if _, err := m.screenRepo.FindByID(ctx, screenID); err != nil {
				return err
			}
		}
		p.AssignedScreens = lo.Union(p.AssignedScreens, screenIDs)
		return nil
	})
}

// UnassignScreens removes screens from a playlist's assignment set.
func (m *Manager) UnassignScreens(ctx context.Context, actor, id bson.ObjectID, screenIDs []bson.ObjectID) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, adminPermission, func(p *models.Playlist) error {
		p.AssignedScreens = lo.Without(p.AssignedScreens, screenIDs...)
		return nil
	})
}

// AddCollaborator grants a user access to a playlist.
func (m *Manager) AddCollaborator(ctx context.Context, actor, id, userID bson.ObjectID, permission string) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, adminPermission, func(p *models.Playlist) error {
		if userID == p.Owner {
			return models.ErrCollaboratorOwner
		}
		for i := range p.Collaborators {
			if p.Collaborators[i].UserID == userID {
				p.Collaborators[i].Permission = permission
				return nil
			}
		}
		p.Collaborators = append(p.Collaborators, models.Collaborator{
			UserID:     userID,
			Permission: permission,
			AddedBy:    actor,
			AddedAt:    time.Now(),
		})
		return nil
	})
}

// RemoveCollaborator revokes a user's access to a playlist.
func (m *Manager) RemoveCollaborator(ctx context.Context, actor, id, userID bson.ObjectID) (*models.Playlist, error) {
	return m.mutate(ctx, actor, id, adminPermission, func(p *models.Playlist) error {
		before := len(p.Collaborators)
		p.Collaborators = lo.Reject(p.Collaborators, func(c models.Collaborator, _ int) bool {
			return c.UserID == userID
		})
		if len(p.Collaborators) == before {
			return models.ErrUserNotFound
		}
		return nil
	})
}

// GetScheduleStatus evaluates a playlist's schedule at the given instant.
func (m *Manager) GetScheduleStatus(ctx context.Context, actor, id bson.ObjectID, now time.Time) (*models.ScheduleStatus, error) {
	playlist, err := m.GetPlaylist(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	status := EvaluateSchedule(playlist.Schedule, now)
	return &status, nil
}

// GetAnalytics returns a playlist's aggregated playback statistics.
func (m *Manager) GetAnalytics(ctx context.Context, actor, id bson.ObjectID) (*models.PlaylistAnalytics, error) {
	playlist, err := m.GetPlaylist(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &playlist.Analytics, nil
}

// ActivePlaylistsForScreen returns the playlists assigned to a screen whose
// schedules are active at the given instant.
func (m *Manager) ActivePlaylistsForScreen(ctx context.Context, screenID bson.ObjectID, now time.Time) ([]*models.Playlist, error) {
	assigned, err := m.playlistRepo.FindByScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Playlist, 0, len(assigned))
	for _, p := range assigned {
		status := EvaluateSchedule(p.Schedule, now)
		if status.State == models.ScheduleActive || status.State == models.ScheduleNoSchedule {
			active = append(active, p)
		}
	}
	return active, nil
}

// RecordPlayback folds a playback report into the playlist's analytics.
// Analytics updates race with editor mutations, so a stale save reloads the
// aggregate and retries a bounded number of times before giving up.
func (m *Manager) RecordPlayback(ctx context.Context, report models.PlaybackReport) error {
	event := models.PlaybackEvent{
		ItemID:         report.ItemID,
		ScreenID:       report.ScreenID,
		Duration:       report.Duration,
		CompletionRate: report.CompletionRate,
		PlayedAt:       time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt < staleRetryAttempts; attempt++ {
		playlist, err := m.playlistRepo.FindByID(ctx, report.PlaylistID)
		if err != nil {
			return err
		}
		if playlist.ItemByID(report.ItemID) == nil {
			return models.ErrItemNotFound
		}

		RecordPlayback(&playlist.Analytics, event)
		playlist.LastModified = time.Now()
		playlist.UpdateNow()

		lastErr = m.playlistRepo.Save(ctx, playlist)
		if lastErr == nil {
			return nil
		}
		if !isStale(lastErr) {
			return lastErr
		}
	}

	m.logger.Warn("Dropping playback report after repeated version conflicts",
		"playlistId", report.PlaylistID.Hex(), "itemId", report.ItemID.Hex())
	return lastErr
}

type permissionCheck func(p *models.Playlist, actor bson.ObjectID) bool

func editPermission(p *models.Playlist, actor bson.ObjectID) bool {
	return p.CanEdit(actor)
}

func adminPermission(p *models.Playlist, actor bson.ObjectID) bool {
	return p.CanAdminister(actor)
}

// mutate runs the load-check-apply-save cycle shared by all mutations.
func (m *Manager) mutate(ctx context.Context, actor, id bson.ObjectID, allowed permissionCheck, apply func(p *models.Playlist) error) (*models.Playlist, error) {
	playlist, err := m.playlistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowed(playlist, actor) {
		return nil, models.ErrAccessDenied
	}
	if playlist.IsArchived {
		return nil, models.NewPlaylistError(models.ErrPlaylistArchived, "", http.StatusConflict)
	}

	if err := apply(playlist); err != nil {
		return nil, err
	}

	playlist.LastModified = time.Now()
	playlist.UpdateNow()
	if err := m.playlistRepo.Save(ctx, playlist); err != nil {
		return nil, err
	}

	return playlist, nil
}

// refreshTotals recomputes item counts and durations from catalog data.
func (m *Manager) refreshTotals(ctx context.Context, p *models.Playlist) error {
	ids := lo.Uniq(lo.Map(p.Items, func(item models.PlaylistItem, _ int) bson.ObjectID {
		return item.MediaID
	}))
	infos, err := m.catalog.GetMediaInfo(ctx, ids)
	if err != nil {
		return err
	}

	durations := make(map[bson.ObjectID]int, len(infos))
	for id, info := range infos {
		durations[id] = info.Duration
	}
	RecalculateTotals(p, durations)
	return nil
}

func isStale(err error) bool {
	return errors.Is(err, models.ErrStaleVersion)
}
