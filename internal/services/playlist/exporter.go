// Package playlist provides playlist management services.
package playlist

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/services/media"
	"castlane.dev/signcast/backend/internal/utils"
)

// documentFormatVersion identifies the portable document layout. Bump when
// the layout changes incompatibly.
const documentFormatVersion = 1

// PlaylistDocument is a portable, self-contained representation of a
// playlist. It carries the referenced media metadata inline so the document
// can be imported into a deployment with a different catalog.
type PlaylistDocument struct {
	// FormatVersion is the document layout version.
	FormatVersion int `json:"formatVersion" validate:"required"`

	// ExportedAt is when the document was produced.
	ExportedAt time.Time `json:"exportedAt"`

	// Name is the playlist name.
	Name string `json:"name" validate:"required,min=1,max=100"`

	// Description is the playlist description.
	Description string `json:"description" validate:"max=1000"`

	// Tags are the playlist's keywords.
	Tags []string `json:"tags" validate:"dive,max=30"`

	// Settings are the playback behavior options.
	Settings models.PlaylistSettings `json:"settings"`

	// Schedule controls when the playlist is active.
	Schedule *models.Schedule `json:"schedule,omitempty"`

	// Items are the playlist items in order.
	Items []DocumentItem `json:"items" validate:"dive"`
}

// DocumentItem is one playlist item with its media metadata inlined.
type DocumentItem struct {
	// Media metadata, enough to recreate the catalog entry.
	Title       string   `json:"title" validate:"required,max=200"`
	Type        string   `json:"type" validate:"required,oneof=image video web"`
	URL         string   `json:"url" validate:"required,url"`
	Duration    int      `json:"duration" validate:"min=1,max=86400"`
	Resolution  string   `json:"resolution,omitempty" validate:"omitempty,resolution"`
	ContentType string   `json:"contentType,omitempty"`
	MediaTags   []string `json:"mediaTags" validate:"dive,max=30"`

	// Item-level configuration.
	DurationOverride *int                      `json:"durationOverride,omitempty" validate:"omitempty,min=1"`
	Transition       models.Transition         `json:"transition"`
	Conditions       []models.DisplayCondition `json:"conditions,omitempty" validate:"omitempty,dive"`
	Notes            string                    `json:"notes,omitempty" validate:"max=500"`
}

// ExportService converts playlists to and from portable documents. Export
// requires view access on the source playlist; import creates a new playlist
// owned by the importing user and registers any media the catalog does not
// already hold.
type ExportService struct {
	manager *Manager
	catalog *media.Catalog
	logger  *utils.Logger
}

// NewExportService creates a new export service.
func NewExportService(manager *Manager, catalog *media.Catalog, logger *utils.Logger) *ExportService {
	return &ExportService{
		manager: manager,
		catalog: catalog,
		logger:  logger.Named("playlist_export"),
	}
}

// Export produces a portable document for a playlist. Items whose media is
// no longer in the catalog are skipped.
func (s *ExportService) Export(ctx context.Context, actor, id bson.ObjectID) (*PlaylistDocument, error) {
	p, err := s.manager.GetPlaylist(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	doc := &PlaylistDocument{
		FormatVersion: documentFormatVersion,
		ExportedAt:    time.Now(),
		Name:          p.Name,
		Description:   p.Description,
		Tags:          p.Tags,
		Settings:      p.Settings,
		Schedule:      p.Schedule,
		Items:         make([]DocumentItem, 0, len(p.Items)),
	}

	for _, item := range p.Items {
		m, err := s.catalog.Get(ctx, item.MediaID)
		if err != nil {
			if errors.Is(err, models.ErrMediaNotFound) {
				s.logger.Warn("Skipping item with missing media",
					"playlistId", id.Hex(), "mediaId", item.MediaID.Hex())
				continue
			}
			return nil, err
		}

		doc.Items = append(doc.Items, DocumentItem{
			Title:            m.Title,
			Type:             m.Type,
			URL:              m.URL,
			Duration:         m.Duration,
			Resolution:       m.Resolution,
			ContentType:      m.ContentType,
			MediaTags:        m.Tags,
			DurationOverride: item.Duration,
			Transition:       item.Transition,
			Conditions:       item.Conditions,
			Notes:            item.Notes,
		})
	}

	s.logger.Info("Exported playlist", "playlistId", id.Hex(), "items", len(doc.Items))
	return doc, nil
}

// Import creates a new playlist from a portable document. The optional name
// overrides the document's name. Media is matched to existing catalog
// entries by URL and registered when absent.
func (s *ExportService) Import(ctx context.Context, actor bson.ObjectID, doc *PlaylistDocument, name string) (*models.Playlist, error) {
	if doc.FormatVersion != documentFormatVersion {
		return nil, models.NewValidationError(nil, "unsupported document format version")
	}

	if name == "" {
		name = doc.Name
	}

	created, err := s.manager.CreatePlaylist(ctx, actor, models.PlaylistCreateRequest{
		Name:        name,
		Description: doc.Description,
		Tags:        doc.Tags,
		Settings:    &doc.Settings,
		Schedule:    doc.Schedule,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range doc.Items {
		mediaID, err := s.resolveMedia(ctx, actor, item)
		if err != nil {
			return nil, err
		}

		transition := item.Transition
		created, _, err = s.manager.AddItem(ctx, actor, created.ID, models.PlaylistAddItemRequest{
			MediaID:    mediaID,
			Duration:   item.DurationOverride,
			Transition: &transition,
			Conditions: item.Conditions,
			Notes:      item.Notes,
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("Imported playlist", "playlistId", created.ID.Hex(), "items", len(doc.Items))
	return created, nil
}

// resolveMedia finds an existing catalog entry by URL or registers a new one
// from the document metadata.
func (s *ExportService) resolveMedia(ctx context.Context, actor bson.ObjectID, item DocumentItem) (bson.ObjectID, error) {
	existing, err := s.catalog.FindByURL(ctx, item.URL)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, models.ErrMediaNotFound) {
		return bson.NilObjectID, err
	}

	registered, err := s.catalog.Register(ctx, actor, models.MediaCreateRequest{
		Type:        item.Type,
		Title:       item.Title,
		URL:         item.URL,
		Duration:    item.Duration,
		Resolution:  item.Resolution,
		ContentType: item.ContentType,
		Tags:        item.MediaTags,
	})
	if err != nil {
		return bson.NilObjectID, err
	}
	return registered.ID, nil
}
