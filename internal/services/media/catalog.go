// Package media provides the media catalog service.
package media

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"castlane.dev/signcast/backend/internal/db/mongo/repositories"
	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/utils"
)

// Catalog exposes the media catalog: descriptive metadata for content that
// playlists reference by ID. Binary storage and transcoding live elsewhere;
// the catalog only answers lookups.
type Catalog struct {
	mediaRepo repositories.MediaRepository
	logger    *utils.Logger
}

// NewCatalog creates a new media catalog service.
func NewCatalog(mediaRepo repositories.MediaRepository, logger *utils.Logger) *Catalog {
	return &Catalog{
		mediaRepo: mediaRepo,
		logger:    logger.Named("media_catalog"),
	}
}

// Register adds a catalog entry.
func (c *Catalog) Register(ctx context.Context, actor bson.ObjectID, req models.MediaCreateRequest) (*models.Media, error) {
	media := &models.Media{
		Type:        req.Type,
		Title:       req.Title,
		URL:         req.URL,
		Duration:    req.Duration,
		Resolution:  req.Resolution,
		ContentType: req.ContentType,
		Tags:        req.Tags,
		AddedBy:     actor,
		ObjectTimes: models.NewObjectTimes(time.Now()),
	}

	if err := c.mediaRepo.Create(ctx, media); err != nil {
		return nil, err
	}

	c.logger.Info("Registered media", "id", media.ID.Hex(), "type", media.Type, "title", media.Title)
	return media, nil
}

// Get returns a single catalog entry.
func (c *Catalog) Get(ctx context.Context, id bson.ObjectID) (*models.Media, error) {
	return c.mediaRepo.FindByID(ctx, id)
}

// GetMediaInfo returns catalog lookups for the given IDs. IDs missing from
// the catalog are absent from the result.
func (c *Catalog) GetMediaInfo(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.MediaInfo, error) {
	media, err := c.mediaRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	infos := make(map[bson.ObjectID]models.MediaInfo, len(media))
	for _, m := range media {
		infos[m.ID] = m.ToMediaInfo()
	}
	return infos, nil
}

// FindByURL returns the catalog entry with the given URL, or
// models.ErrMediaNotFound when none exists.
func (c *Catalog) FindByURL(ctx context.Context, url string) (*models.Media, error) {
	matches, err := c.mediaRepo.FindMany(ctx, bson.M{"url": url}, options.Find().SetLimit(1))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, models.ErrMediaNotFound
	}
	return matches[0], nil
}

// Search finds catalog entries matching a text query and optional type.
func (c *Catalog) Search(ctx context.Context, query, mediaType string, skip, limit int) ([]*models.Media, int64, error) {
	return c.mediaRepo.Search(ctx, query, mediaType, skip, limit)
}

// Update replaces a catalog entry's metadata.
func (c *Catalog) Update(ctx context.Context, media *models.Media) error {
	return c.mediaRepo.Update(ctx, media)
}

// Remove deletes a catalog entry. Playlist items referencing it keep their
// reference; their effective duration falls back to the item override.
func (c *Catalog) Remove(ctx context.Context, id bson.ObjectID) error {
	return c.mediaRepo.Delete(ctx, id)
}
