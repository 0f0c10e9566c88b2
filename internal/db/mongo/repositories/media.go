// Package repositories contains MongoDB repository implementations.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/utils"
)

// Collection name
const (
	mediaCollection = "media"
)

// MediaRepository defines the interface for media catalog data access.
type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Media, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Media, error)
	FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Media, error)
	Update(ctx context.Context, media *models.Media) error
	Delete(ctx context.Context, id bson.ObjectID) error
	Search(ctx context.Context, query string, mediaType string, skip, limit int) ([]*models.Media, int64, error)
}

// mediaRepository is the MongoDB implementation of MediaRepository.
type mediaRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewMediaRepository creates a new instance of MediaRepository.
func NewMediaRepository(db *mongo.Database, logger *utils.Logger) MediaRepository {
	return &mediaRepository{
		collection: db.Collection(mediaCollection),
		logger:     logger.Named("media_repository"),
	}
}

// Create creates a new media catalog entry.
func (r *mediaRepository) Create(ctx context.Context, media *models.Media) error {
	if media.ID.IsZero() {
		media.ID = bson.NewObjectID()
	}
	media.TimeCreate(time.Now())

	_, err := r.collection.InsertOne(ctx, media)
	if err != nil {
		r.logger.Error("Failed to create media", err, "type", media.Type, "title", media.Title)
		return models.NewInternalError(err, "Failed to create media")
	}

	return nil
}

// FindByID finds a media item by its ID.
func (r *mediaRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Media, error) {
	var media models.Media

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&media)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrMediaNotFound
		}
		r.logger.Error("Failed to find media by ID", err, "id", id.Hex())
		return nil, models.NewInternalError(err, "Failed to find media")
	}

	return &media, nil
}

// FindByIDs finds the media items with the given IDs. Missing IDs are
// silently skipped.
func (r *mediaRepository) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.FindMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// FindMany finds multiple media items based on query filters.
func (r *mediaRepository) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Media, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find media", err, "filter", filter)
		return nil, models.NewInternalError(err, "Failed to find media")
	}
	defer cursor.Close(ctx)

	var media []*models.Media
	if err = cursor.All(ctx, &media); err != nil {
		r.logger.Error("Failed to decode media", err)
		return nil, models.NewInternalError(err, "Failed to decode media")
	}

	return media, nil
}

// Update updates an existing media item.
func (r *mediaRepository) Update(ctx context.Context, media *models.Media) error {
	media.UpdateNow()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": media.ID}, media)
	if err != nil {
		r.logger.Error("Failed to update media", err, "id", media.ID.Hex())
		return models.NewInternalError(err, "Failed to update media")
	}

	if result.MatchedCount == 0 {
		return models.ErrMediaNotFound
	}

	return nil
}

// Delete removes a media item by its ID.
func (r *mediaRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete media", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to delete media")
	}

	if result.DeletedCount == 0 {
		return models.ErrMediaNotFound
	}

	return nil
}

// Search finds catalog entries matching a text query and optional type.
func (r *mediaRepository) Search(ctx context.Context, query string, mediaType string, skip, limit int) ([]*models.Media, int64, error) {
	filter := bson.M{}
	if query != "" {
		filter["$text"] = bson.M{"$search": query}
	}
	if mediaType != "" {
		filter["type"] = mediaType
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count media", err, "filter", filter)
		return nil, 0, models.NewInternalError(err, "Failed to count media")
	}

	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	media, err := r.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return media, total, nil
}
