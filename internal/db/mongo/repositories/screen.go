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
	screenCollection = "screens"
)

// ScreenRepository defines the interface for screen data access operations.
type ScreenRepository interface {
	Create(ctx context.Context, screen *models.Screen) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Screen, error)
	FindByName(ctx context.Context, name string) (*models.Screen, error)
	FindAll(ctx context.Context) ([]*models.Screen, error)
	Update(ctx context.Context, screen *models.Screen) error
	Delete(ctx context.Context, id bson.ObjectID) error

	// UpdateHeartbeat records a heartbeat and the reported status.
	UpdateHeartbeat(ctx context.Context, id bson.ObjectID, status string, at time.Time) error

	// MarkOfflineBefore flags screens whose last heartbeat predates the
	// cutoff, returning the IDs that changed.
	MarkOfflineBefore(ctx context.Context, cutoff time.Time) ([]bson.ObjectID, error)
}

// screenRepository is the MongoDB implementation of ScreenRepository.
type screenRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewScreenRepository creates a new instance of ScreenRepository.
func NewScreenRepository(db *mongo.Database, logger *utils.Logger) ScreenRepository {
	return &screenRepository{
		collection: db.Collection(screenCollection),
		logger:     logger.Named("screen_repository"),
	}
}

// Create creates a new screen.
func (r *screenRepository) Create(ctx context.Context, screen *models.Screen) error {
	if screen.ID.IsZero() {
		screen.ID = bson.NewObjectID()
	}
	screen.TimeCreate(time.Now())
	if screen.Status == "" {
		screen.Status = models.ScreenStatusOffline
	}

	_, err := r.collection.InsertOne(ctx, screen)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrScreenAlreadyExists
		}
		r.logger.Error("Failed to create screen", err, "name", screen.Name)
		return models.NewInternalError(err, "Failed to create screen")
	}

	return nil
}

// FindByID finds a screen by its ID.
func (r *screenRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Screen, error) {
	var screen models.Screen

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&screen)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrScreenNotFound
		}
		r.logger.Error("Failed to find screen by ID", err, "id", id.Hex())
		return nil, models.NewInternalError(err, "Failed to find screen")
	}

	return &screen, nil
}

// FindByName finds a screen by its unique name.
func (r *screenRepository) FindByName(ctx context.Context, name string) (*models.Screen, error) {
	var screen models.Screen

	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&screen)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrScreenNotFound
		}
		r.logger.Error("Failed to find screen by name", err, "name", name)
		return nil, models.NewInternalError(err, "Failed to find screen")
	}

	return &screen, nil
}

// FindAll returns all registered screens.
func (r *screenRepository) FindAll(ctx context.Context) ([]*models.Screen, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		r.logger.Error("Failed to find screens", err)
		return nil, models.NewInternalError(err, "Failed to find screens")
	}
	defer cursor.Close(ctx)

	var screens []*models.Screen
	if err = cursor.All(ctx, &screens); err != nil {
		r.logger.Error("Failed to decode screens", err)
		return nil, models.NewInternalError(err, "Failed to decode screens")
	}

	return screens, nil
}

// Update updates an existing screen.
func (r *screenRepository) Update(ctx context.Context, screen *models.Screen) error {
	screen.UpdateNow()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": screen.ID}, screen)
	if err != nil {
		r.logger.Error("Failed to update screen", err, "id", screen.ID.Hex())
		return models.NewInternalError(err, "Failed to update screen")
	}

	if result.MatchedCount == 0 {
		return models.ErrScreenNotFound
	}

	return nil
}

// Delete removes a screen by its ID.
func (r *screenRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete screen", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to delete screen")
	}

	if result.DeletedCount == 0 {
		return models.ErrScreenNotFound
	}

	return nil
}

// UpdateHeartbeat records a heartbeat and the reported status.
func (r *screenRepository) UpdateHeartbeat(ctx context.Context, id bson.ObjectID, status string, at time.Time) error {
	if status == "" {
		status = models.ScreenStatusOnline
	}

	update := bson.D{
		cmdSet(bson.M{
			"status":        status,
			"lastHeartbeat": at,
			"updatedAt":     at,
		}),
	}

	result, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		r.logger.Error("Failed to update screen heartbeat", err, "id", id.Hex())
		return models.NewInternalError(err, "Failed to update screen heartbeat")
	}

	if result.MatchedCount == 0 {
		return models.ErrScreenNotFound
	}

	return nil
}

// MarkOfflineBefore flags screens whose last heartbeat predates the cutoff.
func (r *screenRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) ([]bson.ObjectID, error) {
	filter := bson.M{
		"status":        models.ScreenStatusOnline,
		"lastHeartbeat": bson.M{"$lt": cutoff},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		r.logger.Error("Failed to find stale screens", err)
		return nil, models.NewInternalError(err, "Failed to find stale screens")
	}
	defer cursor.Close(ctx)

	var stale []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &stale); err != nil {
		return nil, models.NewInternalError(err, "Failed to decode stale screens")
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]bson.ObjectID, len(stale))
	for i, s := range stale {
		ids[i] = s.ID
	}

	_, err = r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.D{cmdSet(bson.M{"status": models.ScreenStatusOffline, "updatedAt": time.Now()})},
	)
	if err != nil {
		r.logger.Error("Failed to mark screens offline", err)
		return nil, models.NewInternalError(err, "Failed to mark screens offline")
	}

	return ids, nil
}
