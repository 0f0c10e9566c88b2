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
	playlistCollection = "playlists"
)

// PlaylistRepository defines the interface for playlist data access
// operations. Mutations go through Save, which enforces optimistic
// concurrency on the aggregate's version field.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Playlist, error)
	FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Playlist, error)

	// Save replaces the stored document if and only if its version still
	// matches the version the caller loaded, then bumps the version by one.
	// Returns models.ErrStaleVersion when the document moved on.
	Save(ctx context.Context, playlist *models.Playlist) error

	// NameExists reports whether the owner already has a non-archived
	// playlist with the given name, excluding the given playlist ID.
	NameExists(ctx context.Context, owner bson.ObjectID, name string, exclude bson.ObjectID) (bool, error)

	FindByScreen(ctx context.Context, screenID bson.ObjectID) ([]*models.Playlist, error)
	Search(ctx context.Context, viewer bson.ObjectID, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error)
	CountByOwner(ctx context.Context, owner bson.ObjectID) (int64, error)
}

// playlistRepository is the MongoDB implementation of PlaylistRepository.
type playlistRepository struct {
	collection *mongo.Collection
	logger     *utils.Logger
}

// NewPlaylistRepository creates a new instance of PlaylistRepository.
func NewPlaylistRepository(db *mongo.Database, logger *utils.Logger) PlaylistRepository {
	return &playlistRepository{
		collection: db.Collection(playlistCollection),
		logger:     logger.Named("playlist_repository"),
	}
}

// Create creates a new playlist.
func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID.IsZero() {
		playlist.ID = bson.NewObjectID()
	}

	now := time.Now()
	playlist.TimeCreate(now)
	if playlist.Version == 0 {
		playlist.Version = 1
	}
	if playlist.LastModified.IsZero() {
		playlist.LastModified = now
	}
	if playlist.Items == nil {
		playlist.Items = []models.PlaylistItem{}
	}
	if playlist.Collaborators == nil {
		playlist.Collaborators = []models.Collaborator{}
	}
	if playlist.AssignedScreens == nil {
		playlist.AssignedScreens = []bson.ObjectID{}
	}

	_, err := r.collection.InsertOne(ctx, playlist)
	if err != nil {
		r.logger.Error("Failed to create playlist", err, "owner", playlist.Owner.Hex(), "name", playlist.Name)
		return models.NewInternalError(err, "Failed to create playlist")
	}

	return nil
}

// FindByID finds a playlist by its ID.
func (r *playlistRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Playlist, error) {
	var playlist models.Playlist

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&playlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrPlaylistNotFound
		}
		r.logger.Error("Failed to find playlist by ID", err, "id", id.Hex())
		return nil, models.NewInternalError(err, "Failed to find playlist")
	}

	return &playlist, nil
}

// FindMany finds multiple playlists based on query filters.
func (r *playlistRepository) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Playlist, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find playlists", err, "filter", filter)
		return nil, models.NewInternalError(err, "Failed to find playlists")
	}
	defer cursor.Close(ctx)

	var playlists []*models.Playlist
	if err = cursor.All(ctx, &playlists); err != nil {
		r.logger.Error("Failed to decode playlists", err)
		return nil, models.NewInternalError(err, "Failed to decode playlists")
	}

	return playlists, nil
}

// Save replaces the stored playlist under an optimistic concurrency check.
// The caller's in-memory copy carries the version it loaded; the replace
// matches on {_id, version} and writes version+1. A matched count of zero
// means either the playlist is gone or someone else saved first.
func (r *playlistRepository) Save(ctx context.Context, playlist *models.Playlist) error {
	expected := playlist.Version
	playlist.Version = expected + 1

	result, err := r.collection.ReplaceOne(ctx, bson.M{
		"_id":     playlist.ID,
		"version": expected,
	}, playlist)
	if err != nil {
		playlist.Version = expected
		r.logger.Error("Failed to save playlist", err, "id", playlist.ID.Hex())
		return models.NewInternalError(err, "Failed to save playlist")
	}

	if result.MatchedCount == 0 {
		playlist.Version = expected

		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": playlist.ID})
		if countErr != nil {
			r.logger.Error("Failed to check playlist existence", countErr, "id", playlist.ID.Hex())
			return models.NewInternalError(countErr, "Failed to save playlist")
		}
		if count == 0 {
			return models.ErrPlaylistNotFound
		}
		return models.NewConflictError(models.ErrStaleVersion, "", map[string]any{
			"playlistId":      playlist.ID.Hex(),
			"expectedVersion": expected,
		})
	}

	return nil
}

// NameExists reports whether the owner already has a non-archived playlist
// with the given name.
func (r *playlistRepository) NameExists(ctx context.Context, owner bson.ObjectID, name string, exclude bson.ObjectID) (bool, error) {
	filter := bson.M{
		"owner":      owner,
		"name":       name,
		"isArchived": false,
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to check playlist name", err, "owner", owner.Hex(), "name", name)
		return false, models.NewInternalError(err, "Failed to check playlist name")
	}

	return count > 0, nil
}

// FindByScreen finds non-archived playlists assigned to a screen.
func (r *playlistRepository) FindByScreen(ctx context.Context, screenID bson.ObjectID) ([]*models.Playlist, error) {
	filter := bson.M{
		"assignedScreens": screenID,
		"isArchived":      false,
	}
	opts := options.Find().SetSort(bson.M{"lastModified": -1})

	return r.FindMany(ctx, filter, opts)
}

// Search finds playlists matching the criteria that the viewer owns or
// collaborates on. Archived playlists are excluded unless requested.
func (r *playlistRepository) Search(ctx context.Context, viewer bson.ObjectID, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	filter := bson.M{}

	if !viewer.IsZero() {
		filter["$or"] = bson.A{
			bson.M{"owner": viewer},
			bson.M{"collaborators.userId": viewer},
		}
	}

	if !criteria.IncludeArchived {
		filter["isArchived"] = false
	}

	if !criteria.OwnerID.IsZero() {
		filter["owner"] = criteria.OwnerID
	}

	if !criteria.ScreenID.IsZero() {
		filter["assignedScreens"] = criteria.ScreenID
	}

	if len(criteria.Tags) > 0 {
		filter["tags"] = bson.M{"$all": criteria.Tags}
	}

	if criteria.Query != "" {
		filter["$text"] = bson.M{"$search": criteria.Query}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count playlists", err, "filter", filter)
		return nil, 0, models.NewInternalError(err, "Failed to count playlists")
	}

	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.Limit < 1 || criteria.Limit > 100 {
		criteria.Limit = 20
	}
	skip := (criteria.Page - 1) * criteria.Limit

	sort := searchSort(criteria)

	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(criteria.Limit)).
		SetSort(sort)

	if criteria.Query != "" {
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
	}

	playlists, err := r.FindMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return playlists, total, nil
}

// CountByOwner counts the number of playlists owned by a user.
// searchSort builds the sort document for Search. Each sort field has its
// own natural default direction; an explicit SortDirection overrides it.
// Text queries sort by relevance first, alone unless a field was requested.
func searchSort(criteria models.PlaylistSearchCriteria) bson.M {
	sort := bson.M{}
	if criteria.Query != "" {
		sort["score"] = bson.M{"$meta": "textScore"}
	}

	field := "lastModified"
	direction := -1
	switch criteria.SortBy {
	case "name":
		field, direction = "name", 1
	case "created":
		field, direction = "createdAt", -1
	case "items":
		field, direction = "totalItems", -1
	default:
		if criteria.Query != "" {
			return sort
		}
	}

	switch criteria.SortDirection {
	case "asc":
		direction = 1
	case "desc":
		direction = -1
	}

	sort[field] = direction
	return sort
}

func (r *playlistRepository) CountByOwner(ctx context.Context, owner bson.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"owner": owner, "isArchived": false})
	if err != nil {
		r.logger.Error("Failed to count playlists", err, "owner", owner.Hex())
		return 0, models.NewInternalError(err, "Failed to count playlists")
	}

	return count, nil
}
