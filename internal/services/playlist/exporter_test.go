package playlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/services/media"
	"castlane.dev/signcast/backend/internal/utils"
)

// fakeMediaRepo is an in-memory MediaRepository backing the real catalog
// service in export tests.
type fakeMediaRepo struct {
	media map[bson.ObjectID]*models.Media
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{media: make(map[bson.ObjectID]*models.Media)}
}

func (r *fakeMediaRepo) Create(ctx context.Context, m *models.Media) error {
	if m.ID.IsZero() {
		m.ID = bson.NewObjectID()
	}
	r.media[m.ID] = m
	return nil
}

func (r *fakeMediaRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Media, error) {
	m, ok := r.media[id]
	if !ok {
		return nil, models.ErrMediaNotFound
	}
	return m, nil
}

func (r *fakeMediaRepo) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Media, error) {
	var result []*models.Media
	for _, id := range ids {
		if m, ok := r.media[id]; ok {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeMediaRepo) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Media, error) {
	var result []*models.Media
	url, _ := filter["url"].(string)
	for _, m := range r.media {
		if url != "" && m.URL != url {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (r *fakeMediaRepo) Update(ctx context.Context, m *models.Media) error { return nil }

func (r *fakeMediaRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	delete(r.media, id)
	return nil
}

func (r *fakeMediaRepo) Search(ctx context.Context, query string, mediaType string, skip, limit int) ([]*models.Media, int64, error) {
	return nil, 0, nil
}

type exportFixture struct {
	service   *ExportService
	manager   *Manager
	mediaRepo *fakeMediaRepo
	owner     bson.ObjectID
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	mediaRepo := newFakeMediaRepo()
	catalog := media.NewCatalog(mediaRepo, logger)
	manager := NewManager(newFakePlaylistRepo(), newFakeScreenRepo(), catalog, logger)
	return &exportFixture{
		service:   NewExportService(manager, catalog, logger),
		manager:   manager,
		mediaRepo: mediaRepo,
		owner:     bson.NewObjectID(),
	}
}

func (f *exportFixture) registerMedia(t *testing.T, title, url string, duration int) *models.Media {
	t.Helper()
	m := &models.Media{
		Type:        "image",
		Title:       title,
		URL:         url,
		Duration:    duration,
		ObjectTimes: models.NewObjectTimes(time.Now()),
	}
	require.NoError(t, f.mediaRepo.Create(context.Background(), m))
	return m
}

func TestExportInlinesMediaMetadata(t *testing.T) {
	f := newExportFixture(t)
	m := f.registerMedia(t, "Welcome slide", "https://cdn.example.com/welcome.png", 15)

	p, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{
		Name:        "Lobby loop",
		Description: "Entrance hall rotation",
		Tags:        []string{"lobby"},
	})
	require.NoError(t, err)

	notes := "shown first"
	_, _, err = f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{
		MediaID: m.ID,
		Notes:   notes,
	})
	require.NoError(t, err)

	doc, err := f.service.Export(context.Background(), f.owner, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.FormatVersion)
	assert.Equal(t, "Lobby loop", doc.Name)
	assert.Equal(t, []string{"lobby"}, doc.Tags)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Welcome slide", doc.Items[0].Title)
	assert.Equal(t, "https://cdn.example.com/welcome.png", doc.Items[0].URL)
	assert.Equal(t, 15, doc.Items[0].Duration)
	assert.Equal(t, notes, doc.Items[0].Notes)
}

func TestExportRequiresViewAccess(t *testing.T) {
	f := newExportFixture(t)
	p, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = f.service.Export(context.Background(), bson.NewObjectID(), p.ID)
	assert.ErrorIs(t, err, models.ErrAccessDenied)
}

func TestExportSkipsMissingMedia(t *testing.T) {
	f := newExportFixture(t)
	kept := f.registerMedia(t, "Kept", "https://cdn.example.com/kept.png", 15)
	doomed := f.registerMedia(t, "Doomed", "https://cdn.example.com/doomed.png", 15)

	p, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{Name: "Lobby loop"})
	require.NoError(t, err)
	for _, id := range []bson.ObjectID{kept.ID, doomed.ID} {
		_, _, err = f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: id})
		require.NoError(t, err)
	}

	require.NoError(t, f.mediaRepo.Delete(context.Background(), doomed.ID))

	doc, err := f.service.Export(context.Background(), f.owner, p.ID)
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Kept", doc.Items[0].Title)
}

func importDocument() *PlaylistDocument {
	return &PlaylistDocument{
		FormatVersion: 1,
		Name:          "Imported loop",
		Settings:      models.PlaylistSettings{AutoAdvance: true},
		Items: []DocumentItem{
			{
				Title:      "Welcome slide",
				Type:       "image",
				URL:        "https://cdn.example.com/welcome.png",
				Duration:   15,
				Transition: models.Transition{Type: "fade", Duration: 400},
			},
			{
				Title:      "Promo video",
				Type:       "video",
				URL:        "https://cdn.example.com/promo.mp4",
				Duration:   60,
				Transition: models.Transition{Type: "cut"},
			},
		},
	}
}

func TestImportRegistersUnknownMedia(t *testing.T) {
	f := newExportFixture(t)
	importer := bson.NewObjectID()

	created, err := f.service.Import(context.Background(), importer, importDocument(), "")
	require.NoError(t, err)

	assert.Equal(t, "Imported loop", created.Name)
	assert.Equal(t, importer, created.Owner)
	require.Len(t, created.Items, 2)
	assert.Equal(t, 2, created.TotalItems)
	assert.Equal(t, 75, created.TotalDuration)
	assert.Equal(t, "fade", created.Items[0].Transition.Type)
	assert.Len(t, f.mediaRepo.media, 2, "both media entries are registered")
}

func TestImportReusesExistingMediaByURL(t *testing.T) {
	f := newExportFixture(t)
	existing := f.registerMedia(t, "Welcome slide", "https://cdn.example.com/welcome.png", 15)

	created, err := f.service.Import(context.Background(), f.owner, importDocument(), "")
	require.NoError(t, err)

	require.Len(t, created.Items, 2)
	assert.Equal(t, existing.ID, created.Items[0].MediaID, "matched by URL instead of re-registering")
	assert.Len(t, f.mediaRepo.media, 2, "only the unknown video is registered")
}

func TestImportNameHandling(t *testing.T) {
	f := newExportFixture(t)

	created, err := f.service.Import(context.Background(), f.owner, importDocument(), "Renamed on import")
	require.NoError(t, err)
	assert.Equal(t, "Renamed on import", created.Name)

	// Importing again without an override collides with nothing.
	created, err = f.service.Import(context.Background(), f.owner, importDocument(), "")
	require.NoError(t, err)
	assert.Equal(t, "Imported loop", created.Name)
}

func TestImportRejectsUnknownFormatVersion(t *testing.T) {
	f := newExportFixture(t)
	doc := importDocument()
	doc.FormatVersion = 99

	_, err := f.service.Import(context.Background(), f.owner, doc, "")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newExportFixture(t)
	m := f.registerMedia(t, "Welcome slide", "https://cdn.example.com/welcome.png", 15)

	p, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{Name: "Lobby loop"})
	require.NoError(t, err)
	override := 20
	_, _, err = f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{
		MediaID:  m.ID,
		Duration: &override,
	})
	require.NoError(t, err)

	doc, err := f.service.Export(context.Background(), f.owner, p.ID)
	require.NoError(t, err)

	imported, err := f.service.Import(context.Background(), f.owner, doc, "Round trip")
	require.NoError(t, err)

	require.Len(t, imported.Items, 1)
	assert.Equal(t, m.ID, imported.Items[0].MediaID)
	require.NotNil(t, imported.Items[0].Duration)
	assert.Equal(t, override, *imported.Items[0].Duration)
	assert.Equal(t, 20, imported.TotalDuration)
}
