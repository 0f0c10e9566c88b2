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
	"castlane.dev/signcast/backend/internal/utils"
)

// fakePlaylistRepo is an in-memory PlaylistRepository with the same
// version-checked save semantics as the Mongo implementation.
type fakePlaylistRepo struct {
	playlists map[bson.ObjectID]*models.Playlist

	// beforeSave runs inside Save before the version check, letting tests
	// simulate a concurrent writer.
	beforeSave func()
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{playlists: make(map[bson.ObjectID]*models.Playlist)}
}

func clonePlaylist(p *models.Playlist) *models.Playlist {
	c := *p
	c.Items = append([]models.PlaylistItem(nil), p.Items...)
	c.Collaborators = append([]models.Collaborator(nil), p.Collaborators...)
	c.AssignedScreens = append([]bson.ObjectID(nil), p.AssignedScreens...)
	c.Tags = append([]string(nil), p.Tags...)
	c.Analytics.PlayHistory = append([]models.PlaybackEvent(nil), p.Analytics.PlayHistory...)
	c.Analytics.PopularItems = append([]models.ItemPopularity(nil), p.Analytics.PopularItems...)
	return &c
}

func (r *fakePlaylistRepo) Create(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID.IsZero() {
		playlist.ID = bson.NewObjectID()
	}
	if playlist.Version == 0 {
		playlist.Version = 1
	}
	r.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

func (r *fakePlaylistRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Playlist, error) {
	stored, ok := r.playlists[id]
	if !ok {
		return nil, models.ErrPlaylistNotFound
	}
	return clonePlaylist(stored), nil
}

func (r *fakePlaylistRepo) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Playlist, error) {
	return nil, nil
}

func (r *fakePlaylistRepo) Save(ctx context.Context, playlist *models.Playlist) error {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	stored, ok := r.playlists[playlist.ID]
	if !ok || stored.Version != playlist.Version {
		return models.ErrStaleVersion
	}
	playlist.Version++
	r.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

func (r *fakePlaylistRepo) NameExists(ctx context.Context, owner bson.ObjectID, name string, exclude bson.ObjectID) (bool, error) {
	for _, p := range r.playlists {
		if p.Owner == owner && p.Name == name && !p.IsArchived && p.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePlaylistRepo) FindByScreen(ctx context.Context, screenID bson.ObjectID) ([]*models.Playlist, error) {
	var result []*models.Playlist
	for _, p := range r.playlists {
		if p.IsArchived {
			continue
		}
		for _, s := range p.AssignedScreens {
			if s == screenID {
				result = append(result, clonePlaylist(p))
				break
			}
		}
	}
	return result, nil
}

func (r *fakePlaylistRepo) Search(ctx context.Context, viewer bson.ObjectID, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	var result []*models.Playlist
	for _, p := range r.playlists {
		if p.CanView(viewer) {
			result = append(result, clonePlaylist(p))
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakePlaylistRepo) CountByOwner(ctx context.Context, owner bson.ObjectID) (int64, error) {
	var n int64
	for _, p := range r.playlists {
		if p.Owner == owner {
			n++
		}
	}
	return n, nil
}

// fakeScreenRepo implements the screen lookups the manager performs.
type fakeScreenRepo struct {
	screens map[bson.ObjectID]*models.Screen
}

func newFakeScreenRepo() *fakeScreenRepo {
	return &fakeScreenRepo{screens: make(map[bson.ObjectID]*models.Screen)}
}

func (r *fakeScreenRepo) Create(ctx context.Context, screen *models.Screen) error {
	if screen.ID.IsZero() {
		screen.ID = bson.NewObjectID()
	}
	r.screens[screen.ID] = screen
	return nil
}

func (r *fakeScreenRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Screen, error) {
	screen, ok := r.screens[id]
	if !ok {
		return nil, models.ErrScreenNotFound
	}
	return screen, nil
}

func (r *fakeScreenRepo) FindByName(ctx context.Context, name string) (*models.Screen, error) {
	for _, s := range r.screens {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, models.ErrScreenNotFound
}

func (r *fakeScreenRepo) FindAll(ctx context.Context) ([]*models.Screen, error) { return nil, nil }

func (r *fakeScreenRepo) Update(ctx context.Context, screen *models.Screen) error { return nil }

func (r *fakeScreenRepo) Delete(ctx context.Context, id bson.ObjectID) error { return nil }

func (r *fakeScreenRepo) UpdateHeartbeat(ctx context.Context, id bson.ObjectID, status string, at time.Time) error {
	return nil
}

func (r *fakeScreenRepo) MarkOfflineBefore(ctx context.Context, cutoff time.Time) ([]bson.ObjectID, error) {
	return nil, nil
}

// fakeCatalog serves media metadata from a fixed map.
type fakeCatalog struct {
	infos map[bson.ObjectID]models.MediaInfo
}

func (c *fakeCatalog) GetMediaInfo(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.MediaInfo, error) {
	result := make(map[bson.ObjectID]models.MediaInfo)
	for _, id := range ids {
		if info, ok := c.infos[id]; ok {
			result[id] = info
		}
	}
	return result, nil
}

func (c *fakeCatalog) addMedia(duration int) bson.ObjectID {
	id := bson.NewObjectID()
	c.infos[id] = models.MediaInfo{ID: id, Type: "image", Title: "fixture", Duration: duration}
	return id
}

type managerFixture struct {
	manager    *Manager
	repo       *fakePlaylistRepo
	screenRepo *fakeScreenRepo
	catalog    *fakeCatalog
	owner      bson.ObjectID
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	repo := newFakePlaylistRepo()
	screenRepo := newFakeScreenRepo()
	catalog := &fakeCatalog{infos: make(map[bson.ObjectID]models.MediaInfo)}
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	return &managerFixture{
		manager:    NewManager(repo, screenRepo, catalog, logger),
		repo:       repo,
		screenRepo: screenRepo,
		catalog:    catalog,
		owner:      bson.NewObjectID(),
	}
}

func (f *managerFixture) createPlaylist(t *testing.T, name string) *models.Playlist {
	t.Helper()
	p, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{Name: name})
	require.NoError(t, err)
	return p
}

func TestCreatePlaylistDefaults(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, f.owner, p.Owner)
	assert.False(t, p.IsArchived)
	assert.True(t, p.Settings.AutoAdvance)
	assert.True(t, p.Settings.Loop)
	assert.Empty(t, p.Items)
}

func TestCreatePlaylistNameCollision(t *testing.T) {
	f := newManagerFixture(t)
	f.createPlaylist(t, "Lobby loop")

	_, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{Name: "Lobby loop"})
	assert.ErrorIs(t, err, models.ErrNameCollision)

	// A different owner may reuse the name.
	_, err = f.manager.CreatePlaylist(context.Background(), bson.NewObjectID(), models.PlaylistCreateRequest{Name: "Lobby loop"})
	assert.NoError(t, err)
}

func TestCreatePlaylistInvalidSchedule(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{
		Name:     "Scheduled",
		Schedule: &models.Schedule{Timezone: "Not/AZone"},
	})
	assert.ErrorIs(t, err, models.ErrInvalidSchedule)
}

func TestGetPlaylistPermissions(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	viewer := bson.NewObjectID()

	_, err := f.manager.GetPlaylist(context.Background(), viewer, p.ID)
	assert.ErrorIs(t, err, models.ErrAccessDenied)

	_, err = f.manager.AddCollaborator(context.Background(), f.owner, p.ID, viewer, models.PermissionView)
	require.NoError(t, err)

	got, err := f.manager.GetPlaylist(context.Background(), viewer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestUpdateMetadataRequiresEditPermission(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	viewer := bson.NewObjectID()
	editor := bson.NewObjectID()

	_, err := f.manager.AddCollaborator(context.Background(), f.owner, p.ID, viewer, models.PermissionView)
	require.NoError(t, err)
	_, err = f.manager.AddCollaborator(context.Background(), f.owner, p.ID, editor, models.PermissionEdit)
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.manager.UpdateMetadata(context.Background(), viewer, p.ID, models.PlaylistUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, models.ErrAccessDenied)

	updated, err := f.manager.UpdateMetadata(context.Background(), editor, p.ID, models.PlaylistUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestEditPermissionCannotAdminister(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	editor := bson.NewObjectID()

	_, err := f.manager.AddCollaborator(context.Background(), f.owner, p.ID, editor, models.PermissionEdit)
	require.NoError(t, err)

	_, err = f.manager.ArchivePlaylist(context.Background(), editor, p.ID)
	assert.ErrorIs(t, err, models.ErrAccessDenied)

	_, err = f.manager.AddCollaborator(context.Background(), editor, p.ID, bson.NewObjectID(), models.PermissionView)
	assert.ErrorIs(t, err, models.ErrAccessDenied)
}

func TestArchivedPlaylistRejectsMutations(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	_, err := f.manager.ArchivePlaylist(context.Background(), f.owner, p.ID)
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.manager.UpdateMetadata(context.Background(), f.owner, p.ID, models.PlaylistUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, models.ErrPlaylistArchived)

	// Reads still work.
	got, err := f.manager.GetPlaylist(context.Background(), f.owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	// Restore lifts the block.
	_, err = f.manager.RestorePlaylist(context.Background(), f.owner, p.ID)
	require.NoError(t, err)
	_, err = f.manager.UpdateMetadata(context.Background(), f.owner, p.ID, models.PlaylistUpdateRequest{Name: &name})
	assert.NoError(t, err)
}

func TestMutationBumpsVersion(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	desc := "Plays in the entrance hall"
	updated, err := f.manager.UpdateMetadata(context.Background(), f.owner, p.ID, models.PlaylistUpdateRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, p.Version+1, updated.Version)
}

func TestConcurrentEditFailsWithStaleVersion(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	// A concurrent writer bumps the stored version between our load and save.
	f.repo.beforeSave = func() {
		f.repo.playlists[p.ID].Version++
		f.repo.beforeSave = nil
	}

	name := "Renamed"
	_, err := f.manager.UpdateMetadata(context.Background(), f.owner, p.ID, models.PlaylistUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, models.ErrStaleVersion)

	// Nothing was merged.
	stored, err := f.repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lobby loop", stored.Name)
}

func TestAddItemResolvesCatalogAndTotals(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	mediaID := f.catalog.addMedia(30)

	updated, added, err := f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: mediaID})
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.Equal(t, mediaID, added.MediaID)
	assert.Equal(t, "cut", added.Transition.Type)
	assert.Equal(t, 1, updated.TotalItems)
	assert.Equal(t, 30, updated.TotalDuration)

	override := 10
	updated, _, err = f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{
		MediaID:  mediaID,
		Duration: &override,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalItems)
	assert.Equal(t, 40, updated.TotalDuration)
}

func TestAddItemUnknownMedia(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	_, _, err := f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: bson.NewObjectID()})
	assert.ErrorIs(t, err, models.ErrMediaNotFound)
}

func TestRemoveItemUpdatesTotals(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	mediaID := f.catalog.addMedia(30)

	_, added, err := f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: mediaID})
	require.NoError(t, err)
	_, _, err = f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: mediaID})
	require.NoError(t, err)

	updated, err := f.manager.RemoveItem(context.Background(), f.owner, p.ID, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalItems)
	assert.Equal(t, 30, updated.TotalDuration)
	assert.Nil(t, updated.ItemByID(added.ID))
}

func TestAssignScreensRequiresKnownScreens(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	screen := &models.Screen{Name: "lobby-1"}
	require.NoError(t, f.screenRepo.Create(context.Background(), screen))

	_, err := f.manager.AssignScreens(context.Background(), f.owner, p.ID, []bson.ObjectID{screen.ID, bson.NewObjectID()})
	assert.ErrorIs(t, err, models.ErrScreenNotFound)

	updated, err := f.manager.AssignScreens(context.Background(), f.owner, p.ID, []bson.ObjectID{screen.ID})
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{screen.ID}, updated.AssignedScreens)

	// Assigning again is idempotent.
	updated, err = f.manager.AssignScreens(context.Background(), f.owner, p.ID, []bson.ObjectID{screen.ID})
	require.NoError(t, err)
	assert.Len(t, updated.AssignedScreens, 1)

	updated, err = f.manager.UnassignScreens(context.Background(), f.owner, p.ID, []bson.ObjectID{screen.ID})
	require.NoError(t, err)
	assert.Empty(t, updated.AssignedScreens)
}

func TestAddCollaboratorRules(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	_, err := f.manager.AddCollaborator(context.Background(), f.owner, p.ID, f.owner, models.PermissionEdit)
	assert.ErrorIs(t, err, models.ErrCollaboratorOwner)

	user := bson.NewObjectID()
	updated, err := f.manager.AddCollaborator(context.Background(), f.owner, p.ID, user, models.PermissionView)
	require.NoError(t, err)
	require.Len(t, updated.Collaborators, 1)

	// Adding the same user again updates the permission in place.
	updated, err = f.manager.AddCollaborator(context.Background(), f.owner, p.ID, user, models.PermissionEdit)
	require.NoError(t, err)
	require.Len(t, updated.Collaborators, 1)
	assert.Equal(t, models.PermissionEdit, updated.Collaborators[0].Permission)

	updated, err = f.manager.RemoveCollaborator(context.Background(), f.owner, p.ID, user)
	require.NoError(t, err)
	assert.Empty(t, updated.Collaborators)

	_, err = f.manager.RemoveCollaborator(context.Background(), f.owner, p.ID, user)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestDuplicatePlaylist(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	mediaID := f.catalog.addMedia(30)

	_, added, err := f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: mediaID})
	require.NoError(t, err)

	collaborator := bson.NewObjectID()
	_, err = f.manager.AddCollaborator(context.Background(), f.owner, p.ID, collaborator, models.PermissionEdit)
	require.NoError(t, err)

	dup, err := f.manager.DuplicatePlaylist(context.Background(), f.owner, p.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "Lobby loop (copy)", dup.Name)
	assert.Equal(t, int64(1), dup.Version)
	assert.Empty(t, dup.Collaborators)
	assert.Empty(t, dup.AssignedScreens)
	require.Len(t, dup.Items, 1)
	assert.Equal(t, mediaID, dup.Items[0].MediaID)
	assert.NotEqual(t, added.ID, dup.Items[0].ID, "duplicated items get fresh IDs")
}

func TestActivePlaylistsForScreen(t *testing.T) {
	f := newManagerFixture(t)
	screen := &models.Screen{Name: "lobby-1"}
	require.NoError(t, f.screenRepo.Create(context.Background(), screen))

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	unscheduled := f.createPlaylist(t, "Always on")
	_, err := f.manager.AssignScreens(context.Background(), f.owner, unscheduled.ID, []bson.ObjectID{screen.ID})
	require.NoError(t, err)

	pending, err := f.manager.CreatePlaylist(context.Background(), f.owner, models.PlaylistCreateRequest{
		Name:     "Next month",
		Schedule: &models.Schedule{StartDate: timePtr(now.AddDate(0, 1, 0)), Timezone: "UTC"},
	})
	require.NoError(t, err)
	_, err = f.manager.AssignScreens(context.Background(), f.owner, pending.ID, []bson.ObjectID{screen.ID})
	require.NoError(t, err)

	active, err := f.manager.ActivePlaylistsForScreen(context.Background(), screen.ID, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, unscheduled.ID, active[0].ID)
}

func TestRecordPlaybackRetriesStaleSaves(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	mediaID := f.catalog.addMedia(30)

	_, added, err := f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: mediaID})
	require.NoError(t, err)

	// The first two saves race with a concurrent writer, the third lands.
	conflicts := 2
	f.repo.beforeSave = func() {
		if conflicts > 0 {
			conflicts--
			f.repo.playlists[p.ID].Version++
		}
	}

	report := models.PlaybackReport{
		PlaylistID: p.ID,
		ItemID:     added.ID,
		ScreenID:   bson.NewObjectID(),
		Duration:   25,
	}
	require.NoError(t, f.manager.RecordPlayback(context.Background(), report))

	stored, err := f.repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Analytics.TotalPlays)
	assert.InDelta(t, 25.0, stored.Analytics.AvgPlayDuration, 1e-9)
}

func TestRecordPlaybackGivesUpAfterRetries(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")
	mediaID := f.catalog.addMedia(30)

	_, added, err := f.manager.AddItem(context.Background(), f.owner, p.ID, models.PlaylistAddItemRequest{MediaID: mediaID})
	require.NoError(t, err)

	f.repo.beforeSave = func() {
		f.repo.playlists[p.ID].Version++
	}

	err = f.manager.RecordPlayback(context.Background(), models.PlaybackReport{
		PlaylistID: p.ID,
		ItemID:     added.ID,
		ScreenID:   bson.NewObjectID(),
		Duration:   25,
	})
	assert.ErrorIs(t, err, models.ErrStaleVersion)
}

func TestRecordPlaybackUnknownItem(t *testing.T) {
	f := newManagerFixture(t)
	p := f.createPlaylist(t, "Lobby loop")

	err := f.manager.RecordPlayback(context.Background(), models.PlaybackReport{
		PlaylistID: p.ID,
		ItemID:     bson.NewObjectID(),
		ScreenID:   bson.NewObjectID(),
		Duration:   25,
	})
	assert.ErrorIs(t, err, models.ErrItemNotFound)
}
