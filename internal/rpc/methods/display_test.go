package methods

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/services/screen"
	"castlane.dev/signcast/backend/internal/utils"
)

// fakeScreenRepo stores screens in memory for display handler tests.
type fakeScreenRepo struct {
	screens map[bson.ObjectID]*models.Screen
}

func newFakeScreenRepo() *fakeScreenRepo {
	return &fakeScreenRepo{screens: make(map[bson.ObjectID]*models.Screen)}
}

func (r *fakeScreenRepo) Create(ctx context.Context, s *models.Screen) error {
	if s.ID.IsZero() {
		s.ID = bson.NewObjectID()
	}
	r.screens[s.ID] = s
	return nil
}

func (r *fakeScreenRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Screen, error) {
	s, ok := r.screens[id]
	if !ok {
		return nil, models.ErrScreenNotFound
	}
	return s, nil
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

func (r *fakeScreenRepo) Update(ctx context.Context, s *models.Screen) error { return nil }

func (r *fakeScreenRepo) Delete(ctx context.Context, id bson.ObjectID) error { return nil }

func (r *fakeScreenRepo) UpdateHeartbeat(ctx context.Context, id bson.ObjectID, status string, at time.Time) error {
	if s, ok := r.screens[id]; ok {
		s.Status = status
		s.LastHeartbeat = at
	}
	return nil
}

func (r *fakeScreenRepo) MarkOfflineBefore(ctx context.Context, cutoff time.Time) ([]bson.ObjectID, error) {
	return nil, nil
}

func newDisplayFixture(t *testing.T) (*DisplayHandler, *rpc.Server, *rpc.Client) {
	t.Helper()
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	server := rpc.NewServer(rpc.NewRouter(logger), nil, nil, nil, logger)
	client := rpc.NewClient("c1", bson.NewObjectID().Hex(), "display-1", models.RoleDisplay, server, nil, logger)
	registry := screen.NewRegistry(newFakeScreenRepo(), nil, time.Minute, logger)
	handler := NewDisplayHandler(registry, nil, logger)
	return handler, server, client
}

func TestRegisterJoinsScreenRoom(t *testing.T) {
	handler, server, client := newDisplayFixture(t)

	res, err := handler.Register(context.Background(), client, &RegisterScreenParams{
		Name:       "lobby-1",
		Resolution: "1920x1080",
	})
	require.NoError(t, err)

	result, ok := res.(RegisterScreenResult)
	require.True(t, ok)

	room := rpc.ScreenRoomPrefix + result.Screen.ID.Hex()
	assert.True(t, client.IsInRoom(room))

	members := server.GetClientsInRoom(room)
	require.Len(t, members, 1)
	assert.Same(t, client, members[0])
}

func TestJoinScreenRoomIsIdempotentAcrossHeartbeats(t *testing.T) {
	_, server, client := newDisplayFixture(t)
	screenID := bson.NewObjectID().Hex()
	room := rpc.ScreenRoomPrefix + screenID

	joinScreenRoom(client, screenID, models.ScreenStatusOnline)
	require.True(t, client.IsInRoom(room))

	// The heartbeat path only rejoins when membership was lost.
	if !client.IsInRoom(room) {
		joinScreenRoom(client, screenID, models.ScreenStatusOnline)
	}

	members := server.GetClientsInRoom(room)
	require.Len(t, members, 1)
	assert.Same(t, client, members[0])
}

// fakeAnalyticsRepo holds a single playlist behind a mutex so the detached
// playback write can race the test's polling safely.
type fakeAnalyticsRepo struct {
	mu       sync.Mutex
	playlist *models.Playlist
}

func (r *fakeAnalyticsRepo) Create(ctx context.Context, p *models.Playlist) error { return nil }

func (r *fakeAnalyticsRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playlist == nil || r.playlist.ID != id {
		return nil, models.ErrPlaylistNotFound
	}
	c := *r.playlist
	c.Items = append([]models.PlaylistItem(nil), r.playlist.Items...)
	c.Analytics.PlayHistory = append([]models.PlaybackEvent(nil), r.playlist.Analytics.PlayHistory...)
	c.Analytics.PopularItems = append([]models.ItemPopularity(nil), r.playlist.Analytics.PopularItems...)
	return &c, nil
}

func (r *fakeAnalyticsRepo) FindMany(ctx context.Context, filter bson.M, opts options.Lister[options.FindOptions]) ([]*models.Playlist, error) {
	return nil, nil
}

func (r *fakeAnalyticsRepo) Save(ctx context.Context, p *models.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playlist == nil || r.playlist.Version != p.Version {
		return models.ErrStaleVersion
	}
	p.Version++
	r.playlist = p
	return nil
}

func (r *fakeAnalyticsRepo) NameExists(ctx context.Context, owner bson.ObjectID, name string, exclude bson.ObjectID) (bool, error) {
	return false, nil
}

func (r *fakeAnalyticsRepo) FindByScreen(ctx context.Context, screenID bson.ObjectID) ([]*models.Playlist, error) {
	return nil, nil
}

func (r *fakeAnalyticsRepo) Search(ctx context.Context, viewer bson.ObjectID, criteria models.PlaylistSearchCriteria) ([]*models.Playlist, int64, error) {
	return nil, 0, nil
}

func (r *fakeAnalyticsRepo) CountByOwner(ctx context.Context, owner bson.ObjectID) (int64, error) {
	return 0, nil
}

func (r *fakeAnalyticsRepo) historyLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.playlist.Analytics.PlayHistory)
}

func TestReportPlaybackRecordsAsynchronously(t *testing.T) {
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	server := rpc.NewServer(rpc.NewRouter(logger), nil, nil, nil, logger)
	client := rpc.NewClient("c1", bson.NewObjectID().Hex(), "display-1", models.RoleDisplay, server, nil, logger)

	item := models.PlaylistItem{ID: bson.NewObjectID(), MediaID: bson.NewObjectID(), Order: 0}
	repo := &fakeAnalyticsRepo{playlist: &models.Playlist{
		ID:      bson.NewObjectID(),
		Version: 1,
		Items:   []models.PlaylistItem{item},
	}}
	manager := playlist.NewManager(repo, nil, nil, logger)
	registry := screen.NewRegistry(newFakeScreenRepo(), nil, time.Minute, logger)
	handler := NewDisplayHandler(registry, manager, logger)

	res, err := handler.ReportPlayback(context.Background(), client, &ReportPlaybackParams{
		PlaylistID:     repo.playlist.ID.Hex(),
		ItemID:         item.ID.Hex(),
		ScreenID:       bson.NewObjectID().Hex(),
		Duration:       30,
		CompletionRate: 1,
	})
	require.NoError(t, err)

	result, ok := res.(ReportPlaybackResult)
	require.True(t, ok)
	assert.True(t, result.Recorded)

	// The write lands after the handler has already returned.
	require.Eventually(t, func() bool {
		return repo.historyLen() == 1
	}, time.Second, 10*time.Millisecond)
}
