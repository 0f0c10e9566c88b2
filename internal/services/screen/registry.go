// Package screen provides display screen registration and liveness tracking.
package screen

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/db/mongo/repositories"
	"castlane.dev/signcast/backend/internal/db/redis/managers"
	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/utils"
)

// defaultSweepInterval is how often the registry checks for silent screens
// when no interval is configured.
const defaultSweepInterval = time.Minute

// StatusListener is notified when a screen's status changes during an
// offline sweep.
type StatusListener func(screenID bson.ObjectID, status string)

// Registry tracks display screens: durable registration in Mongo, liveness
// in Redis with a TTL that heartbeats refresh.
type Registry struct {
	screenRepo repositories.ScreenRepository
	presence   *managers.PresenceManager
	logger     *utils.Logger

	heartbeatTTL time.Duration
	onStatus     StatusListener

	stopped chan struct{}
}

// NewRegistry creates a new screen registry.
func NewRegistry(screenRepo repositories.ScreenRepository, presence *managers.PresenceManager, heartbeatTTL time.Duration, logger *utils.Logger) *Registry {
	if heartbeatTTL <= 0 {
		heartbeatTTL = managers.ScreenPresenceTTL
	}
	return &Registry{
		screenRepo:   screenRepo,
		presence:     presence,
		logger:       logger.Named("screen_registry"),
		heartbeatTTL: heartbeatTTL,
		stopped:      make(chan struct{}),
	}
}

// SetStatusListener registers the callback invoked when a sweep flips a
// screen offline. Must be called before Start.
func (r *Registry) SetStatusListener(fn StatusListener) {
	r.onStatus = fn
}

// Register registers a new screen.
func (r *Registry) Register(ctx context.Context, actor bson.ObjectID, req models.ScreenRegisterRequest) (*models.Screen, error) {
	screen := &models.Screen{
		Name:         req.Name,
		Location:     req.Location,
		Resolution:   req.Resolution,
		Orientation:  req.Orientation,
		DeviceInfo:   req.DeviceInfo,
		Tags:         req.Tags,
		Status:       models.ScreenStatusOffline,
		RegisteredBy: actor,
		ObjectTimes:  models.NewObjectTimes(time.Now()),
	}

	if err := r.screenRepo.Create(ctx, screen); err != nil {
		return nil, err
	}

	r.logger.Info("Registered screen", "id", screen.ID.Hex(), "name", screen.Name)
	return screen, nil
}

// Heartbeat records a liveness report from a display client. The durable
// record and the TTL'd presence entry both refresh; a screen previously
// offline flips to the reported status.
func (r *Registry) Heartbeat(ctx context.Context, hb models.ScreenHeartbeat) (*models.Screen, error) {
	status := hb.Status
	if status == "" {
		status = models.ScreenStatusOnline
	}

	now := time.Now()
	if err := r.screenRepo.UpdateHeartbeat(ctx, hb.ScreenID, status, now); err != nil {
		return nil, err
	}

	presence := managers.ScreenPresence{
		Status:        status,
		LastHeartbeat: now,
	}
	if !hb.CurrentPlaylist.IsZero() {
		presence.CurrentPlaylist = hb.CurrentPlaylist.Hex()
	}
	if !hb.CurrentItem.IsZero() {
		presence.CurrentItem = hb.CurrentItem.Hex()
	}
	if err := r.presence.RecordScreenHeartbeat(ctx, hb.ScreenID, presence); err != nil {
		// Mongo is authoritative; a presence write failure only degrades
		// liveness reads.
		r.logger.Warn("Failed to record screen presence", "screenId", hb.ScreenID.Hex(), "error", err)
	}

	return r.screenRepo.FindByID(ctx, hb.ScreenID)
}

// Get returns a screen by ID.
func (r *Registry) Get(ctx context.Context, id bson.ObjectID) (*models.Screen, error) {
	return r.screenRepo.FindByID(ctx, id)
}

// List returns all registered screens.
func (r *Registry) List(ctx context.Context) ([]*models.Screen, error) {
	return r.screenRepo.FindAll(ctx)
}

// Update replaces a screen's registration metadata.
func (r *Registry) Update(ctx context.Context, screen *models.Screen) error {
	return r.screenRepo.Update(ctx, screen)
}

// Remove deletes a screen and its presence entry.
func (r *Registry) Remove(ctx context.Context, id bson.ObjectID) error {
	if err := r.screenRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.presence.RemoveScreenPresence(ctx, id); err != nil {
		r.logger.Warn("Failed to remove screen presence", "screenId", id.Hex(), "error", err)
	}
	return nil
}

// Start runs the offline sweep loop until the context is canceled.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go func() {
		defer close(r.stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx)
			}
		}
	}()
}

// Stopped returns a channel closed when the sweep loop has exited.
func (r *Registry) Stopped() <-chan struct{} {
	return r.stopped
}

// sweep flags screens whose last heartbeat predates the TTL as offline and
// notifies the status listener for each.
func (r *Registry) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.heartbeatTTL)

	ids, err := r.screenRepo.MarkOfflineBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error("Offline sweep failed", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	if _, err := r.presence.CleanupExpiredScreens(ctx); err != nil {
		r.logger.Warn("Presence cleanup failed", "error", err)
	}

	r.logger.Info("Marked screens offline", "count", len(ids))
	if r.onStatus != nil {
		for _, id := range ids {
			r.onStatus(id, models.ScreenStatusOffline)
		}
	}
}
