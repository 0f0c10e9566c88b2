// Package system provides system-level services for monitoring and maintenance.
package system

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"castlane.dev/signcast/backend/internal/utils"
)

// MetricsService provides application metrics collection functionality.
type MetricsService struct {
	logger *utils.Logger

	// HTTP metrics
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	httpRequestsInProgress *prometheus.GaugeVec

	// WebSocket metrics
	wsConnectionsTotal   prometheus.Counter
	wsConnectionsActive  prometheus.Gauge
	wsMessagesTotal      *prometheus.CounterVec
	wsConnectionDuration prometheus.Histogram

	// Collaboration room metrics
	roomsActive     prometheus.Gauge
	roomMembers     *prometheus.GaugeVec
	broadcastsTotal *prometheus.CounterVec

	// Playlist metrics
	playlistMutationsTotal *prometheus.CounterVec
	versionConflictsTotal  prometheus.Counter
	reordersTotal          *prometheus.CounterVec

	// Screen metrics
	screensOnline         prometheus.Gauge
	screenHeartbeatsTotal prometheus.Counter
	playbackReportsTotal  *prometheus.CounterVec

	// User metrics
	userRegistrations prometheus.Counter
	userLogins        prometheus.Counter

	// Database metrics
	databaseOperations *prometheus.CounterVec
	databaseErrors     *prometheus.CounterVec
	databaseLatency    *prometheus.HistogramVec
}

// NewMetricsService creates a new metrics service.
func NewMetricsService(logger *utils.Logger) *MetricsService {
	m := &MetricsService{
		logger: logger.Named("metrics_service"),
	}

	m.initHTTPMetrics()
	m.initWebSocketMetrics()
	m.initRoomMetrics()
	m.initPlaylistMetrics()
	m.initScreenMetrics()
	m.initUserMetrics()
	m.initDatabaseMetrics()

	return m
}

// Handler returns an HTTP handler for exposing metrics.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.Handler()
}

// initHTTPMetrics initializes HTTP-related metrics.
func (m *MetricsService) initHTTPMetrics() {
	m.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signcast_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestsInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signcast_http_requests_in_progress",
			Help: "Number of HTTP requests currently in progress",
		},
		[]string{"method", "path"},
	)
}

// initWebSocketMetrics initializes WebSocket-related metrics.
func (m *MetricsService) initWebSocketMetrics() {
	m.wsConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signcast_ws_connections_total",
			Help: "Total number of WebSocket connections",
		},
	)

	m.wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signcast_ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	m.wsMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_ws_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction", "method"},
	)

	m.wsConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signcast_ws_connection_duration_seconds",
			Help:    "Duration of WebSocket connections in seconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
	)
}

// initRoomMetrics initializes collaboration room metrics.
func (m *MetricsService) initRoomMetrics() {
	m.roomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signcast_rooms_active",
			Help: "Number of active collaboration rooms",
		},
	)

	m.roomMembers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signcast_room_members",
			Help: "Number of members in a collaboration room",
		},
		[]string{"room"},
	)

	m.broadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_broadcasts_total",
			Help: "Total number of event broadcasts",
		},
		[]string{"event"},
	)
}

// initPlaylistMetrics initializes playlist-related metrics.
func (m *MetricsService) initPlaylistMetrics() {
	m.playlistMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_playlist_mutations_total",
			Help: "Total number of playlist mutations",
		},
		[]string{"operation"},
	)

	m.versionConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signcast_playlist_version_conflicts_total",
			Help: "Total number of playlist writes rejected for a stale version",
		},
	)

	m.reordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_playlist_reorders_total",
			Help: "Total number of playlist reorders",
		},
		[]string{"kind"},
	)
}

// initScreenMetrics initializes screen-related metrics.
func (m *MetricsService) initScreenMetrics() {
	m.screensOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signcast_screens_online",
			Help: "Number of screens currently online",
		},
	)

	m.screenHeartbeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signcast_screen_heartbeats_total",
			Help: "Total number of screen heartbeats received",
		},
	)

	m.playbackReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_playback_reports_total",
			Help: "Total number of playback reports received",
		},
		[]string{"completed"},
	)
}

// initUserMetrics initializes user-related metrics.
func (m *MetricsService) initUserMetrics() {
	m.userRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signcast_user_registrations_total",
			Help: "Total number of user registrations",
		},
	)

	m.userLogins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signcast_user_logins_total",
			Help: "Total number of user logins",
		},
	)
}

// initDatabaseMetrics initializes database-related metrics.
func (m *MetricsService) initDatabaseMetrics() {
	m.databaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"database", "operation"},
	)

	m.databaseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signcast_database_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"database", "operation"},
	)

	m.databaseLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signcast_database_latency_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)
}

// ObserveHTTPRequest records metrics for an HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncHTTPRequestsInProgress increments the in-progress HTTP requests counter.
func (m *MetricsService) IncHTTPRequestsInProgress(method, path string) {
	m.httpRequestsInProgress.WithLabelValues(method, path).Inc()
}

// DecHTTPRequestsInProgress decrements the in-progress HTTP requests counter.
func (m *MetricsService) DecHTTPRequestsInProgress(method, path string) {
	m.httpRequestsInProgress.WithLabelValues(method, path).Dec()
}

// ObserveWSConnection records metrics for a closed WebSocket connection.
func (m *MetricsService) ObserveWSConnection(duration time.Duration) {
	m.wsConnectionsTotal.Inc()
	m.wsConnectionDuration.Observe(duration.Seconds())
}

// IncWSConnectionsActive increments the active WebSocket connections counter.
func (m *MetricsService) IncWSConnectionsActive() {
	m.wsConnectionsActive.Inc()
}

// DecWSConnectionsActive decrements the active WebSocket connections counter.
func (m *MetricsService) DecWSConnectionsActive() {
	m.wsConnectionsActive.Dec()
}

// ObserveWSMessage records metrics for a WebSocket message.
func (m *MetricsService) ObserveWSMessage(direction, method string) {
	m.wsMessagesTotal.WithLabelValues(direction, method).Inc()
}

// SetRoomsActive sets the number of active collaboration rooms.
func (m *MetricsService) SetRoomsActive(count int) {
	m.roomsActive.Set(float64(count))
}

// SetRoomMembers sets the number of members in a room.
func (m *MetricsService) SetRoomMembers(room string, count int) {
	m.roomMembers.WithLabelValues(room).Set(float64(count))
}

// IncBroadcasts increments the broadcast counter for an event.
func (m *MetricsService) IncBroadcasts(event string) {
	m.broadcastsTotal.WithLabelValues(event).Inc()
}

// IncPlaylistMutations increments the mutation counter for an operation.
func (m *MetricsService) IncPlaylistMutations(operation string) {
	m.playlistMutationsTotal.WithLabelValues(operation).Inc()
}

// IncVersionConflicts increments the stale version conflict counter.
func (m *MetricsService) IncVersionConflicts() {
	m.versionConflictsTotal.Inc()
}

// IncReorders increments the reorder counter for the given kind
// (full or partial).
func (m *MetricsService) IncReorders(kind string) {
	m.reordersTotal.WithLabelValues(kind).Inc()
}

// SetScreensOnline sets the number of screens currently online.
func (m *MetricsService) SetScreensOnline(count int) {
	m.screensOnline.Set(float64(count))
}

// IncScreenHeartbeats increments the screen heartbeat counter.
func (m *MetricsService) IncScreenHeartbeats() {
	m.screenHeartbeatsTotal.Inc()
}

// IncPlaybackReports increments the playback report counter.
func (m *MetricsService) IncPlaybackReports(completed bool) {
	label := "false"
	if completed {
		label = "true"
	}
	m.playbackReportsTotal.WithLabelValues(label).Inc()
}

// IncUserRegistrations increments the user registrations counter.
func (m *MetricsService) IncUserRegistrations() {
	m.userRegistrations.Inc()
}

// IncUserLogins increments the user logins counter.
func (m *MetricsService) IncUserLogins() {
	m.userLogins.Inc()
}

// ObserveDatabaseOperation records metrics for a database operation.
func (m *MetricsService) ObserveDatabaseOperation(database, operation string, duration time.Duration, err error) {
	m.databaseOperations.WithLabelValues(database, operation).Inc()
	m.databaseLatency.WithLabelValues(database, operation).Observe(duration.Seconds())

	if err != nil {
		m.databaseErrors.WithLabelValues(database, operation).Inc()
	}
}
