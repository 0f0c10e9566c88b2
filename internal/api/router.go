// Package api provides the HTTP API for the application.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"castlane.dev/signcast/backend/internal/api/handlers"
	appMiddleware "castlane.dev/signcast/backend/internal/api/middleware"
	"castlane.dev/signcast/backend/internal/auth"
	"castlane.dev/signcast/backend/internal/config"
	"castlane.dev/signcast/backend/internal/db/redis"
	"castlane.dev/signcast/backend/internal/db/redis/managers"
	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/services/media"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/services/screen"
	"castlane.dev/signcast/backend/internal/services/system"
	"castlane.dev/signcast/backend/internal/services/user"
	"castlane.dev/signcast/backend/internal/utils"
)

// Router is the main HTTP router for the API.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// NewRouter creates a new API router.
func NewRouter(
	authProvider auth.Provider,
	sessionMgr *managers.SessionManager,
	userManager *user.Manager,
	playlistManager *playlist.Manager,
	playlistExport *playlist.ExportService,
	screenRegistry *screen.Registry,
	mediaCatalog *media.Catalog,
	healthService *system.HealthService,
	metricsService *system.MetricsService,
	rateLimiter *redis.RateLimiter,
	cfg *config.Config,
	logger *utils.Logger,
) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	// Create middleware
	recoveryMiddleware := appMiddleware.NewRecoveryMiddleware(apiLogger)
	loggerMiddleware := appMiddleware.NewLoggerMiddleware(apiLogger)
	corsMiddleware := appMiddleware.NewCORSMiddleware(appMiddleware.DefaultCORSConfig(), apiLogger)
	authMiddleware := appMiddleware.NewAuthMiddleware(authProvider, sessionMgr, apiLogger)

	limits := redis.RateLimitAuth()
	for name, limit := range redis.RateLimitAPI() {
		limits[name] = limit
	}
	rateLimitMiddleware := appMiddleware.NewRateLimitMiddleware(rateLimiter, limits, apiLogger)

	// Create handlers
	authHandler := handlers.NewAuthHandler(userManager, authProvider, apiLogger)
	userHandler := handlers.NewUserHandler(userManager, apiLogger)
	mediaHandler := handlers.NewMediaHandler(mediaCatalog, apiLogger)
	playlistHandler := handlers.NewPlaylistHandler(playlistManager, playlistExport, apiLogger)
	screenHandler := handlers.NewScreenHandler(screenRegistry, apiLogger)
	healthHandler := handlers.NewHealthHandler(apiLogger, healthService, cfg)

	// Apply global middleware
	r.Use(recoveryMiddleware.Recovery)
	r.Use(loggerMiddleware.Logger)
	r.Use(corsMiddleware.CORS)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/ping"))

	if cfg.Features.EnableMetrics && metricsService != nil {
		metricsMiddleware := appMiddleware.NewMetricsMiddleware(metricsService)
		r.Use(metricsMiddleware.Metrics)
	}

	// Public routes
	r.Group(func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)

		if cfg.Features.EnableMetrics && metricsService != nil {
			r.Handle("/metrics", metricsService.Handler())
		}

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimitMiddleware.Limit("register")).Post("/register", authHandler.Register)
			r.With(rateLimitMiddleware.Limit("login")).Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/me", authHandler.Me)
			r.Put("/me", userHandler.UpdateUser)
			r.Delete("/me", userHandler.DeleteUser)
			r.Put("/me/password", userHandler.ChangePassword)
			r.Get("/search", userHandler.SearchUsers)
			r.Get("/{id}", userHandler.GetUser)
		})

		// Media catalog routes
		r.Route("/media", func(r chi.Router) {
			r.With(rateLimitMiddleware.Limit("media_search")).Get("/", mediaHandler.Search)
			r.Get("/{id}", mediaHandler.GetMedia)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAnyRole(models.RoleAdmin, models.RoleEditor))
				r.Post("/", mediaHandler.AddMedia)
				r.Delete("/{id}", mediaHandler.DeleteMedia)
			})
		})

		// Playlist routes
		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", playlistHandler.ListPlaylists)
			r.With(rateLimitMiddleware.Limit("playlist_create")).Post("/", playlistHandler.CreatePlaylist)
			r.Get("/{id}", playlistHandler.GetPlaylist)
			r.Put("/{id}", playlistHandler.UpdatePlaylist)
			r.Post("/{id}/archive", playlistHandler.ArchivePlaylist)
			r.Post("/{id}/restore", playlistHandler.RestorePlaylist)
			r.Post("/{id}/duplicate", playlistHandler.DuplicatePlaylist)
			r.Post("/{id}/items", playlistHandler.AddPlaylistItem)
			r.Delete("/{id}/items/{itemId}", playlistHandler.RemovePlaylistItem)
			r.Put("/{id}/items/order", playlistHandler.ReorderItems)
			r.Patch("/{id}/items/order", playlistHandler.ReorderPartial)
			r.Post("/{id}/screens", playlistHandler.AssignScreens)
			r.Delete("/{id}/screens", playlistHandler.UnassignScreens)
			r.Post("/{id}/collaborators", playlistHandler.AddCollaborator)
			r.Delete("/{id}/collaborators/{userId}", playlistHandler.RemoveCollaborator)
			r.Get("/{id}/export", playlistHandler.ExportPlaylist)
			r.Post("/import", playlistHandler.ImportPlaylist)
			r.Get("/{id}/schedule", playlistHandler.GetScheduleStatus)
			r.Get("/{id}/analytics", playlistHandler.GetAnalytics)
		})

		// Screen routes
		r.Route("/screens", func(r chi.Router) {
			AddCRUDRoutes(r, screenHandler)
			r.Post("/{id}/heartbeat", screenHandler.Heartbeat)
		})
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(authMiddleware.RequireRole(models.RoleAdmin))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/health", healthHandler.DetailedCheck)

			// Admin user management
			r.Get("/users", userHandler.GetAllUsers)
			r.Get("/users/count", userHandler.GetUserCount)
			r.Put("/users/{id}/roles", userHandler.SetUserRoles)
			r.Put("/users/{id}/activate", userHandler.ActivateUser)
			r.Put("/users/{id}/deactivate", userHandler.DeactivateUser)
			r.Delete("/users/{id}", userHandler.AdminDeleteUser)
		})
	})

	return &Router{
		Mux:    r,
		logger: apiLogger,
	}
}
