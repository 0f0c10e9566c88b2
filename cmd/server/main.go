package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap/zapcore"

	"castlane.dev/signcast/backend/internal/api"
	"castlane.dev/signcast/backend/internal/auth"
	"castlane.dev/signcast/backend/internal/config"
	"castlane.dev/signcast/backend/internal/db/mongo"
	"castlane.dev/signcast/backend/internal/db/mongo/repositories"
	"castlane.dev/signcast/backend/internal/db/redis"
	"castlane.dev/signcast/backend/internal/db/redis/managers"
	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/rpc/methods"
	"castlane.dev/signcast/backend/internal/services/media"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/services/screen"
	"castlane.dev/signcast/backend/internal/services/system"
	"castlane.dev/signcast/backend/internal/services/user"
	"castlane.dev/signcast/backend/internal/utils"
)

// CombinedAuthProvider combines JWT and password providers to implement the full auth.Provider interface
type CombinedAuthProvider struct {
	*auth.JWTProvider
	*auth.PasswordProvider
}

// convert logger level to zapcore.Level
func hLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	case "panic":
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func main() {
	// Create a context that will be canceled on interrupt signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Received shutdown signal")
		cancel()
	}()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerOptions := utils.LoggerOptions{
		Development: cfg.Environment == "development",
		Level:       hLevel(cfg.Logging.Level),
		OutputPaths: cfg.Logging.OutputPaths,
	}
	logger := utils.NewLogger(loggerOptions)
	logger.Info("Starting Signcast server", "environment", cfg.Environment)

	// Initialize MongoDB client
	mongoClient, err := mongo.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", err)
		}
	}()

	if err := mongoClient.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create MongoDB indexes", err)
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	// Initialize MongoDB repositories
	userRepo := repositories.NewUserRepository(mongoClient.Database(), logger)
	mediaRepo := repositories.NewMediaRepository(mongoClient.Database(), logger)
	playlistRepo := repositories.NewPlaylistRepository(mongoClient.Database(), logger)
	screenRepo := repositories.NewScreenRepository(mongoClient.Database(), logger)

	// Initialize Redis managers
	sessionMgr := managers.NewSessionManager(redisClient, cfg.Auth.AccessTokenExpiry)
	presenceMgr := managers.NewPresenceManager(redisClient)
	pubSubManager := managers.NewPubSubManager(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient)

	// Initialize authentication provider
	jwtConfig := auth.JWTConfig{
		Secret:               cfg.Auth.JWTSecret,
		Issuer:               "signcast",
		Audience:             "signcast-users",
		AccessTokenDuration:  cfg.Auth.AccessTokenExpiry,
		RefreshTokenDuration: cfg.Auth.RefreshTokenExpiry,
	}
	jwtProvider := auth.NewJWTProvider(jwtConfig, logger)
	passwordProvider := auth.NewPasswordProvider(logger)
	authProvider := &CombinedAuthProvider{
		JWTProvider:      jwtProvider,
		PasswordProvider: passwordProvider,
	}

	// Initialize services
	userManager := user.NewManager(userRepo, sessionMgr, presenceMgr, authProvider, logger)
	mediaCatalog := media.NewCatalog(mediaRepo, logger)
	playlistManager := playlist.NewManager(playlistRepo, screenRepo, mediaCatalog, logger)
	playlistExport := playlist.NewExportService(playlistManager, mediaCatalog, logger)

	screenRegistry := screen.NewRegistry(screenRepo, presenceMgr, cfg.Display.HeartbeatTTL, logger)

	// Initialize system services
	healthConfig := system.HealthServiceConfig{
		Version:     "1.0.0",
		Environment: cfg.Environment,
	}
	healthService := system.NewHealthService(mongoClient.Client(), redisClient, logger, healthConfig)

	var metricsService *system.MetricsService
	if cfg.Features.EnableMetrics {
		metricsService = system.NewMetricsService(logger)
	}

	// Initialize API router
	router := api.NewRouter(
		authProvider,
		sessionMgr,
		userManager,
		playlistManager,
		playlistExport,
		screenRegistry,
		mediaCatalog,
		healthService,
		metricsService,
		rateLimiter,
		cfg,
		logger,
	)

	// Initialize RPC router for WebSocket
	rpcRouter := rpc.NewRouter(logger)

	// Initialize RPC server
	rpcServer := rpc.NewServer(
		rpcRouter,
		authProvider,
		sessionMgr,
		presenceMgr,
		logger,
	)

	if err := rpcServer.EnableRelay(pubSubManager); err != nil {
		logger.Error("Failed to enable room relay", err)
	}
	if metricsService != nil {
		rpcServer.SetMetrics(metricsService)
	}

	// Register RPC methods
	methods.RegisterAllMethods(
		rpcRouter,
		playlistManager,
		screenRegistry,
		logger,
	)

	// Offline sweeps notify watchers of the affected screen
	screenRegistry.SetStatusListener(func(screenID bson.ObjectID, status string) {
		rpcServer.NotifyRoom(rpc.ScreenRoomPrefix+screenID.Hex(), rpc.EventScreenStatus, map[string]any{
			"screenId": screenID.Hex(),
			"status":   status,
		})
	})
	screenRegistry.Start(ctx, cfg.Display.SweepInterval)
	defer func() { <-screenRegistry.Stopped() }()

	// Start maintenance service
	if cfg.Features.EnableMaintenance {
		maintenanceService := system.NewMaintenanceService(
			system.DefaultMaintenanceConfig(),
			mongoClient.Database(),
			sessionMgr,
			presenceMgr,
			logger,
		)
		if err := maintenanceService.Start(ctx); err != nil {
			logger.Error("Failed to start maintenance service", err)
		}
		defer maintenanceService.Stop()
	}

	// Start health service
	healthService.Start(ctx)

	// Create HTTP server for API
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         apiAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Create a separate HTTP server for WebSocket connections on a different port
	// This avoids middleware that might interfere with WebSocket upgrades
	wsPort := cfg.Server.Port + 1
	wsAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, wsPort)
	wsServer := &http.Server{
		Addr:    wsAddr,
		Handler: http.HandlerFunc(rpcServer.HandleWebSocket),
	}

	// Start HTTP server for API
	go func() {
		logger.Info("Starting HTTP server", "address", apiAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", err)
		}
	}()

	// Start HTTP server for WebSocket
	go func() {
		logger.Info("Starting WebSocket server", "address", wsAddr)
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("WebSocket server error", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutting down server")

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}

	// Shutdown WebSocket server
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("WebSocket server shutdown error", err)
	}

	// Shutdown RPC server
	if err := rpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("RPC server shutdown error", err)
	}

	logger.Info("Server shutdown complete")
}
