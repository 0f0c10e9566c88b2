// Package methods contains RPC method handlers for the application.
package methods

import (
	"context"

	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/services/playlist"
	"castlane.dev/signcast/backend/internal/services/screen"
	"castlane.dev/signcast/backend/internal/utils"
)

// RegisterAllMethods initializes all RPC method handlers and registers them with the router.
func RegisterAllMethods(
	router *rpc.Router,
	playlistManager *playlist.Manager,
	screenRegistry *screen.Registry,
	logger *utils.Logger,
) {
	// Create handlers
	playlistHandler := NewPlaylistHandler(playlistManager, logger)
	displayHandler := NewDisplayHandler(screenRegistry, playlistManager, logger)
	systemHandler := NewSystemHandler(logger)

	hr := router.Wrap(rpc.RecoveryMiddleware(logger)).Wrap(rpc.LoggingMiddleware(logger))

	// Register methods
	rpc.RegisterNoParams(hr, "ping", handlePing)

	playlistHandler.RegisterMethods(hr)
	displayHandler.RegisterMethods(hr)
	systemHandler.RegisterMethods(hr)
	logger.Info("Registered all RPC methods")
}

func handlePing(ctx context.Context, client *rpc.Client) (any, error) {
	return "pong", nil
}
