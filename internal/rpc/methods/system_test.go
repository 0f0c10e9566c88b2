package methods

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"castlane.dev/signcast/backend/internal/models"
	"castlane.dev/signcast/backend/internal/rpc"
	"castlane.dev/signcast/backend/internal/utils"
)

func newSystemFixture() (*SystemHandler, *rpc.Client) {
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	server := rpc.NewServer(rpc.NewRouter(logger), nil, nil, nil, logger)
	client := rpc.NewClient("a1", bson.NewObjectID().Hex(), "admin-1", models.RoleAdmin, server, nil, logger)
	return NewSystemHandler(logger), client
}

func TestEmergencyRoomTargeting(t *testing.T) {
	assert.Equal(t, "", emergencyRoom(&EmergencyControlParams{Action: "blackout"}))

	screenID := bson.NewObjectID().Hex()
	assert.Equal(t, rpc.ScreenRoomPrefix+screenID,
		emergencyRoom(&EmergencyControlParams{Action: "blackout", ScreenID: screenID}))
}

func TestEmergencyControlTargetsScreen(t *testing.T) {
	handler, client := newSystemFixture()
	screenID := bson.NewObjectID().Hex()

	res, err := handler.EmergencyControl(context.Background(), client, &EmergencyControlParams{
		Action:   "blackout",
		ScreenID: screenID,
	})
	require.NoError(t, err)

	result, ok := res.(EmergencyControlResult)
	require.True(t, ok)
	assert.Equal(t, "blackout", result.Action)
	assert.True(t, result.Delivered)
}

func TestEmergencyControlRejectsUnknownAction(t *testing.T) {
	handler, client := newSystemFixture()

	_, err := handler.EmergencyControl(context.Background(), client, &EmergencyControlParams{
		Action: "shutdown",
	})
	require.Error(t, err)
}
