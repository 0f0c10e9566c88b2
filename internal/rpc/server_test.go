package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"castlane.dev/signcast/backend/internal/utils"
)

func TestInboundMessageThrottle(t *testing.T) {
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	server := NewServer(NewRouter(logger), nil, nil, nil, logger)
	client := NewClient("c1", "u1", "user-1", "member", server, nil, logger)

	for range messageRateLimit {
		require.True(t, server.allowInbound(client.ID))
	}

	client.handleMessage([]byte(`{"jsonrpc":"2.0","method":"system.ping","id":1}`))

	msg := received(client)
	require.NotNil(t, msg)

	var resp Response
	require.NoError(t, json.Unmarshal(msg, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrRateLimitExceeded, resp.Error.Code)
}

func TestInboundMessageThrottlePerConnection(t *testing.T) {
	logger := utils.NewLogger(utils.LoggerOptions{OutputPaths: []string{"stderr"}})
	server := NewServer(NewRouter(logger), nil, nil, nil, logger)

	for range messageRateLimit {
		require.True(t, server.allowInbound("c1"))
	}
	assert.False(t, server.allowInbound("c1"))

	// A different connection keeps its own budget.
	assert.True(t, server.allowInbound("c2"))
}
