package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "session", FormatKey("session"))
	assert.Equal(t, "session:abc", FormatKey("session", "abc"))
	assert.Equal(t, "presence:user:u1", FormatKey("presence", "user", "u1"))
	assert.Equal(t, "presence:screen:s1", FormatKey("presence", "screen", "s1"))
	assert.Equal(t, "session:", FormatKey("session", ""))
}
