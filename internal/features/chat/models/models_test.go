package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationIDOrdersParticipants(t *testing.T) {
	assert.Equal(t, "3:7", ConversationID(7, 3))
	assert.Equal(t, "3:7", ConversationID(3, 7))
	assert.Equal(t, "0:42", ConversationID(42, BotUserID))
}

func TestParseConversationID(t *testing.T) {
	a, b, err := ParseConversationID("3:7")
	require.NoError(t, err)
	assert.Equal(t, int64(3), a)
	assert.Equal(t, int64(7), b)

	for _, bad := range []string{"", "3", "3:", ":7", "x:7", "3:y", "7:3"} {
		_, _, err := ParseConversationID(bad)
		assert.Error(t, err, "id %q", bad)
	}
}

func TestIsAssistantConversation(t *testing.T) {
	assert.True(t, IsAssistantConversation("0:42"))
	assert.False(t, IsAssistantConversation("3:7"))
	assert.False(t, IsAssistantConversation("garbage"))
}

func TestIsParticipant(t *testing.T) {
	assert.True(t, IsParticipant("3:7", 3))
	assert.True(t, IsParticipant("3:7", 7))
	assert.False(t, IsParticipant("3:7", 9))
	assert.False(t, IsParticipant("garbage", 3))
}
