package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/features/chat/models"
)

func testBot(respondToAll bool) *Bot {
	return NewBot(Config{RespondToAll: respondToAll}, nil, nil)
}

func TestIsAddressed(t *testing.T) {
	bot := testBot(false)

	assert.True(t, bot.isAddressed("hey DeepSeek AI, what is SOL doing"))
	assert.True(t, bot.isAddressed("hey deepseek ai, what is SOL doing"))
	assert.True(t, bot.isAddressed("@bot price of BTC?"))
	assert.True(t, bot.isAddressed("what do you think @ai"))
	assert.True(t, bot.isAddressed("@deepseek explain slippage"))
	assert.False(t, bot.isAddressed("just chatting with a friend"))
}

func TestBuildContextWindowAndRoles(t *testing.T) {
	bot := NewBot(Config{ContextWindow: 3}, nil, nil)

	messages := []models.Message{
		{AuthorID: 42, Author: "alice", Body: "old message"},
		{AuthorID: 42, Author: "alice", Body: "one"},
		{AuthorID: models.BotUserID, Author: BotName, Body: "two"},
		{AuthorID: 42, Author: "alice", Body: "three"},
	}

	ctx := bot.buildContext(messages)
	require.Len(t, ctx, 4)

	assert.Equal(t, RoleSystem, ctx[0].Role)
	assert.NotEmpty(t, ctx[0].Content)

	assert.Equal(t, RoleUser, ctx[1].Role)
	assert.Equal(t, "one", ctx[1].Content)
	assert.Equal(t, RoleAssistant, ctx[2].Role)
	assert.Equal(t, "two", ctx[2].Content)
	assert.Equal(t, RoleUser, ctx[3].Role)
	assert.Equal(t, "three", ctx[3].Content)
}

func TestBuildContextImpersonatorKeepsUserRole(t *testing.T) {
	bot := NewBot(Config{}, nil, nil)

	ctx := bot.buildContext([]models.Message{
		{AuthorID: 42, Author: BotName, Body: "pretending to be the bot"},
	})
	require.Len(t, ctx, 2)
	assert.Equal(t, RoleUser, ctx[1].Role)
}

func TestCleanResponseStripsBoilerplate(t *testing.T) {
	assert.Equal(t, "SOL is volatile.", CleanResponse("As an AI assistant, SOL is volatile."))
	assert.Equal(t, "SOL is volatile.", CleanResponse("  SOL is volatile.  "))
}

func TestCleanResponseTruncatesAtSentence(t *testing.T) {
	long := strings.Repeat("x", 990) + ". And this trailing part goes beyond the limit entirely"
	out := CleanResponse(long)

	assert.LessOrEqual(t, len(out), maxResponseLength)
	assert.True(t, strings.HasSuffix(out, "."))
}

func TestCleanResponseTruncatesAtWord(t *testing.T) {
	long := strings.Repeat("word ", 300)
	out := CleanResponse(long)

	assert.LessOrEqual(t, len(out), maxResponseLength+3)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestCleanResponseShortUntouched(t *testing.T) {
	assert.Equal(t, "short reply", CleanResponse("short reply"))
}

func TestConfigDefaults(t *testing.T) {
	bot := NewBot(Config{}, nil, nil)

	assert.Equal(t, BotName, bot.cfg.Name)
	assert.Equal(t, 20, bot.cfg.ContextWindow)
	assert.Equal(t, 500, bot.cfg.MaxTokens)
	assert.Equal(t, 0.8, bot.cfg.Temperature)
	assert.NotEmpty(t, bot.cfg.SystemPrompt)
}
