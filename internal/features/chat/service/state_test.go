package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/features/chat/models"
)

func TestAddMessageFirstHasNoParents(t *testing.T) {
	st := models.NewState()

	v := AddMessage(st, 7, "alice", "hello", nil)

	require.NotEmpty(t, v)
	assert.Equal(t, v, st.CurrentVersion)
	assert.Empty(t, st.VersionHistory[v])
	require.Len(t, st.Messages, 1)
	assert.Equal(t, int64(7), st.Messages[0].AuthorID)
	assert.Equal(t, "alice", st.Messages[0].Author)
	assert.Equal(t, "hello", st.Messages[0].Body)
	assert.WithinDuration(t, time.Now(), st.Messages[0].Timestamp, time.Minute)
}

func TestAddMessageChainsOnCurrentVersion(t *testing.T) {
	st := models.NewState()

	v1 := AddMessage(st, 7, "alice", "hello", nil)
	v2 := AddMessage(st, 8, "bob", "hi", nil)

	assert.NotEqual(t, v1, v2)
	assert.Equal(t, []string{v1}, st.VersionHistory[v2])
	assert.Equal(t, v2, st.CurrentVersion)
}

func TestAddMessageExplicitParentsWin(t *testing.T) {
	st := models.NewState()

	v1 := AddMessage(st, 7, "alice", "hello", nil)
	AddMessage(st, 8, "bob", "hi", nil)
	v3 := AddMessage(st, 7, "alice", "reply to the first one", []string{v1})

	assert.Equal(t, []string{v1}, st.VersionHistory[v3])
	assert.Equal(t, v3, st.CurrentVersion)
}

func TestSnapshotIsACopy(t *testing.T) {
	st := models.NewState()
	AddMessage(st, 7, "alice", "hello", nil)

	snap := Snapshot(st)
	snap[0].Body = "mutated"

	assert.Equal(t, "hello", st.Messages[0].Body)
}

func TestHubSubscribeAndPublish(t *testing.T) {
	hub := NewConvoHub()

	events, cancel := hub.SubscribeEvents("0:42")
	defer cancel()

	hub.PublishEvent("0:42", models.Event{Version: "v1"})
	hub.PublishEvent("3:7", models.Event{Version: "other"})

	ev := <-events
	assert.Equal(t, "v1", ev.Version)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %q", ev.Version)
	default:
	}
}

func TestHubTypingFanout(t *testing.T) {
	hub := NewConvoHub()

	typing, cancel := hub.SubscribeTyping("3:7")
	defer cancel()

	hub.PublishTyping("3:7", models.TypingEvent{UserID: 3, Username: "alice", IsTyping: true})

	ev := <-typing
	assert.Equal(t, int64(3), ev.UserID)
	assert.True(t, ev.IsTyping)
}
