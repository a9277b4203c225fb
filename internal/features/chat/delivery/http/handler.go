package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/chat/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	chat := router.Group("/chat")
	{
		chat.PUT("/:conversation_id", requireAuth, h.put)
		chat.GET("/:conversation_id", requireAuth, h.subscribe)
		chat.POST("/:conversation_id/typing", requireAuth, h.typing)
	}
}

// put appends a message. The body is the message text; the optional
// Parents header carries comma-separated parent versions.
func (h *ChatHandler) put(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}
	username := middleware.AuthUsername(c)
	conversationID := c.Param("conversation_id")

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "unreadable request body"))
		return
	}

	var parents []string
	if header := c.GetHeader("Parents"); header != "" {
		for _, p := range strings.Split(header, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parents = append(parents, p)
			}
		}
	}

	version, err := h.chat.Post(c.Request.Context(), userID, username, conversationID, string(raw), parents)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.Header("Version", version)
	c.JSON(http.StatusOK, gin.H{"version": version})
}

// subscribe streams conversation events over SSE. The Subscribe header
// is required; a bare GET is rejected.
func (h *ChatHandler) subscribe(c *gin.Context) {
	if c.GetHeader("Subscribe") == "" {
		middleware.Abort(c, errors.NewValidationError("Subscribe", "subscription header required"))
		return
	}

	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}
	conversationID := c.Param("conversation_id")

	snapshot, err := h.chat.SnapshotEvent(c.Request.Context(), conversationID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	events, cancel := h.chat.SubscribeEvents(conversationID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return
	}

	sent := map[string]struct{}{}
	writeEvent := func(version string, payload interface{}) bool {
		if version != "" {
			if _, dup := sent[version]; dup {
				return true
			}
			sent[version] = struct{}{}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return true
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	logger.Debug().
		Str("conversation", conversationID).
		Int64("user_id", userID).
		Msg("Chat subscription opened")

	if !writeEvent(snapshot.Version, snapshot) {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if !writeEvent(event.Version, event) {
				return
			}
		}
	}
}

type typingRequest struct {
	IsTyping bool `json:"is_typing"`
}

func (h *ChatHandler) typing(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}
	username := middleware.AuthUsername(c)

	var req typingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("is_typing", "required"))
		return
	}

	if err := h.chat.Typing(c.Request.Context(), userID, username, c.Param("conversation_id"), req.IsTyping); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
