package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/market/models"
	"xforce-terminal-backend/internal/features/market/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers connect from arbitrary origins in dev; auth happens
		// at the API layer, the feed itself is public.
		return true
	},
}

// PriceFeedHandler streams hub updates to WebSocket clients.
type PriceFeedHandler struct {
	hub *service.Hub
}

func NewPriceFeedHandler(hub *service.Hub) *PriceFeedHandler {
	return &PriceFeedHandler{hub: hub}
}

func (h *PriceFeedHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/prices", h.handle)
}

func (h *PriceFeedHandler) handle(c *gin.Context) {
	clientID := uuid.New().String()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Str("client_id", clientID).Msg("WebSocket upgrade failed")
		return
	}

	logger.Info().
		Str("client_id", clientID).
		Str("forwarded_for", c.GetHeader("X-Forwarded-For")).
		Str("real_ip", c.GetHeader("X-Real-IP")).
		Str("user_agent", c.Request.UserAgent()).
		Msg("Price feed client connected")

	start := time.Now()
	updates, cancel := h.hub.Subscribe()
	done := make(chan struct{})

	var sent, received int64

	// Writer: one JSON text frame per update.
	go func() {
		defer close(done)
		for update := range updates {
			frame, err := json.Marshal(models.PriceUpdateMessage{
				Type: "price_update",
				Data: update,
			})
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
			sent++
		}
	}()

	// Reader: drain control and client frames until close.
	for {
		msgType, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			received++
		case websocket.PingMessage, websocket.PongMessage:
			// counted nowhere, keepalive only
		}
	}

	cancel()
	_ = conn.Close()
	<-done

	logger.Info().
		Str("client_id", clientID).
		Dur("duration", time.Since(start)).
		Int64("messages_sent", sent).
		Int64("messages_received", received).
		Msg("Price feed client disconnected")
}
