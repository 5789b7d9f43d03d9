package ws

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"him-messenger/internal/auth"
	"him-messenger/internal/observability"
	"him-messenger/internal/repositories"
)

// ChatWebSocketHandler upgrades chat subscriptions to websocket
// connections.
type ChatWebSocketHandler struct {
	hub    *Hub
	chats  repositories.ChatRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chats repositories.ChatRepository, tokens *auth.TokenManager, logger *zap.Logger) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chats: chats, tokens: tokens, logger: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the subscriber, checks chat membership and registers
// the connection with the hub.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("him-messenger/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			header = "Bearer " + token
		}
	}

	userID, err := h.authenticate(header)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.chats.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(chatID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.logger.Info("websocket connected",
		zap.Int("chat_id", chatID),
		zap.Int("user_id", userID),
		zap.String("conn_id", info.ConnID),
	)

	// Drain the connection until the client goes away, then clean up.
	go func() {
		defer func() {
			h.hub.RemoveClient(chatID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			h.logger.Info("websocket disconnected",
				zap.Int("chat_id", chatID),
				zap.Int("user_id", userID),
				zap.String("conn_id", info.ConnID),
				zap.Duration("duration", time.Since(info.ConnectedAt)),
			)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}

func (h *ChatWebSocketHandler) authenticate(header string) (int, error) {
	raw, err := auth.FromBearerHeader(header)
	if err != nil {
		return 0, err
	}
	claims, err := h.tokens.Verify(raw)
	if err != nil {
		return 0, err
	}
	return claims.Subject()
}
