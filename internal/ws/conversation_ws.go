package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/repositories"
)

// ConversationWebSocketHandler serves the live message feed for one
// conversation. The authenticated caller names the peer; the room is the
// pair-key of the two, so a client can only ever subscribe to its own
// conversations.
type ConversationWebSocketHandler struct {
	hub           *Hub
	messageRepo   repositories.MessageRepository
	authenticator *auth.Authenticator
}

// NewConversationWebSocketHandler constructs a ConversationWebSocketHandler.
func NewConversationWebSocketHandler(hub *Hub, messageRepo repositories.MessageRepository, authenticator *auth.Authenticator) *ConversationWebSocketHandler {
	return &ConversationWebSocketHandler{hub: hub, messageRepo: messageRepo, authenticator: authenticator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, sends the current snapshot and registers
// the client for live updates.
func (h *ConversationWebSocketHandler) Handle(c *gin.Context) {
	peerID := c.Param("peer_id")
	if peerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing peer id"})
		return
	}

	ctx, span := otel.Tracer("pairchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if peerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot subscribe to self"})
		return
	}

	pairKey := models.PairKey(userID, peerID)

	// Snapshot before the upgrade so a failed load stays an HTTP error.
	msgs, err := h.messageRepo.ListByConversation(ctx, pairKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddConversationClient(pairKey, conn, info)

	observability.IncWSActive("conversation")
	observability.IncWSEvent("conversation", "ws_connect")
	publishLifecycleEvent(ctx, "conversation", pairKey, "ws_connect", info, "")

	// Initial paint: the full current log, same shape as every later update.
	snapshot := models.MessageSnapshot{Type: "messages", ConversationID: pairKey, Messages: msgs}
	if err := writeJSON(conn, snapshot); err != nil {
		conn.Close()
		h.hub.RemoveConversationClient(pairKey, conn)
		observability.DecWSActive("conversation")
		return
	}

	go h.readLoop(ctx, pairKey, conn, info)
}

// readLoop drains the connection until it closes, then deregisters it.
func (h *ConversationWebSocketHandler) readLoop(ctx context.Context, pairKey string, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveConversationClient(pairKey, conn)
		observability.DecWSActive("conversation")
		observability.IncWSEvent("conversation", "ws_disconnect")
		publishLifecycleEvent(ctx, "conversation", pairKey, "ws_disconnect", info, closeReason)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("conversation", "ws_error")
				publishLifecycleEvent(ctx, "conversation", pairKey, "ws_error", info, closeReason)
			}
			return
		}
	}
}

func (h *ConversationWebSocketHandler) authenticate(c *gin.Context) (string, error) {
	return authenticateWS(c, h.authenticator)
}

// authenticateWS accepts the bearer header or, for browser websocket clients
// that cannot set headers, a token query parameter.
func authenticateWS(c *gin.Context, authenticator *auth.Authenticator) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			header = "Bearer " + token
		}
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid token")
	}
	return authenticator.Authenticate(c.Request.Context(), parts[1])
}

func publishLifecycleEvent(ctx context.Context, kind, roomID, event string, info ConnInfo, reason string) {
	_ = observability.PublishEvent(ctx, wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        kind,
				"room_id":     roomID,
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
