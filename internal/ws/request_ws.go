package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/repositories"
)

// RequestWebSocketHandler serves a user's live connection-request feed:
// the full incoming and outgoing active sets, re-sent whole on every change.
type RequestWebSocketHandler struct {
	hub           *Hub
	requestRepo   repositories.RequestRepository
	authenticator *auth.Authenticator
}

// NewRequestWebSocketHandler constructs a RequestWebSocketHandler.
func NewRequestWebSocketHandler(hub *Hub, requestRepo repositories.RequestRepository, authenticator *auth.Authenticator) *RequestWebSocketHandler {
	return &RequestWebSocketHandler{hub: hub, requestRepo: requestRepo, authenticator: authenticator}
}

// Handle upgrades the connection, sends the current request sets and
// registers the client for live updates.
func (h *RequestWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("pairchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := authenticateWS(c, h.authenticator)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	snapshot, err := BuildRequestSnapshot(ctx, h.requestRepo, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
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
	h.hub.AddRequestClient(userID, conn, info)

	observability.IncWSActive("requests")
	observability.IncWSEvent("requests", "ws_connect")
	publishLifecycleEvent(ctx, "requests", userID, "ws_connect", info, "")

	if err := writeJSON(conn, snapshot); err != nil {
		conn.Close()
		h.hub.RemoveRequestClient(userID, conn)
		observability.DecWSActive("requests")
		return
	}

	go h.readLoop(ctx, userID, conn, info)
}

func (h *RequestWebSocketHandler) readLoop(ctx context.Context, userID string, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveRequestClient(userID, conn)
		observability.DecWSActive("requests")
		observability.IncWSEvent("requests", "ws_disconnect")
		publishLifecycleEvent(ctx, "requests", userID, "ws_disconnect", info, closeReason)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("requests", "ws_error")
				publishLifecycleEvent(ctx, "requests", userID, "ws_error", info, closeReason)
			}
			return
		}
	}
}

// BuildRequestSnapshot assembles the viewer's full current request sets,
// projected onto their point of view. Handlers reuse it after every mutation
// so feed updates and the initial paint share one shape.
func BuildRequestSnapshot(ctx context.Context, repo repositories.RequestRepository, userID string) (models.RequestSnapshot, error) {
	incoming, err := repo.ListIncoming(ctx, userID)
	if err != nil {
		return models.RequestSnapshot{}, err
	}
	outgoing, err := repo.ListOutgoing(ctx, userID)
	if err != nil {
		return models.RequestSnapshot{}, err
	}
	return models.RequestSnapshot{
		Type:     "requests",
		Incoming: models.ViewsFor(userID, incoming),
		Outgoing: models.ViewsFor(userID, outgoing),
	}, nil
}
