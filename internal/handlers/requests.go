package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/telemetry"
	"pairchat-service/internal/ws"
)

// RequestHandler manages the connection-request endpoints: the handshake that
// takes two users from strangers to a chat-enabled pair.
type RequestHandler struct {
	requestRepo repositories.RequestRepository
	userRepo    repositories.UserRepository
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewRequestHandler builds a RequestHandler.
func NewRequestHandler(requestRepo repositories.RequestRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *RequestHandler {
	return &RequestHandler{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		hub:         hub,
		audit:       audit,
	}
}

// Send opens a pending request to another user. A second active request for
// the same pair, from either side, is a conflict.
func (h *RequestHandler) Send(c *gin.Context) {
	var req struct {
		ToID string `json:"to_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	if req.ToID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send a request to yourself"})
		return
	}
	if _, err := h.userRepo.Get(c.Request.Context(), req.ToID); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "recipient not found"})
		return
	}

	created, err := h.requestRepo.Create(c.Request.Context(), userID, req.ToID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateRequest) {
			c.JSON(http.StatusConflict, gin.H{"error": "an active request already exists for this pair"})
			return
		}
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "could not send request"})
		return
	}

	observability.IncRequestTransition("sent")
	h.audit.Emit(c.Request.Context(), "request_sent", "connection request sent", requestIDFromContext(c), userID)
	h.notifyRequestFeeds(c, created.FromID, created.ToID)

	view := models.RequestView{ConnectionRequest: created, Direction: created.DirectionFor(userID)}
	c.JSON(http.StatusCreated, view)
}

// Accept resolves a pending request addressed to the caller and creates the
// conversation. The request flip and the conversation write land in one
// transaction; a racing reject loses cleanly.
func (h *RequestHandler) Accept(c *gin.Context) {
	requestID := c.Param("request_id")
	userID := currentUserID(c)

	pending, err := h.requestRepo.Get(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "request not found"})
		return
	}
	if pending.ToID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient can accept"})
		return
	}

	accepted, conv, err := h.requestRepo.Accept(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": errorMessage(err, "could not accept request")})
		return
	}

	observability.IncRequestTransition("accepted")
	h.audit.Emit(c.Request.Context(), "request_accepted", "connection request accepted", requestIDFromContext(c), userID)
	h.notifyRequestFeeds(c, accepted.FromID, accepted.ToID)

	c.JSON(http.StatusOK, gin.H{
		"request":      models.RequestView{ConnectionRequest: accepted, Direction: accepted.DirectionFor(userID)},
		"conversation": conv,
	})
}

// Reject resolves a pending request addressed to the caller without creating
// a conversation.
func (h *RequestHandler) Reject(c *gin.Context) {
	requestID := c.Param("request_id")
	userID := currentUserID(c)

	pending, err := h.requestRepo.Get(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "request not found"})
		return
	}
	if pending.ToID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient can reject"})
		return
	}

	rejected, err := h.requestRepo.Reject(c.Request.Context(), requestID)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": errorMessage(err, "could not reject request")})
		return
	}

	observability.IncRequestTransition("rejected")
	h.audit.Emit(c.Request.Context(), "request_rejected", "connection request rejected", requestIDFromContext(c), userID)
	h.notifyRequestFeeds(c, rejected.FromID, rejected.ToID)

	c.JSON(http.StatusOK, models.RequestView{ConnectionRequest: rejected, Direction: rejected.DirectionFor(userID)})
}

// ListIncoming returns the active requests addressed to the caller.
func (h *RequestHandler) ListIncoming(c *gin.Context) {
	userID := currentUserID(c)
	reqs, err := h.requestRepo.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": models.ViewsFor(userID, reqs)})
}

// ListOutgoing returns the active requests the caller has sent.
func (h *RequestHandler) ListOutgoing(c *gin.Context) {
	userID := currentUserID(c)
	reqs, err := h.requestRepo.ListOutgoing(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": models.ViewsFor(userID, reqs)})
}

// notifyRequestFeeds pushes fresh full snapshots to both parties' live feeds.
func (h *RequestHandler) notifyRequestFeeds(c *gin.Context, userIDs ...string) {
	for _, id := range userIDs {
		snapshot, err := ws.BuildRequestSnapshot(c.Request.Context(), h.requestRepo, id)
		if err != nil {
			// The feed stays stale until the next change; the next snapshot
			// is always complete, so nothing is lost permanently.
			continue
		}
		h.hub.BroadcastRequestSnapshot(id, snapshot)
	}
}

func errorMessage(err error, fallback string) string {
	var classified *apperrors.Error
	if errors.As(err, &classified) {
		return classified.Msg
	}
	return fallback
}
