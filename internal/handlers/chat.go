package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/media"
	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/telemetry"
	"pairchat-service/internal/ws"
)

// ChatHandler owns the conversation-log endpoints: ordered reads and
// append-only sends for a pair of users.
type ChatHandler struct {
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
	userRepo         repositories.UserRepository
	hub              *ws.Hub
	audit            *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(conversationRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		hub:              hub,
		audit:            audit,
	}
}

// ListConversations returns the caller's conversations, newest first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := currentUserID(c)
	convs, err := h.conversationRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	type conversationResponse struct {
		models.Conversation
		PeerID string `json:"peer_id"`
	}
	responses := make([]conversationResponse, 0, len(convs))
	for _, conv := range convs {
		peer := conv.User1ID
		if peer == userID {
			peer = conv.User2ID
		}
		responses = append(responses, conversationResponse{Conversation: conv, PeerID: peer})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": responses})
}

// LoadMessages is the one-shot ordered snapshot of the caller's conversation
// with a peer, for initial paint before the live feed attaches. An empty log
// is an empty list, not an error: a conversation may not exist yet.
func (h *ChatHandler) LoadMessages(c *gin.Context) {
	peerID := c.Param("peer_id")
	userID := currentUserID(c)
	if peerID == "" || peerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer id"})
		return
	}

	pairKey := models.PairKey(userID, peerID)
	msgs, err := h.messageRepo.ListByConversation(c.Request.Context(), pairKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": pairKey, "messages": msgs})
}

// PostMessage validates and appends a message, then pushes the fresh full log
// to both subscribers. Validation failures write nothing.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	peerID := c.Param("peer_id")
	userID := currentUserID(c)

	var req struct {
		Kind       string `json:"kind" binding:"required"`
		Body       string `json:"body"`
		ContentURL string `json:"content_url"`
		FileName   string `json:"file_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := models.Message{
		FromID:     userID,
		ToID:       peerID,
		Kind:       models.MessageKind(req.Kind),
		Body:       strings.TrimSpace(req.Body),
		ContentURL: req.ContentURL,
		FileName:   req.FileName,
	}
	if err := validateMessage(msg); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": err.Error()})
		return
	}

	stored, err := h.messageRepo.Append(c.Request.Context(), msg)
	if err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{"error": "failed to store message"})
		return
	}

	observability.IncMessageAppended(string(stored.Kind))
	h.audit.Emit(c.Request.Context(), "message_sent", "message appended", requestIDFromContext(c), userID)
	h.notifyConversation(c, stored.ConversationID)

	c.JSON(http.StatusCreated, stored)
}

// validateMessage enforces the send constraints before anything is written:
// distinct non-empty participants, a known kind, text for text messages and a
// resolved content reference for media.
func validateMessage(msg models.Message) error {
	if msg.FromID == "" || msg.ToID == "" {
		return apperrors.New(apperrors.InvalidArgument, "sender and recipient are required")
	}
	if msg.FromID == msg.ToID {
		return apperrors.New(apperrors.InvalidArgument, "cannot message yourself")
	}
	if !msg.Kind.Valid() {
		return apperrors.Errorf(apperrors.InvalidArgument, "unknown message kind %q", msg.Kind)
	}
	switch msg.Kind {
	case models.KindText:
		if msg.Body == "" {
			return apperrors.New(apperrors.InvalidArgument, "text message needs a body")
		}
	case models.KindImage, models.KindDocument:
		if err := media.RequireContentRef(msg.ContentURL); err != nil {
			return err
		}
	}
	return nil
}

// notifyConversation re-reads the ordered log and broadcasts it whole.
func (h *ChatHandler) notifyConversation(c *gin.Context, pairKey string) {
	msgs, err := h.messageRepo.ListByConversation(c.Request.Context(), pairKey)
	if err != nil {
		return
	}
	models.SortMessages(msgs)
	h.hub.BroadcastConversationSnapshot(pairKey, models.MessageSnapshot{
		Type:           "messages",
		ConversationID: pairKey,
		Messages:       msgs,
	})
}
