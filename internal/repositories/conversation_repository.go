package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/models"
)

var ErrConversationNotFound = apperrors.New(apperrors.NotFound, "conversation not found")

// ConversationRepository reads conversation records. Conversations are created
// by the request accept transaction or implicitly on first message append,
// never through this interface; once written they are immutable.
type ConversationRepository interface {
	Get(ctx context.Context, conversationID string) (models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Get fetches a conversation by pair-key.
func (r *ConversationRepo) Get(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id, created_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns the conversations the user participates in, newest
// first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT id, user1_id, user2_id, created_at FROM conversations
         WHERE user1_id=$1 OR user2_id=$1
         ORDER BY created_at DESC, id`, userID)
	return convs, err
}
