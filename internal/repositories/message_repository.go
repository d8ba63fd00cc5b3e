package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pairchat-service/internal/models"
)

// MessageRepository is the append-only conversation log. Messages get a unique
// id and a server timestamp on append and are never touched again.
type MessageRepository interface {
	Append(ctx context.Context, msg models.Message) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `seq, id, conversation_id, from_id, to_id, kind, body, content_url, file_name, created_at`

// Append durably adds a message to the pair's conversation, creating the
// conversation row on first send if it does not exist yet. The id and the
// timestamp are assigned here unless the caller already set them.
func (r *MessageRepo) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	conversationID := models.PairKey(msg.FromID, msg.ToID)
	user1, user2 := models.PairParticipants(msg.FromID, msg.ToID)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, user1_id, user2_id) VALUES ($1, $2, $3)
         ON CONFLICT (id) DO NOTHING`,
		conversationID, user1, user2); err != nil {
		return models.Message{}, err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	var createdAt *time.Time
	if !msg.CreatedAt.IsZero() {
		createdAt = &msg.CreatedAt
	}

	var stored models.Message
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, from_id, to_id, kind, body, content_url, file_name, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
         RETURNING `+messageColumns,
		msg.ID, conversationID, msg.FromID, msg.ToID, msg.Kind, msg.Body, msg.ContentURL, msg.FileName, createdAt).
		StructScan(&stored)
	if err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return stored, nil
}

// ListByConversation returns the full ordered log for a conversation:
// timestamp ascending, insertion sequence breaking ties.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1
         ORDER BY created_at ASC, seq ASC`, conversationID)
	return msgs, err
}
