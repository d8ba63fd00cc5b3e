package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/models"
)

var (
	ErrRequestNotFound  = apperrors.New(apperrors.NotFound, "connection request not found")
	ErrDuplicateRequest = apperrors.New(apperrors.Conflict, "active request already exists for this pair")
	ErrRequestResolved  = apperrors.New(apperrors.Conflict, "connection request already resolved")
)

// RequestRepository mediates the connection-request lifecycle. Transitions go
// through conditional writes so a request resolves to exactly one terminal
// status even under a concurrent accept/reject.
type RequestRepository interface {
	Create(ctx context.Context, fromID, toID string) (models.ConnectionRequest, error)
	Get(ctx context.Context, requestID string) (models.ConnectionRequest, error)
	Accept(ctx context.Context, requestID string) (models.ConnectionRequest, models.Conversation, error)
	Reject(ctx context.Context, requestID string) (models.ConnectionRequest, error)
	ListActiveFor(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
	ListIncoming(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
	ListOutgoing(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
}

// RequestRepo is a sqlx implementation of RequestRepository.
type RequestRepo struct {
	db *sqlx.DB
}

// NewRequestRepo constructs a RequestRepo.
func NewRequestRepo(db *sqlx.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

const requestColumns = `id, pair_key, from_id, to_id, status, created_at`

// Create opens a pending request from one user to another. The partial unique
// index on pair_key over active statuses rejects a second active request for
// the same unordered pair, whichever side sends it.
func (r *RequestRepo) Create(ctx context.Context, fromID, toID string) (models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO connection_requests (id, pair_key, from_id, to_id, status)
         VALUES ($1, $2, $3, $4, 'pending')
         RETURNING `+requestColumns,
		uuid.NewString(), models.PairKey(fromID, toID), fromID, toID).
		StructScan(&req)
	if isUniqueViolation(err) {
		return models.ConnectionRequest{}, ErrDuplicateRequest
	}
	return req, err
}

// Get fetches a request by id.
func (r *RequestRepo) Get(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT `+requestColumns+` FROM connection_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConnectionRequest{}, ErrRequestNotFound
	}
	return req, err
}

// Accept flips a pending request to accepted and creates the conversation for
// the pair in the same transaction. The status flip is conditional on the row
// still being pending, so a racing reject cannot also win; losing the race
// surfaces as ErrRequestResolved.
func (r *RequestRepo) Accept(ctx context.Context, requestID string) (models.ConnectionRequest, models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ConnectionRequest{}, models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var req models.ConnectionRequest
	err = tx.QueryRowxContext(ctx,
		`UPDATE connection_requests SET status='accepted'
         WHERE id=$1 AND status='pending'
         RETURNING `+requestColumns, requestID).
		StructScan(&req)
	if errors.Is(err, sql.ErrNoRows) {
		err = r.resolveTransitionError(ctx, requestID)
		return models.ConnectionRequest{}, models.Conversation{}, err
	}
	if err != nil {
		return models.ConnectionRequest{}, models.Conversation{}, err
	}

	user1, user2 := models.PairParticipants(req.FromID, req.ToID)
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, user1_id, user2_id) VALUES ($1, $2, $3)
         ON CONFLICT (id) DO NOTHING`,
		req.PairKey, user1, user2); err != nil {
		return models.ConnectionRequest{}, models.Conversation{}, err
	}

	var conv models.Conversation
	if err = tx.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id, created_at FROM conversations WHERE id=$1`, req.PairKey); err != nil {
		return models.ConnectionRequest{}, models.Conversation{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.ConnectionRequest{}, models.Conversation{}, err
	}
	return req, conv, nil
}

// Reject flips a pending request to rejected. No conversation is created.
func (r *RequestRepo) Reject(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.db.QueryRowxContext(ctx,
		`UPDATE connection_requests SET status='rejected'
         WHERE id=$1 AND status='pending'
         RETURNING `+requestColumns, requestID).
		StructScan(&req)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConnectionRequest{}, r.resolveTransitionError(ctx, requestID)
	}
	return req, err
}

// resolveTransitionError distinguishes a stale id from a lost transition race
// after a conditional write matched no rows.
func (r *RequestRepo) resolveTransitionError(ctx context.Context, requestID string) error {
	var status models.RequestStatus
	err := r.db.GetContext(ctx, &status,
		`SELECT status FROM connection_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	return ErrRequestResolved
}

// ListActiveFor returns every active request the user is party to, either
// side, newest first. Feeds the level-triggered websocket snapshots.
func (r *RequestRepo) ListActiveFor(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT `+requestColumns+` FROM connection_requests
         WHERE (from_id=$1 OR to_id=$1) AND status IN ('pending', 'accepted')
         ORDER BY created_at DESC, id`, userID)
	return reqs, err
}

// ListIncoming returns active requests addressed to the user.
func (r *RequestRepo) ListIncoming(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT `+requestColumns+` FROM connection_requests
         WHERE to_id=$1 AND status IN ('pending', 'accepted')
         ORDER BY created_at DESC, id`, userID)
	return reqs, err
}

// ListOutgoing returns active requests the user has sent.
func (r *RequestRepo) ListOutgoing(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT `+requestColumns+` FROM connection_requests
         WHERE from_id=$1 AND status IN ('pending', 'accepted')
         ORDER BY created_at DESC, id`, userID)
	return reqs, err
}
