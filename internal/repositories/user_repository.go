package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pairchat-service/internal/apperrors"
	"pairchat-service/internal/models"
)

var (
	ErrUserNotFound = apperrors.New(apperrors.NotFound, "user not found")
	ErrEmailTaken   = apperrors.New(apperrors.Conflict, "email already registered")
)

const uniqueViolation = pq.ErrorCode("23505")

// UserRepository abstracts identity-record persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	Upsert(ctx context.Context, user models.User) (models.User, error)
	Get(ctx context.Context, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ListExcept(ctx context.Context, userID string) ([]models.User, error)
	UpdateAvatar(ctx context.Context, userID string, avatarURL string) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new identity record.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, avatar_url, provider)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, name, email, password_hash, avatar_url, provider, created_at`,
		user.ID, user.Name, user.Email, user.Password, user.AvatarURL, user.Provider).
		StructScan(&user)
	if isUniqueViolation(err) {
		return models.User{}, ErrEmailTaken
	}
	return user, err
}

// Upsert creates the identity record if new, otherwise refreshes name and
// email. Used on sign-in so a profile always exists for an authenticated id.
func (r *UserRepo) Upsert(ctx context.Context, user models.User) (models.User, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, avatar_url, provider)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email
         RETURNING id, name, email, password_hash, avatar_url, provider, created_at`,
		user.ID, user.Name, user.Email, user.Password, user.AvatarURL, user.Provider).
		StructScan(&user)
	return user, err
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, name, email, password_hash, avatar_url, provider, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email for password sign-in.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, name, email, password_hash, avatar_url, provider, created_at FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListExcept returns the user directory without the viewer.
func (r *UserRepo) ListExcept(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, name, email, password_hash, avatar_url, provider, created_at
         FROM users WHERE id <> $1 ORDER BY name, id`, userID)
	return users, err
}

// UpdateAvatar stores a new profile image reference.
func (r *UserRepo) UpdateAvatar(ctx context.Context, userID string, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_url=$2 WHERE id=$1`, userID, avatarURL)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
