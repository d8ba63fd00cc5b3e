package models

import "time"

// User is the identity record created on first authentication.
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password_hash" json:"-"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Provider  string    `db:"provider" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
