package models

import "time"

// Account is a connected Threads account. The access token is stored
// AES-GCM encrypted and decrypted only at publish time.
type Account struct {
	ID             int64      `db:"id" json:"id"`
	ThreadsUserID  string     `db:"threads_user_id" json:"threads_user_id"`
	Username       string     `db:"username" json:"username"`
	AccessToken    string     `db:"access_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
