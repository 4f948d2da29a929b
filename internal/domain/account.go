package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account holds the external platform credential for one owning account.
// Token fields are mutated only by the token manager.
type Account struct {
	ID                uuid.UUID  `db:"id"                  json:"id"`
	Email             string     `db:"email"               json:"email"`
	ExternalProfileID *string    `db:"external_profile_id" json:"external_profile_id,omitempty"`
	AccessToken       *string    `db:"access_token"        json:"-"`
	RefreshToken      *string    `db:"refresh_token"       json:"-"`
	TokenExpiresAt    *time.Time `db:"token_expires_at"    json:"token_expires_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"          json:"updated_at"`
}

// HasAccessToken reports whether the account is connected to the platform.
func (a *Account) HasAccessToken() bool {
	return a.AccessToken != nil && *a.AccessToken != ""
}

// HasRefreshToken reports whether an expired token can be renewed.
func (a *Account) HasRefreshToken() bool {
	return a.RefreshToken != nil && *a.RefreshToken != ""
}

// TokenValid reports whether the access token is usable at the given instant.
// A credential without an expiry timestamp is treated as valid until the
// platform rejects it.
func (a *Account) TokenValid(now time.Time) bool {
	if !a.HasAccessToken() {
		return false
	}
	if a.TokenExpiresAt == nil {
		return true
	}
	return a.TokenExpiresAt.After(now)
}

// ProfileID returns the external profile identifier or an empty string.
func (a *Account) ProfileID() string {
	if a.ExternalProfileID == nil {
		return ""
	}
	return *a.ExternalProfileID
}
