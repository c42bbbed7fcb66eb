package models

import "time"

// RefreshToken is the server-side record of an issued refresh token.
// Only the SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        string
	TokenHash string
	OwnerID   string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	// ReplacedByHash is set by the rotation that revoked this record.
	ReplacedByHash *string
}

// IsValid reports whether the record may still be exchanged at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return t != nil && !t.Revoked && t.ExpiresAt.After(now)
}
