// Package refreshtokens declares the repository contract for refresh token
// records and its PostgreSQL and in-memory implementations. Records are
// keyed by the token hash; plaintext tokens never reach this layer.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/server/models"
)

type Repository interface {
	// Create inserts t and fills in ID and CreatedAt.
	Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error)

	// FindByHash returns common.ErrorNotFound when no record has the hash.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Revoke marks the record revoked. It reports whether a record was
	// found; revoking an already revoked record reports true.
	Revoke(ctx context.Context, tokenHash string) (bool, error)

	// RevokeAllOf revokes every active record of ownerID and returns how many changed.
	RevokeAllOf(ctx context.Context, ownerID string) (int64, error)

	// MarkReplaced revokes oldHash and links it to newHash, but only if the
	// record belongs to ownerID, is not revoked, and expires after now.
	// It reports whether the swap happened.
	MarkReplaced(ctx context.Context, oldHash, newHash, ownerID string, now time.Time) (bool, error)

	// DeleteExpired removes records with expires_at before now, revoked or not.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
