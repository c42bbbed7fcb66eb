// Package ledger is the server-side registry of issued refresh tokens.
// It stores SHA-256 hashes only and makes rotation a single atomic step:
// of two concurrent rotations of the same token exactly one succeeds.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/repomanager"
)

// HashToken returns the lowercase hex SHA-256 of token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type Ledger struct {
	tx     dbx.TxRunner
	stores repomanager.AuthStores
	ttl    time.Duration
	now    func() time.Time
}

// New builds a Ledger. ttl is the lifetime used when CreateToken gets a
// zero expiry.
func New(tx dbx.TxRunner, stores repomanager.AuthStores, ttl time.Duration) *Ledger {
	return &Ledger{tx: tx, stores: stores, ttl: ttl, now: time.Now}
}

// CreateToken records token for ownerID. A zero expiresAt means now plus
// the default lifetime.
func (l *Ledger) CreateToken(ctx context.Context, token, ownerID string, expiresAt time.Time) (*models.RefreshToken, error) {
	if expiresAt.IsZero() {
		expiresAt = l.now().Add(l.ttl)
	}
	rec, err := l.stores.RefreshTokens(l.tx.Conn()).Create(ctx, &models.RefreshToken{
		TokenHash: HashToken(token),
		OwnerID:   ownerID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating refresh token: %w", err)
	}
	return rec, nil
}

// FindToken returns the record for token or common.ErrorNotFound.
func (l *Ledger) FindToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return l.stores.RefreshTokens(l.tx.Conn()).FindByHash(ctx, HashToken(token))
}

// IsTokenValid reports whether token is known, not revoked and not expired.
// An unknown token is simply invalid.
func (l *Ledger) IsTokenValid(ctx context.Context, token string) (bool, error) {
	rec, err := l.FindToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec.IsValid(l.now()), nil
}

// RevokeToken revokes token. It reports false when the token is unknown;
// revoking twice is not an error.
func (l *Ledger) RevokeToken(ctx context.Context, token string) (bool, error) {
	return l.stores.RefreshTokens(l.tx.Conn()).Revoke(ctx, HashToken(token))
}

// RevokeAllOf revokes every active token of ownerID. It holds the owner's
// row lock, so it serializes with RotateToken for the same owner.
func (l *Ledger) RevokeAllOf(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := l.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := l.stores.Users(tx).LockByID(ctx, ownerID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		var err error
		n, err = l.stores.RefreshTokens(tx).RevokeAllOf(ctx, ownerID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return n, nil
}

// RotateToken retires oldToken and records newToken in one transaction.
// oldToken must belong to ownerID and be valid; otherwise nothing is written
// and common.ErrInvalidOrRevokedToken is returned.
func (l *Ledger) RotateToken(ctx context.Context, oldToken, newToken, ownerID string) (*models.RefreshToken, error) {
	oldHash, newHash := HashToken(oldToken), HashToken(newToken)

	var rec *models.RefreshToken
	err := l.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := l.stores.Users(tx).LockByID(ctx, ownerID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrPrincipalNotFound
			}
			return err
		}

		now := l.now()
		repo := l.stores.RefreshTokens(tx)

		swapped, err := repo.MarkReplaced(ctx, oldHash, newHash, ownerID, now)
		if err != nil {
			return err
		}
		if !swapped {
			return common.ErrInvalidOrRevokedToken
		}

		rec, err = repo.Create(ctx, &models.RefreshToken{
			TokenHash: newHash,
			OwnerID:   ownerID,
			ExpiresAt: now.Add(l.ttl),
		})
		return err
	})
	if err != nil {
		if common.KindOf(err) != common.KindInternal {
			return nil, err
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}
	return rec, nil
}

// CleanupExpiredTokens deletes every record past its expiry, revoked or
// not, and returns how many were removed.
func (l *Ledger) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := l.stores.RefreshTokens(l.tx.Conn()).DeleteExpired(ctx, l.now())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired refresh tokens: %w", err)
	}
	return n, nil
}
