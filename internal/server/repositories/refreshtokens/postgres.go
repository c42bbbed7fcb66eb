package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (token_hash, owner_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, t.TokenHash, t.OwnerID, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token_hash, owner_id, expires_at, revoked, created_at, replaced_by_hash
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	t := &models.RefreshToken{}
	var replacedBy sql.NullString
	err := r.db.QueryRowContext(ctx, query, tokenHash).
		Scan(&t.ID, &t.TokenHash, &t.OwnerID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt, &replacedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if replacedBy.Valid {
		t.ReplacedByHash = &replacedBy.String
	}
	return t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1
	`
	n, err := r.exec(ctx, query, tokenHash)
	return n > 0, err
}

func (r *PostgresRepository) RevokeAllOf(ctx context.Context, ownerID string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE owner_id = $1 AND revoked = FALSE
	`
	return r.exec(ctx, query, ownerID)
}

func (r *PostgresRepository) MarkReplaced(ctx context.Context, oldHash, newHash, ownerID string, now time.Time) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, replaced_by_hash = $2
		WHERE token_hash = $1 AND owner_id = $3 AND revoked = FALSE AND expires_at > $4
	`
	n, err := r.exec(ctx, query, oldHash, newHash, ownerID, now)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`
	return r.exec(ctx, query, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
