package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// user_id defaults to current_tenant_id(), so it is never passed in.
func (r *PostgresRepository) CreateDefaults(ctx context.Context, s *models.Settings) error {
	query :=
		`INSERT INTO user_settings (language, theme, accent_color)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING
		 `
	if _, err := r.db.ExecContext(ctx, query, s.Language, s.Theme, s.AccentColor); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT user_id, language, theme, accent_color FROM user_settings`

	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, query).Scan(&s.UserID, &s.Language, &s.Theme, &s.AccentColor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
