// Package settings persists per-principal UI preferences in the
// tenant-scoped user_settings table.
package settings

import (
	"context"

	"github.com/dmitrijs2005/myplanner/internal/server/models"
)

type Repository interface {
	// CreateDefaults inserts s for the bound principal unless a row exists.
	CreateDefaults(ctx context.Context, s *models.Settings) error
	Get(ctx context.Context) (*models.Settings, error)
}
