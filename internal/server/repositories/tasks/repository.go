// Package tasks persists tenant-scoped tasks. Queries carry no tenant
// predicate: they must run on a handle bound by tenancy.Binder, and
// row-level security limits them to the bound principal's rows.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/myplanner/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context) ([]*models.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
}
