// Package users persists principals.
package users

import (
	"context"

	"github.com/dmitrijs2005/myplanner/internal/server/models"
)

type Repository interface {
	// Create inserts p and fills in ID and CreatedAt. A taken subject yields
	// common.ErrDuplicateSubject.
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)
	GetBySubject(ctx context.Context, subject string) (*models.Principal, error)
	GetByID(ctx context.Context, id string) (*models.Principal, error)
	// LockByID takes a row lock on the principal for the rest of the
	// transaction. Returns common.ErrorNotFound for unknown ids.
	LockByID(ctx context.Context, id string) error
}
