package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/settings"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/users"
)

// AuthStores vends the repositories used by the authentication flow,
// each bound to the given handle.
type AuthStores interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}

type RepositoryManager interface {
	AuthStores
	RunMigrations(context.Context, *sql.DB) error
	Tasks(db dbx.DBTX) tasks.Repository
	Settings(db dbx.DBTX) settings.Repository
}
