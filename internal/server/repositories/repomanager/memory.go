package repomanager

import (
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/users"
)

// InMemoryAuthStores hands out the same in-memory repositories regardless
// of the handle. Pair it with dbx.SerialRunner.
type InMemoryAuthStores struct {
	UsersRepo         *users.MemoryRepository
	RefreshTokensRepo *refreshtokens.MemoryRepository
}

func NewInMemoryAuthStores() *InMemoryAuthStores {
	return &InMemoryAuthStores{
		UsersRepo:         users.NewMemoryRepository(),
		RefreshTokensRepo: refreshtokens.NewMemoryRepository(),
	}
}

func (m *InMemoryAuthStores) Users(dbx.DBTX) users.Repository {
	return m.UsersRepo
}

func (m *InMemoryAuthStores) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.RefreshTokensRepo
}
