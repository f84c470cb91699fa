package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/giftdesk/internal/dbx"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/employees"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/sessions"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path serves both plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Employees(db dbx.DBTX) employees.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
