package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/applications"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/attachments"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// service code runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Applications(db dbx.DBTX) applications.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
