// Package repomanager vends repositories bound to a database handle, so a
// service can run the same repositories on *sql.DB or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vidhub/internal/dbx"
	"github.com/dmitrijs2005/vidhub/internal/server/repositories/channels"
	"github.com/dmitrijs2005/vidhub/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Channels(db dbx.DBTX) channels.Repository
}
