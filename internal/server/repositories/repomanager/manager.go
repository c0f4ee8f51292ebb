package repomanager

import (
	"context"
	"database/sql"

	"github.com/skydrive/skydrive/internal/dbx"
	"github.com/skydrive/skydrive/internal/server/repositories/files"
	"github.com/skydrive/skydrive/internal/server/repositories/folders"
	"github.com/skydrive/skydrive/internal/server/repositories/refreshtokens"
	"github.com/skydrive/skydrive/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
}
