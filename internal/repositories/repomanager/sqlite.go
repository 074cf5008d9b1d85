package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/modelcreator/internal/dbx"
	"github.com/dmitrijs2005/modelcreator/internal/repositories/records"
)

// SQLiteRepositoryManager vends SQLite-backed repositories for local use.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "sqlite3", "sqlite")
}
