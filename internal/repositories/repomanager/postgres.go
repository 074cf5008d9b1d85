package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/modelcreator/internal/dbx"
	"github.com/dmitrijs2005/modelcreator/internal/repositories/records"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

// Records returns a records.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewPostgresRepository(db)
}

// RunMigrations applies the postgres migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, "pgx", "postgres")
}
