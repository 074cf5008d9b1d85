package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/modelcreator/internal/filex"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Driver returns the database/sql driver name registered for the dialect.
func (d Dialect) Driver() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// ParseDSN picks the dialect from the DSN scheme and returns the data source
// name in the form the driver expects.
//
//	postgres://..., postgresql://...  -> pgx, unchanged
//	sqlite://path                     -> sqlite, "path"
//	file:..., :memory:, plain path    -> sqlite, unchanged
func ParseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite dsn without path")
		}
		return DialectSQLite, path, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return DialectSQLite, dsn, nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported database scheme in %q", dsn)
	default:
		return DialectSQLite, dsn, nil
	}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the database named by dsn and checks it is reachable.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	if dialect == DialectSQLite && isSQLiteFile(source) {
		if _, err := filex.EnsureParentDir(source); err != nil {
			return nil, "", err
		}
	}

	db, err := sqlOpen(dialect.Driver(), source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY and keeps :memory: on one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	return db, dialect, nil
}

// isSQLiteFile reports whether source is a plain file path.
func isSQLiteFile(source string) bool {
	return source != ":memory:" && !strings.HasPrefix(source, "file:")
}
