// Package db stores analysis runs in PostgreSQL or SQLite through sqlx.
package db

import (
	"context"
	"strings"

	"gotrack/internal/errors"
	"gotrack/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database and applies the schema migrations
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch driver {
	case DriverPostgres:
		conn, err = sqlx.ConnectContext(ctx, DriverPostgres, url)
	case DriverSQLite:
		conn, err = sqlx.ConnectContext(ctx, DriverSQLite, sqliteDSN(url))
		if err == nil {
			// one connection keeps :memory: databases alive and serializes writers
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, errors.ConfigInvalid("unsupported database driver: " + driver)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	if err := migrationRunner().Run(ctx, conn); err != nil {
		conn.Close()
		return nil, errors.DatabaseError("failed to run migrations", err)
	}
	return conn, nil
}

func sqliteDSN(url string) string {
	dsn := strings.TrimPrefix(url, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if dsn == "" {
		return ":memory:"
	}
	return dsn
}

func migrationRunner() migration.Migrator {
	return migration.NewRunner()
}
