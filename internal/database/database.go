package database

import (
	"context"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Driver picks pgx for postgres URLs and the embedded sqlite driver for everything else.
func Driver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx"
	}
	return "sqlite"
}

func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver := Driver(dsn)
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one writer, and every connection must see the same :memory: database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
