package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/mbolis/gyp-site/log"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// DialectOf picks the driver for a connection string: postgres URLs go to
// lib/pq, anything else is treated as a SQLite file path.
func DialectOf(url string) Dialect {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open builds the connection pool and brings the schema up to date.
//
// An empty url is logged and yields a pool that fails on first use, so the
// server still starts and answers with 500 until it is configured.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		log.Error("database.open: DATABASE_URL is not set, queries will fail")
		return sql.Open(string(Postgres), "")
	}

	dialect := DialectOf(url)
	dsn := url
	if dialect == SQLite {
		dsn = sqliteDSN(url)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err = migrateDB(db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// foreign keys are a per-connection setting in SQLite, so they go in the DSN
// where every pooled connection picks them up
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint, for either driver.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
