package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/mattn/go-sqlite3"
)

// Amounts are TEXT so that SQLite's numeric affinity never turns them into
// floating point.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER  PRIMARY KEY AUTOINCREMENT,
		email         TEXT     NOT NULL UNIQUE,
		password      TEXT     NOT NULL,
		roles         TEXT     NOT NULL DEFAULT '["ROLE_USER"]',
		balance       TEXT     NOT NULL DEFAULT '0',
		registered_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		code  TEXT    NOT NULL UNIQUE,
		type  TEXT    NOT NULL CHECK (type IN ('rent', 'buy')),
		price TEXT    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER  NOT NULL REFERENCES users(id),
		course_id  INTEGER  REFERENCES courses(id),
		type       TEXT     NOT NULL CHECK (type IN ('deposit', 'payment')),
		amount     TEXT     NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME,
		CHECK (expires_at IS NULL OR type = 'payment')
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created
		ON transactions(user_id, created_at DESC)`,
}

// OpenSQLite opens (or creates) a database file at path.
//
// Transactions start with BEGIN IMMEDIATE and the pool holds a single
// connection, so ledger updates are serialized the same way a row lock
// serializes them on Postgres.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	params := url.Values{}
	params.Set("_txlock", "immediate")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")

	db, err := sql.Open("sqlite3", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("error closing database after ping failure: %w", closeErr)
		}
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{DB: db, dialect: sqliteDialect()}, nil
}

func sqliteDialect() dialect {
	return dialect{
		name:   DriverSQLite,
		schema: sqliteSchema,
		isUniqueViolation: func(err error) bool {
			var sqliteErr sqlite3.Error
			return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
		},
	}
}
