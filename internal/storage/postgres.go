package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL     PRIMARY KEY,
		email         VARCHAR(255)  NOT NULL UNIQUE,
		password      VARCHAR(255)  NOT NULL,
		roles         TEXT          NOT NULL DEFAULT '["ROLE_USER"]',
		balance       NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		registered_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id    BIGSERIAL     PRIMARY KEY,
		code  VARCHAR(255)  NOT NULL UNIQUE,
		type  VARCHAR(8)    NOT NULL CHECK (type IN ('rent', 'buy')),
		price NUMERIC(20,2) NOT NULL CHECK (price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id         BIGSERIAL     PRIMARY KEY,
		user_id    BIGINT        NOT NULL REFERENCES users(id),
		course_id  BIGINT        REFERENCES courses(id),
		type       VARCHAR(16)   NOT NULL CHECK (type IN ('deposit', 'payment')),
		amount     NUMERIC(20,2) NOT NULL,
		created_at TIMESTAMPTZ   NOT NULL,
		expires_at TIMESTAMPTZ,
		CHECK ((type = 'payment') = (amount < 0)),
		CHECK (expires_at IS NULL OR type = 'payment')
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created
		ON transactions(user_id, created_at DESC)`,
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("error closing database after ping failure: %w", closeErr)
		}
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{DB: db, dialect: postgresDialect()}, nil
}

func postgresDialect() dialect {
	return dialect{
		name:       DriverPostgres,
		lockClause: " FOR UPDATE",
		schema:     postgresSchema,
		isUniqueViolation: func(err error) bool {
			var pgErr *pgconn.PgError
			return errors.As(err, &pgErr) && pgErr.Code == "23505"
		},
	}
}
