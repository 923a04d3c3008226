package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/koyif/billing/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const transactionRollbackError = "error rolling back transaction"

// dialect holds what differs between the supported databases. Queries are
// written once with $N placeholders, which both drivers accept as long as
// the numbers first appear in ascending order.
type dialect struct {
	name              string
	lockClause        string
	schema            []string
	isUniqueViolation func(error) bool
}

// Store is the ledger store shared by the Postgres and SQLite backends.
type Store struct {
	DB      *sql.DB
	dialect dialect
}

func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Migrate creates the schema. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	logger.Log.Info("migrations completed", logger.String("driver", s.dialect.name))
	return nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logger.Log.Error(transactionRollbackError, logger.Error(err))
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Log.Error("error closing rows", logger.Error(err))
	}
}
