package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/pkg/logger"
)

// WithAtomicLedgerUpdate runs fn inside one database transaction holding a
// write lock on the user's balance. Everything fn appended is committed
// together with the new balance when fn returns nil, and rolled back
// otherwise.
func (s *Store) WithAtomicLedgerUpdate(ctx context.Context, userID int64, fn func(domain.LedgerUpdate) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx, "SELECT balance FROM users WHERE id = $1"+s.dialect.lockClause, userID).
		Scan(&balance)
	if err != nil {
		rollback(tx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("error locking user balance: %w", err)
	}

	update := &ledgerUpdate{tx: tx, userID: userID, balance: balance}
	if err = fn(update); err != nil {
		rollback(tx)
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Log.Error("error committing ledger update", logger.Int64("user_id", userID), logger.Error(err))
		return fmt.Errorf("error committing ledger update: %w", err)
	}

	return nil
}

type ledgerUpdate struct {
	tx      *sql.Tx
	userID  int64
	balance decimal.Decimal
}

func (u *ledgerUpdate) Balance() decimal.Decimal {
	return u.balance
}

func (u *ledgerUpdate) Append(ctx context.Context, t *domain.Transaction) error {
	next := u.balance.Add(t.Amount)
	if next.IsNegative() {
		return domain.ErrInsufficientFunds
	}
	if next.GreaterThan(domain.MaxAmount) {
		return fmt.Errorf("%w: balance would exceed %s", domain.ErrInvalidAmount, domain.FormatAmount(domain.MaxAmount))
	}

	var courseID, expiresAt any
	if t.CourseID != nil {
		courseID = *t.CourseID
	}
	if t.ExpiresAt != nil {
		expiresAt = *t.ExpiresAt
	}

	var id int64
	err := u.tx.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, course_id, type, amount, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.userID, courseID, t.Type.String(), t.Amount.String(), t.CreatedAt, expiresAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("error inserting transaction: %w", err)
	}

	res, err := u.tx.ExecContext(ctx, "UPDATE users SET balance = $1 WHERE id = $2", next.String(), u.userID)
	if err != nil {
		return fmt.Errorf("error updating user balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected for balance update: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("balance update touched %d rows", n)
	}

	t.ID = id
	t.UserID = u.userID
	u.balance = next
	return nil
}
