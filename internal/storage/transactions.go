package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/koyif/billing/internal/domain"
)

// Transactions lists a user's ledger newest first. now decides which rentals
// count as expired when filter.SkipExpired is set.
func (s *Store) Transactions(ctx context.Context, userID int64, filter domain.TransactionFilter, now time.Time) ([]domain.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT t.id, t.user_id, t.course_id, c.code, t.type, t.amount, t.created_at, t.expires_at
		FROM transactions t
		LEFT JOIN courses c ON c.id = t.course_id
		WHERE t.user_id = $1`)
	args := []any{userID}

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Type != nil {
		sb.WriteString(" AND t.type = " + next(filter.Type.String()))
	}
	if filter.CourseCode != nil {
		sb.WriteString(" AND c.code = " + next(*filter.CourseCode))
	}
	if filter.SkipExpired {
		sb.WriteString(" AND (t.expires_at IS NULL OR t.expires_at > " + next(now) + ")")
	}
	sb.WriteString(" ORDER BY t.created_at DESC, t.id DESC")

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("error fetching transactions: %w", err)
	}
	defer closeRows(rows)

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t          domain.Transaction
			courseID   sql.NullInt64
			courseCode sql.NullString
			expiresAt  sql.NullTime
		)
		err := rows.Scan(&t.ID, &t.UserID, &courseID, &courseCode, &t.Type, &t.Amount, &t.CreatedAt, &expiresAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		if courseID.Valid {
			t.CourseID = &courseID.Int64
		}
		if courseCode.Valid {
			t.CourseCode = &courseCode.String
		}
		if expiresAt.Valid {
			exp := expiresAt.Time.UTC()
			t.ExpiresAt = &exp
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return transactions, nil
}
