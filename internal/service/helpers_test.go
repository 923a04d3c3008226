package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/storage"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 123456789, time.UTC)

func fixedClock() time.Time { return testNow }

func openStore(t *testing.T) *storage.Store {
	t.Helper()

	s, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "billing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	return s
}

func newUser(t *testing.T, s *storage.Store, email string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), email, "hash", []domain.Role{domain.RoleUser})
	require.NoError(t, err)
	return id
}

func newCourse(t *testing.T, s *storage.Store, code string, ct domain.CourseType, price string) *domain.Course {
	t.Helper()
	ctx := context.Background()

	_, err := s.CreateCourse(ctx, &domain.Course{Code: code, Type: ct, Price: decimal.RequireFromString(price)})
	require.NoError(t, err)
	c, err := s.CourseByCode(ctx, code)
	require.NoError(t, err)
	return c
}

func balanceOf(t *testing.T, s *storage.Store, userID int64) string {
	t.Helper()
	u, err := s.UserByID(context.Background(), userID)
	require.NoError(t, err)
	return domain.FormatAmount(u.Balance)
}

func ledgerOf(t *testing.T, s *storage.Store, userID int64) []domain.Transaction {
	t.Helper()
	ts, err := s.Transactions(context.Background(), userID, domain.TransactionFilter{}, testNow)
	require.NoError(t, err)
	return ts
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
