package service

import (
	"context"
	"time"

	"github.com/koyif/billing/internal/domain"
)

type transactionRepository interface {
	Transactions(ctx context.Context, userID int64, filter domain.TransactionFilter, now time.Time) ([]domain.Transaction, error)
}

type TransactionService struct {
	repo transactionRepository
	now  func() time.Time
}

func NewTransactionService(repo transactionRepository, now func() time.Time) *TransactionService {
	if now == nil {
		now = time.Now
	}
	return &TransactionService{repo: repo, now: now}
}

// ListForUser returns the user's ledger newest first.
func (s *TransactionService) ListForUser(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	return s.repo.Transactions(ctx, userID, filter, s.now().UTC())
}
