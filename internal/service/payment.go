package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/pkg/logger"
)

// DefaultRentPeriod is how long a rent payment grants access.
const DefaultRentPeriod = 30 * 24 * time.Hour

type ledgerStore interface {
	WithAtomicLedgerUpdate(ctx context.Context, userID int64, fn func(domain.LedgerUpdate) error) error
}

type courseFinder interface {
	FindByCode(ctx context.Context, code string) (*domain.Course, error)
}

// PaymentService moves money between a user's balance and the ledger.
type PaymentService struct {
	ledger     ledgerStore
	catalog    courseFinder
	now        func() time.Time
	rentPeriod time.Duration
}

type PaymentOption func(*PaymentService)

func WithClock(now func() time.Time) PaymentOption {
	return func(s *PaymentService) {
		s.now = now
	}
}

func WithRentPeriod(d time.Duration) PaymentOption {
	return func(s *PaymentService) {
		s.rentPeriod = d
	}
}

func NewPaymentService(ledger ledgerStore, catalog courseFinder, opts ...PaymentOption) *PaymentService {
	s := &PaymentService{
		ledger:     ledger,
		catalog:    catalog,
		now:        time.Now,
		rentPeriod: DefaultRentPeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deposit credits amount to the user's balance and returns the balance the
// deposit produced.
func (s *PaymentService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Transaction, decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		logger.Log.Warn("rejected deposit", logger.Int64("user_id", userID), logger.Stringer("amount", amount), logger.Error(err))
		return nil, decimal.Zero, err
	}

	t := &domain.Transaction{
		Type:      domain.TransactionTypeDeposit,
		Amount:    amount,
		CreatedAt: s.timestamp(),
	}

	var balance decimal.Decimal
	err := s.ledger.WithAtomicLedgerUpdate(ctx, userID, func(u domain.LedgerUpdate) error {
		if err := u.Append(ctx, t); err != nil {
			return err
		}
		balance = u.Balance()
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, s.fail("deposit", userID, err, logger.Stringer("amount", amount))
	}

	logger.Log.Info("deposit committed",
		logger.Int64("user_id", userID),
		logger.Int64("transaction_id", t.ID),
		logger.Stringer("amount", amount),
	)
	return t, balance, nil
}

// PayCourse charges the course price to the user's balance. Rent courses
// get an expiry rentPeriod after the payment, buy courses never expire.
func (s *PaymentService) PayCourse(ctx context.Context, userID int64, course *domain.Course) (*domain.Transaction, error) {
	if course == nil {
		return nil, domain.ErrCourseNotFound
	}
	if !course.Price.IsPositive() {
		logger.Log.Error("course has no positive price", logger.String("code", course.Code), logger.Stringer("price", course.Price))
		return nil, fmt.Errorf("%w: course %s has price %s", domain.ErrInvalidAmount, course.Code, course.Price)
	}

	createdAt := s.timestamp()
	t := &domain.Transaction{
		CourseID:   &course.ID,
		CourseCode: &course.Code,
		Type:       domain.TransactionTypePayment,
		Amount:     course.Price.Neg(),
		CreatedAt:  createdAt,
	}
	if course.Type == domain.CourseTypeRent {
		expiresAt := createdAt.Add(s.rentPeriod)
		t.ExpiresAt = &expiresAt
	}

	err := s.ledger.WithAtomicLedgerUpdate(ctx, userID, func(u domain.LedgerUpdate) error {
		if u.Balance().LessThan(course.Price) {
			return domain.ErrInsufficientFunds
		}
		return u.Append(ctx, t)
	})
	if err != nil {
		return nil, s.fail("payment", userID, err, logger.String("code", course.Code), logger.Stringer("price", course.Price))
	}

	logger.Log.Info("payment committed",
		logger.Int64("user_id", userID),
		logger.Int64("transaction_id", t.ID),
		logger.String("code", course.Code),
		logger.Stringer("amount", t.Amount),
	)
	return t, nil
}

// PayCourseByCode resolves the course through the catalog and pays for it.
func (s *PaymentService) PayCourseByCode(ctx context.Context, userID int64, code string) (*domain.Transaction, *domain.Course, error) {
	course, err := s.catalog.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	t, err := s.PayCourse(ctx, userID, course)
	if err != nil {
		return nil, nil, err
	}

	return t, course, nil
}

// timestamp is truncated to what both databases store.
func (s *PaymentService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// fail passes business outcomes through and reports everything else as a
// storage failure wrapping the cause.
func (s *PaymentService) fail(op string, userID int64, err error, fields ...logger.Field) error {
	fields = append(fields, logger.String("op", op), logger.Int64("user_id", userID))

	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		logger.Log.Warn("insufficient funds", fields...)
		return domain.ErrInsufficientFunds
	case errors.Is(err, domain.ErrUserNotFound):
		logger.Log.Warn("user not found", fields...)
		return domain.ErrUserNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		logger.Log.Warn("balance limit reached", append(fields, logger.Error(err))...)
		return err
	default:
		logger.Log.Error("ledger update failed", append(fields, logger.Error(err))...)
		return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
	}
}
