// Package fixtures seeds the course catalogue, demo accounts and their
// ledger history.
package fixtures

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/pkg/logger"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type Fixtures struct {
	Courses []Course `yaml:"courses"`
	Users   []User   `yaml:"users"`
}

type Course struct {
	Code  string            `yaml:"code"`
	Type  domain.CourseType `yaml:"type"`
	Price decimal.Decimal   `yaml:"price"`
}

// User is a demo account with the ledger History it is seeded with.
type User struct {
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Roles    []domain.Role `yaml:"roles"`
	History  []Entry       `yaml:"history"`
}

// Entry is either a deposit or a payment for a course, Ago before seeding.
type Entry struct {
	Deposit decimal.Decimal `yaml:"deposit"`
	Course  string          `yaml:"course"`
	Ago     time.Duration   `yaml:"ago"`
}

type Repository interface {
	CreateCourse(ctx context.Context, c *domain.Course) (bool, error)
	CourseByCode(ctx context.Context, code string) (*domain.Course, error)
	CreateUser(ctx context.Context, email, hashedPassword string, roles []domain.Role) (int64, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	Transactions(ctx context.Context, userID int64, filter domain.TransactionFilter, now time.Time) ([]domain.Transaction, error)
}

type Payments interface {
	Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Transaction, decimal.Decimal, error)
	PayCourse(ctx context.Context, userID int64, course *domain.Course) (*domain.Transaction, error)
}

// PaymentsAt returns a payment engine whose clock reads at.
type PaymentsAt func(at time.Time) Payments

type Hasher func(password string) (string, error)

func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// FromFile reads fixtures from path, falling back to the built-in set when
// path is empty.
func FromFile(path string) (*Fixtures, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening fixtures: %w", err)
	}
	defer func(f io.Closer) {
		if err := f.Close(); err != nil {
			logger.Log.Error("error closing fixtures file", logger.Error(err))
		}
	}(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading fixtures: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("error parsing fixtures: %w", err)
	}

	courses := make(map[string]bool, len(fx.Courses))
	for _, c := range fx.Courses {
		if c.Code == "" {
			return nil, errors.New("fixture course without code")
		}
		if courses[c.Code] {
			return nil, fmt.Errorf("duplicate fixture course %s", c.Code)
		}
		courses[c.Code] = true
		if err := domain.ValidateAmount(c.Price); err != nil {
			return nil, fmt.Errorf("fixture course %s: %w", c.Code, err)
		}
	}

	users := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		if u.Email == "" {
			return nil, errors.New("fixture user without email")
		}
		if users[u.Email] {
			return nil, fmt.Errorf("duplicate fixture user %s", u.Email)
		}
		users[u.Email] = true
		if len(u.Roles) == 0 {
			return nil, fmt.Errorf("fixture user %s has no roles", u.Email)
		}
		for _, r := range u.Roles {
			if !r.Valid() {
				return nil, fmt.Errorf("fixture user %s: unknown role %q", u.Email, r)
			}
		}
		if err := validateHistory(u.History, courses); err != nil {
			return nil, fmt.Errorf("fixture user %s: %w", u.Email, err)
		}
	}

	return &fx, nil
}

func validateHistory(history []Entry, courses map[string]bool) error {
	for i, e := range history {
		switch {
		case e.Course == "" && e.Deposit.IsZero():
			return fmt.Errorf("history entry %d is neither a deposit nor a payment", i)
		case e.Course != "" && !e.Deposit.IsZero():
			return fmt.Errorf("history entry %d is both a deposit and a payment", i)
		case e.Course != "" && !courses[e.Course]:
			return fmt.Errorf("history entry %d: unknown course %s", i, e.Course)
		case e.Ago < 0:
			return fmt.Errorf("history entry %d is in the future", i)
		case i > 0 && e.Ago > history[i-1].Ago:
			return fmt.Errorf("history entry %d is older than the one before it", i)
		}
		if e.Course == "" {
			if err := domain.ValidateAmount(e.Deposit); err != nil {
				return fmt.Errorf("history entry %d: %w", i, err)
			}
		}
	}
	return nil
}

// Load inserts everything that is not present yet. A user's history is
// replayed only while their ledger is a prefix of it, continuing after the
// entries already there, so an interrupted run can be repeated.
func Load(ctx context.Context, fx *Fixtures, repo Repository, payments PaymentsAt, hash Hasher, now time.Time) error {
	for _, c := range fx.Courses {
		created, err := repo.CreateCourse(ctx, &domain.Course{Code: c.Code, Type: c.Type, Price: c.Price})
		if err != nil {
			return err
		}
		if created {
			logger.Log.Info("course created", logger.String("code", c.Code), logger.String("type", c.Type.String()))
		}
	}

	for _, u := range fx.Users {
		id, err := ensureUser(ctx, repo, u, hash)
		if err != nil {
			return err
		}
		if len(u.History) == 0 {
			continue
		}

		ledger, err := repo.Transactions(ctx, id, domain.TransactionFilter{}, now)
		if err != nil {
			return err
		}
		done, ok := replayed(u.History, ledger)
		if !ok {
			logger.Log.Info("user ledger diverged from fixtures, leaving it alone", logger.String("email", u.Email))
			continue
		}
		if done == len(u.History) {
			continue
		}

		if err := replay(ctx, repo, payments, id, u.History[done:], now); err != nil {
			return fmt.Errorf("error replaying history of fixture user %s: %w", u.Email, err)
		}
		logger.Log.Info("user history seeded", logger.String("email", u.Email), logger.Int("entries", len(u.History)-done))
	}

	return nil
}

func ensureUser(ctx context.Context, repo Repository, u User, hash Hasher) (int64, error) {
	existing, err := repo.UserByEmail(ctx, u.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return 0, err
	}

	hashed, err := hash(u.Password)
	if err != nil {
		return 0, err
	}

	id, err := repo.CreateUser(ctx, u.Email, hashed, u.Roles)
	if err != nil {
		return 0, err
	}
	logger.Log.Info("user created", logger.String("email", u.Email), logger.Int64("user_id", id))
	return id, nil
}

// replayed reports how many leading history entries the ledger already
// holds, and false when the ledger is not a prefix of history.
func replayed(history []Entry, ledger []domain.Transaction) (int, bool) {
	if len(ledger) > len(history) {
		return 0, false
	}
	for i := range ledger {
		t, e := ledger[len(ledger)-1-i], history[i]
		switch {
		case e.Course == "":
			if t.Type != domain.TransactionTypeDeposit || !t.Amount.Equal(e.Deposit) {
				return 0, false
			}
		default:
			if t.Type != domain.TransactionTypePayment || t.CourseCode == nil || *t.CourseCode != e.Course {
				return 0, false
			}
		}
	}
	return len(ledger), true
}

func replay(ctx context.Context, repo Repository, payments PaymentsAt, userID int64, history []Entry, now time.Time) error {
	for _, e := range history {
		engine := payments(now.Add(-e.Ago))

		if e.Course == "" {
			if _, _, err := engine.Deposit(ctx, userID, e.Deposit); err != nil {
				return err
			}
			continue
		}

		course, err := repo.CourseByCode(ctx, e.Course)
		if err != nil {
			return err
		}
		if _, err := engine.PayCourse(ctx, userID, course); err != nil {
			return fmt.Errorf("payment for %s: %w", e.Course, err)
		}
	}
	return nil
}
