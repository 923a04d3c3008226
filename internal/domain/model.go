package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser    Role = "ROLE_USER"
	RoleAdmin   Role = "ROLE_ADMIN"
	RoleManager Role = "ROLE_MANAGER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int64
	Email        string
	Password     string
	Roles        []Role
	Balance      decimal.Decimal
	RegisteredAt time.Time
}

type Course struct {
	ID    int64
	Code  string
	Type  CourseType
	Price decimal.Decimal
}

// Transaction is a ledger row. CourseID and CourseCode are nil for deposits;
// ExpiresAt is set only for payments against rent courses.
type Transaction struct {
	ID         int64
	UserID     int64
	CourseID   *int64
	CourseCode *string
	Type       TransactionType
	Amount     decimal.Decimal
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// Expired reports whether the entitlement granted by t has lapsed at now.
// Transactions without an expiry never expire.
func (t Transaction) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// TransactionFilter narrows a ledger listing. Nil fields are not applied.
type TransactionFilter struct {
	Type        *TransactionType
	CourseCode  *string
	SkipExpired bool
}

// LedgerUpdate is the only way to move a user's balance. It is valid for the
// duration of a single atomic ledger update.
type LedgerUpdate interface {
	// Balance returns the locked balance, including any appends made so far.
	Balance() decimal.Decimal
	// Append writes t to the ledger, assigns its ID and moves the balance by
	// t.Amount. It returns ErrInsufficientFunds without writing anything if
	// the balance would go negative, and ErrInvalidAmount if it would exceed
	// MaxAmount.
	Append(ctx context.Context, t *Transaction) error
}
