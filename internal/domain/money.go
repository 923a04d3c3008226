package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for monetary values.
const MoneyScale = 2

// MoneyIntegerDigits matches the NUMERIC(20,2) columns of the ledger.
const MoneyIntegerDigits = 18

// MaxAmount is the largest amount or balance the ledger can hold.
var MaxAmount = decimal.New(1, MoneyIntegerDigits).Sub(decimal.New(1, -MoneyScale))

// ParseAmount parses a user-supplied amount. It must be a positive decimal
// with at most MoneyScale fractional digits, no larger than MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount looks at digit counts before doing any arithmetic, so that
// inputs like "1e1000000" are refused without being expanded.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}

	digits, exp := int64(d.NumDigits()), int64(d.Exponent())
	if digits+exp > MoneyIntegerDigits {
		return fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, FormatAmount(MaxAmount))
	}
	if -exp-MoneyScale > digits || !d.Equal(d.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: at most %d fractional digits allowed", ErrInvalidAmount, MoneyScale)
	}
	if d.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, FormatAmount(MaxAmount))
	}
	return nil
}

// FormatAmount renders d the way it appears on the wire, e.g. "-40.00".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
