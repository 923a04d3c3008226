package domain

import "fmt"

type CourseType uint8

const (
	CourseTypeRent CourseType = iota + 1
	CourseTypeBuy
)

func (c CourseType) String() string {
	switch c {
	case CourseTypeRent:
		return "rent"
	case CourseTypeBuy:
		return "buy"
	default:
		return fmt.Sprintf("CourseType(%d)", uint8(c))
	}
}

func ParseCourseType(s string) (CourseType, error) {
	switch s {
	case "rent":
		return CourseTypeRent, nil
	case "buy":
		return CourseTypeBuy, nil
	default:
		return 0, fmt.Errorf("unknown course type %q", s)
	}
}

func (c *CourseType) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scanning course type: %w", err)
	}
	*c, err = ParseCourseType(s)
	return err
}

// UnmarshalText lets fixture files spell course types as "rent" or "buy".
func (c *CourseType) UnmarshalText(text []byte) error {
	t, err := ParseCourseType(string(text))
	if err != nil {
		return err
	}
	*c = t
	return nil
}

type TransactionType uint8

const (
	TransactionTypeDeposit TransactionType = iota + 1
	TransactionTypePayment
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "deposit"
	case TransactionTypePayment:
		return "payment"
	default:
		return fmt.Sprintf("TransactionType(%d)", uint8(t))
	}
}

func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "deposit":
		return TransactionTypeDeposit, nil
	case "payment":
		return TransactionTypePayment, nil
	default:
		return 0, fmt.Errorf("unknown transaction type %q", s)
	}
}

func (t *TransactionType) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scanning transaction type: %w", err)
	}
	*t, err = ParseTransactionType(s)
	return err
}

func scanText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}
