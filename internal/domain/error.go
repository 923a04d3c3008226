package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrCourseNotFound       = errors.New("course not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrStorage              = errors.New("storage failure")
)
