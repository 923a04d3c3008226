package dto

/**
  {
      "id": 2,
      "created_at": "2026-10-14T10:00:00+00:00",
      "type": "payment",
      "course_code": "MATH101",
      "amount": "-100.00"
  }
*/

type Transaction struct {
	ID         int64   `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Type       string  `json:"type"`
	CourseCode *string `json:"course_code,omitempty"`
	Amount     string  `json:"amount"`
}

/**
  {
      "amount": "100.00"
  }
*/

// Deposit accepts the amount as a JSON number or a string.
type Deposit struct {
	Amount Amount `json:"amount"`
}

type DepositResult struct {
	Success bool   `json:"success"`
	Balance string `json:"balance"`
}

// TimeFormat renders timestamps with a numeric offset, e.g. "+00:00".
const TimeFormat = "2006-01-02T15:04:05-07:00"
