package dto

/**
  [
      {"code": "MATH101", "type": "rent", "price": "100.00"},
      {"code": "PHYS202", "type": "buy"}
  ]
*/

type Course struct {
	Code  string  `json:"code"`
	Type  string  `json:"type"`
	Price *string `json:"price,omitempty"`
}

/**
  {
      "success": true,
      "course_type": "rent",
      "expires_at": "2026-11-13T10:00:00+00:00"
  }
*/

type Payment struct {
	Success    bool    `json:"success"`
	CourseType string  `json:"course_type"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}
