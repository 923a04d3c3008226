package dto

/**
  {
      "code": 406,
      "message": "insufficient funds"
  }
*/

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

/**
  {
      "errors": {"email": "Invalid email format"}
  }
*/

type ValidationErrors struct {
	Errors map[string]string `json:"errors"`
}
