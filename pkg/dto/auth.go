package dto

/**
  {
      "email": "user1@example.com",
      "password": "password"
  }
*/

type Auth struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Token struct {
	Token string `json:"token"`
}

/**
  {
      "email": "user1@example.com",
      "roles": ["ROLE_USER"],
      "balance": "249.50"
  }
*/

type CurrentUser struct {
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Balance string   `json:"balance"`
}
