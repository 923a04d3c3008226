package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/pkg/logger"
)

// CreateUser stores a new account. Roles are kept as a JSON array.
func (s *Store) CreateUser(ctx context.Context, email, hashedPassword string, roles []domain.Role) (int64, error) {
	if roles == nil {
		roles = []domain.Role{}
	}
	encodedRoles, err := json.Marshal(roles)
	if err != nil {
		return 0, fmt.Errorf("error encoding roles: %w", err)
	}

	var id int64
	err = s.DB.QueryRowContext(ctx,
		"INSERT INTO users (email, password, roles, registered_at) VALUES ($1, $2, $3, $4) RETURNING id",
		email, hashedPassword, string(encodedRoles), time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			logger.Log.Warn("user already exists", logger.String("email", email))
			return 0, domain.ErrUserExists
		}
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return id, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT id, email, password, roles, balance, registered_at FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT id, email, password, roles, balance, registered_at FROM users WHERE id = $1", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user  domain.User
		roles string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Password, &roles, &user.Balance, &user.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	if err = json.Unmarshal([]byte(roles), &user.Roles); err != nil {
		return nil, fmt.Errorf("error decoding roles of user %d: %w", user.ID, err)
	}

	return &user, nil
}
