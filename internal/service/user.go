package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/pkg/logger"
)

const minPasswordLength = 6

type UserRepository interface {
	CreateUser(ctx context.Context, email, hashedPassword string, roles []domain.Role) (int64, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
}

// ValidationError maps request fields to human readable problems.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type UserService struct {
	repo       UserRepository
	privateKey string
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewUserService(repo UserRepository, privateKey string, tokenTTL time.Duration) *UserService {
	return &UserService{
		repo:       repo,
		privateKey: privateKey,
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// WithBcryptCost is used by tests to keep hashing fast.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return "", err
	}

	userID, err := s.repo.CreateUser(ctx, email, hashedPassword, []domain.Role{domain.RoleUser})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return "", ValidationError{"email": "User with this email already exists"}
		}
		return "", err
	}

	logger.Log.Info("user registered", logger.Int64("user_id", userID))
	return s.generateJWTToken(userID)
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	user, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			logger.Log.Warn("incorrect login", logger.String("email", email))
			return "", domain.ErrIncorrectCredentials
		}
		return "", err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		logger.Log.Warn("incorrect password", logger.String("email", email))
		return "", domain.ErrIncorrectCredentials
	}

	return s.generateJWTToken(user.ID)
}

func (s *UserService) Current(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.UserByID(ctx, userID)
}

func (s *UserService) HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Log.Warn("error while hashing password")
		return "", fmt.Errorf("error while hashing password: %w", err)
	}
	return string(hashedPassword), nil
}

func (s *UserService) generateJWTToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.StandardClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.privateKey))
	if err != nil {
		return "", fmt.Errorf("error while signing token: %w", err)
	}

	return signedToken, nil
}

// ParseToken validates a bearer token and returns the user id it was issued for.
func ParseToken(tokenString, privateKey string) (int64, error) {
	var claims jwt.StandardClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(privateKey), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", domain.ErrUnauthenticated, claims.Subject)
	}

	return userID, nil
}

func validateCredentials(email, password string) error {
	errs := ValidationError{}

	if email == "" {
		errs["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Invalid email format"
	}

	if strings.TrimSpace(password) == "" {
		errs["password"] = "Password is required"
	} else if len(password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
