package userhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/handler/middleware"
	"github.com/koyif/billing/internal/handler/response"
	"github.com/koyif/billing/internal/service"
	"github.com/koyif/billing/pkg/dto"
	"github.com/koyif/billing/pkg/logger"
)

type UserService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Current(ctx context.Context, userID int64) (*domain.User, error)
}

type UserHandler struct {
	srv UserService
}

func New(srv UserService) *UserHandler {
	return &UserHandler{
		srv: srv,
	}
}

func (uh *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	auth, ok := decodeAuth(w, r)
	if !ok {
		return
	}

	token, err := uh.srv.Register(r.Context(), auth.Email, auth.Password)
	if err != nil {
		var validation service.ValidationError
		if errors.As(err, &validation) {
			logger.Log.Warn("invalid registration", logger.Error(err))
			response.Validation(w, validation)
			return
		}

		logger.Log.Error("error while registering user", logger.Error(err))
		response.InternalError(w)
		return
	}

	response.JSON(w, http.StatusCreated, dto.Token{Token: token})
}

func (uh *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	auth, ok := decodeAuth(w, r)
	if !ok {
		return
	}

	token, err := uh.srv.Login(r.Context(), auth.Email, auth.Password)
	if err != nil {
		if errors.Is(err, domain.ErrIncorrectCredentials) {
			response.Error(w, http.StatusUnauthorized, "incorrect email or password")
			return
		}

		logger.Log.Error("error while logging in", logger.Error(err))
		response.InternalError(w)
		return
	}

	response.JSON(w, http.StatusOK, dto.Token{Token: token})
}

func (uh *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Authenticated(w, r)
	if !ok {
		return
	}

	user, err := uh.srv.Current(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		logger.Log.Error("error while fetching current user", logger.Int64("user_id", userID), logger.Error(err))
		response.InternalError(w)
		return
	}

	roles := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		roles[i] = string(role)
	}

	response.JSON(w, http.StatusOK, dto.CurrentUser{
		Email:   user.Email,
		Roles:   roles,
		Balance: domain.FormatAmount(user.Balance),
	})
}

func decodeAuth(w http.ResponseWriter, r *http.Request) (dto.Auth, bool) {
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Log.Error("error while closing request body", logger.Error(err))
		}
	}(r.Body)

	var auth dto.Auth
	if err := json.NewDecoder(r.Body).Decode(&auth); err != nil {
		logger.Log.Warn("error while decoding an auth request", logger.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON")
		return auth, false
	}

	return auth, true
}
