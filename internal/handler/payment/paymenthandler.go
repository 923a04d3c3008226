package paymenthandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/handler/middleware"
	"github.com/koyif/billing/internal/handler/response"
	"github.com/koyif/billing/pkg/dto"
	"github.com/koyif/billing/pkg/logger"
)

type paymentService interface {
	Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Transaction, decimal.Decimal, error)
	PayCourseByCode(ctx context.Context, userID int64, code string) (*domain.Transaction, *domain.Course, error)
}

type PaymentHandler struct {
	payments paymentService
}

func New(payments paymentService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
	}
}

func (h PaymentHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Authenticated(w, r)
	if !ok {
		return
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Log.Error("error while closing request body", logger.Error(err))
		}
	}(r.Body)

	var req dto.Deposit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("error while decoding a deposit request", logger.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	amount, err := domain.ParseAmount(string(req.Amount))
	if err != nil {
		logger.Log.Warn("invalid deposit amount", logger.Int64("user_id", userID), logger.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	_, balance, err := h.payments.Deposit(r.Context(), userID, amount)
	if err != nil {
		writePaymentError(w, userID, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.DepositResult{
		Success: true,
		Balance: domain.FormatAmount(balance),
	})
}

func (h PaymentHandler) PayCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Authenticated(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	t, course, err := h.payments.PayCourseByCode(r.Context(), userID, code)
	if err != nil {
		writePaymentError(w, userID, err)
		return
	}

	resp := dto.Payment{
		Success:    true,
		CourseType: course.Type.String(),
	}
	if t.ExpiresAt != nil {
		expiresAt := t.ExpiresAt.Format(dto.TimeFormat)
		resp.ExpiresAt = &expiresAt
	}

	response.JSON(w, http.StatusOK, resp)
}

func writePaymentError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		response.Error(w, http.StatusBadRequest, "invalid amount")
	case errors.Is(err, domain.ErrCourseNotFound):
		response.Error(w, http.StatusNotFound, "course not found")
	case errors.Is(err, domain.ErrInsufficientFunds):
		response.Error(w, http.StatusNotAcceptable, "insufficient funds")
	case errors.Is(err, domain.ErrUserNotFound):
		response.Error(w, http.StatusUnauthorized, "authentication required")
	default:
		logger.Log.Error("payment failed", logger.Int64("user_id", userID), logger.Error(err))
		response.InternalError(w)
	}
}
