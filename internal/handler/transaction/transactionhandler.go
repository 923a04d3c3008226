package transactionhandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/handler/middleware"
	"github.com/koyif/billing/internal/handler/response"
	"github.com/koyif/billing/pkg/dto"
	"github.com/koyif/billing/pkg/logger"
)

type transactionService interface {
	ListForUser(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	srv transactionService
}

func New(srv transactionService) *TransactionHandler {
	return &TransactionHandler{srv: srv}
}

// List handles GET /transactions?filter[type]=..&filter[course_code]=..&filter[skip_expired]=..
func (h TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.Authenticated(w, r)
	if !ok {
		return
	}

	filter := ParseFilter(r)
	transactions, err := h.srv.ListForUser(r.Context(), userID, filter)
	if err != nil {
		logger.Log.Error("error while fetching transactions", logger.Int64("user_id", userID), logger.Error(err))
		response.InternalError(w)
		return
	}

	dtos := make([]dto.Transaction, len(transactions))
	for i, t := range transactions {
		dtos[i] = dto.Transaction{
			ID:         t.ID,
			CreatedAt:  t.CreatedAt.Format(dto.TimeFormat),
			Type:       t.Type.String(),
			CourseCode: t.CourseCode,
			Amount:     domain.FormatAmount(t.Amount),
		}
	}

	response.JSON(w, http.StatusOK, dtos)
}

// ParseFilter reads the filter[...] query parameters. Unknown types are
// ignored rather than rejected. filter[skip_expired] is switched on only by
// 1, true, yes or on; any other value, "false" included, leaves it off.
func ParseFilter(r *http.Request) domain.TransactionFilter {
	q := r.URL.Query()
	var filter domain.TransactionFilter

	if raw := q.Get("filter[type]"); raw != "" {
		if t, err := domain.ParseTransactionType(raw); err == nil {
			filter.Type = &t
		} else {
			logger.Log.Warn("ignoring unknown transaction type filter", logger.String("type", raw))
		}
	}

	if q.Has("filter[course_code]") {
		code := q.Get("filter[course_code]")
		filter.CourseCode = &code
	}

	switch strings.ToLower(q.Get("filter[skip_expired]")) {
	case "1", "true", "yes", "on":
		filter.SkipExpired = true
	}

	return filter
}
