package coursehandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/handler/response"
	"github.com/koyif/billing/pkg/dto"
	"github.com/koyif/billing/pkg/logger"
)

type catalogService interface {
	ListAll(ctx context.Context) ([]domain.Course, error)
	FindByCode(ctx context.Context, code string) (*domain.Course, error)
}

type CourseHandler struct {
	catalog catalogService
}

func New(catalog catalogService) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

func (h CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListAll(r.Context())
	if err != nil {
		logger.Log.Error("error while fetching courses", logger.Error(err))
		response.InternalError(w)
		return
	}

	dtos := make([]dto.Course, len(courses))
	for i, c := range courses {
		dtos[i] = ToDTO(c)
	}

	response.JSON(w, http.StatusOK, dtos)
}

func (h CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	course, err := h.catalog.FindByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			response.Error(w, http.StatusNotFound, "course not found")
			return
		}

		logger.Log.Error("error while fetching course", logger.String("code", code), logger.Error(err))
		response.InternalError(w)
		return
	}

	response.JSON(w, http.StatusOK, ToDTO(*course))
}

// ToDTO shows the price for every course that is not a buy course. Buy
// courses are still charged their price on payment.
func ToDTO(c domain.Course) dto.Course {
	out := dto.Course{
		Code: c.Code,
		Type: c.Type.String(),
	}
	if c.Type != domain.CourseTypeBuy {
		price := domain.FormatAmount(c.Price)
		out.Price = &price
	}
	return out
}
