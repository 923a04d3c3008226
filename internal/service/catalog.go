package service

import (
	"context"
	"errors"

	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/pkg/logger"
)

type courseRepository interface {
	Courses(ctx context.Context) ([]domain.Course, error)
	CourseByCode(ctx context.Context, code string) (*domain.Course, error)
}

// CatalogService is the read-only view of the course catalogue.
type CatalogService struct {
	repo courseRepository
}

func NewCatalogService(repo courseRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Course, error) {
	return s.repo.Courses(ctx)
}

func (s *CatalogService) FindByCode(ctx context.Context, code string) (*domain.Course, error) {
	course, err := s.repo.CourseByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			logger.Log.Warn("course not found", logger.String("code", code))
		}
		return nil, err
	}

	return course, nil
}
