package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koyif/billing/internal/domain"
)

// CreateCourse inserts c unless a course with the same code exists. It
// reports whether a row was written.
func (s *Store) CreateCourse(ctx context.Context, c *domain.Course) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO courses (code, type, price) VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING",
		c.Code, c.Type.String(), c.Price.String(),
	)
	if err != nil {
		return false, fmt.Errorf("error creating course %s: %w", c.Code, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking rows affected for course %s: %w", c.Code, err)
	}

	return n > 0, nil
}

func (s *Store) Courses(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, code, type, price FROM courses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("error fetching courses: %w", err)
	}
	defer closeRows(rows)

	courses := make([]domain.Course, 0)
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Type, &c.Price); err != nil {
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		courses = append(courses, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over courses: %w", err)
	}

	return courses, nil
}

func (s *Store) CourseByCode(ctx context.Context, code string) (*domain.Course, error) {
	var c domain.Course
	err := s.DB.QueryRowContext(ctx, "SELECT id, code, type, price FROM courses WHERE code = $1", code).
		Scan(&c.ID, &c.Code, &c.Type, &c.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error fetching course: %w", err)
	}

	return &c, nil
}
