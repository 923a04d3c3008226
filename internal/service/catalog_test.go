package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyif/billing/internal/domain"
)

func TestCatalogService(t *testing.T) {
	s := openStore(t)
	newCourse(t, s, "MATH101", domain.CourseTypeRent, "100")
	newCourse(t, s, "PHYS202", domain.CourseTypeBuy, "250")
	catalog := NewCatalogService(s)

	courses, err := catalog.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "MATH101", courses[0].Code)
	assert.Equal(t, "PHYS202", courses[1].Code)

	c, err := catalog.FindByCode(context.Background(), "PHYS202")
	require.NoError(t, err)
	assert.Equal(t, domain.CourseTypeBuy, c.Type)
	assert.Equal(t, "250.00", domain.FormatAmount(c.Price))

	_, err = catalog.FindByCode(context.Background(), "phys202")
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}
