package service

import (
	"context"
	"testing"

	"coursemart/internal/model"
	"coursemart/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture() (CartService, *fakeCartRepo, *fakeEnrollmentRepo) {
	courses := newFakeCourseRepo(
		&model.Course{ID: "go", InstructorID: "instructor", Title: "Go", PriceCents: 4000, Status: model.CourseStatusPublished},
		&model.Course{ID: "sql", InstructorID: "instructor", Title: "SQL", PriceCents: 6000, SalePriceCents: ptr(int64(4500)), Status: model.CourseStatusPublished},
		&model.Course{ID: "draft", InstructorID: "instructor", Title: "Draft", PriceCents: 1000, Status: model.CourseStatusDraft},
	)
	users := newFakeUserRepo(
		&model.User{UserID: "student", PreferredCurrency: "NGN"},
		&model.User{UserID: "instructor", Role: model.RoleInstructor},
	)
	cart := newFakeCartRepo(courses)
	enrollments := newFakeEnrollmentRepo()
	svc := NewCartService(cart, courses, enrollments, users, pricing.Default(), zerolog.Nop())
	return svc, cart, enrollments
}

func TestCartAddItem(t *testing.T) {
	ctx := context.Background()
	svc, cart, enrollments := newCartFixture()
	_, err := enrollments.CreateEnrollment(ctx, &model.Enrollment{UserID: "student", CourseID: "sql"})
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(ctx, "student", "go"))
	require.NoError(t, svc.AddItem(ctx, "student", "go"))
	assert.Equal(t, []string{"go"}, cart.items["student"])

	tests := []struct {
		user, course string
		want         error
	}{
		{"student", "missing", ErrCourseNotFound},
		{"student", "draft", ErrCourseNotPublished},
		{"instructor", "go", ErrOwnCourse},
		{"student", "sql", ErrAlreadyEnrolled},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, svc.AddItem(ctx, tt.user, tt.course), tt.want, "%s/%s", tt.user, tt.course)
	}
}

func TestCartGetCartConvertsSubtotal(t *testing.T) {
	ctx := context.Background()
	svc, cart, _ := newCartFixture()
	cart.items["student"] = []string{"go", "sql"}

	// preferred currency is used when none is requested
	c, err := svc.GetCart(ctx, "student", "")
	require.NoError(t, err)
	assert.Equal(t, "NGN", c.Currency)
	assert.Equal(t, int64(8500), c.SubtotalUSD, "sale price counts")
	assert.Equal(t, int64(8500*1550), c.Subtotal)
	assert.Equal(t, []string{"go", "sql"}, c.CourseIDs())

	c, err = svc.GetCart(ctx, "student", "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, int64(8500), c.Subtotal)

	c, err = svc.GetCart(ctx, "instructor", "")
	require.NoError(t, err)
	assert.Equal(t, pricing.BaseCurrency, c.Currency)
	assert.Empty(t, c.Items)

	_, err = svc.GetCart(ctx, "student", "XYZ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
