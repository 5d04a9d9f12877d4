package service

import (
	"context"
	"testing"

	"coursemart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview(t *testing.T) {
	ctx := context.Background()
	courses := newFakeCourseRepo(
		&model.Course{ID: "go", InstructorID: "instructor", Status: model.CourseStatusPublished},
	)
	enrollments := newFakeEnrollmentRepo()
	_, err := enrollments.CreateEnrollment(ctx, &model.Enrollment{UserID: "student", CourseID: "go"})
	require.NoError(t, err)
	reviews := newFakeReviewRepo()
	svc := NewReviewService(reviews, courses, enrollments, zerolog.Nop())

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Review(ctx, "student", "go", rating, "")
		assert.ErrorIs(t, err, ErrInvalidInput, "rating %d", rating)
	}
	_, err = svc.Review(ctx, "stranger", "go", 5, "great")
	assert.ErrorIs(t, err, ErrNotEnrolled)
	assert.Empty(t, reviews.reviews)
	assert.Empty(t, courses.refreshed)

	rv, err := svc.Review(ctx, "student", "go", 4, "  solid intro  ")
	require.NoError(t, err)
	assert.Equal(t, "solid intro", rv.Comment)

	_, err = svc.Review(ctx, "student", "go", 5, "even better on a second read")
	require.NoError(t, err)
	require.Len(t, reviews.reviews, 1)
	assert.Equal(t, 5, reviews.reviews[enrollmentKey("student", "go")].Rating)
	assert.Equal(t, []string{"go", "go"}, courses.refreshed)
}

func TestListReviews(t *testing.T) {
	ctx := context.Background()
	courses := newFakeCourseRepo(
		&model.Course{ID: "go", Status: model.CourseStatusPublished},
		&model.Course{ID: "draft", Status: model.CourseStatusDraft},
	)
	reviews := newFakeReviewRepo()
	for _, user := range []string{"a", "b", "c"} {
		require.NoError(t, reviews.UpsertReview(ctx, &model.Review{UserID: user, CourseID: "go", Rating: 5}))
	}
	svc := NewReviewService(reviews, courses, newFakeEnrollmentRepo(), zerolog.Nop())

	tests := []struct {
		name          string
		course        string
		limit, offset int
		want          int
		err           error
	}{
		{"default limit", "go", 0, 0, 3, nil},
		{"paged", "go", 2, 1, 2, nil},
		{"negative offset", "go", 10, -3, 3, nil},
		{"draft course", "draft", 10, 0, 0, ErrCourseNotFound},
		{"missing course", "nope", 10, 0, 0, ErrCourseNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListReviews(ctx, tt.course, tt.limit, tt.offset)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
