package service

import (
	"context"
	"testing"

	"coursemart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	courses := newFakeCourseRepo(
		&model.Course{ID: "go", Status: model.CourseStatusPublished},
		&model.Course{ID: "draft", Status: model.CourseStatusDraft},
	)
	repo := newFakeWishlistRepo()
	svc := NewWishlistService(repo, courses, zerolog.Nop())

	assert.ErrorIs(t, svc.Add(ctx, "student", "nope"), ErrCourseNotFound)
	assert.ErrorIs(t, svc.Add(ctx, "student", "draft"), ErrCourseNotPublished)

	require.NoError(t, svc.Add(ctx, "student", "go"))
	require.NoError(t, svc.Add(ctx, "student", "go"))
	items, err := svc.List(ctx, "student")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "go", items[0].CourseID)

	require.NoError(t, svc.Remove(ctx, "student", "go"))
	items, err = svc.List(ctx, "student")
	require.NoError(t, err)
	assert.Empty(t, items)
}
