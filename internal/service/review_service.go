package service

import (
	"context"
	"fmt"
	"strings"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

type ReviewService interface {
	// Review creates or replaces the user's review of a course they are
	// enrolled in and refreshes the course rating.
	Review(ctx context.Context, userID, courseID string, rating int, comment string) (*model.Review, error)
	ListReviews(ctx context.Context, courseID string, limit, offset int) ([]model.Review, error)
}

type reviewService struct {
	reviewRepo     repository.ReviewRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	logger         zerolog.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:     reviewRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger.With().Str("service", "ReviewService").Logger(),
	}
}

func (s *reviewService) Review(ctx context.Context, userID, courseID string, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	e, err := s.enrollmentRepo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotEnrolled
	}

	rv := &model.Review{
		UserID:   userID,
		CourseID: courseID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	}
	if err := s.reviewRepo.UpsertReview(ctx, rv); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("Failed to save review")
		return nil, err
	}
	if err := s.courseRepo.RefreshRating(ctx, courseID); err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("Failed to refresh course rating")
	}
	return rv, nil
}

func (s *reviewService) ListReviews(ctx context.Context, courseID string, limit, offset int) ([]model.Review, error) {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsPublished() {
		return nil, ErrCourseNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.reviewRepo.ListReviewsByCourse(ctx, courseID, limit, offset)
}
