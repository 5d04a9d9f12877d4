package service

import (
	"context"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

const topCourses = 5

type DashboardService interface {
	InstructorStats(ctx context.Context, userID string) (*model.InstructorStats, error)
	// Recommend suggests published courses from categories the user engages
	// with, falling back to the most popular courses.
	Recommend(ctx context.Context, userID string, limit int) ([]model.Course, error)
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	courseRepo    repository.CourseRepository
	userRepo      repository.UserRepository
	logger        zerolog.Logger
}

func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		courseRepo:    courseRepo,
		userRepo:      userRepo,
		logger:        logger.With().Str("service", "DashboardService").Logger(),
	}
}

func (s *dashboardService) InstructorStats(ctx context.Context, userID string) (*model.InstructorStats, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.CanTeach() {
		return nil, ErrForbidden
	}
	stats, err := s.dashboardRepo.GetInstructorStats(ctx, userID, topCourses)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load instructor stats")
		return nil, err
	}
	return stats, nil
}

func (s *dashboardService) Recommend(ctx context.Context, userID string, limit int) ([]model.Course, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	courses, err := s.courseRepo.Recommend(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		return courses, nil
	}
	return s.courseRepo.Popular(ctx, userID, limit)
}
