package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/pricing"
	"coursemart/internal/service"

	"github.com/rs/zerolog"
)

// DashboardHandler serves instructor statistics and learner recommendations
type DashboardHandler struct {
	dashboardService service.DashboardService
	prices           *pricing.Table
	logger           zerolog.Logger
}

func NewDashboardHandler(dashboardService service.DashboardService, prices *pricing.Table, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, prices: prices, logger: logger}
}

func (h *DashboardHandler) GetInstructorDashboard(ctx context.Context, input *operation.GetInstructorDashboardInput) (*operation.GetInstructorDashboardOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := h.dashboardService.InstructorStats(ctx, userID)
	if err != nil {
		return nil, serviceError(err, "Failed to load dashboard")
	}
	top := make([]dto.CourseStatDTO, 0, len(stats.TopCourses))
	for _, c := range stats.TopCourses {
		top = append(top, dto.CourseStatDTO{
			CourseID:        c.CourseID,
			Title:           c.Title,
			EnrollmentCount: c.EnrollmentCount,
			RatingAvg:       c.RatingAvg,
			RevenueUSDCents: c.RevenueUSDCents,
		})
	}
	return &operation.GetInstructorDashboardOutput{
		Body: dto.InstructorDashboardDTO{
			DraftCourses:         stats.DraftCourses,
			PublishedCourses:     stats.PublishedCourses,
			ArchivedCourses:      stats.ArchivedCourses,
			TotalEnrollments:     stats.TotalEnrollments,
			CompletedEnrollments: stats.CompletedEnrollments,
			RevenueUSDCents:      stats.RevenueUSDCents,
			AverageRating:        stats.AverageRating,
			TopCourses:           top,
		},
	}, nil
}

func (h *DashboardHandler) GetRecommendations(ctx context.Context, input *operation.GetRecommendationsInput) (*operation.GetRecommendationsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	courses, err := h.dashboardService.Recommend(ctx, userID, input.Limit)
	if err != nil {
		return nil, serviceError(err, "Failed to load recommendations")
	}
	out, err := toCourseDTOs(h.prices, courses, input.Currency)
	if err != nil {
		return nil, err
	}
	return &operation.GetRecommendationsOutput{Body: out}, nil
}
