package repository

import (
	"context"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository aggregates instructor metrics
type DashboardRepository interface {
	GetInstructorStats(ctx context.Context, instructorID string, topN int) (*model.InstructorStats, error)
}

type dashboardRepo struct {
	pool *pgxpool.Pool
}

func NewDashboardRepo(pool *pgxpool.Pool) DashboardRepository {
	return &dashboardRepo{pool: pool}
}

func (r *dashboardRepo) GetInstructorStats(ctx context.Context, instructorID string, topN int) (*model.InstructorStats, error) {
	stats := &model.InstructorStats{TopCourses: []model.CourseStat{}}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'archived'),
			COALESCE(SUM(rating_avg * rating_count) / NULLIF(SUM(rating_count), 0), 0)::float8
		FROM courses
		WHERE instructor_id = $1
	`, instructorID).Scan(&stats.DraftCourses, &stats.PublishedCourses, &stats.ArchivedCourses, &stats.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("counting courses for instructor %s: %w", instructorID, err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE e.status = 'completed')
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE c.instructor_id = $1
	`, instructorID).Scan(&stats.TotalEnrollments, &stats.CompletedEnrollments)
	if err != nil {
		return nil, fmt.Errorf("counting enrollments for instructor %s: %w", instructorID, err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.price_usd_cents), 0)::bigint
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN courses c ON c.id = oi.course_id
		WHERE c.instructor_id = $1 AND o.status = 'paid'
	`, instructorID).Scan(&stats.RevenueUSDCents)
	if err != nil {
		return nil, fmt.Errorf("summing revenue for instructor %s: %w", instructorID, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.title, c.enrollment_count, c.rating_avg::float8,
			COALESCE((
				SELECT SUM(oi.price_usd_cents)
				FROM order_items oi
				JOIN orders o ON o.id = oi.order_id
				WHERE oi.course_id = c.id AND o.status = 'paid'
			), 0)::bigint
		FROM courses c
		WHERE c.instructor_id = $1
		ORDER BY c.enrollment_count DESC, c.created_at DESC
		LIMIT $2
	`, instructorID, topN)
	if err != nil {
		return nil, fmt.Errorf("listing top courses for instructor %s: %w", instructorID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cs model.CourseStat
		if err := rows.Scan(&cs.CourseID, &cs.Title, &cs.EnrollmentCount, &cs.RatingAvg, &cs.RevenueUSDCents); err != nil {
			return nil, err
		}
		stats.TopCourses = append(stats.TopCourses, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
