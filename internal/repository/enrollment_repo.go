package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository tracks course access and lesson progress
type EnrollmentRepository interface {
	// CreateEnrollment inserts an enrollment unless one already exists for the
	// user and course. It reports whether a row was created.
	CreateEnrollment(ctx context.Context, e *model.Enrollment) (bool, error)
	GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	ListEnrollmentsByUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	// OwnedCourseIDs returns the subset of courseIDs the user is enrolled in
	OwnedCourseIDs(ctx context.Context, userID string, courseIDs []string) ([]string, error)
	// DeleteByOrder removes the enrollments granted by an order and returns
	// the affected course ids
	DeleteByOrder(ctx context.Context, orderID string) ([]string, error)
	MarkLessonComplete(ctx context.Context, userID, courseID, lessonID string) error
	CountCompletedLessons(ctx context.Context, userID, courseID string) (int, error)
	UpdateProgress(ctx context.Context, enrollmentID string, percent int, completedAt *time.Time) error
}

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) EnrollmentRepository {
	return &enrollmentRepo{pool: pool}
}

func (r *enrollmentRepo) CreateEnrollment(ctx context.Context, e *model.Enrollment) (bool, error) {
	if e.Status == "" {
		e.Status = model.EnrollmentActive
	}
	query := `
		INSERT INTO enrollments (user_id, course_id, order_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING id, progress_percent, enrolled_at
	`
	err := r.pool.QueryRow(ctx, query, e.UserID, e.CourseID, e.OrderID, e.Status).
		Scan(&e.ID, &e.ProgressPercent, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("enrolling user %s in course %s: %w", e.UserID, e.CourseID, err)
	}
	return true, nil
}

func (r *enrollmentRepo) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	query := `
		SELECT e.id, e.user_id, e.course_id, e.order_id, e.status, e.progress_percent, e.enrolled_at, e.completed_at, c.title
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1 AND e.course_id = $2
	`
	var e model.Enrollment
	err := r.pool.QueryRow(ctx, query, userID, courseID).Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.OrderID, &e.Status, &e.ProgressPercent, &e.EnrolledAt, &e.CompletedAt, &e.CourseTitle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting enrollment of user %s in course %s: %w", userID, courseID, err)
	}
	return &e, nil
}

func (r *enrollmentRepo) ListEnrollmentsByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	query := `
		SELECT e.id, e.user_id, e.course_id, e.order_id, e.status, e.progress_percent, e.enrolled_at, e.completed_at, c.title
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments for user %s: %w", userID, err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CourseID, &e.OrderID, &e.Status, &e.ProgressPercent, &e.EnrolledAt, &e.CompletedAt, &e.CourseTitle,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (r *enrollmentRepo) OwnedCourseIDs(ctx context.Context, userID string, courseIDs []string) ([]string, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT course_id FROM enrollments WHERE user_id = $1 AND course_id = ANY($2::uuid[])`, userID, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("checking owned courses for user %s: %w", userID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *enrollmentRepo) DeleteByOrder(ctx context.Context, orderID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM enrollments WHERE order_id = $1 RETURNING course_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("revoking enrollments of order %s: %w", orderID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *enrollmentRepo) MarkLessonComplete(ctx context.Context, userID, courseID, lessonID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_progress (user_id, lesson_id, course_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, lesson_id) DO NOTHING
	`, userID, lessonID, courseID)
	if err != nil {
		return fmt.Errorf("completing lesson %s for user %s: %w", lessonID, userID, err)
	}
	return nil
}

func (r *enrollmentRepo) CountCompletedLessons(ctx context.Context, userID, courseID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_progress WHERE user_id = $1 AND course_id = $2`, userID, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting completed lessons for user %s: %w", userID, err)
	}
	return n, nil
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, enrollmentID string, percent int, completedAt *time.Time) error {
	// once completed an enrollment stays completed
	_, err := r.pool.Exec(ctx, `
		UPDATE enrollments
		SET progress_percent = $2,
			status = CASE WHEN $2 = 100 OR completed_at IS NOT NULL OR $3::timestamptz IS NOT NULL
				THEN 'completed' ELSE 'active' END,
			completed_at = COALESCE(completed_at, $3)
		WHERE id = $1
	`, enrollmentID, percent, completedAt)
	if err != nil {
		return fmt.Errorf("updating progress of enrollment %s: %w", enrollmentID, err)
	}
	return nil
}
