package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LessonRepository interface {
	// CreateLesson appends the lesson after the course's last position
	CreateLesson(ctx context.Context, l *model.Lesson) error
	GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error)
	GetLessonsByCourse(ctx context.Context, courseID string) ([]model.Lesson, error)
	CountLessons(ctx context.Context, courseID string) (int, error)
}

type lessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) LessonRepository {
	return &lessonRepo{pool: pool}
}

func (r *lessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	query := `
		INSERT INTO lessons (course_id, title, position, duration_sec, is_preview)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM lessons WHERE course_id = $1), $3, $4)
		RETURNING id, position, created_at
	`
	err := r.pool.QueryRow(ctx, query, l.CourseID, l.Title, l.DurationSec, l.IsPreview).
		Scan(&l.ID, &l.Position, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating lesson for course %s: %w", l.CourseID, err)
	}
	return nil
}

func (r *lessonRepo) GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	query := `
		SELECT id, course_id, title, position, duration_sec, is_preview, created_at
		FROM lessons
		WHERE id = $1
	`
	var l model.Lesson
	err := r.pool.QueryRow(ctx, query, lessonID).Scan(
		&l.ID, &l.CourseID, &l.Title, &l.Position, &l.DurationSec, &l.IsPreview, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting lesson %s: %w", lessonID, err)
	}
	return &l, nil
}

func (r *lessonRepo) GetLessonsByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	query := `
		SELECT id, course_id, title, position, duration_sec, is_preview, created_at
		FROM lessons
		WHERE course_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing lessons for course %s: %w", courseID, err)
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Position, &l.DurationSec, &l.IsPreview, &l.CreatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) CountLessons(ctx context.Context, courseID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lessons WHERE course_id = $1`, courseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting lessons for course %s: %w", courseID, err)
	}
	return n, nil
}
