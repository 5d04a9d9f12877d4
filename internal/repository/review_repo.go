package repository

import (
	"context"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository interface {
	// UpsertReview creates the user's review of a course or replaces it
	UpsertReview(ctx context.Context, rv *model.Review) error
	ListReviewsByCourse(ctx context.Context, courseID string, limit, offset int) ([]model.Review, error)
}

type reviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepo{pool: pool}
}

func (r *reviewRepo) UpsertReview(ctx context.Context, rv *model.Review) error {
	query := `
		INSERT INTO reviews (user_id, course_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO UPDATE
		SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, rv.UserID, rv.CourseID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving review of course %s by user %s: %w", rv.CourseID, rv.UserID, err)
	}
	return nil
}

func (r *reviewRepo) ListReviewsByCourse(ctx context.Context, courseID string, limit, offset int) ([]model.Review, error) {
	query := `
		SELECT rv.id, rv.user_id, rv.course_id, rv.rating, rv.comment, rv.created_at, rv.updated_at, u.name
		FROM reviews rv
		JOIN users u ON u.user_id = rv.user_id
		WHERE rv.course_id = $1
		ORDER BY rv.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, courseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for course %s: %w", courseID, err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.CourseID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt, &rv.UserName); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
