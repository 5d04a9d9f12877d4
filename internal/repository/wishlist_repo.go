package repository

import (
	"context"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WishlistRepository interface {
	GetWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, courseID string) error
	RemoveFromWishlist(ctx context.Context, userID, courseID string) error
}

type wishlistRepo struct {
	pool *pgxpool.Pool
}

func NewWishlistRepo(pool *pgxpool.Pool) WishlistRepository {
	return &wishlistRepo{pool: pool}
}

func (r *wishlistRepo) GetWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	query := `
		SELECT w.user_id, w.course_id, w.created_at, ` + courseColumns + `
		FROM wishlist w
		JOIN courses c ON c.id = w.course_id
		WHERE w.user_id = $1 AND c.status <> 'archived'
		ORDER BY w.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("getting wishlist for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := []model.WishlistItem{}
	for rows.Next() {
		var it model.WishlistItem
		var c model.Course
		if err := rows.Scan(
			&it.UserID, &it.CourseID, &it.CreatedAt,
			&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Slug, &c.Description, &c.Level, &c.Language,
			&c.PriceCents, &c.SalePriceCents, &c.ThumbnailPath, &c.Status, &c.RatingAvg, &c.RatingCount,
			&c.EnrollmentCount, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		it.Course = &c
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *wishlistRepo) AddToWishlist(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist (user_id, course_id) VALUES ($1, $2) ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("adding course %s to wishlist of user %s: %w", courseID, userID, err)
	}
	return nil
}

func (r *wishlistRepo) RemoveFromWishlist(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM wishlist WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return fmt.Errorf("removing course %s from wishlist of user %s: %w", courseID, userID, err)
	}
	return nil
}
