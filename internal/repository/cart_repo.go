package repository

import (
	"context"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepository stores the single cart each user owns
type CartRepository interface {
	GetCartItems(ctx context.Context, userID string) ([]model.CartItem, error)
	AddCartItem(ctx context.Context, userID, courseID string) error
	RemoveCartItem(ctx context.Context, userID, courseID string) error
	RemoveCartItems(ctx context.Context, userID string, courseIDs []string) error
	ClearCart(ctx context.Context, userID string) error
}

type cartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) CartRepository {
	return &cartRepo{pool: pool}
}

// GetCartItems returns the cart with each course loaded, oldest first
func (r *cartRepo) GetCartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	query := `
		SELECT ci.user_id, ci.course_id, ci.added_at, ` + courseColumns + `
		FROM cart_items ci
		JOIN courses c ON c.id = ci.course_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var it model.CartItem
		var c model.Course
		if err := rows.Scan(
			&it.UserID, &it.CourseID, &it.AddedAt,
			&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Slug, &c.Description, &c.Level, &c.Language,
			&c.PriceCents, &c.SalePriceCents, &c.ThumbnailPath, &c.Status, &c.RatingAvg, &c.RatingCount,
			&c.EnrollmentCount, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		it.Course = &c
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepo) AddCartItem(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (user_id, course_id) VALUES ($1, $2) ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("adding course %s to cart of user %s: %w", courseID, userID, err)
	}
	return nil
}

func (r *cartRepo) RemoveCartItem(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return fmt.Errorf("removing course %s from cart of user %s: %w", courseID, userID, err)
	}
	return nil
}

func (r *cartRepo) RemoveCartItems(ctx context.Context, userID string, courseIDs []string) error {
	if len(courseIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND course_id = ANY($2::uuid[])`, userID, courseIDs)
	if err != nil {
		return fmt.Errorf("removing purchased courses from cart of user %s: %w", userID, err)
	}
	return nil
}

func (r *cartRepo) ClearCart(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing cart of user %s: %w", userID, err)
	}
	return nil
}
