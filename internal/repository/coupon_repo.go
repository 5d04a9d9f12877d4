package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CouponRepository interface {
	CreateCoupon(ctx context.Context, c *model.Coupon) error
	GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	// IncrementRedemptions counts one use of the coupon. It reports false,
	// leaving the count unchanged, once max_redemptions is reached.
	IncrementRedemptions(ctx context.Context, code string) (bool, error)
	// DeactivateExpired switches off coupons whose expiry has passed and
	// returns how many were changed
	DeactivateExpired(ctx context.Context) (int64, error)
}

type couponRepo struct {
	pool *pgxpool.Pool
}

func NewCouponRepo(pool *pgxpool.Pool) CouponRepository {
	return &couponRepo{pool: pool}
}

func (r *couponRepo) CreateCoupon(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_type, discount_value, course_id, min_order_cents, max_redemptions, starts_at, expires_at, active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, redemptions, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		strings.ToUpper(c.Code), c.DiscountType, c.DiscountValue, c.CourseID, c.MinOrderCents,
		c.MaxRedemptions, c.StartsAt, c.ExpiresAt, c.Active, c.CreatedBy,
	).Scan(&c.ID, &c.Redemptions, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating coupon %s: %w", c.Code, err)
	}
	c.Code = strings.ToUpper(c.Code)
	return nil
}

func (r *couponRepo) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, course_id, min_order_cents, max_redemptions,
			redemptions, starts_at, expires_at, active, created_by, created_at
		FROM coupons
		WHERE code = $1
	`
	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.CourseID, &c.MinOrderCents, &c.MaxRedemptions,
		&c.Redemptions, &c.StartsAt, &c.ExpiresAt, &c.Active, &c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting coupon %s: %w", code, err)
	}
	return &c, nil
}

func (r *couponRepo) IncrementRedemptions(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE coupons SET redemptions = redemptions + 1
		WHERE code = $1 AND (max_redemptions IS NULL OR redemptions < max_redemptions)
	`, strings.ToUpper(code))
	if err != nil {
		return false, fmt.Errorf("redeeming coupon %s: %w", code, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *couponRepo) DeactivateExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE coupons SET active = FALSE WHERE active AND expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("deactivating expired coupons: %w", err)
	}
	return tag.RowsAffected(), nil
}
