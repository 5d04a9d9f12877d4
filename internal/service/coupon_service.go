package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

// PricedItem is a course line priced in USD cents
type PricedItem struct {
	CourseID string
	PriceUSD int64
}

// CouponDiscount computes the USD discount coupon c grants on subtotal for the
// given items at time now. Course-scoped coupons only discount that course's
// price. The discount never exceeds the discounted base.
func CouponDiscount(c *model.Coupon, subtotal int64, items []PricedItem, now time.Time) (int64, error) {
	if !c.Active || now.Before(c.StartsAt) {
		return 0, ErrCouponInactive
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return 0, ErrCouponExpired
	}
	if c.MaxRedemptions != nil && c.Redemptions >= *c.MaxRedemptions {
		return 0, ErrCouponExhausted
	}
	if subtotal < c.MinOrderCents {
		return 0, ErrCouponMinimum
	}

	base := subtotal
	if c.CourseID != nil {
		found := false
		for _, it := range items {
			if it.CourseID == *c.CourseID {
				base, found = it.PriceUSD, true
				break
			}
		}
		if !found {
			return 0, ErrCouponNotApplicable
		}
	}

	var discount int64
	switch c.DiscountType {
	case model.DiscountPercent:
		discount = base * c.DiscountValue / 100
	case model.DiscountFixed:
		discount = c.DiscountValue
	default:
		return 0, fmt.Errorf("unknown discount type %q", c.DiscountType)
	}
	if discount > base {
		discount = base
	}
	return discount, nil
}

type CouponService interface {
	CreateCoupon(ctx context.Context, userID string, c *model.Coupon) (*model.Coupon, error)
	// Apply looks up code and computes its discount for the given items
	Apply(ctx context.Context, code string, subtotal int64, items []PricedItem) (*model.Coupon, int64, error)
	// ValidateForCart checks code against the user's cart. A positive subtotal
	// overrides the cart subtotal.
	ValidateForCart(ctx context.Context, userID, code string, subtotal int64) (*model.Coupon, int64, error)
	Redeem(ctx context.Context, code string) error
}

type couponService struct {
	couponRepo repository.CouponRepository
	courseRepo repository.CourseRepository
	userRepo   repository.UserRepository
	cartRepo   repository.CartRepository
	now        func() time.Time
	logger     zerolog.Logger
}

func NewCouponService(
	couponRepo repository.CouponRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	cartRepo repository.CartRepository,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		cartRepo:   cartRepo,
		now:        time.Now,
		logger:     logger.With().Str("service", "CouponService").Logger(),
	}
}

func (s *couponService) CreateCoupon(ctx context.Context, userID string, c *model.Coupon) (*model.Coupon, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.IsAdmin() {
		// instructors may only discount their own courses
		if !u.CanTeach() || c.CourseID == nil {
			return nil, ErrForbidden
		}
		course, err := s.courseRepo.GetCourseByID(ctx, *c.CourseID)
		if err != nil {
			return nil, err
		}
		if course == nil {
			return nil, ErrCourseNotFound
		}
		if course.InstructorID != userID {
			return nil, ErrForbidden
		}
	}

	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return nil, fmt.Errorf("%w: coupon code is required", ErrInvalidInput)
	}
	switch c.DiscountType {
	case model.DiscountPercent:
		if c.DiscountValue < 1 || c.DiscountValue > 100 {
			return nil, fmt.Errorf("%w: percent discount must be between 1 and 100", ErrInvalidInput)
		}
	case model.DiscountFixed:
		if c.DiscountValue < 1 {
			return nil, fmt.Errorf("%w: fixed discount must be positive", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidInput, c.DiscountType)
	}
	if c.StartsAt.IsZero() {
		c.StartsAt = s.now()
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(c.StartsAt) {
		return nil, fmt.Errorf("%w: expiry must be after start", ErrInvalidInput)
	}
	c.Active = true
	c.CreatedBy = userID

	if err := s.couponRepo.CreateCoupon(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCouponExists
		}
		s.logger.Error().Err(err).Str("code", c.Code).Msg("Failed to create coupon")
		return nil, err
	}
	s.logger.Info().Str("code", c.Code).Str("user_id", userID).Msg("Coupon created")
	return c, nil
}

func (s *couponService) Apply(ctx context.Context, code string, subtotal int64, items []PricedItem) (*model.Coupon, int64, error) {
	c, err := s.couponRepo.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	if c == nil {
		return nil, 0, ErrCouponNotFound
	}
	discount, err := CouponDiscount(c, subtotal, items, s.now())
	if err != nil {
		return c, 0, err
	}
	return c, discount, nil
}

func (s *couponService) ValidateForCart(ctx context.Context, userID, code string, subtotal int64) (*model.Coupon, int64, error) {
	cartItems, err := s.cartRepo.GetCartItems(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PricedItem, 0, len(cartItems))
	var cartSubtotal int64
	for _, it := range cartItems {
		price := it.Course.EffectivePrice()
		items = append(items, PricedItem{CourseID: it.CourseID, PriceUSD: price})
		cartSubtotal += price
	}
	if subtotal <= 0 {
		subtotal = cartSubtotal
	}
	return s.Apply(ctx, code, subtotal, items)
}

func (s *couponService) Redeem(ctx context.Context, code string) error {
	ok, err := s.couponRepo.IncrementRedemptions(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("Failed to redeem coupon")
		return err
	}
	if !ok {
		// concurrent checkouts validated the coupon before the cap was hit
		s.logger.Warn().Str("code", code).Msg("Coupon redeemed past its limit; count left at the cap")
		return ErrCouponExhausted
	}
	return nil
}
