package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type CouponHandler struct {
	couponService service.CouponService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewCouponHandler(couponService service.CouponService, validate *validator.Validate, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{couponService: couponService, validate: validate, logger: logger}
}

// CreateCoupon creates a site-wide coupon (admins) or a course coupon (the
// course's instructor)
func (h *CouponHandler) CreateCoupon(ctx context.Context, input *operation.CreateCouponInput) (*operation.CreateCouponOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	b := input.Body
	c := &model.Coupon{
		Code:           b.Code,
		DiscountType:   b.DiscountType,
		DiscountValue:  b.DiscountValue,
		CourseID:       b.CourseID,
		MinOrderCents:  b.MinOrderCents,
		MaxRedemptions: b.MaxRedemptions,
		ExpiresAt:      b.ExpiresAt,
	}
	if b.StartsAt != nil {
		c.StartsAt = *b.StartsAt
	}
	created, err := h.couponService.CreateCoupon(ctx, userID, c)
	if err != nil {
		return nil, serviceError(err, "Failed to create coupon")
	}
	return &operation.CreateCouponOutput{Body: toCouponDTO(created)}, nil
}

// ValidateCoupon checks a code against the caller's cart
func (h *CouponHandler) ValidateCoupon(ctx context.Context, input *operation.ValidateCouponInput) (*operation.ValidateCouponOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c, discount, err := h.couponService.ValidateForCart(ctx, userID, input.Code, input.Subtotal)
	if err != nil {
		return nil, serviceError(err, "Failed to validate coupon")
	}
	return &operation.ValidateCouponOutput{
		Body: dto.CouponValidationDTO{Coupon: toCouponDTO(c), DiscountUSDCents: discount},
	}, nil
}
