package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category slug already exists")
	ErrCourseNotFound       = errors.New("course not found")
	ErrCourseNotPublished   = errors.New("course is not published")
	ErrCourseHasNoLessons   = errors.New("course has no lessons")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrOwnCourse            = errors.New("instructors cannot buy their own course")
	ErrAlreadyEnrolled      = errors.New("already enrolled in course")
	ErrNotEnrolled          = errors.New("not enrolled in course")
	ErrPaymentRequired      = errors.New("course requires payment")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCouponInactive       = errors.New("coupon is not active")
	ErrCouponExpired        = errors.New("coupon has expired")
	ErrCouponExhausted      = errors.New("coupon redemption limit reached")
	ErrCouponMinimum        = errors.New("order total is below the coupon minimum")
	ErrCouponNotApplicable  = errors.New("coupon does not apply to these courses")
	ErrCouponExists         = errors.New("coupon code already exists")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotPending      = errors.New("order is not pending")
	ErrOrderNotPaid         = errors.New("order is not paid")
	ErrGatewayUnavailable   = errors.New("payment gateway is not configured")
	ErrPaymentMismatch      = errors.New("payment does not match order")
	ErrPaymentIncomplete    = errors.New("payment has not completed")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrStorageDisabled      = errors.New("object storage is not configured")
)
