package dto

import "time"

type CartItemRequestDTO struct {
	CourseID string `json:"course_id" validate:"required" minLength:"1"`
}

type CartItemResponseDTO struct {
	CourseID      string    `json:"course_id"`
	Title         string    `json:"title"`
	PriceUSDCents int64     `json:"price_usd_cents" doc:"Effective price in USD cents"`
	AddedAt       time.Time `json:"added_at"`
}

type CartResponseDTO struct {
	Items            []CartItemResponseDTO `json:"items"`
	SubtotalUSDCents int64                 `json:"subtotal_usd_cents"`
	Subtotal         PriceDTO              `json:"subtotal"`
}

type CouponCreateDTO struct {
	Code           string     `json:"code" validate:"required,max=40" minLength:"1" maxLength:"40"`
	DiscountType   string     `json:"discount_type" validate:"required,oneof=percent fixed" enum:"percent,fixed"`
	DiscountValue  int64      `json:"discount_value" validate:"gt=0" minimum:"1" doc:"Whole percent, or USD cents for fixed coupons"`
	CourseID       *string    `json:"course_id,omitempty" doc:"Restrict the coupon to one course"`
	MinOrderCents  int64      `json:"min_order_cents,omitempty" validate:"gte=0"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty" validate:"omitempty,gt=0"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type CouponResponseDTO struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  int64      `json:"discount_value"`
	CourseID       *string    `json:"course_id,omitempty"`
	MinOrderCents  int64      `json:"min_order_cents"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty"`
	Redemptions    int        `json:"redemptions"`
	StartsAt       time.Time  `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Active         bool       `json:"active"`
}

type CouponValidationDTO struct {
	Coupon           CouponResponseDTO `json:"coupon"`
	DiscountUSDCents int64             `json:"discount_usd_cents"`
}

type CheckoutRequestDTO struct {
	Currency   string `json:"currency,omitempty" validate:"omitempty,len=3,alpha" doc:"Charge currency; defaults to the buyer's preferred currency"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2,alpha"`
	Method     string `json:"method" validate:"required" minLength:"1" doc:"Payment method id from /pricing/methods"`
	CouponCode string `json:"coupon_code,omitempty"`
	SuccessURL string `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

type OrderItemResponseDTO struct {
	CourseID      string `json:"course_id"`
	Title         string `json:"title"`
	PriceUSDCents int64  `json:"price_usd_cents"`
}

type OrderResponseDTO struct {
	ID               string                 `json:"id"`
	Status           string                 `json:"status"`
	Currency         string                 `json:"currency"`
	Country          string                 `json:"country,omitempty"`
	Gateway          string                 `json:"gateway"`
	PaymentMethod    string                 `json:"payment_method"`
	CouponCode       *string                `json:"coupon_code,omitempty"`
	SubtotalUSDCents int64                  `json:"subtotal_usd_cents"`
	DiscountUSDCents int64                  `json:"discount_usd_cents"`
	Amount           int64                  `json:"amount"`
	Fee              int64                  `json:"fee"`
	Total            int64                  `json:"total"`
	TotalFormatted   string                 `json:"total_formatted"`
	ExchangeRate     float64                `json:"exchange_rate"`
	Reference        string                 `json:"reference"`
	CheckoutURL      *string                `json:"checkout_url,omitempty"`
	Items            []OrderItemResponseDTO `json:"items"`
	CreatedAt        time.Time              `json:"created_at"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
}
