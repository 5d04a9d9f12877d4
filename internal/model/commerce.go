package model

import "time"

// CartItem is a course waiting in a user's cart
type CartItem struct {
	UserID   string    `db:"user_id" json:"user_id"`
	CourseID string    `db:"course_id" json:"course_id"`
	AddedAt  time.Time `db:"added_at" json:"added_at"`
	Course   *Course   `json:"course,omitempty"`
}

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// Coupon discounts an order. Fixed values and minimums are USD cents;
// percent values are whole percentages.
type Coupon struct {
	ID             string     `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	DiscountType   string     `db:"discount_type" json:"discount_type"`
	DiscountValue  int64      `db:"discount_value" json:"discount_value"`
	CourseID       *string    `db:"course_id" json:"course_id,omitempty"`
	MinOrderCents  int64      `db:"min_order_cents" json:"min_order_cents"`
	MaxRedemptions *int       `db:"max_redemptions" json:"max_redemptions,omitempty"`
	Redemptions    int        `db:"redemptions" json:"redemptions"`
	StartsAt       time.Time  `db:"starts_at" json:"starts_at"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedBy      string     `db:"created_by" json:"created_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusFailed   = "failed"
	OrderStatusExpired  = "expired"
	OrderStatusRefunded = "refunded"
)

// Order is a checkout attempt. USD fields are cents; Amount, Fee and Total are
// minor units of Currency.
type Order struct {
	ID               string      `db:"id" json:"id"`
	UserID           string      `db:"user_id" json:"user_id"`
	Status           string      `db:"status" json:"status"`
	Currency         string      `db:"currency" json:"currency"`
	Country          string      `db:"country" json:"country"`
	Gateway          string      `db:"gateway" json:"gateway"`
	PaymentMethod    string      `db:"payment_method" json:"payment_method"`
	CouponCode       *string     `db:"coupon_code" json:"coupon_code,omitempty"`
	SubtotalUSDCents int64       `db:"subtotal_usd_cents" json:"subtotal_usd_cents"`
	DiscountUSDCents int64       `db:"discount_usd_cents" json:"discount_usd_cents"`
	Amount           int64       `db:"amount" json:"amount"`
	Fee              int64       `db:"fee" json:"fee"`
	Total            int64       `db:"total" json:"total"`
	ExchangeRate     float64     `db:"exchange_rate" json:"exchange_rate"`
	GatewayReference string      `db:"gateway_reference" json:"gateway_reference"`
	CheckoutURL      *string     `db:"checkout_url" json:"checkout_url,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
	PaidAt           *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	Items            []OrderItem `json:"items"`
}

// OrderItem is a course line on an order
type OrderItem struct {
	OrderID       string `db:"order_id" json:"order_id"`
	CourseID      string `db:"course_id" json:"course_id"`
	Title         string `db:"title" json:"title"`
	PriceUSDCents int64  `db:"price_usd_cents" json:"price_usd_cents"`
}

// Payment records a gateway confirmation for an order
type Payment struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	Gateway   string    `db:"gateway" json:"gateway"`
	Reference string    `db:"reference" json:"reference"`
	Amount    int64     `db:"amount" json:"amount"`
	Currency  string    `db:"currency" json:"currency"`
	Status    string    `db:"status" json:"status"`
	Raw       []byte    `db:"raw" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
