package dto

type CurrencyDTO struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	PerUSD   float64 `json:"per_usd" doc:"Units of the currency one US dollar buys"`
}

type PaymentMethodDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Gateway string `json:"gateway"`
}

type QuoteResponseDTO struct {
	CourseID         string  `json:"course_id"`
	CouponCode       string  `json:"coupon_code,omitempty"`
	Currency         string  `json:"currency"`
	Method           string  `json:"method"`
	Gateway          string  `json:"gateway"`
	SubtotalUSDCents int64   `json:"subtotal_usd_cents"`
	DiscountUSDCents int64   `json:"discount_usd_cents"`
	NetUSDCents      int64   `json:"net_usd_cents"`
	Rate             float64 `json:"rate"`
	Amount           int64   `json:"amount"`
	Fee              int64   `json:"fee"`
	Total            int64   `json:"total"`
	Display          string  `json:"display"`
}
