package operation

import "coursemart/internal/api/v1/dto"

// Pricing Operations

type ListCurrenciesInput struct{}

type ListCurrenciesOutput struct {
	Body []dto.CurrencyDTO `json:"body"`
}

type ListPaymentMethodsInput struct {
	Country  string `query:"country" doc:"Buyer country (ISO 3166-1 alpha-2)"`
	Currency string `query:"currency" doc:"Charge currency; defaults from country"`
}

type ListPaymentMethodsOutput struct {
	Body []dto.PaymentMethodDTO `json:"body"`
}

type QuoteInput struct {
	CourseID string `query:"course_id" required:"true" doc:"Course ID"`
	Currency string `query:"currency" doc:"Charge currency; defaults from country"`
	Method   string `query:"method" required:"true" doc:"Payment method id"`
	Country  string `query:"country" doc:"Buyer country (ISO 3166-1 alpha-2)"`
	Coupon   string `query:"coupon" doc:"Coupon code"`
}

type QuoteOutput struct {
	Body dto.QuoteResponseDTO `json:"body"`
}
