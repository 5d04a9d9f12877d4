package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/service"

	"github.com/rs/zerolog"
)

// PricingHandler serves the public currency, payment method and quote endpoints
type PricingHandler struct {
	pricingService service.PricingService
	logger         zerolog.Logger
}

func NewPricingHandler(pricingService service.PricingService, logger zerolog.Logger) *PricingHandler {
	return &PricingHandler{pricingService: pricingService, logger: logger}
}

func (h *PricingHandler) ListCurrencies(ctx context.Context, input *operation.ListCurrenciesInput) (*operation.ListCurrenciesOutput, error) {
	currencies := h.pricingService.Currencies()
	out := make([]dto.CurrencyDTO, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, dto.CurrencyDTO{
			Code:     c.Code,
			Name:     c.Name,
			Symbol:   c.Symbol,
			Decimals: c.Decimals,
			PerUSD:   c.PerUSD,
		})
	}
	return &operation.ListCurrenciesOutput{Body: out}, nil
}

func (h *PricingHandler) ListPaymentMethods(ctx context.Context, input *operation.ListPaymentMethodsInput) (*operation.ListPaymentMethodsOutput, error) {
	methods, err := h.pricingService.Methods(input.Country, input.Currency)
	if err != nil {
		return nil, serviceError(err, "Failed to list payment methods")
	}
	out := make([]dto.PaymentMethodDTO, 0, len(methods))
	for _, m := range methods {
		out = append(out, dto.PaymentMethodDTO{ID: m.ID, Name: m.Name, Gateway: string(m.Gateway)})
	}
	return &operation.ListPaymentMethodsOutput{Body: out}, nil
}

// Quote prices one course for a buyer, including coupon and processing fee
func (h *PricingHandler) Quote(ctx context.Context, input *operation.QuoteInput) (*operation.QuoteOutput, error) {
	q, err := h.pricingService.QuoteCourse(ctx, input.CourseID, input.Currency, input.Method, input.Country, input.Coupon)
	if err != nil {
		return nil, serviceError(err, "Failed to quote course")
	}
	return &operation.QuoteOutput{
		Body: dto.QuoteResponseDTO{
			CourseID:         q.CourseID,
			CouponCode:       q.CouponCode,
			Currency:         q.Currency,
			Method:           q.Method,
			Gateway:          string(q.Gateway),
			SubtotalUSDCents: q.SubtotalUSD,
			DiscountUSDCents: q.DiscountUSD,
			NetUSDCents:      q.NetUSD,
			Rate:             q.Rate,
			Amount:           q.Amount,
			Fee:              q.Fee,
			Total:            q.Total,
			Display:          q.Display,
		},
	}, nil
}
