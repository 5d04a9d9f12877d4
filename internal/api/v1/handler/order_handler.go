package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/pricing"
	"coursemart/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// OrderHandler serves checkout and the caller's orders
type OrderHandler struct {
	orderService service.OrderService
	prices       *pricing.Table
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewOrderHandler(orderService service.OrderService, prices *pricing.Table, validate *validator.Validate, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, prices: prices, validate: validate, logger: logger}
}

// Checkout turns the cart into an order and starts the gateway payment
func (h *OrderHandler) Checkout(ctx context.Context, input *operation.CheckoutInput) (*operation.CheckoutOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	b := input.Body
	o, err := h.orderService.Checkout(ctx, userID, service.CheckoutInput{
		Currency:   b.Currency,
		Country:    b.Country,
		Method:     b.Method,
		CouponCode: b.CouponCode,
		SuccessURL: b.SuccessURL,
		CancelURL:  b.CancelURL,
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Msg("Checkout failed")
		return nil, serviceError(err, "Failed to check out")
	}
	return &operation.CheckoutOutput{Body: toOrderDTO(h.prices, o)}, nil
}

func (h *OrderHandler) ListOrders(ctx context.Context, input *operation.ListOrdersInput) (*operation.ListOrdersOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := h.orderService.ListOrders(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, serviceError(err, "Failed to list orders")
	}
	out := make([]dto.OrderResponseDTO, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderDTO(h.prices, &orders[i]))
	}
	return &operation.ListOrdersOutput{Body: out}, nil
}

func (h *OrderHandler) GetOrder(ctx context.Context, input *operation.GetOrderInput) (*operation.GetOrderOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	o, err := h.orderService.GetOrder(ctx, userID, input.OrderID)
	if err != nil {
		return nil, serviceError(err, "Failed to get order")
	}
	return &operation.GetOrderOutput{Body: toOrderDTO(h.prices, o)}, nil
}

// VerifyOrder re-checks a pending order with its gateway
func (h *OrderHandler) VerifyOrder(ctx context.Context, input *operation.VerifyOrderInput) (*operation.VerifyOrderOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	o, err := h.orderService.VerifyOrder(ctx, userID, input.OrderID)
	if err != nil {
		return nil, serviceError(err, "Failed to verify order")
	}
	return &operation.VerifyOrderOutput{Body: toOrderDTO(h.prices, o)}, nil
}

// RefundOrder refunds a paid order (admin only)
func (h *OrderHandler) RefundOrder(ctx context.Context, input *operation.RefundOrderInput) (*operation.RefundOrderOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	o, err := h.orderService.RefundOrder(ctx, userID, input.OrderID)
	if err != nil {
		return nil, serviceError(err, "Failed to refund order")
	}
	h.logger.Info().Str("order_id", o.ID).Str("admin_id", userID).Msg("Order refunded")
	return &operation.RefundOrderOutput{Body: toOrderDTO(h.prices, o)}, nil
}
