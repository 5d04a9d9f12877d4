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

// CartHandler serves the caller's shopping cart
type CartHandler struct {
	cartService service.CartService
	prices      *pricing.Table
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewCartHandler(cartService service.CartService, prices *pricing.Table, validate *validator.Validate, logger zerolog.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, prices: prices, validate: validate, logger: logger}
}

func (h *CartHandler) GetCart(ctx context.Context, input *operation.GetCartInput) (*operation.GetCartOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := h.cartService.GetCart(ctx, userID, input.Currency)
	if err != nil {
		return nil, serviceError(err, "Failed to load cart")
	}
	items := make([]dto.CartItemResponseDTO, 0, len(cart.Items))
	for _, it := range cart.Items {
		item := dto.CartItemResponseDTO{CourseID: it.CourseID, AddedAt: it.AddedAt}
		if it.Course != nil {
			item.Title = it.Course.Title
			item.PriceUSDCents = it.Course.EffectivePrice()
		}
		items = append(items, item)
	}
	return &operation.GetCartOutput{
		Body: dto.CartResponseDTO{
			Items:            items,
			SubtotalUSDCents: cart.SubtotalUSD,
			Subtotal: dto.PriceDTO{
				Currency:  cart.Currency,
				Amount:    cart.Subtotal,
				Formatted: h.prices.Format(cart.Subtotal, cart.Currency),
			},
		},
	}, nil
}

func (h *CartHandler) AddItem(ctx context.Context, input *operation.AddCartItemInput) (*operation.AddCartItemOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	if err := h.cartService.AddItem(ctx, userID, input.Body.CourseID); err != nil {
		return nil, serviceError(err, "Failed to add course to cart")
	}
	return &operation.AddCartItemOutput{}, nil
}

func (h *CartHandler) RemoveItem(ctx context.Context, input *operation.RemoveCartItemInput) (*operation.RemoveCartItemOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.cartService.RemoveItem(ctx, userID, input.CourseID); err != nil {
		return nil, serviceError(err, "Failed to remove course from cart")
	}
	return &operation.RemoveCartItemOutput{}, nil
}

func (h *CartHandler) Clear(ctx context.Context, input *operation.ClearCartInput) (*operation.ClearCartOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.cartService.Clear(ctx, userID); err != nil {
		return nil, serviceError(err, "Failed to clear cart")
	}
	return &operation.ClearCartOutput{}, nil
}
