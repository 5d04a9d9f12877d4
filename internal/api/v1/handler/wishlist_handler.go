package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type WishlistHandler struct {
	wishlistService service.WishlistService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewWishlistHandler(wishlistService service.WishlistService, validate *validator.Validate, logger zerolog.Logger) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService, validate: validate, logger: logger}
}

func (h *WishlistHandler) GetWishlist(ctx context.Context, input *operation.GetWishlistInput) (*operation.GetWishlistOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := h.wishlistService.List(ctx, userID)
	if err != nil {
		return nil, serviceError(err, "Failed to load wishlist")
	}
	out := make([]dto.WishlistItemResponseDTO, 0, len(items))
	for _, it := range items {
		item := dto.WishlistItemResponseDTO{CourseID: it.CourseID, CreatedAt: it.CreatedAt}
		if it.Course != nil {
			c := toCourseDTO(it.Course)
			item.Course = &c
		}
		out = append(out, item)
	}
	return &operation.GetWishlistOutput{Body: out}, nil
}

func (h *WishlistHandler) AddToWishlist(ctx context.Context, input *operation.AddWishlistInput) (*operation.AddWishlistOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	if err := h.wishlistService.Add(ctx, userID, input.Body.CourseID); err != nil {
		return nil, serviceError(err, "Failed to add to wishlist")
	}
	return &operation.AddWishlistOutput{}, nil
}

func (h *WishlistHandler) RemoveFromWishlist(ctx context.Context, input *operation.RemoveWishlistInput) (*operation.RemoveWishlistOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.wishlistService.Remove(ctx, userID, input.CourseID); err != nil {
		return nil, serviceError(err, "Failed to remove from wishlist")
	}
	return &operation.RemoveWishlistOutput{}, nil
}
