package handler

import (
	"context"
	"errors"

	"coursemart/internal/api/v1/operation"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler implements Huma-based user operations
type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validate,
		logger:      logger,
	}
}

// UpsertUser creates or updates the caller's profile
func (h *UserHandler) UpsertUser(ctx context.Context, input *operation.UpsertUserInput) (*operation.UpsertUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	u, err := h.userService.Upsert(ctx, &model.User{
		UserID:            userID,
		Name:              input.Body.Name,
		Email:             input.Body.Email,
		AvatarURL:         input.Body.AvatarURL,
		Country:           input.Body.Country,
		PreferredCurrency: input.Body.PreferredCurrency,
	})
	if err != nil {
		return nil, serviceError(err, "Failed to save user")
	}
	return &operation.UpsertUserOutput{Body: toUserDTO(u)}, nil
}

// GetUser retrieves the authenticated user's profile
func (h *UserHandler) GetUser(ctx context.Context, input *operation.GetUserInput) (*operation.GetUserOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	u, err := h.userService.Get(ctx, userID)
	if err != nil {
		return nil, serviceError(err, "Failed to get user")
	}
	return &operation.GetUserOutput{Body: toUserDTO(u)}, nil
}

// BecomeInstructor promotes the caller to the instructor role
func (h *UserHandler) BecomeInstructor(ctx context.Context, input *operation.BecomeInstructorInput) (*operation.BecomeInstructorOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	u, err := h.userService.BecomeInstructor(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("Create a profile before becoming an instructor")
		}
		return nil, serviceError(err, "Failed to update role")
	}
	return &operation.BecomeInstructorOutput{Body: toUserDTO(u)}, nil
}
