package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewReviewHandler(reviewService service.ReviewService, validate *validator.Validate, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, validate: validate, logger: logger}
}

func (h *ReviewHandler) ListReviews(ctx context.Context, input *operation.ListReviewsInput) (*operation.ListReviewsOutput, error) {
	reviews, err := h.reviewService.ListReviews(ctx, input.CourseID, input.Limit, input.Offset)
	if err != nil {
		return nil, serviceError(err, "Failed to list reviews")
	}
	out := make([]dto.ReviewResponseDTO, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewDTO(&reviews[i]))
	}
	return &operation.ListReviewsOutput{Body: out}, nil
}

// CreateReview creates or replaces the caller's review of a course
func (h *ReviewHandler) CreateReview(ctx context.Context, input *operation.CreateReviewInput) (*operation.CreateReviewOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	r, err := h.reviewService.Review(ctx, userID, input.CourseID, input.Body.Rating, input.Body.Comment)
	if err != nil {
		return nil, serviceError(err, "Failed to save review")
	}
	return &operation.CreateReviewOutput{Body: toReviewDTO(r)}, nil
}
