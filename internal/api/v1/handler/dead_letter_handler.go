package handler

import (
	"context"

	"coursemart/internal/api/v1/operation"
	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

type DeadLetterHandler struct {
	deadLetters service.DeadLetterService
	logger      zerolog.Logger
}

func NewDeadLetterHandler(s service.DeadLetterService, logger zerolog.Logger) *DeadLetterHandler {
	return &DeadLetterHandler{deadLetters: s, logger: logger.With().Str("handler", "DeadLetterHandler").Logger()}
}

// RecordDeadLetter stores an order or enrollment event pushed from a dead
// letter subscription. Storage failures are logged and still acknowledged.
func (h *DeadLetterHandler) RecordDeadLetter(ctx context.Context, input *operation.RecordDeadLetterInput) (*operation.RecordDeadLetterOutput, error) {
	msg := input.Body.Message
	if msg.MessageID == "" {
		return nil, huma.Error400BadRequest("Invalid Pub/Sub message: missing message ID")
	}
	if _, err := h.deadLetters.Record(ctx, &input.Body); err != nil {
		h.logger.Error().Err(err).
			Str("message_id", msg.MessageID).
			Str("subscription", input.Body.Subscription).
			Str("event_type", msg.Attributes["type"]).
			Msg("Dropping dead letter that could not be stored")
	}
	return &operation.RecordDeadLetterOutput{}, nil
}
