package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/service"

	"github.com/rs/zerolog"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	logger              zerolog.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

func (h *NotificationHandler) ListNotifications(ctx context.Context, input *operation.ListNotificationsInput) (*operation.ListNotificationsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	notifications, err := h.notificationService.List(ctx, userID, input.Unread, input.Limit)
	if err != nil {
		return nil, serviceError(err, "Failed to list notifications")
	}
	out := make([]dto.NotificationResponseDTO, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, dto.NotificationResponseDTO{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}
	return &operation.ListNotificationsOutput{Body: out}, nil
}

func (h *NotificationHandler) MarkRead(ctx context.Context, input *operation.MarkNotificationReadInput) (*operation.MarkNotificationReadOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.notificationService.MarkRead(ctx, userID, input.NotificationID); err != nil {
		return nil, serviceError(err, "Failed to mark notification read")
	}
	return &operation.MarkNotificationReadOutput{}, nil
}

func (h *NotificationHandler) MarkAllRead(ctx context.Context, input *operation.MarkAllNotificationsReadInput) (*operation.MarkAllNotificationsReadOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	n, err := h.notificationService.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, serviceError(err, "Failed to mark notifications read")
	}
	return &operation.MarkAllNotificationsReadOutput{Body: dto.MarkAllReadResponseDTO{Updated: n}}, nil
}
