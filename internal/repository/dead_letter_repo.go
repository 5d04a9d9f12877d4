package repository

import (
	"context"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DeadLetterRepository interface {
	// SaveDeadLetter stores the event; a redelivered message ID is kept once
	SaveDeadLetter(ctx context.Context, ev *model.DeadLetterEvent) error
}

type deadLetterRepo struct {
	pool *pgxpool.Pool
}

func NewDeadLetterRepo(pool *pgxpool.Pool) DeadLetterRepository {
	return &deadLetterRepo{pool: pool}
}

func (r *deadLetterRepo) SaveDeadLetter(ctx context.Context, ev *model.DeadLetterEvent) error {
	var attrs any
	if len(ev.Attributes) > 0 {
		attrs = string(ev.Attributes)
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dead_letter_events
			(subscription_name, source_topic, event_type, message_id, order_id, course_id, payload, attributes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9)
		ON CONFLICT (message_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, created_at, updated_at
	`,
		ev.SubscriptionName,
		ev.SourceTopic,
		ev.EventType,
		ev.MessageID,
		ev.OrderID,
		ev.CourseID,
		string(ev.Payload),
		attrs,
		ev.Status,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving dead letter %s (%s): %w", ev.MessageID, ev.EventType, err)
	}
	return nil
}
