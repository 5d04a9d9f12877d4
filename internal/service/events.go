package service

import (
	"context"
	"encoding/json"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/pubsub"

	"github.com/rs/zerolog"
)

const (
	EventOrderPaid     = "order.paid"
	EventOrderRefunded = "order.refunded"
	EventEnrolled      = "enrollment.created"
	EventCompleted     = "enrollment.completed"
)

// EventPublisher announces domain events. Delivery is best effort: failures
// are logged and never fail the calling operation.
type EventPublisher interface {
	OrderPaid(ctx context.Context, o *model.Order)
	OrderRefunded(ctx context.Context, o *model.Order)
	Enrolled(ctx context.Context, e *model.Enrollment)
	Completed(ctx context.Context, e *model.Enrollment)
}

type orderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Currency   string    `json:"currency"`
	Total      int64     `json:"total"`
	NetUSD     int64     `json:"net_usd_cents"`
	CourseIDs  []string  `json:"course_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

type enrollmentEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	CourseID   string    `json:"course_id"`
	OrderID    *string   `json:"order_id,omitempty"`
	Progress   int       `json:"progress_percent"`
	OccurredAt time.Time `json:"occurred_at"`
}

type eventPublisher struct {
	publisher        pubsub.Publisher
	ordersTopic      string
	enrollmentsTopic string
	logger           zerolog.Logger
}

func NewEventPublisher(p pubsub.Publisher, ordersTopic, enrollmentsTopic string, logger zerolog.Logger) EventPublisher {
	return &eventPublisher{
		publisher:        p,
		ordersTopic:      ordersTopic,
		enrollmentsTopic: enrollmentsTopic,
		logger:           logger.With().Str("service", "EventPublisher").Logger(),
	}
}

func (p *eventPublisher) OrderPaid(ctx context.Context, o *model.Order) {
	p.publishOrder(ctx, EventOrderPaid, o)
}

func (p *eventPublisher) OrderRefunded(ctx context.Context, o *model.Order) {
	p.publishOrder(ctx, EventOrderRefunded, o)
}

func (p *eventPublisher) Enrolled(ctx context.Context, e *model.Enrollment) {
	p.publishEnrollment(ctx, EventEnrolled, e)
}

func (p *eventPublisher) Completed(ctx context.Context, e *model.Enrollment) {
	p.publishEnrollment(ctx, EventCompleted, e)
}

func (p *eventPublisher) publishOrder(ctx context.Context, kind string, o *model.Order) {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.CourseID)
	}
	p.publish(ctx, p.ordersTopic, kind, orderEvent{
		Type:       kind,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Currency:   o.Currency,
		Total:      o.Total,
		NetUSD:     o.SubtotalUSDCents - o.DiscountUSDCents,
		CourseIDs:  ids,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *eventPublisher) publishEnrollment(ctx context.Context, kind string, e *model.Enrollment) {
	p.publish(ctx, p.enrollmentsTopic, kind, enrollmentEvent{
		Type:       kind,
		UserID:     e.UserID,
		CourseID:   e.CourseID,
		OrderID:    e.OrderID,
		Progress:   e.ProgressPercent,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *eventPublisher) publish(ctx context.Context, topic, kind string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("event", kind).Msg("Failed to marshal event")
		return
	}
	id, err := p.publisher.Publish(ctx, topic, payload, map[string]string{"type": kind})
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Str("event", kind).Msg("Failed to publish event")
		return
	}
	p.logger.Debug().Str("topic", topic).Str("event", kind).Str("message_id", id).Msg("Event published")
}
