package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

// DeadLetterService records order and enrollment events that exhausted their
// Pub/Sub delivery attempts.
type DeadLetterService interface {
	Record(ctx context.Context, req *dto.PubSubPushRequest) (*model.DeadLetterEvent, error)
}

var knownEvents = map[string]bool{
	EventOrderPaid:     true,
	EventOrderRefunded: true,
	EventEnrolled:      true,
	EventCompleted:     true,
}

type deadLetterService struct {
	repo   repository.DeadLetterRepository
	logger zerolog.Logger
}

func NewDeadLetterService(repo repository.DeadLetterRepository, logger zerolog.Logger) DeadLetterService {
	return &deadLetterService{repo: repo, logger: logger.With().Str("service", "DeadLetterService").Logger()}
}

// deadLetterPayload decodes a push message body into a JSON document. Data
// that is not base64 or not JSON is kept as a JSON string.
func deadLetterPayload(data string) []byte {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		decoded = []byte(data)
	}
	if json.Valid(decoded) {
		return decoded
	}
	wrapped, _ := json.Marshal(string(decoded))
	return wrapped
}

// sourceTopic strips the project path and the -dlq / -sub suffixes that
// cmd/setup-pubsub-local puts on dead letter subscriptions.
func sourceTopic(subscription string) string {
	name := subscription[strings.LastIndex(subscription, "/")+1:]
	name = strings.TrimSuffix(name, "-sub")
	return strings.TrimSuffix(name, "-dlq")
}

// eventRefs is the part shared by orderEvent and enrollmentEvent
type eventRefs struct {
	Type     string  `json:"type"`
	OrderID  *string `json:"order_id"`
	CourseID *string `json:"course_id"`
}

func (s *deadLetterService) Record(ctx context.Context, req *dto.PubSubPushRequest) (*model.DeadLetterEvent, error) {
	ev := &model.DeadLetterEvent{
		SubscriptionName: req.Subscription,
		SourceTopic:      sourceTopic(req.Subscription),
		MessageID:        req.Message.MessageID,
		Payload:          deadLetterPayload(req.Message.Data),
		Status:           model.DeadLetterUnprocessed,
	}
	if len(req.Message.Attributes) > 0 {
		if b, err := json.Marshal(req.Message.Attributes); err == nil {
			ev.Attributes = b
		}
	}

	var refs eventRefs
	_ = json.Unmarshal(ev.Payload, &refs)
	ev.EventType = req.Message.Attributes["type"]
	if ev.EventType == "" {
		ev.EventType = refs.Type
	}
	ev.OrderID = refs.OrderID
	ev.CourseID = refs.CourseID
	if !knownEvents[ev.EventType] {
		ev.Status = model.DeadLetterUnrecognized
	}

	if err := s.repo.SaveDeadLetter(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("message_id", ev.MessageID).Msg("Failed to persist dead letter")
		return nil, err
	}
	log := s.logger.Warn()
	if ev.OrderID != nil {
		log = log.Str("order_id", *ev.OrderID)
	}
	log.Str("event_type", ev.EventType).
		Str("topic", ev.SourceTopic).
		Str("message_id", ev.MessageID).
		Str("status", ev.Status).
		Msg("Dead letter recorded")
	return ev, nil
}
