package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeadLetterRepo struct {
	saved []*model.DeadLetterEvent
	err   error
}

func (r *fakeDeadLetterRepo) SaveDeadLetter(_ context.Context, ev *model.DeadLetterEvent) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, ev)
	return nil
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestDeadLetterPayload(t *testing.T) {
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(deadLetterPayload(b64(`{"order_id":"order-1"}`))))
	assert.JSONEq(t, `"plain text"`, string(deadLetterPayload(b64("plain text"))))
	assert.JSONEq(t, `"%%not base64%%"`, string(deadLetterPayload("%%not base64%%")))
}

func TestSourceTopic(t *testing.T) {
	assert.Equal(t, "coursemart-orders", sourceTopic("projects/p/subscriptions/coursemart-orders-dlq-sub"))
	assert.Equal(t, "coursemart-enrollments", sourceTopic("coursemart-enrollments-dlq-sub"))
	assert.Equal(t, "", sourceTopic(""))
}

func TestRecordOrderDeadLetter(t *testing.T) {
	repo := &fakeDeadLetterRepo{}
	svc := NewDeadLetterService(repo, zerolog.Nop())

	body, err := json.Marshal(orderEvent{
		Type: EventOrderPaid, OrderID: "order-1", UserID: "u1", Status: model.OrderStatusPaid,
		Currency: "NGN", Total: 6200000, CourseIDs: []string{"go"}, OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	ev, err := svc.Record(context.Background(), &dto.PubSubPushRequest{
		Subscription: "projects/p/subscriptions/coursemart-orders-dlq-sub",
		Message: dto.PubSubMessage{
			Data:       b64(string(body)),
			MessageID:  "m-1",
			Attributes: map[string]string{"type": EventOrderPaid},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Same(t, ev, repo.saved[0])
	assert.Equal(t, "coursemart-orders", ev.SourceTopic)
	assert.Equal(t, EventOrderPaid, ev.EventType)
	assert.Equal(t, model.DeadLetterUnprocessed, ev.Status)
	require.NotNil(t, ev.OrderID)
	assert.Equal(t, "order-1", *ev.OrderID)
	assert.Nil(t, ev.CourseID)
	assert.JSONEq(t, string(body), string(ev.Payload))
	assert.JSONEq(t, `{"type":"order.paid"}`, string(ev.Attributes))
}

func TestRecordEnrollmentDeadLetterWithoutAttributes(t *testing.T) {
	repo := &fakeDeadLetterRepo{}
	svc := NewDeadLetterService(repo, zerolog.Nop())

	ev, err := svc.Record(context.Background(), &dto.PubSubPushRequest{
		Subscription: "coursemart-enrollments-dlq-sub",
		Message: dto.PubSubMessage{
			Data:      b64(`{"type":"enrollment.completed","user_id":"u1","course_id":"go"}`),
			MessageID: "m-2",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, EventCompleted, ev.EventType)
	require.NotNil(t, ev.CourseID)
	assert.Equal(t, "go", *ev.CourseID)
	assert.Nil(t, ev.Attributes)
}

func TestRecordUnrecognizedDeadLetter(t *testing.T) {
	repo := &fakeDeadLetterRepo{}
	svc := NewDeadLetterService(repo, zerolog.Nop())

	ev, err := svc.Record(context.Background(), &dto.PubSubPushRequest{Message: dto.PubSubMessage{MessageID: "m-3", Data: "garbage"}})
	require.NoError(t, err)
	assert.Equal(t, model.DeadLetterUnrecognized, ev.Status)
	assert.Empty(t, ev.EventType)

	repo.err = errors.New("insert failed")
	_, err = svc.Record(context.Background(), &dto.PubSubPushRequest{Message: dto.PubSubMessage{MessageID: "m-4"}})
	assert.Error(t, err)
}
