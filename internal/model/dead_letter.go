package model

import "time"

const (
	DeadLetterUnprocessed  = "unprocessed"
	DeadLetterUnrecognized = "unrecognized"
)

// DeadLetterEvent is a domain event Pub/Sub gave up delivering. OrderID and
// CourseID are lifted from the event body so failures can be traced back to
// the order or enrollment that produced them.
type DeadLetterEvent struct {
	ID               string    `db:"id"`
	SubscriptionName string    `db:"subscription_name"`
	SourceTopic      string    `db:"source_topic"`
	EventType        string    `db:"event_type"`
	MessageID        string    `db:"message_id"`
	OrderID          *string   `db:"order_id"`
	CourseID         *string   `db:"course_id"`
	Payload          []byte    `db:"payload"`    // JSON document
	Attributes       []byte    `db:"attributes"` // JSON object, may be empty
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
