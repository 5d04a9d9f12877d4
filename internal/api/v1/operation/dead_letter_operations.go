package operation

import "coursemart/internal/api/v1/dto"

// Dead letter push endpoint

type RecordDeadLetterInput struct {
	Body dto.PubSubPushRequest `json:"body"`
}

type RecordDeadLetterOutput struct {
	// 204 No Content
}
