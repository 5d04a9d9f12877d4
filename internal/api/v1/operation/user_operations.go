package operation

import "coursemart/internal/api/v1/dto"

// User Operations

type UpsertUserInput struct {
	Body dto.UserUpsertDTO `json:"body"`
}

type UpsertUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetUserInput struct {
	// No input needed - user ID comes from auth context
}

type GetUserOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type BecomeInstructorInput struct{}

type BecomeInstructorOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type GetRecommendationsInput struct {
	Limit    int    `query:"limit" default:"10" minimum:"1" maximum:"50" doc:"Number of courses to return"`
	Currency string `query:"currency" doc:"Add display prices converted into this currency"`
}

type GetRecommendationsOutput struct {
	Body []dto.CourseResponseDTO `json:"body"`
}

type GetInstructorDashboardInput struct{}

type GetInstructorDashboardOutput struct {
	Body dto.InstructorDashboardDTO `json:"body"`
}
