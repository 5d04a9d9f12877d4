package operation

import "coursemart/internal/api/v1/dto"

// Category Operations

type ListCategoriesInput struct{}

type ListCategoriesOutput struct {
	Body []dto.CategoryResponseDTO `json:"body"`
}

type CreateCategoryInput struct {
	Body dto.CategoryCreateDTO `json:"body"`
}

type CreateCategoryOutput struct {
	Body dto.CategoryResponseDTO `json:"body"`
}

// Course Operations

type ListCoursesInput struct {
	Category     string `query:"category" doc:"Category slug"`
	Query        string `query:"q" doc:"Search title and description"`
	Level        string `query:"level" doc:"Course level: beginner, intermediate or advanced"`
	InstructorID string `query:"instructor_id"`
	MinPrice     int64  `query:"min_price" minimum:"0" doc:"Minimum effective price in USD cents"`
	MaxPrice     int64  `query:"max_price" minimum:"0" doc:"Maximum effective price in USD cents; 0 means no maximum"`
	Free         bool   `query:"free" doc:"Only free courses"`
	Sort         string `query:"sort" default:"newest" enum:"newest,price_asc,price_desc,rating,popular"`
	Limit        int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Number of courses to return"`
	Offset       int    `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
	Currency     string `query:"currency" doc:"Add display prices converted into this currency"`
}

type ListCoursesOutput struct {
	Body dto.CourseListResponseDTO `json:"body"`
}

type GetCourseInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
	Currency string `query:"currency" doc:"Add a display price converted into this currency"`
}

type GetCourseOutput struct {
	Body dto.CourseDetailResponseDTO `json:"body"`
}

type CreateCourseInput struct {
	Body dto.CourseCreateDTO `json:"body"`
}

type CreateCourseOutput struct {
	Body dto.CourseResponseDTO `json:"body"`
}

type UpdateCourseInput struct {
	CourseID string              `path:"courseId" doc:"Course ID"`
	Body     dto.CourseUpdateDTO `json:"body"`
}

type UpdateCourseOutput struct {
	Body dto.CourseResponseDTO `json:"body"`
}

type PublishCourseInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type PublishCourseOutput struct {
	Body dto.CourseResponseDTO `json:"body"`
}

type ArchiveCourseInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type ArchiveCourseOutput struct {
	// 204 No Content
}

type ThumbnailUploadInput struct {
	CourseID string                 `path:"courseId" doc:"Course ID"`
	Body     dto.ThumbnailUploadDTO `json:"body"`
}

type ThumbnailUploadOutput struct {
	Body dto.SignedURLResponseDTO `json:"body"`
}

// Lesson Operations

type ListLessonsInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type ListLessonsOutput struct {
	Body []dto.LessonResponseDTO `json:"body"`
}

type CreateLessonInput struct {
	CourseID string              `path:"courseId" doc:"Course ID"`
	Body     dto.LessonCreateDTO `json:"body"`
}

type CreateLessonOutput struct {
	Body dto.LessonResponseDTO `json:"body"`
}

// Review Operations

type ListReviewsInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
	Limit    int    `query:"limit" default:"20" minimum:"1" maximum:"100"`
	Offset   int    `query:"offset" default:"0" minimum:"0"`
}

type ListReviewsOutput struct {
	Body []dto.ReviewResponseDTO `json:"body"`
}

type CreateReviewInput struct {
	CourseID string               `path:"courseId" doc:"Course ID"`
	Body     dto.ReviewRequestDTO `json:"body"`
}

type CreateReviewOutput struct {
	Body dto.ReviewResponseDTO `json:"body"`
}
