package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/model"
	"coursemart/internal/pricing"
	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler serves the catalog: categories, courses and lessons
type CourseHandler struct {
	courseService service.CourseService
	prices        *pricing.Table
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewCourseHandler(courseService service.CourseService, prices *pricing.Table, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		prices:        prices,
		validate:      validate,
		logger:        logger,
	}
}

var courseLevels = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

// ListCategories returns every category
func (h *CourseHandler) ListCategories(ctx context.Context, input *operation.ListCategoriesInput) (*operation.ListCategoriesOutput, error) {
	categories, err := h.courseService.ListCategories(ctx)
	if err != nil {
		return nil, serviceError(err, "Failed to list categories")
	}
	out := make([]dto.CategoryResponseDTO, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryDTO(&categories[i]))
	}
	return &operation.ListCategoriesOutput{Body: out}, nil
}

// CreateCategory adds a category (admin only)
func (h *CourseHandler) CreateCategory(ctx context.Context, input *operation.CreateCategoryInput) (*operation.CreateCategoryOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	c, err := h.courseService.CreateCategory(ctx, userID, &model.Category{
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, serviceError(err, "Failed to create category")
	}
	return &operation.CreateCategoryOutput{Body: toCategoryDTO(c)}, nil
}

// ListCourses searches the published catalog
func (h *CourseHandler) ListCourses(ctx context.Context, input *operation.ListCoursesInput) (*operation.ListCoursesOutput, error) {
	if input.Level != "" && !courseLevels[input.Level] {
		return nil, huma.Error400BadRequest("level must be one of beginner, intermediate, advanced")
	}
	f := model.CourseFilter{
		CategorySlug: input.Category,
		Query:        input.Query,
		Level:        input.Level,
		InstructorID: input.InstructorID,
		FreeOnly:     input.Free,
		Sort:         input.Sort,
		Limit:        input.Limit,
		Offset:       input.Offset,
	}
	if input.MinPrice > 0 {
		f.MinPrice = &input.MinPrice
	}
	if input.MaxPrice > 0 {
		f.MaxPrice = &input.MaxPrice
	}

	courses, total, err := h.courseService.ListCourses(ctx, f)
	if err != nil {
		return nil, serviceError(err, "Failed to list courses")
	}
	items, err := toCourseDTOs(h.prices, courses, input.Currency)
	if err != nil {
		return nil, err
	}
	return &operation.ListCoursesOutput{
		Body: dto.CourseListResponseDTO{
			Items:  items,
			Total:  total,
			Limit:  input.Limit,
			Offset: input.Offset,
		},
	}, nil
}

// GetCourse returns a course and its lessons
func (h *CourseHandler) GetCourse(ctx context.Context, input *operation.GetCourseInput) (*operation.GetCourseOutput, error) {
	c, lessons, err := h.courseService.GetCourse(ctx, viewerID(ctx), input.CourseID)
	if err != nil {
		return nil, serviceError(err, "Failed to get course")
	}
	course := toCourseDTO(c)
	if course.DisplayPrice, err = displayPrice(h.prices, course.EffectivePriceCents, input.Currency); err != nil {
		return nil, err
	}
	return &operation.GetCourseOutput{
		Body: dto.CourseDetailResponseDTO{Course: course, Lessons: toLessonDTOs(lessons)},
	}, nil
}

// CreateCourse creates a draft course owned by the caller
func (h *CourseHandler) CreateCourse(ctx context.Context, input *operation.CreateCourseInput) (*operation.CreateCourseOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	created, err := h.courseService.CreateCourse(ctx, userID, &model.Course{
		CategoryID:     input.Body.CategoryID,
		Title:          input.Body.Title,
		Description:    input.Body.Description,
		Level:          input.Body.Level,
		Language:       input.Body.Language,
		PriceCents:     input.Body.PriceCents,
		SalePriceCents: input.Body.SalePriceCents,
	})
	if err != nil {
		return nil, serviceError(err, "Failed to create course")
	}
	return &operation.CreateCourseOutput{Body: toCourseDTO(created)}, nil
}

// UpdateCourse applies a partial update
func (h *CourseHandler) UpdateCourse(ctx context.Context, input *operation.UpdateCourseInput) (*operation.UpdateCourseOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	b := input.Body
	updated, err := h.courseService.UpdateCourse(ctx, userID, input.CourseID, service.CoursePatch{
		CategoryID:     b.CategoryID,
		Title:          b.Title,
		Description:    b.Description,
		Level:          b.Level,
		Language:       b.Language,
		PriceCents:     b.PriceCents,
		SalePriceCents: b.SalePriceCents,
		ClearSalePrice: b.ClearSalePrice,
	})
	if err != nil {
		return nil, serviceError(err, "Failed to update course")
	}
	return &operation.UpdateCourseOutput{Body: toCourseDTO(updated)}, nil
}

func (h *CourseHandler) PublishCourse(ctx context.Context, input *operation.PublishCourseInput) (*operation.PublishCourseOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c, err := h.courseService.PublishCourse(ctx, userID, input.CourseID)
	if err != nil {
		return nil, serviceError(err, "Failed to publish course")
	}
	return &operation.PublishCourseOutput{Body: toCourseDTO(c)}, nil
}

// ArchiveCourse removes a course from the catalog; enrolled learners keep access
func (h *CourseHandler) ArchiveCourse(ctx context.Context, input *operation.ArchiveCourseInput) (*operation.ArchiveCourseOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.courseService.ArchiveCourse(ctx, userID, input.CourseID); err != nil {
		return nil, serviceError(err, "Failed to archive course")
	}
	return &operation.ArchiveCourseOutput{}, nil
}

// ThumbnailUploadURL returns a presigned PUT URL for the course thumbnail
func (h *CourseHandler) ThumbnailUploadURL(ctx context.Context, input *operation.ThumbnailUploadInput) (*operation.ThumbnailUploadOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	url, path, err := h.courseService.ThumbnailUploadURL(ctx, userID, input.CourseID, input.Body.ContentType)
	if err != nil {
		return nil, serviceError(err, "Failed to create upload URL")
	}
	return &operation.ThumbnailUploadOutput{Body: dto.SignedURLResponseDTO{URL: url, Path: path}}, nil
}

func (h *CourseHandler) ListLessons(ctx context.Context, input *operation.ListLessonsInput) (*operation.ListLessonsOutput, error) {
	lessons, err := h.courseService.ListLessons(ctx, viewerID(ctx), input.CourseID)
	if err != nil {
		return nil, serviceError(err, "Failed to list lessons")
	}
	return &operation.ListLessonsOutput{Body: toLessonDTOs(lessons)}, nil
}

// CreateLesson appends a lesson to the course
func (h *CourseHandler) CreateLesson(ctx context.Context, input *operation.CreateLessonInput) (*operation.CreateLessonOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, &input.Body); err != nil {
		return nil, err
	}

	l, err := h.courseService.AddLesson(ctx, userID, input.CourseID, &model.Lesson{
		Title:       input.Body.Title,
		DurationSec: input.Body.DurationSec,
		IsPreview:   input.Body.IsPreview,
	})
	if err != nil {
		return nil, serviceError(err, "Failed to add lesson")
	}
	return &operation.CreateLessonOutput{Body: toLessonDTO(l)}, nil
}
