package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CourseService covers the catalog: categories, courses and their lessons
type CourseService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, userID string, c *model.Category) (*model.Category, error)

	ListCourses(ctx context.Context, f model.CourseFilter) ([]model.Course, int, error)
	// GetCourse returns a course with its lessons. Unpublished courses are
	// visible only to their instructor and admins; viewerID may be empty.
	GetCourse(ctx context.Context, viewerID, courseID string) (*model.Course, []model.Lesson, error)
	CreateCourse(ctx context.Context, userID string, c *model.Course) (*model.Course, error)
	UpdateCourse(ctx context.Context, userID, courseID string, p CoursePatch) (*model.Course, error)
	PublishCourse(ctx context.Context, userID, courseID string) (*model.Course, error)
	ArchiveCourse(ctx context.Context, userID, courseID string) error
	ThumbnailUploadURL(ctx context.Context, userID, courseID, contentType string) (string, string, error)

	AddLesson(ctx context.Context, userID, courseID string, l *model.Lesson) (*model.Lesson, error)
	ListLessons(ctx context.Context, viewerID, courseID string) ([]model.Lesson, error)
}

// CoursePatch holds the editable course fields; nil fields are left unchanged.
// ClearSalePrice removes an active sale.
type CoursePatch struct {
	CategoryID     *string
	Title          *string
	Description    *string
	Level          *string
	Language       *string
	PriceCents     *int64
	SalePriceCents *int64
	ClearSalePrice bool
}

var thumbnailExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type courseService struct {
	courseRepo   repository.CourseRepository
	lessonRepo   repository.LessonRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	storage      StorageService
	courseLogger zerolog.Logger
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	storage StorageService,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		storage:      storage,
		courseLogger: logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.ListCategories(ctx)
}

func (s *courseService) CreateCategory(ctx context.Context, userID string, c *model.Category) (*model.Category, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrForbidden
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Slug == "" {
		return nil, fmt.Errorf("%w: category name produces an empty slug", ErrInvalidInput)
	}
	if err := s.categoryRepo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		s.courseLogger.Error().Err(err).Str("slug", c.Slug).Msg("Failed to create category")
		return nil, err
	}
	return c, nil
}

func (s *courseService) ListCourses(ctx context.Context, f model.CourseFilter) ([]model.Course, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	courses, total, err := s.courseRepo.ListCourses(ctx, f)
	if err != nil {
		s.courseLogger.Error().Err(err).Msg("Failed to list courses")
		return nil, 0, err
	}
	return courses, total, nil
}

func (s *courseService) GetCourse(ctx context.Context, viewerID, courseID string) (*model.Course, []model.Lesson, error) {
	c, err := s.visibleCourse(ctx, viewerID, courseID)
	if err != nil {
		return nil, nil, err
	}
	lessons, err := s.lessonRepo.GetLessonsByCourse(ctx, courseID)
	if err != nil {
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to load lessons")
		return nil, nil, err
	}
	return c, lessons, nil
}

func (s *courseService) CreateCourse(ctx context.Context, userID string, c *model.Course) (*model.Course, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.CanTeach() {
		return nil, ErrForbidden
	}
	if err := validatePrices(c.PriceCents, c.SalePriceCents); err != nil {
		return nil, err
	}
	c.InstructorID = userID
	c.Status = model.CourseStatusDraft
	if c.Level == "" {
		c.Level = "beginner"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	slug, err := s.uniqueSlug(ctx, c.Title)
	if err != nil {
		return nil, err
	}
	c.Slug = slug

	if err := s.courseRepo.CreateCourse(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race for the slug; retry once with a suffixed one
			c.Slug = slug + "-" + shortID()
			err = s.courseRepo.CreateCourse(ctx, c)
		}
		if err != nil {
			s.courseLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to create course")
			return nil, err
		}
	}
	s.courseLogger.Info().Str("course_id", c.ID).Str("user_id", userID).Msg("Course draft created")
	return c, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, userID, courseID string, p CoursePatch) (*model.Course, error) {
	c, err := s.editableCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if p.CategoryID != nil {
		if *p.CategoryID == "" {
			c.CategoryID = nil
		} else {
			c.CategoryID = p.CategoryID
		}
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Language != nil {
		c.Language = *p.Language
	}
	if p.PriceCents != nil {
		c.PriceCents = *p.PriceCents
	}
	if p.ClearSalePrice {
		c.SalePriceCents = nil
	} else if p.SalePriceCents != nil {
		c.SalePriceCents = p.SalePriceCents
	}
	if err := validatePrices(c.PriceCents, c.SalePriceCents); err != nil {
		return nil, err
	}

	if err := s.courseRepo.UpdateCourse(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to update course")
		return nil, err
	}
	return c, nil
}

func (s *courseService) PublishCourse(ctx context.Context, userID, courseID string) (*model.Course, error) {
	c, err := s.editableCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if c.IsPublished() {
		return c, nil
	}
	n, err := s.lessonRepo.CountLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrCourseHasNoLessons
	}
	if err := s.courseRepo.SetStatus(ctx, courseID, model.CourseStatusPublished); err != nil {
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to publish course")
		return nil, err
	}
	c.Status = model.CourseStatusPublished
	s.courseLogger.Info().Str("course_id", courseID).Msg("Course published")
	return c, nil
}

// ArchiveCourse hides a course from the catalog. Existing enrollments keep access.
func (s *courseService) ArchiveCourse(ctx context.Context, userID, courseID string) error {
	if _, err := s.editableCourse(ctx, userID, courseID); err != nil {
		return err
	}
	if err := s.courseRepo.SetStatus(ctx, courseID, model.CourseStatusArchived); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to archive course")
		return err
	}
	return nil
}

func (s *courseService) ThumbnailUploadURL(ctx context.Context, userID, courseID, contentType string) (string, string, error) {
	ext, ok := thumbnailExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported thumbnail type %q", ErrInvalidInput, contentType)
	}
	if _, err := s.editableCourse(ctx, userID, courseID); err != nil {
		return "", "", err
	}
	path := fmt.Sprintf("courses/%s/thumbnail-%s.%s", courseID, shortID(), ext)
	url, err := s.storage.PresignUpload(ctx, path, contentType)
	if err != nil {
		return "", "", err
	}
	if err := s.courseRepo.SetThumbnail(ctx, courseID, path); err != nil {
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to store thumbnail path")
		return "", "", err
	}
	return url, path, nil
}

func (s *courseService) AddLesson(ctx context.Context, userID, courseID string, l *model.Lesson) (*model.Lesson, error) {
	if _, err := s.editableCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(l.Title) == "" {
		return nil, fmt.Errorf("%w: lesson title is required", ErrInvalidInput)
	}
	if l.DurationSec < 0 {
		return nil, fmt.Errorf("%w: duration cannot be negative", ErrInvalidInput)
	}
	l.CourseID = courseID
	if err := s.lessonRepo.CreateLesson(ctx, l); err != nil {
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to add lesson")
		return nil, err
	}
	return l, nil
}

func (s *courseService) ListLessons(ctx context.Context, viewerID, courseID string) ([]model.Lesson, error) {
	if _, err := s.visibleCourse(ctx, viewerID, courseID); err != nil {
		return nil, err
	}
	return s.lessonRepo.GetLessonsByCourse(ctx, courseID)
}

func (s *courseService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *courseService) visibleCourse(ctx context.Context, viewerID, courseID string) (*model.Course, error) {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to get course by ID")
		return nil, err
	}
	if c == nil {
		return nil, ErrCourseNotFound
	}
	if c.IsPublished() {
		return c, nil
	}
	if viewerID == "" {
		return nil, ErrCourseNotFound
	}
	if c.InstructorID == viewerID {
		return c, nil
	}
	u, err := s.userRepo.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if u != nil && u.IsAdmin() {
		return c, nil
	}
	return nil, ErrCourseNotFound
}

// editableCourse loads a course the user may change: their own, or any as admin.
func (s *courseService) editableCourse(ctx context.Context, userID, courseID string) (*model.Course, error) {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		s.courseLogger.Error().Err(err).Str("course_id", courseID).Msg("Failed to get course by ID")
		return nil, err
	}
	if c == nil {
		return nil, ErrCourseNotFound
	}
	if c.InstructorID == userID {
		return c, nil
	}
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *courseService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "course"
	}
	exists, err := s.courseRepo.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	return base + "-" + shortID(), nil
}

func validatePrices(price int64, sale *int64) error {
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if sale != nil && (*sale < 0 || *sale >= price) {
		return fmt.Errorf("%w: sale price must be below the list price", ErrInvalidInput)
	}
	return nil
}

// Slugify lowercases s and joins its letters and digits with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
