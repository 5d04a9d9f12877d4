package service

import (
	"context"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

// LessonProgress is the result of completing a lesson. Certificate is set once
// the course is finished.
type LessonProgress struct {
	Enrollment  *model.Enrollment
	Certificate *model.Certificate
}

type EnrollmentService interface {
	// EnrollFree enrolls the user in a free course
	EnrollFree(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error)
	CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*LessonProgress, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	lessonRepo     repository.LessonRepository
	certificates   CertificateService
	notifications  NotificationService
	events         EventPublisher
	now            func() time.Time
	logger         zerolog.Logger
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	certificates CertificateService,
	notifications NotificationService,
	events EventPublisher,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		certificates:   certificates,
		notifications:  notifications,
		events:         events,
		now:            time.Now,
		logger:         logger.With().Str("service", "EnrollmentService").Logger(),
	}
}

func (s *enrollmentService) EnrollFree(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCourseNotFound
	}
	if !c.IsPublished() {
		return nil, ErrCourseNotPublished
	}
	if c.InstructorID == userID {
		return nil, ErrOwnCourse
	}
	if !c.IsFree() {
		return nil, ErrPaymentRequired
	}

	e := &model.Enrollment{UserID: userID, CourseID: courseID, Status: model.EnrollmentActive}
	created, err := s.enrollmentRepo.CreateEnrollment(ctx, e)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("Failed to enroll user")
		return nil, err
	}
	if !created {
		return nil, ErrAlreadyEnrolled
	}
	if err := s.courseRepo.AdjustEnrollmentCount(ctx, courseID, 1); err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("Failed to bump enrollment count")
	}
	_ = s.notifications.Notify(ctx, userID, model.NotificationEnrolled, "Enrolled", "You are now enrolled in "+c.Title+".")
	s.events.Enrolled(ctx, e)

	e.CourseTitle = c.Title
	s.logger.Info().Str("user_id", userID).Str("course_id", courseID).Msg("User enrolled in free course")
	return e, nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return s.enrollmentRepo.ListEnrollmentsByUser(ctx, userID)
}

// progressPercent is the share of lessons completed, rounded down
func progressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := completed * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}

func (s *enrollmentService) CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*LessonProgress, error) {
	e, err := s.enrollmentRepo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotEnrolled
	}
	lesson, err := s.lessonRepo.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil || lesson.CourseID != courseID {
		return nil, ErrLessonNotFound
	}

	if err := s.enrollmentRepo.MarkLessonComplete(ctx, userID, courseID, lessonID); err != nil {
		return nil, err
	}
	total, err := s.lessonRepo.CountLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	done, err := s.enrollmentRepo.CountCompletedLessons(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	percent := progressPercent(done, total)
	finished := percent == 100 && e.Status != model.EnrollmentCompleted
	var completedAt *time.Time
	if finished {
		now := s.now()
		completedAt = &now
	}
	if err := s.enrollmentRepo.UpdateProgress(ctx, e.ID, percent, completedAt); err != nil {
		s.logger.Error().Err(err).Str("enrollment_id", e.ID).Msg("Failed to update progress")
		return nil, err
	}
	e.ProgressPercent = percent
	if finished {
		e.Status = model.EnrollmentCompleted
		e.CompletedAt = completedAt
		s.events.Completed(ctx, e)
	}

	out := &LessonProgress{Enrollment: e}
	if percent == 100 {
		cert, err := s.certificates.Issue(ctx, userID, courseID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("Failed to issue certificate")
			return nil, err
		}
		out.Certificate = cert
	}
	return out, nil
}
