package service

import (
	"context"
	"strings"
	"testing"

	"coursemart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrollmentFixture struct {
	svc         EnrollmentService
	enrollments *fakeEnrollmentRepo
	courses     *fakeCourseRepo
	certs       *fakeCertRepo
	storage     *fakeStorage
	email       *fakeEmail
	notifier    *fakeNotifier
	events      *fakeEvents
}

func newEnrollmentFixture() *enrollmentFixture {
	courses := newFakeCourseRepo(
		&model.Course{ID: "intro", InstructorID: "instructor", Title: "Intro to Go", Status: model.CourseStatusPublished},
		&model.Course{ID: "paid", InstructorID: "instructor", Title: "Advanced Go", PriceCents: 4900, Status: model.CourseStatusPublished},
		&model.Course{ID: "draft", InstructorID: "instructor", Title: "Draft", Status: model.CourseStatusDraft},
	)
	lessons := newFakeLessonRepo(
		&model.Lesson{ID: "l1", CourseID: "intro", Position: 1},
		&model.Lesson{ID: "l2", CourseID: "intro", Position: 2},
		&model.Lesson{ID: "l3", CourseID: "intro", Position: 3},
		&model.Lesson{ID: "other", CourseID: "paid", Position: 1},
	)
	users := newFakeUserRepo(
		&model.User{UserID: "student", Name: "Ada Lovelace", Email: "ada@example.com"},
		&model.User{UserID: "instructor", Name: "Rob Pike", Role: model.RoleInstructor},
	)
	f := &enrollmentFixture{
		enrollments: newFakeEnrollmentRepo(),
		courses:     courses,
		certs:       newFakeCertRepo(),
		storage:     newFakeStorage(),
		email:       &fakeEmail{},
		notifier:    &fakeNotifier{},
		events:      &fakeEvents{},
	}
	certs := NewCertificateService(f.certs, courses, users, f.storage, f.notifier, f.email, zerolog.Nop())
	f.svc = NewEnrollmentService(f.enrollments, courses, lessons, certs, f.notifier, f.events, zerolog.Nop())
	return f
}

func TestEnrollFree(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()

	e, err := f.svc.EnrollFree(ctx, "student", "intro")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentActive, e.Status)
	assert.Equal(t, "Intro to Go", e.CourseTitle)
	assert.Equal(t, 1, f.courses.enrollDelta["intro"])
	assert.Equal(t, 1, f.events.count(EventEnrolled))

	_, err = f.svc.EnrollFree(ctx, "student", "intro")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, 1, f.courses.enrollDelta["intro"])

	tests := []struct {
		user, course string
		want         error
	}{
		{"student", "missing", ErrCourseNotFound},
		{"student", "draft", ErrCourseNotPublished},
		{"instructor", "intro", ErrOwnCourse},
		{"student", "paid", ErrPaymentRequired},
	}
	for _, tt := range tests {
		_, err := f.svc.EnrollFree(ctx, tt.user, tt.course)
		assert.ErrorIs(t, err, tt.want, "%s/%s", tt.user, tt.course)
	}
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, progressPercent(0, 0))
	assert.Equal(t, 33, progressPercent(1, 3))
	assert.Equal(t, 66, progressPercent(2, 3))
	assert.Equal(t, 100, progressPercent(3, 3))
	assert.Equal(t, 100, progressPercent(4, 3))
}

func TestCompleteLessonIssuesCertificateOnce(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	_, err := f.svc.EnrollFree(ctx, "student", "intro")
	require.NoError(t, err)

	p, err := f.svc.CompleteLesson(ctx, "student", "intro", "l1")
	require.NoError(t, err)
	assert.Equal(t, 33, p.Enrollment.ProgressPercent)
	assert.Nil(t, p.Certificate)

	// completing the same lesson again does not advance progress
	p, err = f.svc.CompleteLesson(ctx, "student", "intro", "l1")
	require.NoError(t, err)
	assert.Equal(t, 33, p.Enrollment.ProgressPercent)

	_, err = f.svc.CompleteLesson(ctx, "student", "intro", "l2")
	require.NoError(t, err)
	p, err = f.svc.CompleteLesson(ctx, "student", "intro", "l3")
	require.NoError(t, err)
	assert.Equal(t, 100, p.Enrollment.ProgressPercent)
	assert.Equal(t, model.EnrollmentCompleted, p.Enrollment.Status)
	require.NotNil(t, p.Certificate)
	assert.True(t, strings.HasPrefix(p.Certificate.CertificateNumber, "CM-"))
	assert.Equal(t, "certificates/student/intro.html", p.Certificate.StoragePath)

	doc := string(f.storage.uploads["certificates/student/intro.html"])
	assert.Contains(t, doc, "Ada Lovelace")
	assert.Contains(t, doc, "Intro to Go")
	assert.Contains(t, doc, "Rob Pike")

	again, err := f.svc.CompleteLesson(ctx, "student", "intro", "l3")
	require.NoError(t, err)
	assert.Equal(t, p.Certificate.CertificateNumber, again.Certificate.CertificateNumber)
	assert.Len(t, f.certs.certs, 1)
	assert.Len(t, f.email.certificates, 1)
	assert.Equal(t, 1, f.events.count(EventCompleted))
}

func TestCompleteLessonErrors(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()

	_, err := f.svc.CompleteLesson(ctx, "student", "intro", "l1")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.svc.EnrollFree(ctx, "student", "intro")
	require.NoError(t, err)

	_, err = f.svc.CompleteLesson(ctx, "student", "intro", "other")
	assert.ErrorIs(t, err, ErrLessonNotFound)
	_, err = f.svc.CompleteLesson(ctx, "student", "intro", "nope")
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestCompleteLessonAfterFinishStaysCompleted(t *testing.T) {
	ctx := context.Background()
	f := newEnrollmentFixture()
	_, err := f.svc.EnrollFree(ctx, "student", "intro")
	require.NoError(t, err)

	for _, lesson := range []string{"l1", "l2", "l3", "l3", "l3", "l1"} {
		_, err := f.svc.CompleteLesson(ctx, "student", "intro", lesson)
		require.NoError(t, err, lesson)
	}

	e, err := f.enrollments.GetEnrollment(ctx, "student", "intro")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	assert.Equal(t, 100, e.ProgressPercent)
	assert.NotNil(t, e.CompletedAt)
	assert.Equal(t, 1, f.events.count(EventCompleted))
	assert.Len(t, f.email.certificates, 1)
}
