package handler

import (
	"context"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/api/v1/operation"
	"coursemart/internal/service"

	"github.com/rs/zerolog"
)

// EnrollmentHandler serves enrollments, lesson progress and certificates
type EnrollmentHandler struct {
	enrollmentService  service.EnrollmentService
	certificateService service.CertificateService
	logger             zerolog.Logger
}

func NewEnrollmentHandler(enrollmentService service.EnrollmentService, certificateService service.CertificateService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService:  enrollmentService,
		certificateService: certificateService,
		logger:             logger,
	}
}

// Enroll enrolls the caller in a free course
func (h *EnrollmentHandler) Enroll(ctx context.Context, input *operation.EnrollInput) (*operation.EnrollOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	e, err := h.enrollmentService.EnrollFree(ctx, userID, input.CourseID)
	if err != nil {
		return nil, serviceError(err, "Failed to enroll")
	}
	return &operation.EnrollOutput{Body: toEnrollmentDTO(e)}, nil
}

func (h *EnrollmentHandler) ListEnrollments(ctx context.Context, input *operation.ListEnrollmentsInput) (*operation.ListEnrollmentsOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	enrollments, err := h.enrollmentService.ListEnrollments(ctx, userID)
	if err != nil {
		return nil, serviceError(err, "Failed to list enrollments")
	}
	out := make([]dto.EnrollmentResponseDTO, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, toEnrollmentDTO(&enrollments[i]))
	}
	return &operation.ListEnrollmentsOutput{Body: out}, nil
}

// CompleteLesson records lesson progress, issuing a certificate at 100%
func (h *EnrollmentHandler) CompleteLesson(ctx context.Context, input *operation.CompleteLessonInput) (*operation.CompleteLessonOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.enrollmentService.CompleteLesson(ctx, userID, input.CourseID, input.LessonID)
	if err != nil {
		return nil, serviceError(err, "Failed to record progress")
	}
	body := dto.LessonProgressResponseDTO{Enrollment: toEnrollmentDTO(p.Enrollment)}
	if p.Certificate != nil {
		cert := toCertificateDTO(p.Certificate, "")
		body.Certificate = &cert
	}
	return &operation.CompleteLessonOutput{Body: body}, nil
}

func (h *EnrollmentHandler) ListCertificates(ctx context.Context, input *operation.ListCertificatesInput) (*operation.ListCertificatesOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	certs, err := h.certificateService.List(ctx, userID)
	if err != nil {
		return nil, serviceError(err, "Failed to list certificates")
	}
	out := make([]dto.CertificateResponseDTO, 0, len(certs))
	for i := range certs {
		out = append(out, toCertificateDTO(&certs[i].Certificate, certs[i].DownloadURL))
	}
	return &operation.ListCertificatesOutput{Body: out}, nil
}
