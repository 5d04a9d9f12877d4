package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

// IssuedCertificate is a certificate with a short-lived download link
type IssuedCertificate struct {
	model.Certificate
	DownloadURL string `json:"download_url,omitempty"`
}

type CertificateService interface {
	// Issue creates the certificate for a completed course. Issuing twice
	// returns the existing certificate.
	Issue(ctx context.Context, userID, courseID string) (*model.Certificate, error)
	List(ctx context.Context, userID string) ([]IssuedCertificate, error)
}

type certificateService struct {
	certRepo      repository.CertificateRepository
	courseRepo    repository.CourseRepository
	userRepo      repository.UserRepository
	storage       StorageService
	notifications NotificationService
	email         EmailService
	now           func() time.Time
	logger        zerolog.Logger
}

func NewCertificateService(
	certRepo repository.CertificateRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	storage StorageService,
	notifications NotificationService,
	email EmailService,
	logger zerolog.Logger,
) CertificateService {
	return &certificateService{
		certRepo:      certRepo,
		courseRepo:    courseRepo,
		userRepo:      userRepo,
		storage:       storage,
		notifications: notifications,
		email:         email,
		now:           time.Now,
		logger:        logger.With().Str("service", "CertificateService").Logger(),
	}
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Certificate of Completion - {{.Course}}</title>
<style>
body { font-family: Georgia, serif; text-align: center; padding: 4rem; }
h1 { font-size: 2.5rem; margin-bottom: 0; }
.name { font-size: 2rem; margin: 2rem 0; }
.meta { color: #555; margin-top: 3rem; }
</style>
</head>
<body>
<h1>Certificate of Completion</h1>
<p>This certifies that</p>
<p class="name">{{.Name}}</p>
<p>has successfully completed</p>
<h2>{{.Course}}</h2>
<p>taught by {{.Instructor}}</p>
<p class="meta">Certificate {{.Number}} issued {{.Issued}}</p>
</body>
</html>
`))

// certificateNumber formats CM-<YYYYMMDD>-<8 hex>
func certificateNumber(at time.Time) string {
	return fmt.Sprintf("CM-%s-%s", at.UTC().Format("20060102"), shortID())
}

func certificatePath(userID, courseID string) string {
	return fmt.Sprintf("certificates/%s/%s.html", userID, courseID)
}

func (s *certificateService) Issue(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	existing, err := s.certRepo.GetCertificate(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	instructorName := ""
	if instructor, err := s.userRepo.GetUserByID(ctx, course.InstructorID); err == nil && instructor != nil {
		instructorName = instructor.Name
	}

	issued := s.now()
	cert := &model.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: certificateNumber(issued),
		CourseTitle:       course.Title,
	}
	log := s.logger.With().Str("user_id", userID).Str("course_id", courseID).Logger()

	var doc bytes.Buffer
	err = certificateTemplate.Execute(&doc, map[string]string{
		"Name":       user.Name,
		"Course":     course.Title,
		"Instructor": instructorName,
		"Number":     cert.CertificateNumber,
		"Issued":     issued.UTC().Format("January 2, 2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering certificate: %w", err)
	}
	path := certificatePath(userID, courseID)
	switch err := s.storage.Upload(ctx, path, "text/html; charset=utf-8", doc.Bytes()); {
	case err == nil:
		cert.StoragePath = path
	case errors.Is(err, ErrStorageDisabled):
		log.Warn().Msg("Storage disabled; certificate issued without a document")
	default:
		return nil, err
	}

	if err := s.certRepo.CreateCertificate(ctx, cert); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// issued concurrently
			return s.certRepo.GetCertificate(ctx, userID, courseID)
		}
		log.Error().Err(err).Msg("Failed to store certificate")
		return nil, err
	}
	log.Info().Str("certificate_number", cert.CertificateNumber).Msg("Certificate issued")

	_ = s.notifications.Notify(ctx, userID, model.NotificationCertificate, "Certificate issued",
		fmt.Sprintf("You completed %s. Certificate %s is ready.", course.Title, cert.CertificateNumber))

	url := ""
	if cert.StoragePath != "" {
		if u, err := s.storage.PresignDownload(ctx, cert.StoragePath); err == nil {
			url = u
		}
	}
	if err := s.email.SendCertificate(ctx, user, cert, url); err != nil {
		log.Warn().Err(err).Msg("Failed to email certificate")
	}
	return cert, nil
}

func (s *certificateService) List(ctx context.Context, userID string) ([]IssuedCertificate, error) {
	certs, err := s.certRepo.ListCertificatesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]IssuedCertificate, 0, len(certs))
	for _, c := range certs {
		ic := IssuedCertificate{Certificate: c}
		if c.StoragePath != "" {
			url, err := s.storage.PresignDownload(ctx, c.StoragePath)
			if err != nil && !errors.Is(err, ErrStorageDisabled) {
				s.logger.Warn().Err(err).Str("certificate_id", c.ID).Msg("Failed to presign certificate download")
			}
			ic.DownloadURL = url
		}
		out = append(out, ic)
	}
	return out, nil
}
