package repository

import (
	"context"
	"errors"
	"fmt"

	"coursemart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CertificateRepository interface {
	CreateCertificate(ctx context.Context, c *model.Certificate) error
	GetCertificate(ctx context.Context, userID, courseID string) (*model.Certificate, error)
	ListCertificatesByUser(ctx context.Context, userID string) ([]model.Certificate, error)
}

type certificateRepo struct {
	pool *pgxpool.Pool
}

func NewCertificateRepo(pool *pgxpool.Pool) CertificateRepository {
	return &certificateRepo{pool: pool}
}

// CreateCertificate returns ErrDuplicate when the user already holds a
// certificate for the course
func (r *certificateRepo) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	query := `
		INSERT INTO certificates (user_id, course_id, certificate_number, storage_path)
		VALUES ($1, $2, $3, $4)
		RETURNING id, issued_at
	`
	err := r.pool.QueryRow(ctx, query, c.UserID, c.CourseID, c.CertificateNumber, c.StoragePath).
		Scan(&c.ID, &c.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating certificate for user %s course %s: %w", c.UserID, c.CourseID, err)
	}
	return nil
}

func (r *certificateRepo) GetCertificate(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	query := `
		SELECT ce.id, ce.user_id, ce.course_id, ce.certificate_number, ce.storage_path, ce.issued_at, c.title
		FROM certificates ce
		JOIN courses c ON c.id = ce.course_id
		WHERE ce.user_id = $1 AND ce.course_id = $2
	`
	var c model.Certificate
	err := r.pool.QueryRow(ctx, query, userID, courseID).Scan(
		&c.ID, &c.UserID, &c.CourseID, &c.CertificateNumber, &c.StoragePath, &c.IssuedAt, &c.CourseTitle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting certificate for user %s course %s: %w", userID, courseID, err)
	}
	return &c, nil
}

func (r *certificateRepo) ListCertificatesByUser(ctx context.Context, userID string) ([]model.Certificate, error) {
	query := `
		SELECT ce.id, ce.user_id, ce.course_id, ce.certificate_number, ce.storage_path, ce.issued_at, c.title
		FROM certificates ce
		JOIN courses c ON c.id = ce.course_id
		WHERE ce.user_id = $1
		ORDER BY ce.issued_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing certificates for user %s: %w", userID, err)
	}
	defer rows.Close()

	certs := []model.Certificate{}
	for rows.Next() {
		var c model.Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CertificateNumber, &c.StoragePath, &c.IssuedAt, &c.CourseTitle); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}
