package model

import "time"

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
)

// Enrollment grants a user access to a course and tracks progress
type Enrollment struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	OrderID         *string    `db:"order_id" json:"order_id,omitempty"`
	Status          string     `db:"status" json:"status"`
	ProgressPercent int        `db:"progress_percent" json:"progress_percent"`
	EnrolledAt      time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CourseTitle     string     `json:"course_title,omitempty"`
}

// Certificate is issued when an enrollment reaches 100%
type Certificate struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	CourseID          string    `db:"course_id" json:"course_id"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	StoragePath       string    `db:"storage_path" json:"storage_path"`
	IssuedAt          time.Time `db:"issued_at" json:"issued_at"`
	CourseTitle       string    `json:"course_title,omitempty"`
}

// Review is a learner's rating of a course
type Review struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	UserName  string    `json:"user_name,omitempty"`
}

// WishlistItem is a course a user saved for later
type WishlistItem struct {
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Course    *Course   `json:"course,omitempty"`
}

const (
	NotificationOrderPaid     = "order_paid"
	NotificationEnrolled      = "enrolled"
	NotificationCertificate   = "certificate_issued"
	NotificationOrderRefunded = "order_refunded"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// InstructorStats summarises an instructor's catalog performance
type InstructorStats struct {
	DraftCourses         int          `json:"draft_courses"`
	PublishedCourses     int          `json:"published_courses"`
	ArchivedCourses      int          `json:"archived_courses"`
	TotalEnrollments     int          `json:"total_enrollments"`
	CompletedEnrollments int          `json:"completed_enrollments"`
	RevenueUSDCents      int64        `json:"revenue_usd_cents"`
	AverageRating        float64      `json:"average_rating"`
	TopCourses           []CourseStat `json:"top_courses"`
}

// CourseStat is a per-course line on the instructor dashboard
type CourseStat struct {
	CourseID        string  `json:"course_id"`
	Title           string  `json:"title"`
	EnrollmentCount int     `json:"enrollment_count"`
	RatingAvg       float64 `json:"rating_avg"`
	RevenueUSDCents int64   `json:"revenue_usd_cents"`
}
