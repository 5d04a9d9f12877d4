package dto

import "time"

type EnrollmentResponseDTO struct {
	ID              string     `json:"id"`
	CourseID        string     `json:"course_id"`
	CourseTitle     string     `json:"course_title"`
	OrderID         *string    `json:"order_id,omitempty"`
	Status          string     `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type CertificateResponseDTO struct {
	ID                string    `json:"id"`
	CourseID          string    `json:"course_id"`
	CourseTitle       string    `json:"course_title,omitempty"`
	CertificateNumber string    `json:"certificate_number"`
	DownloadURL       string    `json:"download_url,omitempty"`
	IssuedAt          time.Time `json:"issued_at"`
}

type LessonProgressResponseDTO struct {
	Enrollment  EnrollmentResponseDTO   `json:"enrollment"`
	Certificate *CertificateResponseDTO `json:"certificate,omitempty"`
}

type ReviewRequestDTO struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5" minimum:"1" maximum:"5"`
	Comment string `json:"comment,omitempty" validate:"max=2000" maxLength:"2000"`
}

type ReviewResponseDTO struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WishlistRequestDTO struct {
	CourseID string `json:"course_id" validate:"required" minLength:"1"`
}

type WishlistItemResponseDTO struct {
	CourseID  string             `json:"course_id"`
	CreatedAt time.Time          `json:"created_at"`
	Course    *CourseResponseDTO `json:"course,omitempty"`
}

type NotificationResponseDTO struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type MarkAllReadResponseDTO struct {
	Updated int64 `json:"updated"`
}

type CourseStatDTO struct {
	CourseID        string  `json:"course_id"`
	Title           string  `json:"title"`
	EnrollmentCount int     `json:"enrollment_count"`
	RatingAvg       float64 `json:"rating_avg"`
	RevenueUSDCents int64   `json:"revenue_usd_cents"`
}

type InstructorDashboardDTO struct {
	DraftCourses         int             `json:"draft_courses"`
	PublishedCourses     int             `json:"published_courses"`
	ArchivedCourses      int             `json:"archived_courses"`
	TotalEnrollments     int             `json:"total_enrollments"`
	CompletedEnrollments int             `json:"completed_enrollments"`
	RevenueUSDCents      int64           `json:"revenue_usd_cents"`
	AverageRating        float64         `json:"average_rating"`
	TopCourses           []CourseStatDTO `json:"top_courses"`
}
