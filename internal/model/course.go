package model

import "time"

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

// Category groups courses in the catalog
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Course is a purchasable bundle of lessons. Prices are USD cents.
type Course struct {
	ID              string    `db:"id" json:"id"`
	InstructorID    string    `db:"instructor_id" json:"instructor_id"`
	CategoryID      *string   `db:"category_id" json:"category_id,omitempty"`
	Title           string    `db:"title" json:"title"`
	Slug            string    `db:"slug" json:"slug"`
	Description     string    `db:"description" json:"description"`
	Level           string    `db:"level" json:"level"`
	Language        string    `db:"language" json:"language"`
	PriceCents      int64     `db:"price_cents" json:"price_cents"`
	SalePriceCents  *int64    `db:"sale_price_cents" json:"sale_price_cents,omitempty"`
	ThumbnailPath   *string   `db:"thumbnail_path" json:"thumbnail_path,omitempty"`
	Status          string    `db:"status" json:"status"`
	RatingAvg       float64   `db:"rating_avg" json:"rating_avg"`
	RatingCount     int       `db:"rating_count" json:"rating_count"`
	EnrollmentCount int       `db:"enrollment_count" json:"enrollment_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// EffectivePrice is the price a buyer pays before coupons.
func (c *Course) EffectivePrice() int64 {
	if c.SalePriceCents != nil && *c.SalePriceCents < c.PriceCents {
		return *c.SalePriceCents
	}
	return c.PriceCents
}

// IsFree reports whether the course can be enrolled in without payment.
func (c *Course) IsFree() bool {
	return c.EffectivePrice() == 0
}

// IsPublished reports whether the course is visible in the catalog.
func (c *Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}

// Lesson is a single unit of course content
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Position    int       `db:"position" json:"position"`
	DurationSec int       `db:"duration_sec" json:"duration_sec"`
	IsPreview   bool      `db:"is_preview" json:"is_preview"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseFilter holds catalog listing criteria
type CourseFilter struct {
	CategorySlug string
	Query        string
	Level        string
	InstructorID string
	MinPrice     *int64
	MaxPrice     *int64
	FreeOnly     bool
	Sort         string
	Limit        int
	Offset       int
}

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortPopular   = "popular"
)
