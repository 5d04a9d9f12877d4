package dto

import "time"

type CategoryCreateDTO struct {
	Name        string `json:"name" validate:"required,max=80" minLength:"1" maxLength:"80"`
	Description string `json:"description,omitempty"`
}

type CategoryResponseDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	CategoryID     *string `json:"category_id,omitempty"`
	Title          string  `json:"title" validate:"required,max=200" minLength:"1" maxLength:"200"`
	Description    string  `json:"description,omitempty"`
	Level          string  `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced" enum:"beginner,intermediate,advanced"`
	Language       string  `json:"language,omitempty" validate:"omitempty,max=8"`
	PriceCents     int64   `json:"price_cents" validate:"gte=0" minimum:"0" doc:"List price in USD cents"`
	SalePriceCents *int64  `json:"sale_price_cents,omitempty" validate:"omitempty,gte=0" doc:"Sale price in USD cents; must be below the list price"`
}

// CourseUpdateDTO holds the editable fields; omitted fields are unchanged
type CourseUpdateDTO struct {
	CategoryID     *string `json:"category_id,omitempty"`
	Title          *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description    *string `json:"description,omitempty"`
	Level          *string `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced" enum:"beginner,intermediate,advanced"`
	Language       *string `json:"language,omitempty" validate:"omitempty,max=8"`
	PriceCents     *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	SalePriceCents *int64  `json:"sale_price_cents,omitempty" validate:"omitempty,gte=0"`
	ClearSalePrice bool    `json:"clear_sale_price,omitempty" doc:"Remove the current sale price"`
}

// PriceDTO is an amount converted into the viewer's currency
type PriceDTO struct {
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount" doc:"Minor units of currency"`
	Formatted string `json:"formatted"`
}

type CourseResponseDTO struct {
	ID                  string    `json:"id"`
	InstructorID        string    `json:"instructor_id"`
	CategoryID          *string   `json:"category_id,omitempty"`
	Title               string    `json:"title"`
	Slug                string    `json:"slug"`
	Description         string    `json:"description"`
	Level               string    `json:"level"`
	Language            string    `json:"language"`
	PriceCents          int64     `json:"price_cents"`
	SalePriceCents      *int64    `json:"sale_price_cents,omitempty"`
	EffectivePriceCents int64     `json:"effective_price_cents"`
	DisplayPrice        *PriceDTO `json:"display_price,omitempty"`
	ThumbnailPath       *string   `json:"thumbnail_path,omitempty"`
	Status              string    `json:"status"`
	RatingAvg           float64   `json:"rating_avg"`
	RatingCount         int       `json:"rating_count"`
	EnrollmentCount     int       `json:"enrollment_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type CourseListResponseDTO struct {
	Items  []CourseResponseDTO `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type CourseDetailResponseDTO struct {
	Course  CourseResponseDTO   `json:"course"`
	Lessons []LessonResponseDTO `json:"lessons"`
}

type LessonCreateDTO struct {
	Title       string `json:"title" validate:"required,max=200" minLength:"1" maxLength:"200"`
	DurationSec int    `json:"duration_sec" validate:"gte=0" minimum:"0"`
	IsPreview   bool   `json:"is_preview,omitempty" doc:"Visible to buyers before purchase"`
}

type LessonResponseDTO struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Position    int       `json:"position"`
	DurationSec int       `json:"duration_sec"`
	IsPreview   bool      `json:"is_preview"`
	CreatedAt   time.Time `json:"created_at"`
}

type ThumbnailUploadDTO struct {
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp" enum:"image/jpeg,image/png,image/webp"`
}

type SignedURLResponseDTO struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}
