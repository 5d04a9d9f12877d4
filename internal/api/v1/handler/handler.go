package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/middleware"
	"coursemart/internal/model"
	"coursemart/internal/pricing"
	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
)

// Helper to extract user ID from context (injected by auth middleware)
func getUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("User ID not found in context")
	}
	return userID, nil
}

// viewerID returns the caller on public routes, or "" for anonymous requests.
func viewerID(ctx context.Context) string {
	userID, _ := ctx.Value(middleware.UserContextKey).(string)
	return userID
}

func validateBody(v *validator.Validate, body any) error {
	if err := v.Struct(body); err != nil {
		return huma.Error400BadRequest("Validation failed", err)
	}
	return nil
}

// serviceError maps domain errors onto HTTP problems. Anything unrecognised is
// reported as a 500 with msg.
func serviceError(err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return huma.Error404NotFound(err.Error())

	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotEnrolled):
		return huma.Error403Forbidden(err.Error())

	case errors.Is(err, service.ErrCategoryExists),
		errors.Is(err, service.ErrCouponExists),
		errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderNotPaid):
		return huma.Error409Conflict(err.Error())

	case errors.Is(err, service.ErrPaymentRequired):
		return huma.NewError(http.StatusPaymentRequired, err.Error())

	case errors.Is(err, service.ErrGatewayUnavailable),
		errors.Is(err, service.ErrStorageDisabled):
		return huma.Error503ServiceUnavailable(err.Error())

	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrCourseNotPublished),
		errors.Is(err, service.ErrCourseHasNoLessons),
		errors.Is(err, service.ErrOwnCourse),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponExhausted),
		errors.Is(err, service.ErrCouponMinimum),
		errors.Is(err, service.ErrCouponNotApplicable),
		errors.Is(err, service.ErrPaymentMismatch),
		errors.Is(err, service.ErrPaymentIncomplete):
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError(msg, err)
}

// displayPrice converts a USD cent amount for display. An empty currency
// yields nil.
func displayPrice(prices *pricing.Table, usdCents int64, currency string) (*dto.PriceDTO, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return nil, nil
	}
	amount, err := prices.Convert(usdCents, pricing.BaseCurrency, currency)
	if err != nil {
		return nil, huma.Error400BadRequest("Unsupported currency: " + currency)
	}
	return &dto.PriceDTO{
		Currency:  currency,
		Amount:    amount,
		Formatted: prices.Format(amount, currency),
	}, nil
}

func toUserDTO(u *model.User) dto.UserResponseDTO {
	return dto.UserResponseDTO{
		UserID:            u.UserID,
		Name:              u.Name,
		Email:             u.Email,
		AvatarURL:         u.AvatarURL,
		Role:              u.Role,
		Country:           u.Country,
		PreferredCurrency: u.PreferredCurrency,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toCategoryDTO(c *model.Category) dto.CategoryResponseDTO {
	return dto.CategoryResponseDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func toCourseDTO(c *model.Course) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		ID:                  c.ID,
		InstructorID:        c.InstructorID,
		CategoryID:          c.CategoryID,
		Title:               c.Title,
		Slug:                c.Slug,
		Description:         c.Description,
		Level:               c.Level,
		Language:            c.Language,
		PriceCents:          c.PriceCents,
		SalePriceCents:      c.SalePriceCents,
		EffectivePriceCents: c.EffectivePrice(),
		ThumbnailPath:       c.ThumbnailPath,
		Status:              c.Status,
		RatingAvg:           c.RatingAvg,
		RatingCount:         c.RatingCount,
		EnrollmentCount:     c.EnrollmentCount,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// toCourseDTOs converts courses, adding a display price when currency is set.
func toCourseDTOs(prices *pricing.Table, courses []model.Course, currency string) ([]dto.CourseResponseDTO, error) {
	out := make([]dto.CourseResponseDTO, 0, len(courses))
	for i := range courses {
		d := toCourseDTO(&courses[i])
		price, err := displayPrice(prices, d.EffectivePriceCents, currency)
		if err != nil {
			return nil, err
		}
		d.DisplayPrice = price
		out = append(out, d)
	}
	return out, nil
}

func toLessonDTO(l *model.Lesson) dto.LessonResponseDTO {
	return dto.LessonResponseDTO{
		ID:          l.ID,
		CourseID:    l.CourseID,
		Title:       l.Title,
		Position:    l.Position,
		DurationSec: l.DurationSec,
		IsPreview:   l.IsPreview,
		CreatedAt:   l.CreatedAt,
	}
}

func toLessonDTOs(lessons []model.Lesson) []dto.LessonResponseDTO {
	out := make([]dto.LessonResponseDTO, 0, len(lessons))
	for i := range lessons {
		out = append(out, toLessonDTO(&lessons[i]))
	}
	return out
}

func toCouponDTO(c *model.Coupon) dto.CouponResponseDTO {
	return dto.CouponResponseDTO{
		ID:             c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		CourseID:       c.CourseID,
		MinOrderCents:  c.MinOrderCents,
		MaxRedemptions: c.MaxRedemptions,
		Redemptions:    c.Redemptions,
		StartsAt:       c.StartsAt,
		ExpiresAt:      c.ExpiresAt,
		Active:         c.Active,
	}
}

func toOrderDTO(prices *pricing.Table, o *model.Order) dto.OrderResponseDTO {
	items := make([]dto.OrderItemResponseDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponseDTO{
			CourseID:      it.CourseID,
			Title:         it.Title,
			PriceUSDCents: it.PriceUSDCents,
		})
	}
	return dto.OrderResponseDTO{
		ID:               o.ID,
		Status:           o.Status,
		Currency:         o.Currency,
		Country:          o.Country,
		Gateway:          o.Gateway,
		PaymentMethod:    o.PaymentMethod,
		CouponCode:       o.CouponCode,
		SubtotalUSDCents: o.SubtotalUSDCents,
		DiscountUSDCents: o.DiscountUSDCents,
		Amount:           o.Amount,
		Fee:              o.Fee,
		Total:            o.Total,
		TotalFormatted:   prices.Format(o.Total, o.Currency),
		ExchangeRate:     o.ExchangeRate,
		Reference:        o.GatewayReference,
		CheckoutURL:      o.CheckoutURL,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		PaidAt:           o.PaidAt,
	}
}

func toEnrollmentDTO(e *model.Enrollment) dto.EnrollmentResponseDTO {
	return dto.EnrollmentResponseDTO{
		ID:              e.ID,
		CourseID:        e.CourseID,
		CourseTitle:     e.CourseTitle,
		OrderID:         e.OrderID,
		Status:          e.Status,
		ProgressPercent: e.ProgressPercent,
		EnrolledAt:      e.EnrolledAt,
		CompletedAt:     e.CompletedAt,
	}
}

func toCertificateDTO(c *model.Certificate, downloadURL string) dto.CertificateResponseDTO {
	return dto.CertificateResponseDTO{
		ID:                c.ID,
		CourseID:          c.CourseID,
		CourseTitle:       c.CourseTitle,
		CertificateNumber: c.CertificateNumber,
		DownloadURL:       downloadURL,
		IssuedAt:          c.IssuedAt,
	}
}

func toReviewDTO(r *model.Review) dto.ReviewResponseDTO {
	return dto.ReviewResponseDTO{
		ID:        r.ID,
		CourseID:  r.CourseID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
