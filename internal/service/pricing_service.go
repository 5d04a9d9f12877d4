package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemart/internal/pricing"
	"coursemart/internal/repository"
)

// CourseQuote prices a single course for a buyer
type CourseQuote struct {
	pricing.Quote
	CourseID   string `json:"course_id"`
	CouponCode string `json:"coupon_code,omitempty"`
	Display    string `json:"display"`
}

type PricingService interface {
	Currencies() []pricing.Currency
	Methods(country, currency string) ([]pricing.Method, error)
	QuoteCourse(ctx context.Context, courseID, currency, method, country, coupon string) (*CourseQuote, error)
}

type pricingService struct {
	prices     *pricing.Table
	courseRepo repository.CourseRepository
	coupons    CouponService
}

func NewPricingService(prices *pricing.Table, courseRepo repository.CourseRepository, coupons CouponService) PricingService {
	return &pricingService{prices: prices, courseRepo: courseRepo, coupons: coupons}
}

func (s *pricingService) Currencies() []pricing.Currency {
	return s.prices.Currencies()
}

func (s *pricingService) Methods(country, currency string) ([]pricing.Method, error) {
	if currency == "" {
		currency = pricing.DefaultCurrency(country)
	}
	methods, err := s.prices.AvailableMethods(country, currency)
	if err != nil {
		return nil, pricingError(err)
	}
	return methods, nil
}

func (s *pricingService) QuoteCourse(ctx context.Context, courseID, currency, method, country, coupon string) (*CourseQuote, error) {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsPublished() {
		return nil, ErrCourseNotFound
	}
	if currency == "" {
		currency = pricing.DefaultCurrency(country)
	}

	price := c.EffectivePrice()
	var discount int64
	code := strings.TrimSpace(coupon)
	if code != "" {
		cp, d, err := s.coupons.Apply(ctx, code, price, []PricedItem{{CourseID: c.ID, PriceUSD: price}})
		if err != nil {
			return nil, err
		}
		discount = d
		code = cp.Code
	}

	q, err := s.prices.Quote(price, discount, currency, method, country)
	if err != nil {
		return nil, pricingError(err)
	}
	return &CourseQuote{
		Quote:      q,
		CourseID:   c.ID,
		CouponCode: code,
		Display:    s.prices.Format(q.Total, q.Currency),
	}, nil
}

func pricingError(err error) error {
	if errors.Is(err, pricing.ErrUnsupportedCurrency) ||
		errors.Is(err, pricing.ErrUnsupportedMethod) ||
		errors.Is(err, pricing.ErrMethodUnavailable) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}
