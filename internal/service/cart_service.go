package service

import (
	"context"
	"fmt"
	"strings"

	"coursemart/internal/model"
	"coursemart/internal/pricing"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

// Cart is a priced view of a user's cart
type Cart struct {
	Items       []model.CartItem
	SubtotalUSD int64
	Currency    string
	Subtotal    int64
}

// CourseIDs returns the ids of the courses in the cart.
func (c *Cart) CourseIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.CourseID)
	}
	return ids
}

type CartService interface {
	// GetCart prices the cart in currency; empty currency uses the user's
	// preferred currency.
	GetCart(ctx context.Context, userID, currency string) (*Cart, error)
	AddItem(ctx context.Context, userID, courseID string) error
	RemoveItem(ctx context.Context, userID, courseID string) error
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	cartRepo       repository.CartRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	userRepo       repository.UserRepository
	prices         *pricing.Table
	logger         zerolog.Logger
}

func NewCartService(
	cartRepo repository.CartRepository,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	userRepo repository.UserRepository,
	prices *pricing.Table,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:       cartRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		prices:         prices,
		logger:         logger.With().Str("service", "CartService").Logger(),
	}
}

func (s *cartService) GetCart(ctx context.Context, userID, currency string) (*Cart, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		u, err := s.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		currency = pricing.BaseCurrency
		if u != nil && u.PreferredCurrency != "" {
			currency = u.PreferredCurrency
		}
	}
	if _, err := s.prices.Currency(currency); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	items, err := s.cartRepo.GetCartItems(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load cart")
		return nil, err
	}
	cart := &Cart{Items: items, Currency: currency}
	for _, it := range items {
		cart.SubtotalUSD += it.Course.EffectivePrice()
	}
	cart.Subtotal, err = s.prices.Convert(cart.SubtotalUSD, pricing.BaseCurrency, currency)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID, courseID string) error {
	c, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCourseNotFound
	}
	if !c.IsPublished() {
		return ErrCourseNotPublished
	}
	if c.InstructorID == userID {
		return ErrOwnCourse
	}
	owned, err := s.enrollmentRepo.OwnedCourseIDs(ctx, userID, []string{courseID})
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return ErrAlreadyEnrolled
	}
	if err := s.cartRepo.AddCartItem(ctx, userID, courseID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("Failed to add course to cart")
		return err
	}
	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, courseID string) error {
	return s.cartRepo.RemoveCartItem(ctx, userID, courseID)
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	return s.cartRepo.ClearCart(ctx, userID)
}
