package service

import (
	"context"

	"coursemart/internal/model"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

type WishlistService interface {
	List(ctx context.Context, userID string) ([]model.WishlistItem, error)
	Add(ctx context.Context, userID, courseID string) error
	Remove(ctx context.Context, userID, courseID string) error
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	courseRepo   repository.CourseRepository
	logger       zerolog.Logger
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, courseRepo repository.CourseRepository, logger zerolog.Logger) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		courseRepo:   courseRepo,
		logger:       logger.With().Str("service", "WishlistService").Logger(),
	}
}

func (s *wishlistService) List(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	return s.wishlistRepo.GetWishlist(ctx, userID)
}

func (s *wishlistService) Add(ctx context.Context, userID, courseID string) error {
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
	if err := s.wishlistRepo.AddToWishlist(ctx, userID, courseID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("Failed to add to wishlist")
		return err
	}
	return nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, courseID string) error {
	return s.wishlistRepo.RemoveFromWishlist(ctx, userID, courseID)
}
