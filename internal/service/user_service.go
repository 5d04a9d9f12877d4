package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemart/internal/model"
	"coursemart/internal/pricing"
	"coursemart/internal/repository"

	"github.com/rs/zerolog"
)

type UserService interface {
	// Upsert creates or refreshes the caller's profile. An empty preferred
	// currency falls back to the default for the user's country.
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	BecomeInstructor(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	prices   *pricing.Table
	logger   zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, prices *pricing.Table, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		prices:   prices,
		logger:   logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	u.Country = strings.ToUpper(strings.TrimSpace(u.Country))
	u.PreferredCurrency = strings.ToUpper(strings.TrimSpace(u.PreferredCurrency))
	if u.PreferredCurrency == "" {
		u.PreferredCurrency = pricing.DefaultCurrency(u.Country)
	}
	if _, err := s.prices.Currency(u.PreferredCurrency); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.userRepo.UpsertUser(ctx, u); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.UserID).Msg("Failed to upsert user")
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) BecomeInstructor(ctx context.Context, id string) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.CanTeach() {
		return u, nil
	}
	if err := s.userRepo.UpdateRole(ctx, id, model.RoleInstructor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to promote user to instructor")
		return nil, err
	}
	u.Role = model.RoleInstructor
	s.logger.Info().Str("user_id", id).Msg("User became an instructor")
	return u, nil
}
