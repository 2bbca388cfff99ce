package service

import (
	"context"
	"fmt"

	"bookline-api/core/config"
	"bookline-api/core/errors"
	"bookline-api/core/logger"
	authDto "bookline-api/modules/auth/dto"
	authRepository "bookline-api/modules/auth/repository"
	"bookline-api/modules/booking/dto"

	"github.com/google/uuid"
)

type BookingService interface {
	GetBookingPage(ctx context.Context, slug string) (*dto.BookingPageResponse, error)
	GetPersonalBookingURL(ctx context.Context, userID uuid.UUID) (*dto.PersonalBookingURLResponse, error)
}

type bookingService struct {
	users authRepository.AuthRepositoryInterface
}

func NewBookingService(users authRepository.AuthRepositoryInterface) BookingService {
	return &bookingService{users: users}
}

// GetBookingPage resolves a public booking slug to the professional's profile.
func (s *bookingService) GetBookingPage(ctx context.Context, slug string) (*dto.BookingPageResponse, error) {
	user, err := s.users.GetByBookingSlug(ctx, slug)
	if err != nil {
		logger.Error("BookingService:GetBookingPage:Error", "error", err, "slug", slug)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load booking page", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Booking page not found", nil)
	}
	return &dto.BookingPageResponse{Professional: authDto.ToUserResponse(user)}, nil
}

// GetPersonalBookingURL returns the shareable booking page URL for the
// authenticated user.
func (s *bookingService) GetPersonalBookingURL(ctx context.Context, userID uuid.UUID) (*dto.PersonalBookingURLResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.Error("BookingService:GetPersonalBookingURL:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load account", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Account not found", nil)
	}

	cfg, ok := config.GetSafe()
	if !ok {
		logger.Error("BookingService:GetPersonalBookingURL:ConfigNotInitialized")
		return nil, errors.NewAppError(errors.ErrInternalServer, "Server configuration error", nil)
	}

	bookingURL := fmt.Sprintf("http://localhost:%d/booking/%s", cfg.Server.Port, user.BookingSlug)
	return &dto.PersonalBookingURLResponse{URL: bookingURL}, nil
}
