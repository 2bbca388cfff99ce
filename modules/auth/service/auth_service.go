package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"bookline-api/core/cache"
	"bookline-api/core/constants"
	"bookline-api/core/errors"
	"bookline-api/core/logger"
	"bookline-api/core/storage"
	"bookline-api/core/utils"
	"bookline-api/modules/auth/dto"
	"bookline-api/modules/auth/entity"
	"bookline-api/modules/auth/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenPairResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPairResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (string, error)
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type AuthService struct {
	repo     repository.AuthRepositoryInterface
	cache    cache.Cache
	uploader *storage.Uploader
}

func NewAuthService(repo repository.AuthRepositoryInterface, cache cache.Cache, uploader *storage.Uploader) *AuthService {
	return &AuthService{repo: repo, cache: cache, uploader: uploader}
}

// Register creates a local-credential account. Admin accounts are never
// self-registered.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenPairResponse, error) {
	role := req.Role
	if role == "" {
		role = constants.RoleClient
	}
	switch role {
	case constants.RoleClient, constants.RoleProfessional, constants.RoleOwner:
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid role", nil)
	}

	email := strings.ToLower(req.Email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		logger.Error("AuthService:Register:GetByEmail:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to check existing account", err)
	}
	if existing != nil {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "Email is already registered", nil)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to hash password", err)
	}

	user := &entity.User{
		Email:        email,
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
		BookingSlug:  bookingSlugFor(req.FullName),
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		logger.Error("AuthService:Register:Create:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create account", err)
	}

	logger.Info("AuthService:Register:Created", "user_id", user.ID, "role", user.Role)
	return s.tokenPair(user)
}

// Login verifies credentials with a redis-backed attempt limiter in front.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPairResponse, error) {
	email := strings.ToLower(req.Email)

	blocked, err := s.cache.IsLoginBlocked(ctx, email)
	if err != nil {
		logger.Warn("AuthService:Login:IsLoginBlocked:Error", "error", err)
	}
	if blocked {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Too many failed attempts, try again later", nil)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		logger.Error("AuthService:Login:GetByEmail:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load account", err)
	}
	if user == nil || !utils.ComparePassword(user.PasswordHash, req.Password) {
		if err := s.cache.IncrementLoginAttempt(ctx, email); err != nil {
			logger.Warn("AuthService:Login:IncrementLoginAttempt:Error", "error", err)
		}
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid email or password", nil)
	}

	if err := s.cache.Del(ctx, email); err != nil {
		logger.Warn("AuthService:Login:ResetAttempts:Error", "error", err)
	}

	logger.Info("AuthService:Login:Success", "user_id", user.ID)
	return s.tokenPair(user)
}

// RefreshToken rotates a refresh token, the old one is blacklisted for the
// rest of its lifetime.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error) {
	blacklisted, err := s.cache.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		logger.Warn("AuthService:RefreshToken:IsTokenBlacklisted:Error", "error", err)
	}
	if blacklisted {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Refresh token is no longer valid", nil)
	}

	data, err := utils.ValidateAndParseToken(refreshToken)
	if err != nil || data.Scope != constants.ScopeTokenRefresh {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid refresh token", err)
	}

	user, err := s.repo.GetByID(ctx, data.UserID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load account", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Account no longer exists", nil)
	}

	if err := s.cache.AddToTokenBlacklist(ctx, refreshToken); err != nil {
		logger.Warn("AuthService:RefreshToken:Blacklist:Error", "error", err)
	}

	return s.tokenPair(user)
}

func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := s.cache.AddToTokenBlacklist(ctx, accessToken); err != nil {
			logger.Error("AuthService:Logout:BlacklistAccess:Error", "error", err)
			return errors.NewAppError(errors.ErrInternalServer, "Failed to revoke session", err)
		}
	}
	if refreshToken != "" {
		if err := s.cache.AddToTokenBlacklist(ctx, refreshToken); err != nil {
			logger.Warn("AuthService:Logout:BlacklistRefresh:Error", "error", err)
		}
	}
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load account", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Account not found", nil)
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// UploadAvatar stores the image in object storage and records its URL.
func (s *AuthService) UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	if s.uploader == nil {
		return "", errors.NewAppError(errors.ErrInvalidInput, "Avatar storage is not configured", nil)
	}

	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return "", errors.NewAppError(errors.ErrInvalidInput, "Unsupported image type", nil)
	}

	key := fmt.Sprintf("avatars/%s%s", userID, ext)
	url, err := s.uploader.Upload(ctx, key, body, contentType)
	if err != nil {
		logger.Error("AuthService:UploadAvatar:Upload:Error", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to upload avatar", err)
	}

	if err := s.repo.UpdateAvatar(ctx, userID, url); err != nil {
		logger.Error("AuthService:UploadAvatar:Persist:Error", "error", err, "user_id", userID)
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to store avatar URL", err)
	}
	return url, nil
}

// IsTokenBlacklisted satisfies the auth middleware's TokenChecker.
func (s *AuthService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.cache.IsTokenBlacklisted(ctx, token)
}

func (s *AuthService) tokenPair(user *entity.User) (*dto.TokenPairResponse, error) {
	accessToken, err := utils.GenerateToken(user.ID, &user.Email, &user.Username, user.Role, constants.ScopeTokenAccess)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to issue access token", err)
	}
	refreshToken, err := utils.GenerateToken(user.ID, &user.Email, &user.Username, user.Role, constants.ScopeTokenRefresh)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to issue refresh token", err)
	}
	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.ToUserResponse(user),
	}, nil
}

// bookingSlugFor derives a unique public booking-page slug from the display
// name, e.g. "Ana Souza" -> "ana-souza-x4f9kq1".
func bookingSlugFor(fullName string) string {
	return slug.Make(fullName) + "-" + strings.ToLower(utils.GenerateID())
}
