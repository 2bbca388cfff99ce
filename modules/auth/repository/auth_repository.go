package repository

import (
	"context"
	"database/sql"

	"bookline-api/core/database"
	"bookline-api/modules/auth/entity"

	"github.com/google/uuid"
)

type AuthRepositoryInterface interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByBookingSlug(ctx context.Context, slug string) (*entity.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
}

type AuthRepository struct {
	db database.IDatabase
}

func NewAuthRepository(db database.IDatabase) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `
		INSERT INTO users (email, username, password_hash, full_name, role, booking_slug)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		user.Email, user.Username, user.PasswordHash,
		user.FullName, user.Role, user.BookingSlug,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *AuthRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, email, username, password_hash, full_name, role, booking_slug, avatar_url, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user entity.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, email, username, password_hash, full_name, role, booking_slug, avatar_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user entity.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) GetByBookingSlug(ctx context.Context, slug string) (*entity.User, error) {
	query := `
		SELECT id, email, username, password_hash, full_name, role, booking_slug, avatar_url, created_at, updated_at
		FROM users
		WHERE booking_slug = $1
	`
	var user entity.User
	err := r.db.GetContext(ctx, &user, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2`
	return r.db.ExecContext(ctx, query, avatarURL, id)
}
