package repository

import (
	"context"
	"database/sql"
	"time"

	"bookline-api/core/database"
	"bookline-api/modules/calendar/entity"

	"github.com/google/uuid"
)

type CalendarRepository interface {
	// Integrations
	Upsert(ctx context.Context, integration *entity.CalendarIntegration) (*entity.CalendarIntegration, error)
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error)
	UpdateTokens(ctx context.Context, userID uuid.UUID, provider, accessToken, refreshToken string, expiresAt time.Time) error
	Delete(ctx context.Context, userID uuid.UUID, provider string) error

	// OAuth state
	SaveOAuthState(ctx context.Context, state string, userID uuid.UUID, expiresAt time.Time) error
	ConsumeOAuthState(ctx context.Context, state string) (*entity.OAuthState, error)
}

type calendarRepository struct {
	db database.IDatabase
}

func NewCalendarRepository(db database.IDatabase) CalendarRepository {
	return &calendarRepository{db: db}
}

// Upsert inserts or replaces the integration for (user_id, provider). One row
// per pair is guaranteed by the table's unique constraint.
func (r *calendarRepository) Upsert(ctx context.Context, integration *entity.CalendarIntegration) (*entity.CalendarIntegration, error) {
	query := `
		INSERT INTO calendar_integrations (user_id, professional_id, provider, access_token, refresh_token, token_expires_at, calendar_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			professional_id  = EXCLUDED.professional_id,
			access_token     = EXCLUDED.access_token,
			refresh_token    = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			calendar_email   = EXCLUDED.calendar_email,
			updated_at       = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		integration.UserID, integration.ProfessionalID, integration.Provider,
		integration.AccessToken, integration.RefreshToken,
		integration.TokenExpiresAt, integration.CalendarEmail,
	).Scan(&integration.ID, &integration.CreatedAt, &integration.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return integration, nil
}

// GetByUserAndProvider returns nil without error when no integration exists.
func (r *calendarRepository) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarIntegration, error) {
	query := `
		SELECT id, user_id, professional_id, provider, access_token, refresh_token, token_expires_at, calendar_email, created_at, updated_at
		FROM calendar_integrations
		WHERE user_id = $1 AND provider = $2
	`
	var integration entity.CalendarIntegration
	err := r.db.GetContext(ctx, &integration, query, userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

func (r *calendarRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarIntegration, error) {
	query := `
		SELECT id, user_id, professional_id, provider, access_token, refresh_token, token_expires_at, calendar_email, created_at, updated_at
		FROM calendar_integrations
		WHERE user_id = $1
		ORDER BY created_at
	`
	var integrations []entity.CalendarIntegration
	if err := r.db.SelectContext(ctx, &integrations, query, userID); err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *calendarRepository) UpdateTokens(ctx context.Context, userID uuid.UUID, provider, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE calendar_integrations
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE user_id = $4 AND provider = $5
	`
	return r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, userID, provider)
}

func (r *calendarRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	query := `DELETE FROM calendar_integrations WHERE user_id = $1 AND provider = $2`
	return r.db.ExecContext(ctx, query, userID, provider)
}

func (r *calendarRepository) SaveOAuthState(ctx context.Context, state string, userID uuid.UUID, expiresAt time.Time) error {
	query := `
		INSERT INTO oauth_states (state, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	return r.db.ExecContext(ctx, query, state, userID, expiresAt)
}

// ConsumeOAuthState deletes the row on read so a state value can only be used
// once. Expired or unknown states return nil.
func (r *calendarRepository) ConsumeOAuthState(ctx context.Context, state string) (*entity.OAuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND expires_at > NOW()
		RETURNING state, user_id, expires_at, created_at
	`
	var st entity.OAuthState
	err := r.db.QueryRowContext(ctx, query, state).Scan(&st.State, &st.UserID, &st.ExpiresAt, &st.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}
