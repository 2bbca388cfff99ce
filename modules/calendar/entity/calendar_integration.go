package entity

import (
	"time"

	"bookline-api/core/entity"

	"github.com/google/uuid"
)

// CalendarIntegration stores a user's external calendar provider credentials.
type CalendarIntegration struct {
	entity.BaseEntity
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	ProfessionalID *uuid.UUID `db:"professional_id" json:"professional_id,omitempty"`
	Provider       string     `db:"provider" json:"provider"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time  `db:"token_expires_at" json:"token_expires_at"`
	CalendarEmail  string     `db:"calendar_email" json:"calendar_email"`
}

func (CalendarIntegration) TableName() string {
	return "calendar_integrations"
}

// OAuthState is a one-time CSRF token handed out with a consent URL and
// consumed when the provider redirects back.
type OAuthState struct {
	State     string    `db:"state"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (OAuthState) TableName() string {
	return "oauth_states"
}
