package constants

import "time"

const (
	DefaultTimeout = 10 * time.Second

	// Token scopes
	ScopeTokenAccess        = "access"
	ScopeTokenRefresh       = "refresh"
	ScopeTokenResetPassword = "reset_password"

	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	// Redis keys
	RedisKeyTokenBlacklist = "token:blacklist:"
	RedisKeyLoginAttempt   = "login:attempt:"

	MaxLoginAttempts = 5
	BlockDuration    = 15 * time.Minute

	// Database pool
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"

	// Calendar providers
	ProviderGoogle = "google"

	// OAuth state values are prefixed so the browser callback can tell a
	// calendar-connect redirect apart from a social-login redirect.
	OAuthStatePrefix = "gcal-connect:"
	OAuthStateTTL    = 10 * time.Minute

	// Roles
	RoleAdmin        = "admin"
	RoleOwner        = "owner"
	RoleProfessional = "professional"
	RoleClient       = "client"

	// Echo context keys set by the auth middleware
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"

	// Appointment statuses
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)
