package utils

import (
	"fmt"
	"strings"
	"time"

	"bookline-api/core/config"
	"bookline-api/core/constants"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TokenData is the decoded claim set of an API bearer token.
type TokenData struct {
	UserID   uuid.UUID
	Email    *string
	Username *string
	Role     string
	Scope    string
}

type apiClaims struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Role     string  `json:"role"`
	Scope    string  `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateToken signs a JWT for the given user. Scope selects the TTL:
// refresh tokens live longer than access tokens.
func GenerateToken(userID uuid.UUID, email *string, username *string, role string, scope string) (string, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return "", fmt.Errorf("config not initialized")
	}

	ttl := constants.AccessTokenTTL
	if scope == constants.ScopeTokenRefresh {
		ttl = constants.RefreshTokenTTL
	}

	now := time.Now()
	claims := apiClaims{
		Email:    email,
		Username: username,
		Role:     role,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ValidateAndParseToken verifies signature and expiry and decodes the claims.
func ValidateAndParseToken(tokenString string) (*TokenData, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}

	claims := &apiClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	return &TokenData{
		UserID:   userID,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
		Scope:    claims.Scope,
	}, nil
}

// GetTokenFromHeader extracts the bearer token from the Authorization header.
func GetTokenFromHeader(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("authorization header required")
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return token, nil
}
