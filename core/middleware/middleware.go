package middleware

import (
	"context"
	"net/http"
	"strings"

	"bookline-api/core/constants"
	"bookline-api/core/logger"
	"bookline-api/core/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TokenChecker is the slice of the auth service the middleware needs.
type TokenChecker interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type Middleware struct {
	auth TokenChecker
}

func NewMiddleware(auth TokenChecker) *Middleware {
	return &Middleware{auth: auth}
}

// AuthMiddleware authenticates the bearer credential and threads the caller's
// identity and effective role through the request context. The role is always
// an explicit per-request value: an admin may act as another role via the
// X-Acting-Role header, every other caller gets the role baked into their
// token. Error bodies follow the external API contract.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authorization header required"})
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}

			if m.auth != nil {
				blacklisted, err := m.auth.IsTokenBlacklisted(c.Request().Context(), token)
				if err != nil {
					logger.Error("Middleware:Auth:IsTokenBlacklisted:Error", "error", err)
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
				}
				if blacklisted {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
				}
			}

			data, err := utils.ValidateAndParseToken(token)
			if err != nil || data.Scope != constants.ScopeTokenAccess {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}

			role := data.Role
			if role == "" {
				role = constants.RoleClient
			}
			if acting := c.Request().Header.Get("X-Acting-Role"); acting != "" {
				if data.Role == constants.RoleAdmin && validRole(acting) {
					role = acting
				}
			}

			c.Set(constants.ContextKeyUserID, data.UserID)
			c.Set(constants.ContextKeyRole, role)

			return next(c)
		}
	}
}

func validRole(role string) bool {
	switch role {
	case constants.RoleAdmin, constants.RoleOwner, constants.RoleProfessional, constants.RoleClient:
		return true
	}
	return false
}

// UserID returns the authenticated caller's id set by AuthMiddleware.
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(constants.ContextKeyUserID).(uuid.UUID)
	return id, ok
}

// Role returns the caller's effective role set by AuthMiddleware.
func Role(c echo.Context) string {
	role, _ := c.Get(constants.ContextKeyRole).(string)
	return role
}
