package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookline-api/core/config"
	"bookline-api/core/constants"
	"bookline-api/core/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	config.Set(cfg)
}

type stubBlacklist struct {
	blacklisted bool
}

func (s *stubBlacklist) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.blacklisted, nil
}

func run(t *testing.T, mw *Middleware, header, actingRole string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if actingRole != "" {
		req.Header.Set("X-Acting-Role", actingRole)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	require.NoError(t, mw.AuthMiddleware()(next)(ctx))
	return rec, ctx
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestMissingAuthorizationHeader(t *testing.T) {
	mw := NewMiddleware(&stubBlacklist{})

	rec, _ := run(t, mw, "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header required", errorBody(t, rec))
}

func TestMalformedToken(t *testing.T) {
	mw := NewMiddleware(&stubBlacklist{})

	rec, _ := run(t, mw, "Bearer not-a-jwt", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, rec))
}

func TestBlacklistedToken(t *testing.T) {
	userID := uuid.New()
	token, err := utils.GenerateToken(userID, nil, nil, constants.RoleClient, constants.ScopeTokenAccess)
	require.NoError(t, err)

	mw := NewMiddleware(&stubBlacklist{blacklisted: true})
	rec, _ := run(t, mw, "Bearer "+token, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, rec))
}

func TestRefreshScopeRejectedOnAPIRoutes(t *testing.T) {
	token, err := utils.GenerateToken(uuid.New(), nil, nil, constants.RoleClient, constants.ScopeTokenRefresh)
	require.NoError(t, err)

	mw := NewMiddleware(&stubBlacklist{})
	rec, _ := run(t, mw, "Bearer "+token, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, rec))
}

func TestValidTokenSetsIdentity(t *testing.T) {
	userID := uuid.New()
	token, err := utils.GenerateToken(userID, nil, nil, constants.RoleProfessional, constants.ScopeTokenAccess)
	require.NoError(t, err)

	mw := NewMiddleware(&stubBlacklist{})
	rec, ctx := run(t, mw, "Bearer "+token, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	gotID, ok := UserID(ctx)
	require.True(t, ok)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, constants.RoleProfessional, Role(ctx))
}

func TestActingRoleIgnoredForNonAdmins(t *testing.T) {
	token, err := utils.GenerateToken(uuid.New(), nil, nil, constants.RoleClient, constants.ScopeTokenAccess)
	require.NoError(t, err)

	mw := NewMiddleware(&stubBlacklist{})
	rec, ctx := run(t, mw, "Bearer "+token, constants.RoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constants.RoleClient, Role(ctx))
}

func TestAdminMayActAsAnotherRole(t *testing.T) {
	token, err := utils.GenerateToken(uuid.New(), nil, nil, constants.RoleAdmin, constants.ScopeTokenAccess)
	require.NoError(t, err)

	mw := NewMiddleware(&stubBlacklist{})
	rec, ctx := run(t, mw, "Bearer "+token, constants.RoleOwner)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constants.RoleOwner, Role(ctx))
}
