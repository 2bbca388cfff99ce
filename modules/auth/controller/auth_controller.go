package controller

import (
	"bookline-api/core/controller"
	"bookline-api/core/errors"
	"bookline-api/core/middleware"
	"bookline-api/core/utils"
	"bookline-api/modules/auth/dto"
	"bookline-api/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	controller.BaseController
	service service.AuthServiceInterface
}

func NewAuthController(service service.AuthServiceInterface) *AuthController {
	return &AuthController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// Register handles POST /public/auth/register
func (c *AuthController) Register(ctx echo.Context) error {
	var req dto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return c.BadRequest(errors.ErrInvalidInput, "email, password and full_name are required")
	}

	tokens, err := c.service.Register(ctx.Request().Context(), &req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, tokens, "Account created")
}

// Login handles POST /public/auth/login
func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	tokens, err := c.service.Login(ctx.Request().Context(), &req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, tokens, "Logged in")
}

// Refresh handles POST /public/auth/refresh
func (c *AuthController) Refresh(ctx echo.Context) error {
	var req dto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.BadRequest(errors.ErrInvalidRequestData, "refresh_token is required")
	}

	tokens, err := c.service.RefreshToken(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, tokens, "Token refreshed")
}

// Logout handles POST /private/auth/logout
func (c *AuthController) Logout(ctx echo.Context) error {
	accessToken, err := utils.GetTokenFromHeader(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	var req dto.LogoutRequest
	_ = ctx.Bind(&req)

	if err := c.service.Logout(ctx.Request().Context(), accessToken, req.RefreshToken); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, nil, "Logged out")
}

// Me handles GET /private/auth/me
func (c *AuthController) Me(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	profile, err := c.service.GetProfile(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, profile, "Profile")
}

// UploadAvatar handles POST /private/auth/avatar as multipart form data.
func (c *AuthController) UploadAvatar(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	file, err := ctx.FormFile("avatar")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "avatar file is required")
	}

	src, err := file.Open()
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Failed to read uploaded file")
	}
	defer src.Close()

	url, err := c.service.UploadAvatar(ctx.Request().Context(), userID, file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, map[string]string{"avatar_url": url}, "Avatar updated")
}
