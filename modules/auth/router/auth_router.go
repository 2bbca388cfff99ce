package router

import (
	"bookline-api/core/middleware"
	"bookline-api/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	public := v1.Group("/public/auth")
	public.POST("/register", r.controller.Register)
	public.POST("/login", r.controller.Login)
	public.POST("/refresh", r.controller.Refresh)

	private := v1.Group("/private/auth")
	private.Use(mw.AuthMiddleware())
	private.POST("/logout", r.controller.Logout)
	private.GET("/me", r.controller.Me)
	private.POST("/avatar", r.controller.UploadAvatar)
}
