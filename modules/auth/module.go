package auth

import (
	"bookline-api/core/cache"
	"bookline-api/core/database"
	"bookline-api/core/middleware"
	"bookline-api/core/storage"
	"bookline-api/modules/auth/controller"
	"bookline-api/modules/auth/repository"
	"bookline-api/modules/auth/router"
	"bookline-api/modules/auth/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, c cache.Cache, uploader *storage.Uploader) *service.AuthService {
	repo := repository.NewAuthRepository(&db)
	svc := service.NewAuthService(repo, c, uploader)
	ctrl := controller.NewAuthController(svc)
	mw := middleware.NewMiddleware(svc)

	router.NewAuthRouter(ctrl).Setup(e, mw)

	return svc
}
