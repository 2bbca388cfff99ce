package booking

import (
	"bookline-api/core/database"
	"bookline-api/core/middleware"
	authRepository "bookline-api/modules/auth/repository"
	"bookline-api/modules/booking/controller"
	"bookline-api/modules/booking/router"
	"bookline-api/modules/booking/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) {
	repo := authRepository.NewAuthRepository(&db)
	svc := service.NewBookingService(repo)
	ctrl := controller.NewBookingController(svc)

	router.NewBookingRouter(ctrl).Setup(e, mw)
}
