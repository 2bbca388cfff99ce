package appointment

import (
	"bookline-api/core/database"
	"bookline-api/core/middleware"
	"bookline-api/core/queue"
	"bookline-api/modules/appointment/controller"
	"bookline-api/modules/appointment/repository"
	"bookline-api/modules/appointment/router"
	"bookline-api/modules/appointment/service"
	calendarService "bookline-api/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, sync calendarService.SyncService, q *queue.Client) {
	repo := repository.NewAppointmentRepository(&db)
	svc := service.NewAppointmentService(repo, sync, q)
	ctrl := controller.NewAppointmentController(svc)

	router.NewAppointmentRouter(ctrl).Setup(e, mw)
}
