package notification

import (
	"bookline-api/core/database"
	"bookline-api/core/middleware"
	"bookline-api/core/queue"
	"bookline-api/modules/notification/controller"
	"bookline-api/modules/notification/repository"
	"bookline-api/modules/notification/router"
	"bookline-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, worker *queue.Worker) *service.NotificationService {
	repo := repository.NewNotificationRepository(&db)
	svc := service.NewNotificationService(repo)
	ctrl := controller.NewNotificationController(svc)

	if worker != nil {
		worker.Register(queue.TaskNotificationCreate, svc.HandleCreateTask)
	}

	v1 := e.Group("/api/v1/private")
	router.NewNotificationRouter(ctrl).Register(v1, mw)

	return svc
}
