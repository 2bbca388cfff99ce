package router

import (
	"bookline-api/core/middleware"
	"bookline-api/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{controller: controller}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	calendarRoutes := v1.Group("/private/calendar")
	calendarRoutes.Use(mw.AuthMiddleware())

	calendarRoutes.POST("/google-auth", r.controller.GoogleAuth)
	calendarRoutes.POST("/sync", r.controller.Sync)

	calendarRoutes.GET("/integrations", r.controller.GetIntegrations)
	calendarRoutes.DELETE("/integrations/:provider", r.controller.Disconnect)
}
