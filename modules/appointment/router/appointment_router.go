package router

import (
	"bookline-api/core/middleware"
	"bookline-api/modules/appointment/controller"

	"github.com/labstack/echo/v4"
)

type AppointmentRouter struct {
	controller *controller.AppointmentController
}

func NewAppointmentRouter(controller *controller.AppointmentController) *AppointmentRouter {
	return &AppointmentRouter{controller: controller}
}

func (r *AppointmentRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	routes := v1.Group("/private/appointments")
	routes.Use(mw.AuthMiddleware())

	routes.POST("", r.controller.Create)
	routes.GET("", r.controller.List)
	routes.GET("/:id", r.controller.Get)
	routes.PATCH("/:id", r.controller.Update)
	routes.DELETE("/:id", r.controller.Cancel)
}
