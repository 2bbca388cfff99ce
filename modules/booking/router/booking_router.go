package router

import (
	"bookline-api/core/middleware"
	"bookline-api/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	controller *controller.BookingController
}

func NewBookingRouter(controller *controller.BookingController) *BookingRouter {
	return &BookingRouter{controller: controller}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	v1.GET("/public/booking/:slug", r.controller.GetBookingPage)

	private := v1.Group("/private/booking")
	private.Use(mw.AuthMiddleware())
	private.GET("/url", r.controller.GetPersonalBookingURL)
}
