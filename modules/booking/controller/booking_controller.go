package controller

import (
	"bookline-api/core/controller"
	"bookline-api/core/errors"
	"bookline-api/core/middleware"
	"bookline-api/modules/booking/service"

	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	service service.BookingService
}

func NewBookingController(svc service.BookingService) *BookingController {
	return &BookingController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// GetBookingPage handles GET /public/booking/:slug
func (c *BookingController) GetBookingPage(ctx echo.Context) error {
	slug := ctx.Param("slug")
	if slug == "" {
		return c.BadRequest(errors.ErrInvalidInput, "slug is required")
	}

	page, err := c.service.GetBookingPage(ctx.Request().Context(), slug)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, page, "Booking page")
}

// GetPersonalBookingURL handles GET /private/booking/url
func (c *BookingController) GetPersonalBookingURL(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	url, err := c.service.GetPersonalBookingURL(ctx.Request().Context(), userID)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, url, "Booking URL")
}
