package controller

import (
	"bookline-api/core/controller"
	"bookline-api/core/errors"
	"bookline-api/core/middleware"
	"bookline-api/core/params"
	"bookline-api/modules/appointment/dto"
	"bookline-api/modules/appointment/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AppointmentController struct {
	controller.BaseController
	service service.AppointmentService
}

func NewAppointmentController(svc service.AppointmentService) *AppointmentController {
	return &AppointmentController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// Create handles POST /private/appointments
func (c *AppointmentController) Create(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	var req dto.CreateAppointmentRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	appointment, err := c.service.Create(ctx.Request().Context(), userID, &req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, appointment, "Appointment created")
}

// Get handles GET /private/appointments/:id
func (c *AppointmentController) Get(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid appointment id")
	}

	appointment, err := c.service.GetByID(ctx.Request().Context(), userID, id)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, appointment, "Appointment")
}

// List handles GET /private/appointments
func (c *AppointmentController) List(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	qp := params.FromContext(ctx)
	page, err := c.service.List(ctx.Request().Context(), userID, qp)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, page, "Appointments")
}

// Update handles PATCH /private/appointments/:id
func (c *AppointmentController) Update(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid appointment id")
	}

	var req dto.UpdateAppointmentRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	appointment, err := c.service.Update(ctx.Request().Context(), userID, id, &req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, appointment, "Appointment updated")
}

// Cancel handles DELETE /private/appointments/:id
func (c *AppointmentController) Cancel(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Invalid user")
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid appointment id")
	}

	if err := c.service.Cancel(ctx.Request().Context(), userID, id); err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, nil, "Appointment cancelled")
}
