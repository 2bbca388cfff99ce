package controller

import (
	"bookline-api/core/controller"
	"bookline-api/core/errors"
	"bookline-api/core/middleware"
	"bookline-api/core/params"
	"bookline-api/modules/notification/dto"
	"bookline-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	service *service.NotificationService
	controller.BaseController
}

func NewNotificationController(service *service.NotificationService) *NotificationController {
	return &NotificationController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// GetMyNotifications returns the current user's notifications, newest first.
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	queryParams := params.FromContext(ctx)
	result, err := c.service.GetMyNotifications(ctx.Request().Context(), userID, queryParams)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to get notifications")
	}

	return c.SuccessResponse(ctx, result, "Notifications retrieved successfully")
}

// MarkAsRead marks specific notifications as read.
func (c *NotificationController) MarkAsRead(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.MarkAsReadRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if err := c.service.MarkAsRead(ctx.Request().Context(), userID, req.IDs); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to mark as read")
	}

	return c.SuccessResponse(ctx, nil, "Marked as read successfully")
}

// MarkAllAsRead marks every notification of the user as read.
func (c *NotificationController) MarkAllAsRead(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	if err := c.service.MarkAllAsRead(ctx.Request().Context(), userID); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to mark all as read")
	}

	return c.SuccessResponse(ctx, nil, "Marked all as read successfully")
}

// CountUnread returns the number of unread notifications.
func (c *NotificationController) CountUnread(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	count, err := c.service.CountUnread(ctx.Request().Context(), userID)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to count unread")
	}

	return c.SuccessResponse(ctx, map[string]int{"count": count}, "Unread count retrieved")
}
