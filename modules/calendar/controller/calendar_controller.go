package controller

import (
	"net/http"

	"bookline-api/core/errors"
	"bookline-api/core/middleware"
	"bookline-api/modules/calendar/dto"
	"bookline-api/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	oauth service.OAuthService
	sync  service.SyncService
}

func NewCalendarController(oauth service.OAuthService, sync service.SyncService) *CalendarController {
	return &CalendarController{oauth: oauth, sync: sync}
}

// GoogleAuth dispatches the OAuth actions of POST /private/calendar/google-auth.
func (c *CalendarController) GoogleAuth(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	var req dto.GoogleAuthRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	switch req.Action {
	case dto.AuthActionGetAuthURL:
		authURL, err := c.oauth.GetAuthURL(ctx.Request().Context(), userID, req.RedirectURI)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, echo.Map{"authUrl": authURL})

	case dto.AuthActionExchangeCode:
		var professionalID *uuid.UUID
		if req.ProfessionalID != nil {
			if id, err := uuid.Parse(*req.ProfessionalID); err == nil {
				professionalID = &id
			}
		}
		if err := c.oauth.ExchangeCode(ctx.Request().Context(), userID, req.Code, req.RedirectURI, req.State, professionalID); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, echo.Map{"success": true})

	case dto.AuthActionRefreshToken:
		accessToken, err := c.oauth.RefreshToken(ctx.Request().Context(), userID)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, echo.Map{"access_token": accessToken})

	default:
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid action"})
	}
}

// Sync dispatches the mirroring actions of POST /private/calendar/sync.
func (c *CalendarController) Sync(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	var req dto.SyncRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	switch req.Action {
	case dto.SyncActionCreate:
		appointmentID, err := parseAppointmentID(req.AppointmentID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointmentId"})
		}
		eventID, err := c.sync.CreateEvent(ctx.Request().Context(), userID, appointmentID, req.EventData)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, echo.Map{"success": true, "eventId": eventID})

	case dto.SyncActionUpdate:
		appointmentID, err := parseAppointmentID(req.AppointmentID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointmentId"})
		}
		eventID, err := c.sync.UpdateEvent(ctx.Request().Context(), userID, appointmentID, req.EventData)
		if err != nil {
			return respondError(ctx, err)
		}
		if eventID != "" {
			return ctx.JSON(http.StatusOK, echo.Map{"success": true, "eventId": eventID})
		}
		return ctx.JSON(http.StatusOK, echo.Map{"success": true})

	case dto.SyncActionDelete:
		appointmentID, err := parseAppointmentID(req.AppointmentID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointmentId"})
		}
		if err := c.sync.DeleteEvent(ctx.Request().Context(), userID, appointmentID); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, echo.Map{"success": true})

	case dto.SyncActionList:
		var timeMin, timeMax string
		if req.EventData != nil {
			timeMin = req.EventData.TimeMin
			timeMax = req.EventData.TimeMax
		}
		events, err := c.sync.ListEvents(ctx.Request().Context(), userID, timeMin, timeMax)
		if err != nil {
			return respondError(ctx, err)
		}
		if events == nil {
			events = []dto.GoogleCalendarEvent{}
		}
		return ctx.JSON(http.StatusOK, echo.Map{"events": events})

	default:
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid action"})
	}
}

// GetIntegrations returns the current user's connected calendars.
func (c *CalendarController) GetIntegrations(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	integrations, err := c.oauth.ListIntegrations(ctx.Request().Context(), userID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.IntegrationListResponse{Integrations: integrations})
}

// Disconnect removes the stored integration for a provider.
func (c *CalendarController) Disconnect(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	provider := ctx.Param("provider")
	if err := c.oauth.Disconnect(ctx.Request().Context(), userID, provider); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func parseAppointmentID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

// respondError maps service errors onto the flat {"error": message} wire
// shape of the calendar endpoints.
func respondError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal server error"

	if ae, ok := err.(*errors.AppError); ok && ae != nil {
		if ae.Message != "" {
			msg = ae.Message
		}
		switch ae.Code {
		case errors.ErrIntegrationMissing, errors.ErrInvalidInput, errors.ErrInvalidRequestData:
			status = http.StatusBadRequest
		case errors.ErrNotFound:
			status = http.StatusNotFound
		case errors.ErrUnauthorized:
			status = http.StatusUnauthorized
		}
	} else if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	return ctx.JSON(status, echo.Map{"error": msg})
}
