package calendar

import (
	"bookline-api/core/config"
	"bookline-api/core/database"
	"bookline-api/core/logger"
	"bookline-api/core/middleware"
	"bookline-api/modules/calendar/controller"
	"bookline-api/modules/calendar/repository"
	"bookline-api/modules/calendar/router"
	"bookline-api/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, appointments service.AppointmentStore) service.SyncService {
	var clientID, clientSecret string
	if cfg, ok := config.GetSafe(); ok {
		clientID = cfg.GoogleAPI.ClientID
		clientSecret = cfg.GoogleAPI.ClientSecret
	}
	if clientID == "" || clientSecret == "" {
		logger.Warn("Calendar:Init:GoogleOAuthNotConfigured")
	}

	repo := repository.NewCalendarRepository(&db)
	oauthSvc := service.NewOAuthService(repo, clientID, clientSecret)
	syncSvc := service.NewSyncService(repo, oauthSvc, appointments)
	ctrl := controller.NewCalendarController(oauthSvc, syncSvc)

	router.NewCalendarRouter(ctrl).Setup(e, mw)

	return syncSvc
}
