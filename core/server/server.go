package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline-api/core/cache"
	"bookline-api/core/config"
	"bookline-api/core/database"
	"bookline-api/core/logger"
	"bookline-api/core/middleware"
	"bookline-api/core/queue"
	"bookline-api/core/storage"
	"bookline-api/modules/appointment"
	appointmentRepository "bookline-api/modules/appointment/repository"
	"bookline-api/modules/auth"
	"bookline-api/modules/booking"
	"bookline-api/modules/calendar"
	"bookline-api/modules/notification"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Run boots every layer of the application and blocks until the process is
// signalled to stop.
func Run() error {
	// .env is optional, real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Server.Env)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}

	cacheClient := cache.NewCache(cfg)
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("Server:Redis:Unreachable", "error", err)
	}

	queueClient := queue.NewClient(cfg)
	defer queueClient.Close()
	worker := queue.NewWorker(cfg)

	uploader := storage.NewUploader(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	authSvc := auth.Init(e, db, cacheClient, uploader)
	mw := middleware.NewMiddleware(authSvc)

	notification.Init(e, db, mw, worker)

	apptStore := appointmentRepository.NewAppointmentRepository(&db)
	syncSvc := calendar.Init(e, db, mw, apptStore)

	appointment.Init(e, db, mw, syncSvc, queueClient)
	booking.Init(e, db, mw)

	go func() {
		if err := worker.Run(); err != nil {
			logger.Error("Server:Worker:Error", "error", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("Server:Starting", "addr", addr, "env", cfg.Server.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Start:Error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server:ShuttingDown")

	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server:Stopped")
	return nil
}
