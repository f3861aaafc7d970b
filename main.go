package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/riadstay/reservation-service/config"
	"github.com/riadstay/reservation-service/internal/consumer"
	"github.com/riadstay/reservation-service/internal/events"
	"github.com/riadstay/reservation-service/internal/handler"
	"github.com/riadstay/reservation-service/internal/middleware"
	"github.com/riadstay/reservation-service/internal/repository"
	"github.com/riadstay/reservation-service/internal/service"
	"github.com/riadstay/reservation-service/pkg/database"
	"github.com/riadstay/reservation-service/pkg/rabbitmq"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Lifecycle events for the notification/payment services. The service
	// runs degraded without the broker: publishing is nil-safe.
	var publisher events.Publisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL); err != nil {
		log.Printf("RabbitMQ unavailable, running without event publishing: %v", err)
	} else {
		defer p.Close()
		publisher = p
	}

	repo := repository.NewReservationRepository(db)
	availability := service.NewAvailabilityChecker(repo)
	svc := service.NewReservationService(repo, availability, publisher)

	// Payment service pushes payment.completed asynchronously; completed
	// payments get attached to their reservation by number.
	if mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL); err != nil {
		log.Printf("RabbitMQ unavailable, running without payment consumer: %v", err)
	} else {
		defer mqConsumer.Close()
		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming payments: %v", err)
		}
		consumer.NewPaymentConsumer(svc).Start(msgs)
	}

	// Expiration sweeper: stale PENDING -> EXPIRED on a fixed period.
	sweeper := service.NewExpirationSweeper(repo, publisher, time.Duration(cfg.PendingExpiryHours)*time.Hour)
	scheduler := cron.New()
	if err := sweeper.Start(scheduler, time.Duration(cfg.SweepIntervalMinutes)*time.Minute); err != nil {
		log.Fatalf("failed to schedule expiration sweeper: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "reservation-service"})
	})

	handler.NewReservationHandler(svc).RegisterRoutes(e)

	log.Printf("Reservation Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
