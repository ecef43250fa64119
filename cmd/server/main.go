package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/arvinth/campus-parking/internal/config"
	"github.com/arvinth/campus-parking/internal/database"
	"github.com/arvinth/campus-parking/internal/handler"
	"github.com/arvinth/campus-parking/internal/qr"
	"github.com/arvinth/campus-parking/internal/queue"
	"github.com/arvinth/campus-parking/internal/repository"
	"github.com/arvinth/campus-parking/internal/router"
	"github.com/arvinth/campus-parking/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	// Background consumer that appends cancellation audit events to
	// logs/cancellation.log.  Runs its own reconnect loop.
	if cfg.RabbitURL != "" {
		go func() {
			if err := queue.StartCancellationConsumer(cfg.RabbitURL); err != nil {
				log.Printf("cancellation consumer stopped: %v", err)
			}
		}()
	}

	reservations := repository.NewReservationRepo(db)
	passes := repository.NewPassRepo(db)
	employees := repository.NewEmployeeRepo(db)

	encoder := qr.NewEncoder(cfg.MediaRoot)
	events := queue.NewPublisher(cfg.RabbitURL)
	cancelSvc := service.NewCancellation(reservations, passes, encoder, events, cfg.ScanBaseURL)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, cfg.MediaRoot)
	router.RegisterAPI(e,
		handler.NewReservationHandler(cfg, reservations),
		handler.NewPassHandler(passes),
		handler.NewEmployeeHandler(employees),
		handler.NewCancellationHandler(cancelSvc),
		config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
