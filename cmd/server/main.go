package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for the notification timeout

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"tourbooking/internal/config"     // Internal config loader
	"tourbooking/internal/database"   // MySQL pool setup
	"tourbooking/internal/handler"    // HTTP handlers
	"tourbooking/internal/mail"       // SMTP receipt sender
	"tourbooking/internal/middleware" // Rate limiting middleware
	"tourbooking/internal/queue"      // Booking confirmation consumer
	"tourbooking/internal/repository" // Data access layer
	"tourbooking/internal/router"     // Route registration
	"tourbooking/internal/service"    // Booking workflows
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env wins

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	packageRepo := repository.NewPackageRepo(db)
	departureRepo := repository.NewDepartureRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	discountRepo := repository.NewDiscountRepo(db)

	notifyTimeout := time.Duration(cfg.NotifyTimeoutMS) * time.Millisecond
	bookingSvc := service.NewBookingService(packageRepo, departureRepo, bookingRepo, notifyTimeout)

	// The consumer delivers receipts out of process; it reconnects on
	// its own when the broker drops.
	queue.SetBrokerURL(cfg.AMQPURL)
	mailer := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	go queue.StartBookingConsumer(mailer)

	e := echo.New()

	// Redis backs the booking rate limiter; when it is unreachable the
	// limiter fails open and booking submission stays available.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPackageHandler(packageRepo, bookingSvc), handler.NewBookingHandler(bookingSvc), limiter)
	router.RegisterAdmin(e, handler.NewAuthHandler(cfg), handler.NewAdminHandler(bookingSvc, discountRepo), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
