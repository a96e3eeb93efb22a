package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-checkin-service/internal/config"
	"github.com/iliyamo/event-checkin-service/internal/database"
	"github.com/iliyamo/event-checkin-service/internal/handler"
	"github.com/iliyamo/event-checkin-service/internal/middleware"
	"github.com/iliyamo/event-checkin-service/internal/qr"
	"github.com/iliyamo/event-checkin-service/internal/queue"
	"github.com/iliyamo/event-checkin-service/internal/repository"
	"github.com/iliyamo/event-checkin-service/internal/router"
	"github.com/iliyamo/event-checkin-service/internal/service"
)

func main() {
	// .env is optional; in production the variables come from the
	// environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and leaderboard cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	attendees := repository.NewAttendeeRepo(db)
	attendance := repository.NewAttendanceRepo(db)

	// Drop refresh tokens that expired more than a week ago so the
	// table does not grow across events.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if n, err := tokens.PurgeExpired(ctx, 7*24*time.Hour); err != nil {
			log.Printf("purge refresh tokens: %v", err)
		} else if n > 0 {
			log.Printf("purged %d expired refresh tokens", n)
		}
		cancel()
	}

	codec := qr.New(cfg.QRSecret, cfg.QRHashRounds)
	thresholds := service.Thresholds{
		Tshirt: cfg.TshirtPoints,
		Button: cfg.ButtonPoints,
		Tote:   cfg.TotePoints,
		Cap:    cfg.CapPoints,
	}
	schedule := service.DaySchedule{
		Start: cfg.EventStart,
		Days:  cfg.EventDays,
		Loc:   cfg.EventZone,
	}
	checkin := service.NewCheckinService(
		events, attendees, attendance,
		thresholds, schedule, cfg.EventZone,
		service.PublishCheckinRecorded,
	)

	go func() {
		if err := queue.StartCheckinConsumer(); err != nil {
			log.Printf("checkin consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens, attendees)
	eventH := handler.NewEventHandler(events)
	attendeeH := handler.NewAttendeeHandler(attendees, checkin, codec, rdb, cfg.QRTokenTTL)
	checkinH := handler.NewCheckinHandler(checkin, codec)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterEvents(e, eventH, cfg.JWTSecret)
	router.RegisterAttendees(e, attendeeH, cfg.JWTSecret)
	router.RegisterCheckin(e, checkinH, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
