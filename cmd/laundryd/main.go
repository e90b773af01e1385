package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/api"
	"laundry-booking-backend/internal/booking"
	"laundry-booking-backend/internal/db"
	"laundry-booking-backend/internal/metrics"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/notification"
	"laundry-booking-backend/internal/slot"
	"laundry-booking-backend/internal/store"
	"laundry-booking-backend/internal/sweep"
)

func main() {
	logger := log.New(os.Stdout, "laundry-booking ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		logger.Fatalf("invalid booking timezone: %v", err)
	}
	cal, err := slot.NewCalendar(cfg.Booking.Windows, loc)
	if err != nil {
		logger.Fatalf("invalid booking windows: %v", err)
	}
	logger.Printf("%d daily windows in %s", len(cal.Windows()), loc)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	var recorder *metrics.Metrics
	if cfg.Metrics.Enabled {
		recorder = metrics.New(prometheus.DefaultRegisterer)
	}

	var webpushOptions *webpush.Options
	opts := booking.Options{
		MaxActivePerUser:     cfg.Booking.MaxActivePerUser,
		OpTimeout:            cfg.Database.OpTimeout,
		BlockCancelsBookings: cfg.Booking.BlockCancelsBookings,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		opts.Notifier = pool
	} else {
		logger.Println("VAPID keys are not configured; push notifications are disabled")
	}

	engine := booking.New(appStore, cal, opts)

	seeds := make([]model.Machine, 0, len(cfg.Booking.Machines))
	for _, m := range cfg.Booking.Machines {
		seeds = append(seeds, model.Machine{ID: m.ID, Name: m.Name})
	}
	if n, err := engine.Registry.Seed(ctx, seeds); err != nil {
		logger.Fatalf("failed to seed machines: %v", err)
	} else if n > 0 {
		logger.Printf("seeded %d new machines", n)
	}

	var sweepRecorder sweep.Recorder
	if recorder != nil {
		sweepRecorder = recorder
	}
	sweeper := sweep.NewService(appStore, cal, cfg.Booking.SweepInterval, cfg.Database.OpTimeout, sweepRecorder)
	go sweeper.Run(ctx)

	router := api.NewRouter(api.NewHandler(engine, appStore, webpushOptions), cfg, recorder)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
