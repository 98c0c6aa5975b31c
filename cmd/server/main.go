package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/api"
	"github.com/sudanchapagain/event-booking-system/internal/app"
	"github.com/sudanchapagain/event-booking-system/internal/config"
	"github.com/sudanchapagain/event-booking-system/internal/live"
	"github.com/sudanchapagain/event-booking-system/internal/notify"
	"github.com/sudanchapagain/event-booking-system/internal/payment"
	"github.com/sudanchapagain/event-booking-system/internal/scheduler"
	"github.com/sudanchapagain/event-booking-system/internal/services"
	"github.com/sudanchapagain/event-booking-system/internal/telemetry"

	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	logger := cfg.NewLogger()
	log := logger.WithField("component", "server")
	log.WithField("version", version).Info("Starting event booking server")

	// Tracing first so startup work is traced too
	jaegerShutdown, err := telemetry.InitJaeger(telemetry.Options{
		ServiceName: telemetry.ServiceName,
		Endpoint:    cfg.JaegerEndpoint,
		Version:     version,
		SampleRatio: cfg.TraceSampleRatio,
	}, logger.WithField("component", "telemetry"))
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Jaeger, continuing without tracing")
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.WithError(err).Warn("Failed to shutdown Jaeger")
		}
	}()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	hub := live.NewHub(logger.WithField("component", "live"))
	hub.Start()

	rebuilder := services.NewRebuilder(a.Similarity, hub, cfg.RebuildQueueSize, logger.WithField("component", "rebuilder"))
	rebuilder.Start()

	// Payment is optional; a nil gateway makes paid checkouts fail cleanly
	var gateway services.PaymentGateway
	if cfg.PaymentConfigured() {
		gateway = payment.NewClient(cfg.KhaltiSecretKey, cfg.KhaltiBaseURL)
	} else {
		log.Warn("KHALTI_SECRET_KEY not set, paid bookings are disabled")
	}

	eventService := services.NewEventService(a.Events, a.Categories, a.Similarity, rebuilder, logger.WithField("component", "events"))
	bookingService := services.NewBookingService(a.Events, a.Bookings, gateway, hub, cfg.PublicBaseURL, logger.WithField("component", "bookings"))
	dashboardService := services.NewDashboardService(a.Dashboard, a.Events, rebuilder, hub, logger.WithField("component", "dashboard"))

	sched, err := scheduler.New(cfg.RebuildSchedule, rebuilder, logger.WithField("component", "scheduler"))
	if err != nil {
		log.WithError(err).Fatal("Failed to configure rebuild schedule")
	}
	sched.Start()

	var listener *notify.Listener
	if cfg.RebuildNotifyChannel != "" {
		listener, err = notify.NewListener(cfg.DatabaseURL(), cfg.RebuildNotifyChannel, rebuilder, logger.WithField("component", "notify"))
		if err != nil {
			log.WithError(err).Warn("Rebuild notifications disabled")
		} else {
			listener.Start()
		}
	}

	// Embeddings may be missing or stale after a restart
	rebuilder.Trigger("startup")

	handler := api.NewHandler(
		eventService,
		bookingService,
		dashboardService,
		rebuilder,
		live.NewHandler(hub, a.Events, logger.WithField("component", "live")),
		logger.WithField("component", "api"),
	)
	router := api.SetupRoutes(handler, a.Users)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Server forced to shutdown")
	}

	sched.Stop()
	if listener != nil {
		if err := listener.Stop(); err != nil {
			log.WithError(err).Warn("Failed to close notification listener")
		}
	}
	rebuilder.Shutdown()
	hub.Shutdown()

	log.Info("Server shutdown complete")
}
