package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/astrochart/internal/adapters/ephemeris"
	"github.com/samirrijal/astrochart/internal/adapters/http"
	natsadapter "github.com/samirrijal/astrochart/internal/adapters/nats"
	"github.com/samirrijal/astrochart/internal/adapters/postgres"
	"github.com/samirrijal/astrochart/internal/adapters/valkey"
	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/usecases"
	"github.com/samirrijal/astrochart/internal/pkg/config"
	"github.com/samirrijal/astrochart/internal/pkg/logging"
	"github.com/samirrijal/astrochart/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("astrochart-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup("astrochart-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Ephemeris is the only hard dependency.
	eph, err := ephemeris.New(cfg.Ephemeris.DataPath)
	if err != nil {
		log.Fatalf("ephemeris: %v", err)
	}

	deps := &http.Dependencies{
		Ephemeris:      eph,
		ComputeTimeout: time.Duration(cfg.Chart.ComputeTimeout) * time.Second,
		OpenAPIPath:    "api/openapi.yaml",
	}
	opts := []usecases.ChartOption{usecases.WithLogger(logger)}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, charts will not be archived", "error", err)
	} else {
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		deps.DB = db
		opts = append(opts, usecases.WithChartRepository(postgres.NewChartRepo(db)))
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr, "astrochart:")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		deps.Cache = cache
		opts = append(opts, usecases.WithCache(cache, cfg.Chart.CacheTTL))
	}

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		opts = append(opts, usecases.WithPublisher(pub))
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		deps.NATS = natsConn
	}

	deps.Charts = usecases.NewChartService(
		usecases.NewPositionResolver(eph, logger),
		usecases.NewHouseCalculator(eph, domain.HouseSystem(cfg.Ephemeris.HouseSystem)),
		opts...,
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // chart inputs are tiny
		AppName:      "Astrochart API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
