package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/astrochart/internal/adapters/ephemeris"
	natsadapter "github.com/samirrijal/astrochart/internal/adapters/nats"
	"github.com/samirrijal/astrochart/internal/adapters/postgres"
	"github.com/samirrijal/astrochart/internal/adapters/valkey"
	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/ports"
	"github.com/samirrijal/astrochart/internal/core/usecases"
	"github.com/samirrijal/astrochart/internal/pkg/config"
	"github.com/samirrijal/astrochart/internal/pkg/logging"
	"github.com/samirrijal/astrochart/internal/pkg/telemetry"
)

// The worker drains chart requests queued through POST /v1/charts/requests,
// archives the results and announces them on astro.chart.computed.<id>.
func main() {
	cfg, err := config.Load("astrochart-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Setup("astrochart-worker", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	eph, err := ephemeris.New(cfg.Ephemeris.DataPath)
	if err != nil {
		log.Fatalf("ephemeris: %v", err)
	}

	// A worker that cannot archive has nothing to hand back, so the
	// database is required here.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	opts := []usecases.ChartOption{
		usecases.WithLogger(logger),
		usecases.WithChartRepository(postgres.NewChartRepo(db)),
		usecases.WithPublisher(pub),
	}
	if cache, err := valkey.New(cfg.Valkey.Addr, "astrochart:"); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		opts = append(opts, usecases.WithCache(cache, cfg.Chart.CacheTTL))
	}

	charts := usecases.NewChartService(
		usecases.NewPositionResolver(eph, logger),
		usecases.NewHouseCalculator(eph, domain.HouseSystem(cfg.Ephemeris.HouseSystem)),
		opts...,
	)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	timeout := time.Duration(cfg.Chart.ComputeTimeout) * time.Second
	err = sub.SubscribeChartRequests(ctx, func(ctx context.Context, req *ports.ChartRequest) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return charts.HandleChartRequest(ctx, req)
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("chart worker started", "subject", natsadapter.ChartRequestWildcard)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("received signal, shutting down chart worker", "signal", sig.String())
	cancel()
}
