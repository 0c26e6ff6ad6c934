package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/astrochart/internal/adapters/ephemeris"
	natsadapter "github.com/samirrijal/astrochart/internal/adapters/nats"
	"github.com/samirrijal/astrochart/internal/adapters/postgres"
	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/usecases"
	"github.com/samirrijal/astrochart/internal/pkg/config"
	"github.com/samirrijal/astrochart/internal/pkg/logging"
	"github.com/samirrijal/astrochart/internal/workflows"
)

// Usage:
//
//	batcher worker              run the Temporal worker
//	batcher submit births.csv   start a batch and wait for the result
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: batcher <worker|submit FILE>")
	}

	cfg, err := config.Load("astrochart-batcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup("astrochart-batcher", cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(c, cfg, logger)
	case "submit":
		if len(os.Args) < 3 {
			log.Fatal("usage: batcher submit FILE")
		}
		submit(c, cfg, os.Args[2])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(c client.Client, cfg *config.Config, logger *slog.Logger) {
	ctx := context.Background()

	eph, err := ephemeris.New(cfg.Ephemeris.DataPath)
	if err != nil {
		log.Fatalf("ephemeris: %v", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	opts := []usecases.ChartOption{
		usecases.WithLogger(logger),
		usecases.WithChartRepository(postgres.NewChartRepo(db)),
	}
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, batch charts will not be announced", "error", err)
	} else {
		defer pub.Close()
		opts = append(opts, usecases.WithPublisher(pub))
	}

	charts := usecases.NewChartService(
		usecases.NewPositionResolver(eph, logger),
		usecases.NewHouseCalculator(eph, domain.HouseSystem(cfg.Ephemeris.HouseSystem)),
		opts...,
	)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ChartBatchWorkflow)
	w.RegisterActivity(&workflows.ChartActivities{Charts: charts})

	slog.Info("batch worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func submit(c client.Client, cfg *config.Config, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	reqs, err := workflows.ParseBatchCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "chart-batch-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ChartBatchWorkflow, workflows.ChartBatchInput{Requests: reqs})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("batch submitted", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "requests", len(reqs))

	var result workflows.ChartBatchResult
	if err := run.Get(ctx, &result); err != nil {
		log.Fatalf("batch: %v", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}
