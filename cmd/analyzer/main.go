package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	analyzerclient "github.com/soundpin/soundpin/internal/adapters/analyzer"
	natsadapter "github.com/soundpin/soundpin/internal/adapters/nats"
	"github.com/soundpin/soundpin/internal/adapters/postgres"
	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/usecases"
	"github.com/soundpin/soundpin/internal/pkg/config"
	"github.com/soundpin/soundpin/internal/pkg/logging"
	"github.com/soundpin/soundpin/internal/workflows"
)

func main() {
	cfg, err := config.Load("soundpin-analyzer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	pinSvc := usecases.NewPinService(postgres.NewPinRepo(db), nil, nil)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.AnalysisWorkflow)
	w.RegisterActivity(&workflows.AnalysisActivities{
		Pins:     pinSvc,
		Analyzer: analyzerclient.New(cfg.Analyzer.URL),
	})

	// Each freshly created pin kicks off one analysis workflow. The
	// workflow ID is derived from the pin ID so redeliveries dedupe.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribePinCreated(ctx, func(ctx context.Context, pin *domain.Pin) error {
		_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "analysis-" + pin.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.AnalysisWorkflow, workflows.AnalysisInput{
			PinID:    pin.ID,
			AudioURL: pin.Audio.URL,
		})
		if err != nil {
			slog.Error("start analysis workflow", "pin_id", pin.ID, "error", err)
			return err
		}
		slog.Info("analysis workflow started", "pin_id", pin.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("analyzer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
