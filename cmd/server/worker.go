package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/config"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/scheduler"
)

// workerCmd runs only the scheduler worker loop, for deployments that scale
// worker instances independently of the HTTP facade. Multiple instances
// started this way against the same database coordinate purely through the
// store's lease protocol.
func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduler worker loop only",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker()
		},
	}
}

func runWorker() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, db, err := buildRepo(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	dispatchRegistry := buildDispatchRegistry(cfg, repo)
	w := scheduler.NewWorker(repo, dispatchRegistry, cfg.SchedulerPollInterval, cfg.SchedulerLockTimeout, cfg.SchedulerBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	slog.Info("worker started", "id", w.ID, "poll_interval", cfg.SchedulerPollInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutdown signal received")
	w.Stop()
	return nil
}
