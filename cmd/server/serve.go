package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/config"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/httpapi"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/scheduler"
)

// serveCmd runs the HTTP facade and the scheduler worker colocated in one
// process, the default deployment shape for small installs. --worker=false
// lets an operator run HTTP-only and scale worker instances separately.
func serveCmd() *cobra.Command {
	var runWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP facade, optionally colocated with the scheduler worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(runWorker)
		},
	}
	cmd.Flags().BoolVar(&runWorker, "worker", true, "also run the scheduler worker loop in this process")
	return cmd
}

func runServe(runWorker bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, db, err := buildRepo(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	toolRegistry := buildToolRegistry(cfg, repo)

	server := httpapi.New(httpapi.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Registry: toolRegistry,
		Repo:     repo,
		DevMode:  !cfg.IsProduction(),
	})

	var worker *scheduler.Worker
	if runWorker {
		dispatchRegistry := buildDispatchRegistry(cfg, repo)
		worker = scheduler.NewWorker(repo, dispatchRegistry, cfg.SchedulerPollInterval, cfg.SchedulerLockTimeout, cfg.SchedulerBatchSize)
		workerCtx, cancelWorker := context.WithCancel(context.Background())
		defer cancelWorker()
		worker.Start(workerCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http facade listening", "addr", net.JoinHostPort(cfg.Host, cfg.Port))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		slog.Info("shutdown signal received")
	}

	// Documented ordering: worker stop, then HTTP stop-accepting, then
	// store pool drain.
	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	return nil
}
