package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"grana/internal/amqp"
	"grana/internal/cli"
	applog "grana/internal/log"
	"grana/internal/services"
	"grana/internal/worker"
)

func main() {
	logger, cfg := cli.Setup(applog.ComponentWorker)

	logger.Info("Starting recurring-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cli.OpenStore(ctx, cfg, logger)
	defer store.Close()

	// The worker refreshes on its own behalf, so it never re-publishes.
	syncSvc := services.NewSyncService(store, services.NopNotifier{}, cfg.MaxSyncPasses)
	refreshWorker := worker.NewRefreshWorker(store, syncSvc)

	// Run a sweep on startup to catch anything due since the last run.
	logger.Info("Running startup sweep")
	if err := refreshWorker.Sweep(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Daily sweep for users with no activity.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSpec, func() {
		if err := refreshWorker.Sweep(gctx); err != nil {
			logger.Error("Scheduled sweep failed", "error", err)
		}
	}); err != nil {
		logger.Error("Invalid sweep cron spec", "error", err, "spec", cfg.SweepSpec)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Sweep scheduled", "spec", cfg.SweepSpec)

	// Change notifications drive immediate refreshes when AMQP is on.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			if err := client.ConsumeChanges(gctx, refreshWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("AMQP disabled, relying on scheduled sweeps only")
	}

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("Shutting down recurring-worker")
		stopCtx := scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(30 * time.Second):
			logger.Warn("Timed out waiting for running sweep to finish")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("Recurring-worker stopped gracefully")
}
