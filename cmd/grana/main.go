package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"grana/internal/amqp"
	"grana/internal/auth"
	"grana/internal/cli"
	apphttp "grana/internal/http"
	applog "grana/internal/log"
	"grana/internal/services"
)

func main() {
	logger, cfg := cli.Setup(applog.ComponentApp)

	logger.Info("Starting grana server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cli.OpenStore(ctx, cfg, logger)
	defer store.Close()

	// AMQP is optional; without it commits simply go unannounced and the
	// worker's sweep picks up anything a notification would have triggered.
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change notifications", "error", err)
		} else {
			defer client.Close()
			notifier = client
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, change notifications are off")
	}

	syncSvc := services.NewSyncService(store, notifier, cfg.MaxSyncPasses)

	srv := apphttp.NewServer(":"+cfg.Port,
		logger.WithComponent(applog.ComponentHTTP),
		auth.NewService(store, cfg.SessionTTL),
		syncSvc,
		services.NewTransactionService(store, notifier),
		services.NewRecurringService(store, notifier),
		services.NewAccountService(store, notifier),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
