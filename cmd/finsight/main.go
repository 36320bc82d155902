package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/analytics"
	"finsight/internal/cli"
	apphttp "finsight/internal/http"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	result, _, err := cli.OpenLedger(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open ledger backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	engine := analytics.NewEngine(result.Reader)
	charts := analytics.NewChartFormatter(result.Reader)

	// Report audit events are optional; without AMQP the composer simply
	// publishes nothing.
	composerOpts := []analytics.ComposerOption{}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		composerOpts = append(composerOpts, analytics.WithPublisher(amqpClient))
		logger.Info("Report audit events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Report audit events disabled - no AMQP_URL provided")
	}
	composer := analytics.NewComposer(engine, composerOpts...)

	srv := apphttp.NewServer(":"+cfg.Port, engine, charts, composer, cfg.QueryTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finsight server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
