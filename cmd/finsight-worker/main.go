package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/analytics"
	"finsight/internal/audit"
	"finsight/internal/cli"
	"finsight/internal/export/sheets"
	"finsight/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting finsight-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report worker")
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		logger.Error("The report worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	result, sqliteStore, err := cli.OpenLedger(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open ledger backend", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer result.Cleanup()

	auditStore := audit.NewStore(sqliteStore.DB())

	// Spreadsheet export is optional.
	var exporter sheets.RowWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := sheets.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reportWorker := worker.NewReportWorker(auditStore, exporter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := amqpClient.ConsumeReportEvents(ctx, func(ev *analytics.ReportEvent) error {
			return reportWorker.HandleReportEvent(ctx, ev)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Report event consumption failed", "error", err)
		}
		cancel()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker stopped gracefully")
}
