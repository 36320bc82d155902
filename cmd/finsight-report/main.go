// finsight-report prints a financial report for one user without going
// through the HTTP API. Useful for cron jobs and local inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"finsight/internal/analytics"
	"finsight/internal/cli"
	"finsight/internal/core"
)

func main() {
	userID := flag.String("user", "", "user id to report on (required)")
	period := flag.String("period", "monthly", "reporting period: daily, weekly or monthly")
	format := flag.String("format", "text", "output format: text or json")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing required -user flag")
		flag.Usage()
		os.Exit(2)
	}

	parsedFormat, err := analytics.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()

	result, _, err := cli.OpenLedger(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open ledger backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	engine := analytics.NewEngine(result.Reader)
	composer := analytics.NewComposer(engine)

	report, err := composer.Compose(ctx, *userID, core.ParsePeriod(*period), parsedFormat)
	if err != nil {
		logger.Error("Failed to compose report", "error", err, "user_id", *userID)
		os.Exit(1)
	}

	body, _, err := composer.Render(report, parsedFormat)
	if err != nil {
		logger.Error("Failed to render report", "error", err, "format", parsedFormat.String())
		os.Exit(1)
	}

	os.Stdout.Write(body)
	fmt.Println()
}
