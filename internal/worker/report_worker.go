// Package worker processes report audit events off the queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finsight/internal/analytics"
	"finsight/internal/audit"
	"finsight/internal/export/sheets"
)

// ReportWorker records every consumed report event in the audit trail and,
// when an exporter is attached, mirrors it to a spreadsheet row.
type ReportWorker struct {
	audit    *audit.Store
	exporter sheets.RowWriter
}

func NewReportWorker(auditStore *audit.Store, exporter sheets.RowWriter) *ReportWorker {
	return &ReportWorker{
		audit:    auditStore,
		exporter: exporter,
	}
}

// HandleReportEvent persists one event. The audit insert is the hard
// requirement; export failures are logged and swallowed so a spreadsheet
// outage never requeues the delivery.
func (w *ReportWorker) HandleReportEvent(ctx context.Context, ev *analytics.ReportEvent) error {
	slog.InfoContext(ctx, "Processing report event",
		"user_id", ev.UserID,
		"period", ev.Period,
		"format", ev.Format,
		"status", ev.Status)

	if err := w.audit.Record(ctx, ev); err != nil {
		return fmt.Errorf("record report event: %w", err)
	}

	if w.exporter != nil {
		if err := w.exporter.AppendReportRow(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "Failed to export report row",
				"user_id", ev.UserID,
				"period", ev.Period,
				"error", err)
		}
	}

	return nil
}
