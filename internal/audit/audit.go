// Package audit persists report-generated events into the report_audit
// table. The worker is its only writer; the table is append-only.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finsight/internal/analytics"
)

const timeLayout = "2006-01-02 15:04:05"

// Entry is one recorded report generation.
type Entry struct {
	ID          int64
	UserID      string
	Period      string
	Format      string
	Status      string
	Detail      string
	GeneratedAt time.Time
	RecordedAt  time.Time
}

// Store writes and reads the audit trail. It shares the ledger's database
// handle; migrations for report_audit ship with the ledger migrations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends one event to the trail.
func (s *Store) Record(ctx context.Context, ev *analytics.ReportEvent) error {
	if ev.UserID == "" {
		return fmt.Errorf("record audit entry: empty user id")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO report_audit (user_id, period, format, status, detail, generated_at) VALUES (?, ?, ?, ?, ?, ?)",
		ev.UserID, ev.Period, ev.Format, ev.Status, ev.Detail, ev.GeneratedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries for a user, most recent first.
func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("list audit entries: empty user id")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, period, format, status, detail, generated_at, recorded_at FROM report_audit WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			generatedAt string
			recordedAt  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Period, &e.Format, &e.Status, &e.Detail, &generatedAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, fmt.Errorf("parse generated_at %q: %w", generatedAt, err)
		}
		if e.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}
