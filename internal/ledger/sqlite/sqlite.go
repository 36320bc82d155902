// Package sqlite implements the ledger read surface over a SQLite database.
// Grouping, summing and ordering all happen inside the database so a window
// query never iterates movements in process, regardless of data volume.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"

	_ "modernc.org/sqlite"
)

// timeLayout is the stored representation of occurred_at: UTC, second
// precision, strftime-compatible for in-database date projections.
const timeLayout = "2006-01-02 15:04:05"

// Store is a SQLite-backed ledger.Reader.
type Store struct {
	db *sql.DB
}

var _ ledger.Reader = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for collaborators sharing the same
// database file, such as the report audit store.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// groupExpr maps a group key onto its SQL grouping expression.
func groupExpr(key ledger.GroupKey) (string, error) {
	switch key {
	case ledger.GroupByKind:
		return "kind", nil
	case ledger.GroupByDate:
		return "strftime('%Y-%m-%d', occurred_at)", nil
	case ledger.GroupByCategory:
		return "category", nil
	case ledger.GroupByHour:
		// The denormalized column, never a projection of occurred_at.
		return "hour_of_day", nil
	case ledger.GroupByWeekday:
		// strftime('%w') yields 0=Sunday .. 6=Saturday.
		return "CAST(strftime('%w', occurred_at) AS INTEGER)", nil
	default:
		return "", fmt.Errorf("%w: %q", ledger.ErrUnsupportedGroupKey, key)
	}
}

// whereClause builds the owner + filter restriction. Owner comes first in
// every query; the covering indexes are laid out the same way.
func whereClause(ownerID string, f ledger.Filter) (string, []any) {
	conds := []string{"owner_id = ?"}
	args := []any{ownerID}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.Window.IsZero() {
		conds = append(conds, "occurred_at >= ?", "occurred_at < ?")
		args = append(args, formatTime(f.Window.Start), formatTime(f.Window.End))
	}
	return strings.Join(conds, " AND "), args
}

// Aggregate implements ledger.Reader.
func (s *Store) Aggregate(ctx context.Context, ownerID string, q ledger.Query) ([]ledger.Bucket, error) {
	if ownerID == "" {
		return nil, ledger.ErrEmptyOwner
	}
	expr, err := groupExpr(q.GroupBy)
	if err != nil {
		return nil, err
	}

	where, args := whereClause(ownerID, q.Filter)

	// Deterministic ordering: ascending key breaks total ties, so two runs
	// over the same data never disagree on a winner.
	order := "grp ASC"
	if q.SortByTotal {
		order = "total DESC, grp ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s AS grp, SUM(amount_cents) AS total, COUNT(*) AS cnt FROM movements WHERE %s GROUP BY grp ORDER BY %s",
		expr, where, order,
	)
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate by %s: %w", q.GroupBy, err)
	}
	defer rows.Close()

	var buckets []ledger.Bucket
	for rows.Next() {
		var (
			key   any
			total int64
			count int64
		)
		if err := rows.Scan(&key, &total, &count); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		buckets = append(buckets, ledger.Bucket{
			Key:   keyString(key),
			Total: core.Money{Cents: total},
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	return buckets, nil
}

// Count implements ledger.Reader.
func (s *Store) Count(ctx context.Context, ownerID string, f ledger.Filter) (int64, error) {
	if ownerID == "" {
		return 0, ledger.ErrEmptyOwner
	}
	where, args := whereClause(ownerID, f)
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movements WHERE "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// List implements ledger.Reader.
func (s *Store) List(ctx context.Context, ownerID string, f ledger.Filter, limit, offset int) ([]core.MoneyMovement, error) {
	if ownerID == "" {
		return nil, ledger.ErrEmptyOwner
	}
	where, args := whereClause(ownerID, f)
	query := "SELECT id, owner_id, kind, category, amount_cents, occurred_at, hour_of_day FROM movements WHERE " +
		where + " ORDER BY occurred_at DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := []core.MoneyMovement{}
	for rows.Next() {
		var (
			m          core.MoneyMovement
			kind       string
			cents      int64
			occurredAt string
		)
		if err := rows.Scan(&m.ID, &m.OwnerID, &kind, &m.Category, &cents, &occurredAt, &m.HourOfDay); err != nil {
			return nil, fmt.Errorf("scan movement row: %w", err)
		}
		m.Kind = core.Kind(kind)
		m.Amount = core.Money{Cents: cents}
		m.OccurredAt, err = parseTime(occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movement rows: %w", err)
	}
	return movements, nil
}

// Seed inserts movements, standing in for the external write path. The
// analytics engine never calls this; it exists for fixtures and local
// development, and enforces the same invariants the real writer guarantees.
func (s *Store) Seed(ctx context.Context, movements ...core.MoneyMovement) error {
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("movement %s: %w", m.ID, err)
		}
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO movements (id, owner_id, kind, category, amount_cents, occurred_at, hour_of_day) VALUES (?, ?, ?, ?, ?, ?, ?)",
			m.ID, m.OwnerID, string(m.Kind), m.Category, m.Amount.Cents, formatTime(m.OccurredAt), m.HourOfDay,
		)
		if err != nil {
			return fmt.Errorf("insert movement %s: %w", m.ID, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// keyString normalizes a scanned group key. Text groupings come back as
// strings or byte slices, integer groupings (hour, weekday) as int64.
func keyString(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case []byte:
		return string(k)
	case int64:
		return strconv.FormatInt(k, 10)
	default:
		return fmt.Sprint(k)
	}
}
