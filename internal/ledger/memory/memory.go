// Package memory provides an in-memory ledger backend. It backs the test
// suites and the DATA_BACKEND=memory development mode, and mirrors the SQL
// backend's grouping and ordering semantics exactly.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

// Store is a concurrency-safe in-memory movement collection.
type Store struct {
	mu        sync.RWMutex
	movements []core.MoneyMovement
}

var _ ledger.Reader = (*Store)(nil)

// New creates a store seeded with the given movements.
func New(movements ...core.MoneyMovement) *Store {
	s := &Store{}
	s.movements = append(s.movements, movements...)
	return s
}

// seedRecord is the JSON shape of a seed-file entry.
type seedRecord struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Kind       string     `json:"kind"`
	Category   string     `json:"category"`
	Amount     core.Money `json:"amount"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// LoadSeedFile parses a JSON array of movements. The denormalized hour is
// derived here, standing in for the write path. Every record must pass the
// write-side invariants.
func LoadSeedFile(path string) ([]core.MoneyMovement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	movements := make([]core.MoneyMovement, 0, len(records))
	for _, r := range records {
		m := core.NewMovement(r.ID, r.OwnerID, core.Kind(r.Kind), r.Category, r.Amount, r.OccurredAt)
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("seed movement %s: %w", r.ID, err)
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// NewFromFile creates a store seeded from a JSON seed file.
func NewFromFile(path string) (*Store, error) {
	movements, err := LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return New(movements...), nil
}

// Add appends a movement, enforcing the write-side invariants the real
// ledger guarantees before a record becomes visible to reads.
func (s *Store) Add(m core.MoneyMovement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
	return nil
}

// Aggregate implements ledger.Reader.
func (s *Store) Aggregate(ctx context.Context, ownerID string, q ledger.Query) ([]ledger.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, ledger.ErrEmptyOwner
	}
	if !q.GroupBy.IsValid() {
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnsupportedGroupKey, q.GroupBy)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[string]*ledger.Bucket)
	for _, m := range s.movements {
		if !matches(m, ownerID, q.Filter) {
			continue
		}
		key := groupKeyOf(m, q.GroupBy)
		b, ok := grouped[key]
		if !ok {
			b = &ledger.Bucket{Key: key}
			grouped[key] = b
		}
		b.Total = b.Total.Add(m.Amount)
		b.Count++
	}

	buckets := make([]ledger.Bucket, 0, len(grouped))
	for _, b := range grouped {
		buckets = append(buckets, *b)
	}
	sortBuckets(buckets, q.SortByTotal)
	if q.Limit > 0 && len(buckets) > q.Limit {
		buckets = buckets[:q.Limit]
	}
	return buckets, nil
}

// Count implements ledger.Reader.
func (s *Store) Count(ctx context.Context, ownerID string, f ledger.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if ownerID == "" {
		return 0, ledger.ErrEmptyOwner
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.movements {
		if matches(m, ownerID, f) {
			n++
		}
	}
	return n, nil
}

// List implements ledger.Reader. Movements come back newest first; ties on
// the timestamp fall back to the record ID so pagination stays stable.
func (s *Store) List(ctx context.Context, ownerID string, f ledger.Filter, limit, offset int) ([]core.MoneyMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, ledger.ErrEmptyOwner
	}

	s.mu.RLock()
	var matched []core.MoneyMovement
	for _, m := range s.movements {
		if matches(m, ownerID, f) {
			matched = append(matched, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.After(matched[j].OccurredAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []core.MoneyMovement{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func matches(m core.MoneyMovement, ownerID string, f ledger.Filter) bool {
	if m.OwnerID != ownerID {
		return false
	}
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if !f.Window.IsZero() && !f.Window.Contains(m.OccurredAt) {
		return false
	}
	return true
}

func groupKeyOf(m core.MoneyMovement, key ledger.GroupKey) string {
	switch key {
	case ledger.GroupByKind:
		return m.Kind.String()
	case ledger.GroupByDate:
		return m.OccurredAt.UTC().Format("2006-01-02")
	case ledger.GroupByCategory:
		return m.Category
	case ledger.GroupByHour:
		return strconv.Itoa(m.HourOfDay)
	case ledger.GroupByWeekday:
		return strconv.Itoa(core.WeekdayIndex(m.OccurredAt))
	default:
		return ""
	}
}

// sortBuckets applies the deterministic ordering contract: total descending
// when requested, then ascending key; ascending key alone otherwise.
func sortBuckets(buckets []ledger.Bucket, byTotal bool) {
	sort.Slice(buckets, func(i, j int) bool {
		if byTotal && buckets[i].Total.Cents != buckets[j].Total.Cents {
			return buckets[i].Total.Cents > buckets[j].Total.Cents
		}
		return keyLess(buckets[i].Key, buckets[j].Key)
	})
}

// keyLess compares bucket keys numerically when both parse as integers
// (hour and weekday buckets), lexicographically otherwise.
func keyLess(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}
