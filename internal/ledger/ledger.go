// Package ledger defines the read-only query surface the analytics engine
// consumes. The ledger itself is an external collaborator: it owns the write
// path and the invariants on stored records; this package only describes how
// windowed, grouped reads are asked for and answered.
package ledger

import (
	"context"
	"errors"

	"finsight/internal/core"
)

const (
	// GroupByKind buckets movements of both kinds by their kind.
	GroupByKind GroupKey = "kind"
	// GroupByDate buckets by the UTC calendar date (YYYY-MM-DD) of OccurredAt.
	GroupByDate GroupKey = "date"
	// GroupByCategory buckets by the free-form category label.
	GroupByCategory GroupKey = "category"
	// GroupByHour buckets by the denormalized hour-of-day field. Backends
	// must not re-derive the hour from OccurredAt; trusting the stored
	// projection is the point of the denormalization.
	GroupByHour GroupKey = "hour"
	// GroupByWeekday buckets by the UTC day of week of OccurredAt,
	// 0 = Sunday through 6 = Saturday.
	GroupByWeekday GroupKey = "weekday"
)

type (
	// GroupKey selects the grouping dimension of an aggregate query.
	GroupKey string

	// Filter restricts a query. The owner restriction is not part of the
	// filter: every Reader method takes it as an explicit first argument,
	// and implementations must apply it before anything else.
	Filter struct {
		// Kind restricts to one movement kind when set; the zero value
		// admits both kinds.
		Kind core.Kind
		// Window restricts OccurredAt to [Start, End) when non-zero.
		Window core.Window
	}

	// Query is one grouped aggregate request: filter, group, order, limit.
	Query struct {
		Filter  Filter
		GroupBy GroupKey
		// SortByTotal orders buckets by descending total before Limit
		// applies. Ties, and the order when unset, fall back to ascending
		// bucket key (numeric for hour and weekday, lexicographic
		// otherwise), so results are deterministic across executions
		// regardless of storage order.
		SortByTotal bool
		// Limit caps the number of buckets returned; zero means no cap.
		Limit int
	}

	// Bucket is one group of an aggregate result.
	Bucket struct {
		// Key is the group's dimension value: the kind name, a YYYY-MM-DD
		// date, a category label, or a decimal hour/weekday index.
		Key   string
		Total core.Money
		Count int64
	}

	// Reader is the full query surface consumed by the analytics engine.
	// Implementations must be safe for concurrent use; the engine holds no
	// synchronization of its own.
	Reader interface {
		// Aggregate runs one grouped sum+count over the owner's movements.
		Aggregate(ctx context.Context, ownerID string, q Query) ([]Bucket, error)
		// Count returns the number of movements matching the filter.
		Count(ctx context.Context, ownerID string, f Filter) (int64, error)
		// List returns matching movements newest first, paginated.
		List(ctx context.Context, ownerID string, f Filter, limit, offset int) ([]core.MoneyMovement, error)
	}
)

var (
	ErrUnsupportedGroupKey = errors.New("unsupported group key")
	ErrEmptyOwner          = errors.New("empty owner id")
)

// IsValid reports whether the group key is one of the known dimensions.
func (k GroupKey) IsValid() bool {
	switch k {
	case GroupByKind, GroupByDate, GroupByCategory, GroupByHour, GroupByWeekday:
		return true
	default:
		return false
	}
}
