// Package analytics turns the raw movement ledger into time-windowed
// summaries, highest-X rankings and dense chart series. Every public
// operation is a stateless query-then-compute step over a caller-supplied
// window: the engine holds nothing but a reader handle and is safe to share
// across concurrent requests.
package analytics

import (
	"context"
	"strconv"

	"finsight/internal/core"
	"finsight/internal/ledger"

	"golang.org/x/sync/errgroup"
)

// Engine computes windowed totals and rankings by issuing grouped queries
// against the ledger. Rankings are sparse: a nil highlight means no expense
// existed in the window, which is not the same as a zero total.
type Engine struct {
	reader ledger.Reader
}

// NewEngine wires an engine to its ledger. The reader's pooling and
// concurrency safety are the ledger's contract to honor.
func NewEngine(reader ledger.Reader) *Engine {
	return &Engine{reader: reader}
}

// Highlights groups the three optional rankings of a window.
// The JSON names are part of the stable response contract.
type Highlights struct {
	Day      *core.DayHighlight      `json:"day_with_highest_expense"`
	Category *core.CategoryHighlight `json:"category_with_highest_expense"`
	Hour     *core.HourHighlight     `json:"hour_with_highest_expense"`
}

// Overview is the fan-out batch of totals, all three highlights and the
// window's movement count. It either carries every part or the call failed.
type Overview struct {
	Totals     core.Totals `json:"summary"`
	Highlights Highlights  `json:"highlights"`
	Count      int64       `json:"transaction_count"`
}

// ComputeTotals sums both movement kinds over the window. A kind with no
// movements contributes zero; an empty window yields all-zero totals.
func (e *Engine) ComputeTotals(ctx context.Context, userID string, w core.Window) (core.Totals, error) {
	if userID == "" {
		return core.Totals{}, ErrMissingUser
	}

	buckets, err := e.reader.Aggregate(ctx, userID, ledger.Query{
		Filter:  ledger.Filter{Window: w},
		GroupBy: ledger.GroupByKind,
	})
	if err != nil {
		return core.Totals{}, queryErr("compute totals", err)
	}

	var expenses, income core.Money
	for _, b := range buckets {
		switch core.Kind(b.Key) {
		case core.KindExpense:
			expenses = b.Total
		case core.KindIncome:
			income = b.Total
		}
	}
	return core.NewTotals(expenses, income), nil
}

// TopDay returns the calendar date with the highest expense total, or nil
// when the window holds no expenses. Ties resolve to the earliest date.
func (e *Engine) TopDay(ctx context.Context, userID string, w core.Window) (*core.DayHighlight, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	buckets, err := e.topExpenseBucket(ctx, userID, w, ledger.GroupByDate)
	if err != nil {
		return nil, queryErr("top day", err)
	}
	if len(buckets) == 0 {
		return nil, nil
	}
	top := buckets[0]
	return &core.DayHighlight{
		Date:          top.Key,
		FormattedDate: core.FormatDay(top.Key),
		Total:         top.Total,
	}, nil
}

// TopCategory returns the category with the highest expense total, or nil
// when the window holds no expenses. Ties resolve lexicographically.
func (e *Engine) TopCategory(ctx context.Context, userID string, w core.Window) (*core.CategoryHighlight, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	buckets, err := e.topExpenseBucket(ctx, userID, w, ledger.GroupByCategory)
	if err != nil {
		return nil, queryErr("top category", err)
	}
	if len(buckets) == 0 {
		return nil, nil
	}
	top := buckets[0]
	return &core.CategoryHighlight{
		Category: top.Key,
		Total:    top.Total,
		Count:    top.Count,
	}, nil
}

// TopHour returns the hour of day with the highest expense total, or nil
// when the window holds no expenses. The grouping reads the denormalized
// hour field; ties resolve to the earliest hour.
func (e *Engine) TopHour(ctx context.Context, userID string, w core.Window) (*core.HourHighlight, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	buckets, err := e.topExpenseBucket(ctx, userID, w, ledger.GroupByHour)
	if err != nil {
		return nil, queryErr("top hour", err)
	}
	if len(buckets) == 0 {
		return nil, nil
	}
	top := buckets[0]
	hour, err := strconv.Atoi(top.Key)
	if err != nil {
		return nil, queryErr("top hour", err)
	}
	return &core.HourHighlight{
		Hour:          hour,
		FormattedHour: core.FormatHour(hour),
		Total:         top.Total,
		Count:         top.Count,
	}, nil
}

// CountMovements returns the number of movements of both kinds in the window.
func (e *Engine) CountMovements(ctx context.Context, userID string, w core.Window) (int64, error) {
	if userID == "" {
		return 0, ErrMissingUser
	}
	n, err := e.reader.Count(ctx, userID, ledger.Filter{Window: w})
	if err != nil {
		return 0, queryErr("count movements", err)
	}
	return n, nil
}

// ListMovements returns the window's movements newest first, paginated.
func (e *Engine) ListMovements(ctx context.Context, userID string, w core.Window, limit, offset int) ([]core.MoneyMovement, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	movements, err := e.reader.List(ctx, userID, ledger.Filter{Window: w}, limit, offset)
	if err != nil {
		return nil, queryErr("list movements", err)
	}
	return movements, nil
}

// ComputeHighlights runs the three rankings as a fail-fast batch: the first
// failing sub-query cancels the rest and no partial result is surfaced.
func (e *Engine) ComputeHighlights(ctx context.Context, userID string, w core.Window) (Highlights, error) {
	if userID == "" {
		return Highlights{}, ErrMissingUser
	}

	var h Highlights
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		day, err := e.TopDay(ctx, userID, w)
		if err != nil {
			return err
		}
		h.Day = day
		return nil
	})
	g.Go(func() error {
		cat, err := e.TopCategory(ctx, userID, w)
		if err != nil {
			return err
		}
		h.Category = cat
		return nil
	})
	g.Go(func() error {
		hour, err := e.TopHour(ctx, userID, w)
		if err != nil {
			return err
		}
		h.Hour = hour
		return nil
	})
	if err := g.Wait(); err != nil {
		return Highlights{}, err
	}
	return h, nil
}

// ComputeOverview fans out totals, highlights and the movement count under
// one all-or-nothing barrier.
func (e *Engine) ComputeOverview(ctx context.Context, userID string, w core.Window) (Overview, error) {
	if userID == "" {
		return Overview{}, ErrMissingUser
	}

	var o Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := e.ComputeTotals(ctx, userID, w)
		if err != nil {
			return err
		}
		o.Totals = totals
		return nil
	})
	g.Go(func() error {
		highlights, err := e.ComputeHighlights(ctx, userID, w)
		if err != nil {
			return err
		}
		o.Highlights = highlights
		return nil
	})
	g.Go(func() error {
		n, err := e.CountMovements(ctx, userID, w)
		if err != nil {
			return err
		}
		o.Count = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return o, nil
}

// topExpenseBucket issues the shared "highest expense group" query: expense
// only, grouped, total-descending with the deterministic secondary key,
// limited to the single winner.
func (e *Engine) topExpenseBucket(ctx context.Context, userID string, w core.Window, groupBy ledger.GroupKey) ([]ledger.Bucket, error) {
	return e.reader.Aggregate(ctx, userID, ledger.Query{
		Filter:      ledger.Filter{Kind: core.KindExpense, Window: w},
		GroupBy:     groupBy,
		SortByTotal: true,
		Limit:       1,
	})
}
