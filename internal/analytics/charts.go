package analytics

import (
	"context"
	"strconv"

	"finsight/internal/core"
	"finsight/internal/ledger"

	"golang.org/x/sync/errgroup"
)

// ChartFormatter builds dense, axis-stable expense series for the three
// chart dimensions. Unlike rankings, a series is never absent: fixed axes
// (weekday, hour) always carry every slot, and the category axis carries
// exactly the categories that had expenses in the window.
type ChartFormatter struct {
	reader ledger.Reader
}

// NewChartFormatter wires a formatter to its ledger.
func NewChartFormatter(reader ledger.Reader) *ChartFormatter {
	return &ChartFormatter{reader: reader}
}

// ChartSet bundles the three series of one window.
type ChartSet struct {
	ByCategory core.ChartSeries
	ByWeekday  core.ChartSeries
	ByHour     core.ChartSeries
}

// ByCategory returns the per-category expense series, descending by total
// with ties broken lexicographically. Categories without expenses in the
// window do not appear: there is no fixed category universe.
func (f *ChartFormatter) ByCategory(ctx context.Context, userID string, w core.Window) (core.ChartSeries, error) {
	if userID == "" {
		return core.ChartSeries{}, ErrMissingUser
	}

	buckets, err := f.reader.Aggregate(ctx, userID, ledger.Query{
		Filter:      ledger.Filter{Kind: core.KindExpense, Window: w},
		GroupBy:     ledger.GroupByCategory,
		SortByTotal: true,
	})
	if err != nil {
		return core.ChartSeries{}, queryErr("chart by category", err)
	}

	series := core.ChartSeries{
		Labels: make([]string, 0, len(buckets)),
		Data:   make([]core.Money, 0, len(buckets)),
	}
	for _, b := range buckets {
		series.Labels = append(series.Labels, b.Key)
		series.Data = append(series.Data, b.Total)
	}
	return series, nil
}

// ByWeekday returns the seven-slot Sunday-through-Saturday series. Every
// slot is present even when zero, and a slot sums expenses on that day of
// week across the whole window, however many calendar weeks it spans.
func (f *ChartFormatter) ByWeekday(ctx context.Context, userID string, w core.Window) (core.ChartSeries, error) {
	if userID == "" {
		return core.ChartSeries{}, ErrMissingUser
	}

	buckets, err := f.reader.Aggregate(ctx, userID, ledger.Query{
		Filter:  ledger.Filter{Kind: core.KindExpense, Window: w},
		GroupBy: ledger.GroupByWeekday,
	})
	if err != nil {
		return core.ChartSeries{}, queryErr("chart by weekday", err)
	}

	series := core.NewWeekdaySeries()
	if err := fillFixedSlots(series, buckets); err != nil {
		return core.ChartSeries{}, queryErr("chart by weekday", err)
	}
	return series, nil
}

// ByHour returns the 24-slot hourly series using the denormalized hour
// field. Every slot is present even when zero.
func (f *ChartFormatter) ByHour(ctx context.Context, userID string, w core.Window) (core.ChartSeries, error) {
	if userID == "" {
		return core.ChartSeries{}, ErrMissingUser
	}

	buckets, err := f.reader.Aggregate(ctx, userID, ledger.Query{
		Filter:  ledger.Filter{Kind: core.KindExpense, Window: w},
		GroupBy: ledger.GroupByHour,
	})
	if err != nil {
		return core.ChartSeries{}, queryErr("chart by hour", err)
	}

	series := core.NewHourSeries()
	if err := fillFixedSlots(series, buckets); err != nil {
		return core.ChartSeries{}, queryErr("chart by hour", err)
	}
	return series, nil
}

// All builds the three series as a fail-fast batch: any sub-query failure
// voids the whole set.
func (f *ChartFormatter) All(ctx context.Context, userID string, w core.Window) (ChartSet, error) {
	if userID == "" {
		return ChartSet{}, ErrMissingUser
	}

	var set ChartSet
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := f.ByCategory(ctx, userID, w)
		if err != nil {
			return err
		}
		set.ByCategory = s
		return nil
	})
	g.Go(func() error {
		s, err := f.ByWeekday(ctx, userID, w)
		if err != nil {
			return err
		}
		set.ByWeekday = s
		return nil
	})
	g.Go(func() error {
		s, err := f.ByHour(ctx, userID, w)
		if err != nil {
			return err
		}
		set.ByHour = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return ChartSet{}, err
	}
	return set, nil
}

// fillFixedSlots scatters indexed buckets into a preallocated fixed axis.
func fillFixedSlots(series core.ChartSeries, buckets []ledger.Bucket) error {
	for _, b := range buckets {
		idx, err := strconv.Atoi(b.Key)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= series.Len() {
			continue
		}
		series.Data[idx] = b.Total
	}
	return nil
}

// ChartPayload is the wire shape of one series. The field names are part of
// the stable response contract.
type ChartPayload struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset carries the values of one series.
type ChartDataset struct {
	Data []core.Money `json:"data"`
}

// NewChartPayload converts a series to its wire shape.
func NewChartPayload(s core.ChartSeries) ChartPayload {
	labels := s.Labels
	if labels == nil {
		labels = []string{}
	}
	data := s.Data
	if data == nil {
		data = []core.Money{}
	}
	return ChartPayload{
		Labels:   labels,
		Datasets: []ChartDataset{{Data: data}},
	}
}
