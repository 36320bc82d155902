package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"

	"golang.org/x/sync/errgroup"
)

// Every analytics endpoint resolves the reporting window the same way: the
// period parameter picks daily, weekly or monthly (anything else falls back
// to monthly) and the window always ends at the current instant.

type totalsResponse struct {
	Period      string      `json:"period"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Summary     core.Totals `json:"summary"`
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	userID := userIDFrom(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	period := periodFrom(r)
	window := period.Resolve(s.now().UTC())

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	totals, err := s.engine.ComputeTotals(ctx, userID, window)
	if err != nil {
		writeEngineError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, totalsResponse{
		Period:      period.String(),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Summary:     totals,
	})
}

type highlightsResponse struct {
	Period     string               `json:"period"`
	Highlights analytics.Highlights `json:"highlights"`
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	userID := userIDFrom(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	period := periodFrom(r)
	window := period.Resolve(s.now().UTC())

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	highlights, err := s.engine.ComputeHighlights(ctx, userID, window)
	if err != nil {
		writeEngineError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, highlightsResponse{
		Period:     period.String(),
		Highlights: highlights,
	})
}

type chartResponse struct {
	Period    string                 `json:"period"`
	Dimension string                 `json:"dimension"`
	Chart     analytics.ChartPayload `json:"chart"`
}

type chartSetResponse struct {
	Period string                            `json:"period"`
	Charts map[string]analytics.ChartPayload `json:"charts"`
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	userID := userIDFrom(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	period := periodFrom(r)
	window := period.Resolve(s.now().UTC())

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	dimension := r.URL.Query().Get("dimension")
	switch dimension {
	case "", "all":
		set, err := s.charts.All(ctx, userID, window)
		if err != nil {
			writeEngineError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, chartSetResponse{
			Period: period.String(),
			Charts: map[string]analytics.ChartPayload{
				"by_category": analytics.NewChartPayload(set.ByCategory),
				"by_weekday":  analytics.NewChartPayload(set.ByWeekday),
				"by_hour":     analytics.NewChartPayload(set.ByHour),
			},
		})
	case "category", "weekday", "hour":
		var (
			series core.ChartSeries
			err    error
		)
		switch dimension {
		case "category":
			series, err = s.charts.ByCategory(ctx, userID, window)
		case "weekday":
			series, err = s.charts.ByWeekday(ctx, userID, window)
		case "hour":
			series, err = s.charts.ByHour(ctx, userID, window)
		}
		if err != nil {
			writeEngineError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, chartResponse{
			Period:    period.String(),
			Dimension: dimension,
			Chart:     analytics.NewChartPayload(series),
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown chart dimension: "+dimension)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	userID := userIDFrom(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	format, err := analytics.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	period := periodFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	report, err := s.composer.Compose(ctx, userID, period, format)
	if err != nil {
		writeEngineError(ctx, w, err)
		return
	}

	body, contentType, err := s.composer.Render(report, format)
	if err != nil {
		if errors.Is(err, analytics.ErrPDFNotImplemented) {
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		}
		writeEngineError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// movementPayload is the wire shape of one transaction row. The formatted
// fields are presentation conveniences derived from the stored values.
type movementPayload struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Category      string     `json:"category"`
	Amount        core.Money `json:"amount"`
	OccurredAt    time.Time  `json:"occurred_at"`
	FormattedDate string     `json:"formatted_date"`
	FormattedHour string     `json:"formatted_hour"`
}

func newMovementPayload(m core.MoneyMovement) movementPayload {
	return movementPayload{
		ID:            m.ID,
		Kind:          m.Kind.String(),
		Category:      m.Category,
		Amount:        m.Amount,
		OccurredAt:    m.OccurredAt,
		FormattedDate: core.FormatDay(m.OccurredAt.UTC().Format("2006-01-02")),
		FormattedHour: core.FormatHour(m.HourOfDay),
	}
}

type transactionsPage struct {
	Items      []movementPayload `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	HasNext    bool              `json:"has_next"`
	HasPrev    bool              `json:"has_prev"`
}

type dashboardResponse struct {
	Period       string                            `json:"period"`
	WindowStart  time.Time                         `json:"window_start"`
	WindowEnd    time.Time                         `json:"window_end"`
	Summary      core.Totals                       `json:"summary"`
	Highlights   analytics.Highlights              `json:"highlights"`
	Charts       map[string]analytics.ChartPayload `json:"charts"`
	Transactions transactionsPage                  `json:"transactions"`
}

// handleDashboard returns everything the dashboard needs in one round trip:
// totals, highlights, the three chart series and a page of transactions.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	userID := userIDFrom(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	period := periodFrom(r)
	window := period.Resolve(s.now().UTC())
	page, pageSize := paginationFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	var (
		overview  analytics.Overview
		set       analytics.ChartSet
		movements []core.MoneyMovement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overview, err = s.engine.ComputeOverview(gctx, userID, window)
		return err
	})
	g.Go(func() error {
		var err error
		set, err = s.charts.All(gctx, userID, window)
		return err
	})
	g.Go(func() error {
		var err error
		movements, err = s.engine.ListMovements(gctx, userID, window, pageSize, (page-1)*pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		writeEngineError(ctx, w, err)
		return
	}

	items := make([]movementPayload, 0, len(movements))
	for _, m := range movements {
		items = append(items, newMovementPayload(m))
	}

	total := overview.Count
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	writeJSON(w, http.StatusOK, dashboardResponse{
		Period:      period.String(),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Summary:     overview.Totals,
		Highlights:  overview.Highlights,
		Charts: map[string]analytics.ChartPayload{
			"by_category": analytics.NewChartPayload(set.ByCategory),
			"by_weekday":  analytics.NewChartPayload(set.ByWeekday),
			"by_hour":     analytics.NewChartPayload(set.ByHour),
		},
		Transactions: transactionsPage{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1 && total > 0,
		},
	})
}
