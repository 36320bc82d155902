package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finsight/internal/core"
)

// Format is the closed set of report renderings. Adding a variant means
// extending Render's switch; there is no string-keyed dispatch.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	// FormatPDF is reserved; rendering it returns ErrPDFNotImplemented.
	FormatPDF
)

// ParseFormat maps a raw format value onto the closed set. Unlike the
// period filter there is no safe default here: an unknown format is caller
// misuse.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return FormatText, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Report is the structured twin of the rendered text body. Both carry the
// same information; the JSON names are part of the stable contract.
type Report struct {
	Period           core.Period `json:"period"`
	GeneratedAt      time.Time   `json:"generated_at"`
	WindowStart      time.Time   `json:"window_start"`
	WindowEnd        time.Time   `json:"window_end"`
	Summary          core.Totals `json:"summary"`
	Highlights       Highlights  `json:"highlights"`
	TransactionCount int64       `json:"transaction_count"`
	Text             string      `json:"-"`
}

// ReportEvent describes one report generation for the audit trail.
type ReportEvent struct {
	UserID      string    `json:"user_id"`
	Period      string    `json:"period"`
	Format      string    `json:"format"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// EventPublisher receives report-generated events. Publishing is best
// effort: a publish failure never fails the report call.
type EventPublisher interface {
	PublishReportGenerated(ctx context.Context, ev ReportEvent) error
}

// Composer assembles engine output into a report with a deterministic
// section order. It is as stateless as the engine: one reader handle, an
// optional publisher, a clock.
type Composer struct {
	engine    *Engine
	publisher EventPublisher
	now       func() time.Time
}

// ComposerOption customizes a Composer.
type ComposerOption func(*Composer)

// WithPublisher attaches a report event publisher.
func WithPublisher(p EventPublisher) ComposerOption {
	return func(c *Composer) {
		c.publisher = p
	}
}

// WithClock overrides the time source. Tests pin it for stable windows.
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		c.now = now
	}
}

// NewComposer builds a composer over the engine.
func NewComposer(engine *Engine, opts ...ComposerOption) *Composer {
	c := &Composer{
		engine: engine,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose resolves the period's window, gathers the overview batch and
// renders the text body. The whole call is one self-consistent computation;
// nothing is cached across calls. The format only feeds the audit event;
// rendering happens in Render.
func (c *Composer) Compose(ctx context.Context, userID string, period core.Period, format Format) (*Report, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	now := c.now().UTC()
	window := period.Resolve(now)

	overview, err := c.engine.ComputeOverview(ctx, userID, window)
	if err != nil {
		c.publish(ctx, ReportEvent{
			UserID:      userID,
			Period:      period.String(),
			Format:      format.String(),
			Status:      "error",
			Detail:      err.Error(),
			GeneratedAt: now,
		})
		return nil, err
	}

	report := &Report{
		Period:           period,
		GeneratedAt:      now,
		WindowStart:      window.Start,
		WindowEnd:        window.End,
		Summary:          overview.Totals,
		Highlights:       overview.Highlights,
		TransactionCount: overview.Count,
	}
	report.Text = buildReportText(report)

	c.publish(ctx, ReportEvent{
		UserID:      userID,
		Period:      period.String(),
		Format:      format.String(),
		Status:      "success",
		GeneratedAt: now,
	})
	return report, nil
}

// Render produces the report in the requested format. The switch is the
// closed variant dispatch: every format is handled here or nowhere.
func (c *Composer) Render(report *Report, format Format) ([]byte, string, error) {
	switch format {
	case FormatText:
		return []byte(report.Text), "text/plain; charset=utf-8", nil
	case FormatJSON:
		body, err := json.Marshal(report)
		if err != nil {
			return nil, "", fmt.Errorf("marshal report: %w", err)
		}
		return body, "application/json", nil
	case FormatPDF:
		return nil, "", ErrPDFNotImplemented
	default:
		return nil, "", fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}

func (c *Composer) publish(ctx context.Context, ev ReportEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishReportGenerated(ctx, ev); err != nil {
		// Audit events are best effort; the report itself already stands.
		slog.WarnContext(ctx, "Failed to publish report event",
			"user_id", ev.UserID,
			"period", ev.Period,
			"status", ev.Status,
			"error", err)
	}
}

var periodTitles = map[core.Period]string{
	core.PeriodDaily:   "DAILY",
	core.PeriodWeekly:  "WEEKLY",
	core.PeriodMonthly: "MONTHLY",
}

// buildReportText renders the deterministic section order: summary, then
// the day/category/hour highlights, then the transaction-count statistic.
// Absent highlights render an explicit no-data marker.
func buildReportText(r *Report) string {
	divider := strings.Repeat("=", 50)
	rule := strings.Repeat("-", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "%s FINANCIAL REPORT\n", periodTitles[r.Period])
	b.WriteString(divider + "\n\n")

	b.WriteString("SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total income:   %s\n", r.Summary.Income)
	fmt.Fprintf(&b, "Total expenses: %s\n", r.Summary.Expenses)
	fmt.Fprintf(&b, "Balance:        %s\n\n", r.Summary.Balance)

	b.WriteString("HIGHLIGHTS\n")
	b.WriteString(rule + "\n")
	if day := r.Highlights.Day; day != nil {
		fmt.Fprintf(&b, "Day with highest expense: %s\n", day.FormattedDate)
		fmt.Fprintf(&b, "  Total: %s\n", day.Total)
	} else {
		b.WriteString("Day with highest expense: no data\n")
	}
	if cat := r.Highlights.Category; cat != nil {
		fmt.Fprintf(&b, "Category with highest expense: %s\n", cat.Category)
		fmt.Fprintf(&b, "  Total: %s\n", cat.Total)
		fmt.Fprintf(&b, "  Transactions: %d\n", cat.Count)
	} else {
		b.WriteString("Category with highest expense: no data\n")
	}
	if hour := r.Highlights.Hour; hour != nil {
		fmt.Fprintf(&b, "Hour with highest expense: %s\n", hour.FormattedHour)
		fmt.Fprintf(&b, "  Total: %s\n", hour.Total)
		fmt.Fprintf(&b, "  Transactions: %d\n", hour.Count)
	} else {
		b.WriteString("Hour with highest expense: no data\n")
	}
	b.WriteString("\n")

	b.WriteString("STATISTICS\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Transactions in period: %d\n\n", r.TransactionCount)

	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Generated at: %s\n", r.GeneratedAt.Format(time.RFC3339))
	return b.String()
}
