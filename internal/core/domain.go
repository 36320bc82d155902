package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

type (
	// Kind distinguishes the two directions a money movement can take.
	// The sign lives here, never in the amount.
	Kind string

	// MoneyMovement is a single dated ledger record. The analytics engine
	// only ever reads these; the write path lives outside this codebase.
	MoneyMovement struct {
		ID       string
		OwnerID  string
		Kind     Kind
		Category string
		Amount   Money
		// OccurredAt is an absolute UTC timestamp.
		OccurredAt time.Time
		// HourOfDay is the UTC hour of OccurredAt, denormalized at write
		// time so grouped queries never re-derive it from the timestamp.
		HourOfDay int
	}

	// Totals is the per-window sum of both movement kinds.
	// Zero movements in the window yields all-zero totals, never absence.
	// The JSON names are part of the stable response contract.
	Totals struct {
		Expenses Money `json:"total_expenses"`
		Income   Money `json:"total_income"`
		Balance  Money `json:"balance"`
	}

	// DayHighlight is the calendar date with the highest expense total.
	DayHighlight struct {
		Date          string `json:"date"`           // YYYY-MM-DD, UTC
		FormattedDate string `json:"formatted_date"` // DD/MM/YYYY, for presentation
		Total         Money  `json:"total"`
	}

	// CategoryHighlight is the category with the highest expense total.
	CategoryHighlight struct {
		Category string `json:"category"`
		Total    Money  `json:"total"`
		Count    int64  `json:"count"`
	}

	// HourHighlight is the hour of day with the highest expense total.
	HourHighlight struct {
		Hour          int    `json:"hour"`
		FormattedHour string `json:"formatted_hour"` // "HH:00"
		Total         Money  `json:"total"`
		Count         int64  `json:"count"`
	}
)

var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidKind    = errors.New("invalid movement kind")
	ErrEmptyOwner     = errors.New("empty owner id")
	ErrEmptyCategory  = errors.New("empty category")
	ErrZeroOccurredAt = errors.New("occurred-at cannot be zero")
	ErrHourMismatch   = errors.New("hour of day does not match occurred-at")
)

// IsValid reports whether the kind is one of the two known values.
func (k Kind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

func (k Kind) String() string {
	return string(k)
}

// Validate checks the write-side invariants of a movement. The read-side
// engine never calls this on data coming back from the ledger; it exists for
// the backends that seed or ingest records.
func (m MoneyMovement) Validate() error {
	if strings.TrimSpace(m.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !m.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if m.OccurredAt.IsZero() {
		return ErrZeroOccurredAt
	}
	if m.Kind == KindExpense && strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if m.HourOfDay != m.OccurredAt.UTC().Hour() {
		return ErrHourMismatch
	}
	return nil
}

// NewMovement builds a movement with the denormalized hour derived from the
// UTC timestamp, the way the write path is contracted to store it.
func NewMovement(id, ownerID string, kind Kind, category string, amount Money, occurredAt time.Time) MoneyMovement {
	occurredAt = occurredAt.UTC()
	return MoneyMovement{
		ID:         id,
		OwnerID:    ownerID,
		Kind:       kind,
		Category:   category,
		Amount:     amount,
		OccurredAt: occurredAt,
		HourOfDay:  occurredAt.Hour(),
	}
}

// NewTotals derives the balance from the two sums.
func NewTotals(expenses, income Money) Totals {
	return Totals{
		Expenses: expenses,
		Income:   income,
		Balance:  Money{Cents: income.Cents - expenses.Cents},
	}
}

// FormatDay converts a YYYY-MM-DD key to the DD/MM/YYYY presentation form.
// Unparseable input is returned unchanged.
func FormatDay(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

// FormatHour renders an hour bucket as "HH:00".
func FormatHour(hour int) string {
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04")
}
