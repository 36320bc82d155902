// Package core holds the domain types shared by the ledger backends and the
// analytics engine.
//
// Money is kept as integer cents so that independently computed aggregates
// (totals vs. per-category, per-weekday, per-hour breakdowns) reconcile
// exactly, with no floating-point drift between them.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is a monetary value in cents. Amounts on movements are always
// positive; derived values such as a balance may be negative.
type Money struct {
	Cents int64
}

// Validate rejects non-positive amounts. Signs belong to Kind.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Float64 returns the major-unit value for display purposes.
// Use cents for calculations.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the value with exactly two decimal digits, e.g. "12.34".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON emits a plain JSON number carrying exactly two decimal digits.
// No currency symbol is embedded; presentation belongs to the caller.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number with up to two decimal digits.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return fmt.Errorf("parse money %q: %w", s, err)
	}
	var fracCents int64
	if fracPart != "" {
		if len(fracPart) > 2 {
			fracPart = fracPart[:2]
		}
		for len(fracPart) < 2 {
			fracPart += "0"
		}
		fracCents, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return fmt.Errorf("parse money %q: %w", s, err)
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	m.Cents = cents
	return nil
}
