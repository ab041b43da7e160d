// Package format provides the display formatting shared by the graph
// factories, the summary panel and the terminal renderer.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
)

// NA is printed for values that are missing or cannot be parsed.
const NA = "N/A"

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp as sent by the prediction
// service. Timestamps without a zone are read as UTC. Failures are reported
// as UNPARSEABLE_TIMESTAMP.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperrors.New(apperrors.ErrCodeUnparseableTimestamp, "empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.New(apperrors.ErrCodeUnparseableTimestamp, "unparseable timestamp %q", s)
}

// Currency formats an amount in Mexican pesos, e.g. "$1,234.50 MXN".
func Currency(amount float64) string {
	neg := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))
	whole, frac := cents/100, cents%100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if neg && cents > 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%02d MXN", sign, b.String(), frac)
}

// Percentage formats a ratio in [0, 1] as a percentage with one decimal.
func Percentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Date formats a timestamp as dd/mm/yyyy, or N/A when it cannot be parsed.
func Date(ts string) string {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return NA
	}
	return t.Format("02/01/2006")
}

// DateTime formats a timestamp as "dd/mm/yyyy a las HH:MM".
func DateTime(ts string) string {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return NA
	}
	return t.Format("02/01/2006 a las 15:04")
}

// Hours formats a duration in hours with one decimal, e.g. "13.5 h".
func Hours(h float64) string {
	return fmt.Sprintf("%.1f h", h)
}

// Km formats a distance without decimals, e.g. "42 km".
func Km(km float64) string {
	return fmt.Sprintf("%.0f km", km)
}

// OrNA returns s, or N/A when s is blank.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}
