package format

import (
	"testing"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00 MXN"},
		{80, "$80.00 MXN"},
		{1234.5, "$1,234.50 MXN"},
		{1234567.891, "$1,234,567.89 MXN"},
		{-99.999, "-$100.00 MXN"},
	}

	for _, tt := range tests {
		if got := Currency(tt.in); got != tt.want {
			t.Errorf("Currency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(0.875); got != "87.5%" {
		t.Errorf("Percentage(0.875) = %q", got)
	}
	if got := Percentage(0); got != "0.0%" {
		t.Errorf("Percentage(0) = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	valid := []string{
		"2025-01-10T09:00:00Z",
		"2025-01-10T09:00:00-06:00",
		"2025-01-10T09:00:00.123Z",
		"2025-01-10T09:00:00",
		"2025-01-10 09:00:00",
		"2025-01-10",
	}
	for _, s := range valid {
		if _, err := ParseTimestamp(s); err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", s, err)
		}
	}

	for _, s := range []string{"", "not-a-date", "10/01/2025", "2025-13-40T00:00:00Z"} {
		_, err := ParseTimestamp(s)
		if err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", s)
			continue
		}
		if !apperrors.Is(err, apperrors.ErrCodeUnparseableTimestamp) {
			t.Errorf("ParseTimestamp(%q) code = %v", s, apperrors.GetCode(err))
		}
	}
}

func TestDate(t *testing.T) {
	if got := Date("2025-01-10T18:00:00Z"); got != "10/01/2025" {
		t.Errorf("Date() = %q", got)
	}
	if got := DateTime("2025-01-10T18:05:00Z"); got != "10/01/2025 a las 18:05" {
		t.Errorf("DateTime() = %q", got)
	}
	if got := Date("garbage"); got != NA {
		t.Errorf("Date(garbage) = %q, want %q", got, NA)
	}
}

func TestOrNA(t *testing.T) {
	if OrNA("  ") != NA {
		t.Error("blank should be N/A")
	}
	if OrNA("EXPRESS") != "EXPRESS" {
		t.Error("non-blank should pass through")
	}
}
