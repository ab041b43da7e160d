package summary

import (
	"fmt"
	"time"

	"github.com/imartinezt/logistica-front/pkg/format"
)

// RelativeDate describes when delivery happens relative to the purchase:
// "TODAY", "TOMORROW", "IN n DAYS" or "n DAYS AGO". Calendar dates are
// compared in the purchase timestamp's zone, so the time of day never
// matters. Unparseable input yields "N/A".
func RelativeDate(purchase, delivery string) string {
	s, _ := relativeDate(purchase, delivery)
	return s
}

func relativeDate(purchase, delivery string) (string, error) {
	p, err := format.ParseTimestamp(purchase)
	if err != nil {
		return format.NA, err
	}
	d, err := format.ParseTimestamp(delivery)
	if err != nil {
		return format.NA, err
	}

	switch n := DaysBetween(p, d); {
	case n == 0:
		return "TODAY", nil
	case n == 1:
		return "TOMORROW", nil
	case n > 1:
		return fmt.Sprintf("IN %d DAYS", n), nil
	default:
		return fmt.Sprintf("%d DAYS AGO", -n), nil
	}
}

// DaysBetween returns the number of calendar days from a to b, both taken
// in a's location.
func DaysBetween(a, b time.Time) int {
	loc := a.Location()
	b = b.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
