// Package window resolves window kinds and summary period tokens to
// concrete half-open date ranges.
package window

import (
	"fmt"
	"time"

	"spendbot/internal/core"
)

// Window is a half-open date range [Start, End) plus the day-count
// divisor used for per-day averages.
type Window struct {
	Start core.Date
	End   core.Date // exclusive
	Days  int
}

// Resolve computes the range for a fixed window kind against a
// reference day.
func Resolve(kind core.WindowKind, today core.Date) (Window, error) {
	switch kind {
	case core.WindowToday:
		return Window{Start: today, End: today.AddDays(1), Days: 1}, nil
	case core.WindowYesterday:
		return Window{Start: today.AddDays(-1), End: today, Days: 1}, nil
	case core.WindowWeek:
		// Trailing 7 days plus today, not a calendar week.
		return Window{Start: today.AddDays(-7), End: today.AddDays(1), Days: 8}, nil
	case core.WindowMonth:
		return Window{Start: today.FirstOfMonth(), End: today.AddDays(1), Days: today.Day()}, nil
	default:
		return Window{}, core.Errorf(core.KindInternal, "unknown window kind %q", kind)
	}
}

// ResolveSummary computes the range for a summary request. An empty
// token means the current month to date with today's day-of-month as
// divisor; an MMYY token means that whole month with its day count as
// divisor. Month arithmetic goes through time.Date so December rolls
// over into January of the next year.
func ResolveSummary(token string, today core.Date) (Window, error) {
	if token == "" {
		return Resolve(core.WindowMonth, today)
	}
	if len(token) != 4 {
		return Window{}, fmt.Errorf("%w: want MMYY, got %q", core.ErrInvalidPeriod, token)
	}
	t, err := time.ParseInLocation("0106", token, time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q is not a valid MMYY month", core.ErrInvalidPeriod, token)
	}

	start := core.NewDate(t.Year(), int(t.Month()), 1)
	end := core.Date{Time: start.AddDate(0, 1, 0)}
	days := int(end.Sub(start.Time).Hours() / 24)
	return Window{Start: start, End: end, Days: days}, nil
}
