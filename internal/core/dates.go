package core

import (
	"strings"
	"time"

	"github.com/valter-silva-au/doer/pkg/models"
)

// Relative date keywords accepted wherever a due date is expected.
const (
	DueToday    = "today"
	DueTomorrow = "tomorrow"
	DueThisWeek = "thisweek"
	DueSometime = "sometime"
	// DueOverdue is only meaningful as a filter; it never resolves to a date.
	DueOverdue = "overdue"
)

// DateResolver turns due-date tokens into calendar dates relative to Now.
type DateResolver struct {
	Now func() time.Time
}

// NewDateResolver returns a resolver using now as its clock. A nil clock
// falls back to time.Now.
func NewDateResolver(now func() time.Time) DateResolver {
	if now == nil {
		now = time.Now
	}
	return DateResolver{Now: now}
}

func (r DateResolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Today returns the current local calendar date.
func (r DateResolver) Today() time.Time {
	return CivilDate(r.now())
}

// Resolve maps a token to a date, substituting models.SentinelDue for
// anything that cannot be resolved.
func (r DateResolver) Resolve(token string) time.Time {
	d, ok := r.Lookup(token)
	if !ok {
		return models.SentinelDue
	}
	return d
}

// Lookup maps a token to a date. Keywords are matched case-insensitively
// before the token is tried as a YYYY-MM-DD literal. ok is false when the
// token is neither.
func (r DateResolver) Lookup(token string) (time.Time, bool) {
	today := r.Today()
	switch strings.ToLower(strings.TrimSpace(token)) {
	case DueToday:
		return today, true
	case DueTomorrow:
		return today.AddDate(0, 0, 1), true
	case DueThisWeek:
		return EndOfWeek(today), true
	case DueSometime:
		return models.SentinelDue, true
	}
	return ParseDate(token)
}

// EndOfWeek returns the Friday of the week containing day. Saturday and
// Sunday map back to the Friday that has just passed.
func EndOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, 5-isoWeekday(day))
}

// isoWeekday numbers Monday as 1 through Sunday as 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ParseDate parses a YYYY-MM-DD literal into a civil date.
func ParseDate(s string) (time.Time, bool) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// CivilDate drops the clock and zone from t, keeping the calendar date
// as seen in t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDue renders a due date for display.
func FormatDue(d time.Time) string {
	if d.Equal(models.SentinelDue) {
		return DueSometime
	}
	return d.Format(models.DateLayout)
}
