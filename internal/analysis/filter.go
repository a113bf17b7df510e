package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/bikeshare/internal/models"
)

// ErrInvalidRange is returned when a range starts after it ends.
var ErrInvalidRange = errors.New("invalid date range")

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Bounds returns the earliest and latest date present. ok is false for no records.
func Bounds(records []models.Record) (r models.DateRange, ok bool) {
	for i, rec := range records {
		d := Day(rec.Date)
		if i == 0 || d.Before(r.Start) {
			r.Start = d
		}
		if i == 0 || d.After(r.End) {
			r.End = d
		}
	}
	return r, len(records) > 0
}

// NewDateRange validates start <= end and clamps both endpoints into bounds.
// A range lying wholly outside bounds is allowed and simply matches nothing.
func NewDateRange(start, end time.Time, bounds models.DateRange) (models.DateRange, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return models.DateRange{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if end.Before(bounds.Start) || start.After(bounds.End) {
		return models.DateRange{Start: start, End: end}, nil
	}
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	return models.DateRange{Start: start, End: end}, nil
}

// FilterRange returns the records whose date lies within r, inclusive.
// Dates are compared as values, never as strings.
func FilterRange(records []models.Record, r models.DateRange) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if r.Contains(Day(rec.Date)) {
			out = append(out, rec)
		}
	}
	return out
}
