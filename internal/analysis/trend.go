package analysis

import (
	"sort"
	"time"

	"github.com/lox/bikeshare/internal/models"
)

// DailyTrend returns one point per date, ascending. Each value is the mean of
// the day-level measure over that date's rows, which is the day value itself
// when the rows agree.
func DailyTrend(records []models.Record) []models.DailyPoint {
	type acc struct {
		registered, casual, count float64
		n                         int
	}
	byDate := make(map[time.Time]*acc)
	for _, rec := range records {
		d := Day(rec.Date)
		a, ok := byDate[d]
		if !ok {
			a = &acc{}
			byDate[d] = a
		}
		a.registered += float64(rec.RegisteredDay)
		a.casual += float64(rec.CasualDay)
		a.count += float64(rec.CountDay)
		a.n++
	}

	points := make([]models.DailyPoint, 0, len(byDate))
	for d, a := range byDate {
		n := float64(a.n)
		points = append(points, models.DailyPoint{
			Date:       d,
			Registered: a.registered / n,
			Casual:     a.casual / n,
			Count:      a.count / n,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// DistinctDates lists the dates present in records, ascending.
func DistinctDates(records []models.Record) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, rec := range records {
		d := Day(rec.Date)
		if seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SelectDate picks want when it is one of dates, otherwise the first date.
// ok is false when dates is empty.
func SelectDate(dates []time.Time, want time.Time) (time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, false
	}
	want = Day(want)
	for _, d := range dates {
		if d.Equal(want) {
			return d, true
		}
	}
	return dates[0], true
}

// HourlyFor returns the hourly measures of a single date ordered by hour.
func HourlyFor(records []models.Record, date time.Time) []models.HourlyPoint {
	date = Day(date)
	points := make([]models.HourlyPoint, 0, 24)
	for _, rec := range records {
		if !Day(rec.Date).Equal(date) {
			continue
		}
		points = append(points, models.HourlyPoint{
			Hour:       rec.Hour,
			Registered: rec.RegisteredHour,
			Casual:     rec.CasualHour,
			Count:      rec.CountHour,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Hour < points[j].Hour })
	return points
}
