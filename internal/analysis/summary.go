package analysis

import "github.com/lox/bikeshare/internal/models"

// Summarize computes headline totals for records already filtered to r.
func Summarize(records []models.Record, r models.DateRange) models.Summary {
	s := models.Summary{Range: r, Rows: len(records)}
	for _, rec := range records {
		s.TotalHourly += rec.CountHour
		s.Casual += rec.CasualHour
		s.Registered += rec.RegisteredHour
	}
	trend := DailyTrend(records)
	s.Days = len(trend)
	for _, p := range trend {
		if int(p.Count) > s.BusiestDay {
			s.BusiestDay = int(p.Count)
			s.BusiestDate = p.Date
		}
	}
	return s
}
