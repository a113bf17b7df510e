package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/lox/bikeshare/internal/models"
)

func TestDailyTrend(t *testing.T) {
	records := []models.Record{
		{Date: date("2011-01-02"), RegisteredDay: 150, CasualDay: 50, CountDay: 200},
		{Date: date("2011-01-01"), RegisteredDay: 70, CasualDay: 30, CountDay: 100},
		{Date: date("2011-01-02"), RegisteredDay: 150, CasualDay: 50, CountDay: 200},
	}

	got := DailyTrend(records)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Date.Equal(date("2011-01-01")) {
		t.Errorf("first date = %v, want 2011-01-01", got[0].Date)
	}
	if got[1].Registered != 150 || got[1].Casual != 50 || got[1].Count != 200 {
		t.Errorf("point[1] = %+v", got[1])
	}
}

func TestDistinctDatesAndSelect(t *testing.T) {
	dates := DistinctDates(sampleRecords())
	if len(dates) != 5 {
		t.Fatalf("len = %d, want 5", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			t.Errorf("dates not ascending at %d", i)
		}
	}

	tests := []struct {
		name   string
		dates  []time.Time
		want   time.Time
		expect time.Time
		ok     bool
	}{
		{"present date is kept", dates, date("2011-01-10"), date("2011-01-10"), true},
		{"missing date falls back to first", dates, date("2011-06-01"), date("2011-01-01"), true},
		{"zero date falls back to first", dates, time.Time{}, date("2011-01-01"), true},
		{"empty list", nil, date("2011-01-01"), time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectDate(tt.dates, tt.want)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !got.Equal(tt.expect) {
				t.Errorf("got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestHourlyFor(t *testing.T) {
	records := []models.Record{
		{Date: date("2011-01-01"), Hour: 2, RegisteredHour: 5, CasualHour: 1, CountHour: 6},
		{Date: date("2011-01-01"), Hour: 0, RegisteredHour: 13, CasualHour: 3, CountHour: 16},
		{Date: date("2011-01-02"), Hour: 0, RegisteredHour: 99, CasualHour: 9, CountHour: 108},
		{Date: date("2011-01-01"), Hour: 1, RegisteredHour: 32, CasualHour: 8, CountHour: 40},
	}

	got := HourlyFor(records, date("2011-01-01"))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, p := range got {
		if p.Hour != i {
			t.Errorf("point[%d].Hour = %d", i, p.Hour)
		}
	}
	if got[0].Count != 16 {
		t.Errorf("hour 0 count = %d, want 16", got[0].Count)
	}

	if got := HourlyFor(records, date("2012-01-01")); len(got) != 0 {
		t.Errorf("expected no points, got %d", len(got))
	}
}

func TestCorrelate(t *testing.T) {
	records := []models.Record{
		{Date: date("2011-01-01"), FeelTemp: 10, Humidity: 80, CountDay: 100},
		{Date: date("2011-01-01"), FeelTemp: 10, Humidity: 80, CountDay: 100},
		{Date: date("2011-01-02"), FeelTemp: 20, Humidity: 60, CountDay: 200},
		{Date: date("2011-01-03"), FeelTemp: 30, Humidity: 40, CountDay: 300},
	}

	c, err := Correlate(records, CovariateFeelTemp)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if len(c.Points) != 3 {
		t.Errorf("points = %d, want 3 (one per date)", len(c.Points))
	}
	if !c.Valid || math.Abs(c.Coefficient-1) > 1e-9 {
		t.Errorf("feel_temp r = %v valid=%v, want 1", c.Coefficient, c.Valid)
	}

	c, err = Correlate(records, CovariateHumidity)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if !c.Valid || math.Abs(c.Coefficient+1) > 1e-9 {
		t.Errorf("humidity r = %v, want -1", c.Coefficient)
	}

	c, err = Correlate(records, CovariateWindSpeed)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if c.Valid {
		t.Error("expected invalid coefficient for zero-variance covariate")
	}

	if _, err := Correlate(records, "pressure"); err == nil {
		t.Error("expected error for unknown covariate")
	}
}

func TestCorrelate_TooFewPoints(t *testing.T) {
	c, err := Correlate([]models.Record{{Date: date("2011-01-01"), FeelTemp: 3, CountDay: 9}}, CovariateFeelTemp)
	if err != nil {
		t.Fatal(err)
	}
	if c.Valid {
		t.Error("single point should not produce a valid coefficient")
	}
}

func TestSummarize(t *testing.T) {
	records := []models.Record{
		{Date: date("2011-01-01"), CountDay: 100, CountHour: 10, CasualHour: 4, RegisteredHour: 6},
		{Date: date("2011-01-01"), CountDay: 100, CountHour: 20, CasualHour: 5, RegisteredHour: 15},
		{Date: date("2011-01-02"), CountDay: 250, CountHour: 7, CasualHour: 2, RegisteredHour: 5},
	}
	r := models.DateRange{Start: date("2011-01-01"), End: date("2011-01-02")}
	s := Summarize(records, r)
	if s.Rows != 3 || s.Days != 2 {
		t.Errorf("rows=%d days=%d", s.Rows, s.Days)
	}
	if s.TotalHourly != 37 || s.Casual+s.Registered != s.TotalHourly {
		t.Errorf("totals = %+v", s)
	}
	if !s.BusiestDate.Equal(date("2011-01-02")) || s.BusiestDay != 250 {
		t.Errorf("busiest = %v %d", s.BusiestDate, s.BusiestDay)
	}
}
