package dashboard

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/models"
)

const maxTableRows = 200

// Table is a rendered slice of a dataframe.
type Table struct {
	Columns []string
	Rows    [][]string
	Total   int
}

func (t Table) Truncated() bool {
	return t.Total > len(t.Rows)
}

// buildTable loads rows into a dataframe and keeps the first maxTableRows.
func buildTable[T any](rows []T) (Table, error) {
	total := len(rows)
	if total == 0 {
		// gota refuses empty slices; load a zero row to recover the header.
		df := dataframe.LoadStructs(make([]T, 1))
		if df.Err != nil {
			return Table{}, fmt.Errorf("load table: %w", df.Err)
		}
		return Table{Columns: df.Names()}, nil
	}

	df := dataframe.LoadStructs(rows)
	if df.Err != nil {
		return Table{}, fmt.Errorf("load table: %w", df.Err)
	}
	if df.Nrow() > maxTableRows {
		idx := make([]int, maxTableRows)
		for i := range idx {
			idx[i] = i
		}
		df = df.Subset(idx)
		if df.Err != nil {
			return Table{}, fmt.Errorf("subset table: %w", df.Err)
		}
	}

	recs := df.Records()
	return Table{Columns: recs[0], Rows: recs[1:], Total: total}, nil
}

type recordRow struct {
	Date           string  `dataframe:"dteday,string"`
	Hour           int     `dataframe:"hr,int"`
	WorkingDay     int     `dataframe:"workingday_day,int"`
	Holiday        int     `dataframe:"holiday_day,int"`
	WeatherSit     int     `dataframe:"weathersit_hour,int"`
	CountDay       int     `dataframe:"cnt_day,int"`
	CasualDay      int     `dataframe:"casual_day,int"`
	RegisteredDay  int     `dataframe:"registered_day,int"`
	CountHour      int     `dataframe:"cnt_hour,int"`
	CasualHour     int     `dataframe:"casual_hour,int"`
	RegisteredHour int     `dataframe:"registered_hour,int"`
	FeelTemp       float64 `dataframe:"atemp_original_day,float"`
	Humidity       float64 `dataframe:"hum_original_day,float"`
	WindSpeed      float64 `dataframe:"windspeed_original_day,float"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func recordTable(records []models.Record) (Table, error) {
	rows := make([]recordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordRow{
			Date: r.Date.Format(dateLayout), Hour: r.Hour,
			WorkingDay: boolInt(r.WorkingDay), Holiday: boolInt(r.Holiday), WeatherSit: r.WeatherSit,
			CountDay: r.CountDay, CasualDay: r.CasualDay, RegisteredDay: r.RegisteredDay,
			CountHour: r.CountHour, CasualHour: r.CasualHour, RegisteredHour: r.RegisteredHour,
			FeelTemp: r.FeelTemp, Humidity: r.Humidity, WindSpeed: r.WindSpeed,
		})
	}
	return buildTable(rows)
}

type dayTypeRow struct {
	DayType    string `dataframe:"day_type,string"`
	Count      int    `dataframe:"cnt_day,int"`
	Casual     int    `dataframe:"casual_day,int"`
	Registered int    `dataframe:"registered_day,int"`
}

func dayTypeTable(buckets []models.DayTypeBucket) (Table, error) {
	rows := make([]dayTypeRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, dayTypeRow{DayType: string(b.DayType), Count: b.Count, Casual: b.Casual, Registered: b.Registered})
	}
	return buildTable(rows)
}

type weatherRow struct {
	Code       int    `dataframe:"weathersit_hour,int"`
	Label      string `dataframe:"weather,string"`
	Count      int    `dataframe:"cnt_hour,int"`
	Casual     int    `dataframe:"casual_hour,int"`
	Registered int    `dataframe:"registered_hour,int"`
}

func weatherTable(buckets []models.WeatherBucket) (Table, error) {
	rows := make([]weatherRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, weatherRow{Code: b.Code, Label: string(b.Label), Count: b.Count, Casual: b.Casual, Registered: b.Registered})
	}
	return buildTable(rows)
}

type correlationRow struct {
	Covariate   string `dataframe:"covariate,string"`
	Points      int    `dataframe:"days,int"`
	Coefficient string `dataframe:"pearson_r,string"`
}

func correlationTable(cs []models.Correlation) (Table, error) {
	rows := make([]correlationRow, 0, len(cs))
	for _, c := range cs {
		r := "n/a"
		if c.Valid {
			r = fmt.Sprintf("%.3f", c.Coefficient)
		}
		rows = append(rows, correlationRow{Covariate: c.Covariate, Points: len(c.Points), Coefficient: r})
	}
	return buildTable(rows)
}

// weatherBuckets aggregates by weather and reports codes outside 1-4.
func weatherBuckets(records []models.Record) ([]models.WeatherBucket, []int) {
	buckets := analysis.AggregateWeather(records)
	return buckets, analysis.UnknownWeatherCodes(buckets)
}
