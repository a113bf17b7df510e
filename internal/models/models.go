package models

import "time"

// Record is one row of the pre-aggregated rental dataset. Day-level measures
// repeat across the hourly rows of the same date.
type Record struct {
	Date       time.Time
	Hour       int
	WorkingDay bool
	Holiday    bool
	WeatherSit int

	CountDay      int
	CasualDay     int
	RegisteredDay int

	CountHour      int
	CasualHour     int
	RegisteredHour int

	FeelTemp  float64 // atemp_original_day
	Humidity  float64 // hum_original_day
	WindSpeed float64 // windspeed_original_day
}

type DayType string

const (
	DayTypeWeekend DayType = "weekend"
	DayTypeHoliday DayType = "holiday"
	DayTypeWorking DayType = "working"
)

type DayTypeBucket struct {
	WorkingDay bool    `json:"working_day"`
	Holiday    bool    `json:"holiday"`
	DayType    DayType `json:"day_type"`
	Count      int     `json:"cnt_day"`
	Casual     int     `json:"casual_day"`
	Registered int     `json:"registered_day"`
}

type WeatherLabel string

const (
	WeatherClearCloudy   WeatherLabel = "clear_cloudy"
	WeatherMistCloudy    WeatherLabel = "mist_cloudy"
	WeatherLightRainSnow WeatherLabel = "light_rain_snow"
	WeatherHeavy         WeatherLabel = "heavy_rain_snow_fog"
)

type WeatherBucket struct {
	Code       int          `json:"weathersit"`
	Label      WeatherLabel `json:"weather"`
	Count      int          `json:"cnt_hour"`
	Casual     int          `json:"casual_hour"`
	Registered int          `json:"registered_hour"`
}

// DateRange is inclusive on both ends. Start and End are midnight UTC.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls on or between Start and End.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Key identifies the range in caches and file names.
func (r DateRange) Key() string {
	return r.Start.Format("2006-01-02") + "_" + r.End.Format("2006-01-02")
}

type DailyPoint struct {
	Date       time.Time `json:"date"`
	Registered float64   `json:"registered"`
	Casual     float64   `json:"casual"`
	Count      float64   `json:"count"`
}

type HourlyPoint struct {
	Hour       int `json:"hour"`
	Registered int `json:"registered"`
	Casual     int `json:"casual"`
	Count      int `json:"count"`
}

type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Correlation struct {
	Covariate   string         `json:"covariate"`
	Points      []ScatterPoint `json:"points"`
	Coefficient float64        `json:"coefficient"`
	Valid       bool           `json:"valid"`
}

// Summary holds the headline totals for a filtered range.
type Summary struct {
	Range       DateRange `json:"range"`
	Rows        int       `json:"rows"`
	Days        int       `json:"days"`
	TotalHourly int       `json:"total_hourly"`
	Casual      int       `json:"casual_hourly"`
	Registered  int       `json:"registered_hourly"`
	BusiestDate time.Time `json:"busiest_date"`
	BusiestDay  int       `json:"busiest_day_count"`
}
