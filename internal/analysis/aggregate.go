package analysis

import (
	"sort"

	"github.com/lox/bikeshare/internal/models"
)

// DayTypeOf labels a (working, holiday) pair. Holiday wins over working.
func DayTypeOf(working, holiday bool) models.DayType {
	switch {
	case !working && !holiday:
		return models.DayTypeWeekend
	case holiday:
		return models.DayTypeHoliday
	default:
		return models.DayTypeWorking
	}
}

type dayTypeKey struct {
	working, holiday bool
}

// AggregateDayType groups records by working-day and holiday flags and sums
// the day-level counts. Only combinations present in records produce a bucket.
func AggregateDayType(records []models.Record) []models.DayTypeBucket {
	sums := make(map[dayTypeKey]*models.DayTypeBucket)
	for _, rec := range records {
		k := dayTypeKey{rec.WorkingDay, rec.Holiday}
		b, ok := sums[k]
		if !ok {
			b = &models.DayTypeBucket{
				WorkingDay: k.working,
				Holiday:    k.holiday,
				DayType:    DayTypeOf(k.working, k.holiday),
			}
			sums[k] = b
		}
		b.Count += rec.CountDay
		b.Casual += rec.CasualDay
		b.Registered += rec.RegisteredDay
	}

	buckets := make([]models.DayTypeBucket, 0, len(sums))
	for _, b := range sums {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].WorkingDay != buckets[j].WorkingDay {
			return !buckets[i].WorkingDay
		}
		return !buckets[i].Holiday && buckets[j].Holiday
	})
	return buckets
}

// WeatherLabelOf maps a weather situation code to its label. Anything other
// than 1, 2 or 3 lands in the heavy bucket.
func WeatherLabelOf(code int) models.WeatherLabel {
	switch code {
	case 1:
		return models.WeatherClearCloudy
	case 2:
		return models.WeatherMistCloudy
	case 3:
		return models.WeatherLightRainSnow
	default:
		return models.WeatherHeavy
	}
}

// KnownWeatherCode reports whether code is one of the documented 1-4 codes.
func KnownWeatherCode(code int) bool {
	return code >= 1 && code <= 4
}

// AggregateWeather groups records by weather code and sums the hourly counts.
func AggregateWeather(records []models.Record) []models.WeatherBucket {
	sums := make(map[int]*models.WeatherBucket)
	for _, rec := range records {
		b, ok := sums[rec.WeatherSit]
		if !ok {
			b = &models.WeatherBucket{Code: rec.WeatherSit, Label: WeatherLabelOf(rec.WeatherSit)}
			sums[rec.WeatherSit] = b
		}
		b.Count += rec.CountHour
		b.Casual += rec.CasualHour
		b.Registered += rec.RegisteredHour
	}

	buckets := make([]models.WeatherBucket, 0, len(sums))
	for _, b := range sums {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Code < buckets[j].Code })
	return buckets
}

// UnknownWeatherCodes returns the codes present in buckets outside 1-4.
func UnknownWeatherCodes(buckets []models.WeatherBucket) []int {
	var codes []int
	for _, b := range buckets {
		if !KnownWeatherCode(b.Code) {
			codes = append(codes, b.Code)
		}
	}
	return codes
}
