package analysis

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lox/bikeshare/internal/models"
)

// Covariates accepted by Correlate.
const (
	CovariateFeelTemp  = "feel_temp"
	CovariateHumidity  = "humidity"
	CovariateWindSpeed = "windspeed"
)

var Covariates = []string{CovariateFeelTemp, CovariateHumidity, CovariateWindSpeed}

func covariateValue(rec models.Record, covariate string) (float64, error) {
	switch covariate {
	case CovariateFeelTemp:
		return rec.FeelTemp, nil
	case CovariateHumidity:
		return rec.Humidity, nil
	case CovariateWindSpeed:
		return rec.WindSpeed, nil
	default:
		return 0, fmt.Errorf("unknown covariate %q", covariate)
	}
}

// Correlate pairs a day-level covariate with the daily total, one point per
// date using the first row seen for that date, and computes Pearson's r.
func Correlate(records []models.Record, covariate string) (models.Correlation, error) {
	c := models.Correlation{Covariate: covariate, Points: []models.ScatterPoint{}}
	if _, err := covariateValue(models.Record{}, covariate); err != nil {
		return c, err
	}
	seen := make(map[time.Time]bool)
	var xs, ys []float64
	for _, rec := range records {
		d := Day(rec.Date)
		if seen[d] {
			continue
		}
		seen[d] = true
		x, _ := covariateValue(rec, covariate)
		y := float64(rec.CountDay)
		xs = append(xs, x)
		ys = append(ys, y)
		c.Points = append(c.Points, models.ScatterPoint{X: x, Y: y})
	}

	if len(xs) < 2 {
		return c, nil
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return c, nil
	}
	c.Coefficient = r
	c.Valid = true
	return c, nil
}
