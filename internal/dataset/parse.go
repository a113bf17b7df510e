package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lox/bikeshare/internal/models"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

const (
	colDate           = "dteday"
	colHour           = "hr"
	colWorkingDay     = "workingday_day"
	colHoliday        = "holiday_day"
	colWeather        = "weathersit_hour"
	colCountDay       = "cnt_day"
	colCasualDay      = "casual_day"
	colRegisteredDay  = "registered_day"
	colCountHour      = "cnt_hour"
	colCasualHour     = "casual_hour"
	colRegisteredHour = "registered_hour"
	colFeelTemp       = "atemp_original_day"
	colHumidity       = "hum_original_day"
	colWindSpeed      = "windspeed_original_day"
)

// RequiredColumns lists the header names ParseCSV needs. Other columns are ignored.
var RequiredColumns = []string{
	colDate, colHour, colWorkingDay, colHoliday, colWeather,
	colCountDay, colCasualDay, colRegisteredDay,
	colCountHour, colCasualHour, colRegisteredHour,
	colFeelTemp, colHumidity, colWindSpeed,
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// ParseCSV reads a headered CSV of hourly rows. Any bad row fails the whole
// parse; every row error is reported, prefixed with its line number.
func ParseCSV(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	var (
		records []models.Record
		errs    *multierror.Error
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError already carries the line number.
			errs = multierror.Append(errs, err)
			continue
		}
		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		records = append(records, rec)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return records, nil
}

type rowParser struct {
	row   []string
	index map[string]int
	err   error
}

func (p *rowParser) field(col string) string {
	return strings.TrimSpace(p.row[p.index[col]])
}

func (p *rowParser) fail(col string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
}

func (p *rowParser) intValue(col string) int {
	v := p.field(col)
	n, err := strconv.Atoi(v)
	if err == nil {
		return n
	}
	// Some exports write counts as 12.0.
	f, ferr := strconv.ParseFloat(v, 64)
	if ferr != nil || f != math.Trunc(f) {
		p.fail(col, fmt.Errorf("invalid integer %q", v))
		return 0
	}
	return int(f)
}

func (p *rowParser) floatValue(col string) float64 {
	v := p.field(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(col, fmt.Errorf("invalid number %q", v))
	}
	return f
}

func (p *rowParser) flagValue(col string) bool {
	v := strings.ToLower(p.field(col))
	switch v {
	case "1", "1.0", "true":
		return true
	case "0", "0.0", "false":
		return false
	}
	p.fail(col, fmt.Errorf("invalid flag %q", v))
	return false
}

func (p *rowParser) dateValue(col string) time.Time {
	v := p.field(col)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	p.fail(col, fmt.Errorf("invalid date %q", v))
	return time.Time{}
}

func parseRow(row []string, index map[string]int) (models.Record, error) {
	p := &rowParser{row: row, index: index}
	rec := models.Record{
		Date:           p.dateValue(colDate),
		Hour:           p.intValue(colHour),
		WorkingDay:     p.flagValue(colWorkingDay),
		Holiday:        p.flagValue(colHoliday),
		WeatherSit:     p.intValue(colWeather),
		CountDay:       p.intValue(colCountDay),
		CasualDay:      p.intValue(colCasualDay),
		RegisteredDay:  p.intValue(colRegisteredDay),
		CountHour:      p.intValue(colCountHour),
		CasualHour:     p.intValue(colCasualHour),
		RegisteredHour: p.intValue(colRegisteredHour),
		FeelTemp:       p.floatValue(colFeelTemp),
		Humidity:       p.floatValue(colHumidity),
		WindSpeed:      p.floatValue(colWindSpeed),
	}
	return rec, p.err
}
