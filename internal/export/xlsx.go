package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/lox/bikeshare/internal/models"
)

const (
	SheetRecords = "Records"
	SheetDaily   = "Daily"
	SheetDayType = "DayType"
	SheetWeather = "Weather"
)

// Data is everything written to a workbook for one range.
type Data struct {
	Range   models.DateRange
	Records []models.Record
	Daily   []models.DailyPoint
	DayType []models.DayTypeBucket
	Weather []models.WeatherBucket
}

// Workbook writes d as an xlsx file with one sheet per table.
func Workbook(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetRecords); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetDaily, SheetDayType, SheetWeather} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	records := make([][]interface{}, 0, len(d.Records))
	for _, r := range d.Records {
		records = append(records, []interface{}{
			r.Date.Format("2006-01-02"), r.Hour, flag(r.WorkingDay), flag(r.Holiday), r.WeatherSit,
			r.CountDay, r.CasualDay, r.RegisteredDay, r.CountHour, r.CasualHour, r.RegisteredHour,
			r.FeelTemp, r.Humidity, r.WindSpeed,
		})
	}
	if err := writeTable(f, SheetRecords, []interface{}{
		"dteday", "hr", "workingday_day", "holiday_day", "weathersit_hour",
		"cnt_day", "casual_day", "registered_day", "cnt_hour", "casual_hour", "registered_hour",
		"atemp_original_day", "hum_original_day", "windspeed_original_day",
	}, records); err != nil {
		return err
	}

	daily := make([][]interface{}, 0, len(d.Daily))
	for _, p := range d.Daily {
		daily = append(daily, []interface{}{p.Date.Format("2006-01-02"), p.Registered, p.Casual, p.Count})
	}
	if err := writeTable(f, SheetDaily, []interface{}{"date", "registered", "casual", "count"}, daily); err != nil {
		return err
	}

	dayType := make([][]interface{}, 0, len(d.DayType))
	for _, b := range d.DayType {
		dayType = append(dayType, []interface{}{flag(b.WorkingDay), flag(b.Holiday), string(b.DayType), b.Count, b.Casual, b.Registered})
	}
	if err := writeTable(f, SheetDayType, []interface{}{"workingday_day", "holiday_day", "day_type", "cnt_day", "casual_day", "registered_day"}, dayType); err != nil {
		return err
	}

	weather := make([][]interface{}, 0, len(d.Weather))
	for _, b := range d.Weather {
		weather = append(weather, []interface{}{b.Code, string(b.Label), b.Count, b.Casual, b.Registered})
	}
	if err := writeTable(f, SheetWeather, []interface{}{"weathersit_hour", "weather", "cnt_hour", "casual_hour", "registered_hour"}, weather); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename names a workbook after its range.
func Filename(r models.DateRange) string {
	return "bikeshare_" + r.Key() + ".xlsx"
}

func writeTable(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return fmt.Errorf("%s widths: %w", sheet, err)
	}
	return nil
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
