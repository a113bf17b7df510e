package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lox/bikeshare/internal/models"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestWorkbook(t *testing.T) {
	d := Data{
		Range: models.DateRange{Start: day("2011-01-01"), End: day("2011-01-02")},
		Records: []models.Record{
			{Date: day("2011-01-01"), Hour: 0, WeatherSit: 1, CountDay: 100, CasualDay: 30, RegisteredDay: 70, CountHour: 16, CasualHour: 3, RegisteredHour: 13, FeelTemp: 18.18},
			{Date: day("2011-01-02"), Hour: 0, WorkingDay: true, WeatherSit: 2, CountDay: 200, CasualDay: 50, RegisteredDay: 150, CountHour: 40, CasualHour: 8, RegisteredHour: 32},
		},
		Daily: []models.DailyPoint{{Date: day("2011-01-01"), Registered: 70, Casual: 30, Count: 100}},
		DayType: []models.DayTypeBucket{
			{DayType: models.DayTypeWeekend, Count: 100, Casual: 30, Registered: 70},
			{WorkingDay: true, DayType: models.DayTypeWorking, Count: 200, Casual: 50, Registered: 150},
		},
		Weather: []models.WeatherBucket{{Code: 1, Label: models.WeatherClearCloudy, Count: 16, Casual: 3, Registered: 13}},
	}

	var buf bytes.Buffer
	if err := Workbook(&buf, d); err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetRecords, SheetDaily, SheetDayType, SheetWeather}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i], want[i])
		}
	}

	rows, err := f.GetRows(SheetRecords)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("records rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "dteday" || rows[1][0] != "2011-01-01" || rows[2][2] != "1" {
		t.Errorf("unexpected records rows: %v", rows)
	}

	rows, err = f.GetRows(SheetDayType)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[2][2] != "working" || rows[2][3] != "200" {
		t.Errorf("unexpected day type rows: %v", rows)
	}

	v, err := f.GetCellValue(SheetWeather, "B2")
	if err != nil || v != "clear_cloudy" {
		t.Errorf("weather B2 = %q, %v", v, err)
	}
}

func TestWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Workbook(&buf, Data{}); err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(SheetWeather)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestFilename(t *testing.T) {
	r := models.DateRange{Start: day("2011-01-01"), End: day("2011-12-31")}
	if got := Filename(r); got != "bikeshare_2011-01-01_2011-12-31.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}
