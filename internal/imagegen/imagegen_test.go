package imagegen

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/lox/bikeshare/internal/models"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("missing PNG signature")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderDailyPNG(t *testing.T) {
	tests := []struct {
		name   string
		points []models.DailyPoint
	}{
		{"empty", nil},
		{"single", []models.DailyPoint{{Date: day("2011-01-01"), Registered: 70, Casual: 30, Count: 100}}},
		{"several", []models.DailyPoint{
			{Date: day("2011-01-01"), Registered: 70, Casual: 30, Count: 100},
			{Date: day("2011-01-02"), Registered: 150, Casual: 50, Count: 200},
			{Date: day("2011-01-03"), Registered: 120, Casual: 20, Count: 140},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RenderDailyPNG(tt.points)
			if err != nil {
				t.Fatalf("RenderDailyPNG: %v", err)
			}
			w, h := decodeSize(t, data)
			if w != ChartWidth || h != ChartHeight {
				t.Errorf("size = %dx%d", w, h)
			}
		})
	}
}

func TestRenderHourlyPNG(t *testing.T) {
	points := []models.HourlyPoint{
		{Hour: 0, Registered: 13, Casual: 3, Count: 16},
		{Hour: 1, Registered: 32, Casual: 8, Count: 40},
		{Hour: 2, Registered: 27, Casual: 5, Count: 32},
	}
	data, err := RenderHourlyPNG(day("2011-01-01"), points)
	if err != nil {
		t.Fatalf("RenderHourlyPNG: %v", err)
	}
	decodeSize(t, data)

	if _, err := RenderHourlyPNG(day("2011-01-01"), nil); err != nil {
		t.Fatalf("empty hourly: %v", err)
	}
}

func TestRenderBarPNGs(t *testing.T) {
	dayTypes := []models.DayTypeBucket{
		{DayType: models.DayTypeWeekend, Count: 100, Casual: 30, Registered: 70},
		{WorkingDay: true, DayType: models.DayTypeWorking, Count: 200, Casual: 50, Registered: 150},
	}
	data, err := RenderDayTypePNG(dayTypes)
	if err != nil {
		t.Fatalf("RenderDayTypePNG: %v", err)
	}
	decodeSize(t, data)

	weather := []models.WeatherBucket{
		{Code: 1, Label: models.WeatherClearCloudy, Count: 10, Casual: 2, Registered: 8},
		{Code: 9, Label: models.WeatherHeavy, Count: 1, Casual: 0, Registered: 1},
	}
	data, err = RenderWeatherPNG(weather)
	if err != nil {
		t.Fatalf("RenderWeatherPNG: %v", err)
	}
	decodeSize(t, data)

	if _, err := RenderWeatherPNG(nil); err != nil {
		t.Fatalf("empty weather: %v", err)
	}
}

// barHeights returns the height in pixels of each contiguous run of columns
// painted in col, left to right.
func barHeights(t *testing.T, data []byte, col color.Color) []int {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := color.RGBAModel.Convert(col)
	b := img.Bounds()

	var heights []int
	inRun := false
	for x := b.Min.X; x < b.Max.X; x++ {
		n := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if color.RGBAModel.Convert(img.At(x, y)) == want {
				n++
			}
		}
		switch {
		case n > 0 && !inRun:
			heights = append(heights, n)
			inRun = true
		case n > 0:
			heights[len(heights)-1] = max(heights[len(heights)-1], n)
		default:
			inRun = false
		}
	}
	return heights
}

func TestRenderDayTypePNG_BarHeightsFollowTotals(t *testing.T) {
	data, err := RenderDayTypePNG([]models.DayTypeBucket{
		{DayType: models.DayTypeWeekend, Count: 100, Casual: 30, Registered: 70},
		{WorkingDay: true, DayType: models.DayTypeWorking, Count: 300, Casual: 50, Registered: 250},
	})
	if err != nil {
		t.Fatalf("RenderDayTypePNG: %v", err)
	}

	heights := barHeights(t, data, colorRegistered)
	if len(heights) != 2 {
		t.Fatalf("registered bars = %v, want 2", heights)
	}
	if heights[0] >= heights[1] {
		t.Fatalf("registered heights = %v, want weekend shorter than working", heights)
	}
	ratio := float64(heights[1]) / float64(heights[0])
	if math.Abs(ratio-250.0/70.0) > 0.25 {
		t.Errorf("height ratio = %.2f, want about %.2f", ratio, 250.0/70.0)
	}
}

func TestBarValues_KeepsEmptyGroups(t *testing.T) {
	values, top := barValues([]barGroup{
		{label: "weekend"},
		{label: "working day", casual: 50, registered: 150},
	})
	if len(values) != 4 {
		t.Fatalf("len(values) = %d, want 4", len(values))
	}
	if values[0].Label != "weekend" || values[0].Value != 0 || values[1].Value != 0 {
		t.Errorf("empty group = %+v, %+v", values[0], values[1])
	}
	if values[2].Value != 150 || values[3].Value != 50 {
		t.Errorf("working day = %v, %v", values[2].Value, values[3].Value)
	}
	if top != 150 {
		t.Errorf("max = %v, want 150", top)
	}

	data, err := RenderWeatherPNG([]models.WeatherBucket{
		{Code: 1, Label: models.WeatherClearCloudy, Count: 200, Casual: 50, Registered: 150},
		{Code: 3, Label: models.WeatherLightRainSnow},
	})
	if err != nil {
		t.Fatalf("RenderWeatherPNG: %v", err)
	}
	if heights := barHeights(t, data, colorRegistered); len(heights) != 1 {
		t.Errorf("registered bars = %v, want only the non-empty one painted", heights)
	}
}

func TestRenderShareCard(t *testing.T) {
	s := models.Summary{
		Range:       models.DateRange{Start: day("2011-01-01"), End: day("2012-12-31")},
		Rows:        17379,
		Days:        731,
		TotalHourly: 3292679,
		Casual:      620017,
		Registered:  2672662,
		BusiestDate: day("2012-09-15"),
		BusiestDay:  8714,
	}
	data, err := RenderShareCard(s)
	if err != nil {
		t.Fatalf("RenderShareCard: %v", err)
	}
	w, h := decodeSize(t, data)
	if w != CardWidth || h != CardHeight {
		t.Errorf("size = %dx%d, want %dx%d", w, h, CardWidth, CardHeight)
	}
}

func TestCache(t *testing.T) {
	c := NewCache(5 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Set("a", []byte("png"))
	if got, ok := c.Get("a"); !ok || string(got) != "png" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	now = now.Add(6 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}

	c.Set("b", []byte("x"))
	c.mu.RLock()
	_, stale := c.entries["a"]
	c.mu.RUnlock()
	if stale {
		t.Error("expired entry not evicted on Set")
	}
}
