package imagegen

import (
	"bytes"
	"fmt"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/lox/bikeshare/internal/analysis"
	"github.com/lox/bikeshare/internal/models"
)

const (
	ChartWidth  = 960
	ChartHeight = 420
)

var (
	colorRegistered = drawing.ColorFromHex("1f77b4")
	colorCasual     = drawing.ColorFromHex("ff7f0e")
	colorTotal      = chart.ColorAlternateGray
)

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
}

func yRange(max float64) *chart.ContinuousRange {
	if max <= 0 {
		max = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: max * 1.1}
}

func render(c chart.Chart) ([]byte, error) {
	c.Width = ChartWidth
	c.Height = ChartHeight
	c.Background = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
	c.Elements = []chart.Renderable{chart.Legend(&c)}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDailyPNG draws registered and casual daily totals over time.
func RenderDailyPNG(points []models.DailyPoint) ([]byte, error) {
	if len(points) == 0 {
		return RenderEmpty("Daily Count", "No rentals in the selected range")
	}

	times := make([]time.Time, 0, len(points)+1)
	registered := make([]float64, 0, len(points)+1)
	casual := make([]float64, 0, len(points)+1)
	var max float64
	for _, p := range points {
		times = append(times, p.Date)
		registered = append(registered, p.Registered)
		casual = append(casual, p.Casual)
		max = maxOf(max, p.Registered, p.Casual)
	}
	if len(points) == 1 {
		// A single x value has no range; extend it by a day.
		times = append(times, times[0].Add(24*time.Hour))
		registered = append(registered, registered[0])
		casual = append(casual, casual[0])
	}

	return render(chart.Chart{
		Title: "Daily Count",
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{Name: "Rentals", Range: yRange(max)},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Registered", XValues: times, YValues: registered, Style: lineStyle(colorRegistered)},
			chart.TimeSeries{Name: "Casual", XValues: times, YValues: casual, Style: lineStyle(colorCasual)},
		},
	})
}

// RenderHourlyPNG draws the hourly breakdown of a single date.
func RenderHourlyPNG(date time.Time, points []models.HourlyPoint) ([]byte, error) {
	title := "Hourly Count " + date.Format("2006-01-02")
	if len(points) == 0 {
		return RenderEmpty(title, "No hourly rows for this date")
	}

	var hours, registered, casual, total []float64
	var max float64
	for _, p := range points {
		hours = append(hours, float64(p.Hour))
		registered = append(registered, float64(p.Registered))
		casual = append(casual, float64(p.Casual))
		total = append(total, float64(p.Count))
		max = maxOf(max, float64(p.Count))
	}
	if len(points) == 1 {
		hours = append(hours, hours[0]+1)
		registered = append(registered, registered[0])
		casual = append(casual, casual[0])
		total = append(total, total[0])
	}

	return render(chart.Chart{
		Title: title,
		XAxis: chart.XAxis{
			Name: "Hour",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%02.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{Name: "Rentals", Range: yRange(max)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "Registered", XValues: hours, YValues: registered, Style: lineStyle(colorRegistered)},
			chart.ContinuousSeries{Name: "Casual", XValues: hours, YValues: casual, Style: lineStyle(colorCasual)},
			chart.ContinuousSeries{Name: "Total", XValues: hours, YValues: total, Style: lineStyle(colorTotal)},
		},
	})
}

type barGroup struct {
	label              string
	casual, registered int
}

func barStyle(col drawing.Color) chart.Style {
	return chart.Style{FillColor: col, StrokeColor: col}
}

// barValues lays groups out as adjacent registered and casual bars. Empty
// groups keep their slots as zero-height bars.
func barValues(groups []barGroup) ([]chart.Value, float64) {
	values := make([]chart.Value, 0, 2*len(groups))
	var max float64
	for _, g := range groups {
		values = append(values,
			chart.Value{Label: g.label, Value: float64(g.registered), Style: barStyle(colorRegistered)},
			chart.Value{Value: float64(g.casual), Style: barStyle(colorCasual)},
		)
		max = maxOf(max, float64(g.registered), float64(g.casual))
	}
	return values, max
}

func renderGroupedBars(title string, groups []barGroup) ([]byte, error) {
	if len(groups) == 0 {
		return RenderEmpty(title, "No rentals in the selected range")
	}
	values, max := barValues(groups)

	bc := chart.BarChart{
		Title:      title + " (blue registered, orange casual)",
		Width:      ChartWidth,
		Height:     ChartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   48,
		BarSpacing: 16,
		YAxis:      chart.YAxis{Range: yRange(max)},
		Bars:       values,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDayTypePNG draws casual and registered totals per day type.
func RenderDayTypePNG(buckets []models.DayTypeBucket) ([]byte, error) {
	groups := make([]barGroup, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, barGroup{label: string(b.DayType), casual: b.Casual, registered: b.Registered})
	}
	return renderGroupedBars("Rentals by Day Type", groups)
}

// RenderWeatherPNG draws casual and registered totals per weather label.
func RenderWeatherPNG(buckets []models.WeatherBucket) ([]byte, error) {
	groups := make([]barGroup, 0, len(buckets))
	for _, b := range buckets {
		label := string(b.Label)
		if !analysis.KnownWeatherCode(b.Code) {
			label = fmt.Sprintf("%s (%d)", label, b.Code)
		}
		groups = append(groups, barGroup{label: label, casual: b.Casual, registered: b.Registered})
	}
	return renderGroupedBars("Rentals by Weather", groups)
}

func maxOf(cur float64, vals ...float64) float64 {
	for _, v := range vals {
		if v > cur {
			cur = v
		}
	}
	return cur
}
